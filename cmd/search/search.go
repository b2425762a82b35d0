package search

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tphakala/imagedb-go/internal/blobstore"
	"github.com/tphakala/imagedb-go/internal/conf"
	"github.com/tphakala/imagedb-go/internal/datastore"
	"github.com/tphakala/imagedb-go/internal/export"
	"github.com/tphakala/imagedb-go/internal/observability/metrics"
)

// Command creates the search command for querying the catalog.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		filters   datastore.SearchFilters
		cameraID  int
		latitude  float64
		longitude float64
		output    string
		download  string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog by camera, capture and feature criteria",
		Long: "Combine any subset of filters to retrieve matching media. " +
			"Results can be exported to CSV and their payloads downloaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("camera-id") {
				filters.CameraID = &cameraID
			}
			if cmd.Flags().Changed("latitude") {
				filters.Latitude = &latitude
			}
			if cmd.Flags().Changed("longitude") {
				filters.Longitude = &longitude
			}

			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return fmt.Errorf("opening metadata store: %w", err)
			}
			defer store.Close()

			catalogMetrics, err := metrics.NewCatalogMetrics(prometheus.NewRegistry())
			if err != nil {
				return fmt.Errorf("initializing metrics: %w", err)
			}

			start := time.Now()
			results, status, err := store.SearchMedia(&filters)
			catalogMetrics.RecordSearch(status.String(), time.Since(start).Seconds(), len(results))
			if err != nil {
				return err
			}
			if status == datastore.QueryNoMatch {
				fmt.Println("No media matched the given filters.")
				return nil
			}
			fmt.Printf("Matched %d media files.\n", len(results))

			if output != "" {
				if err := export.WriteResultsCSV(output, results); err != nil {
					return err
				}
				fmt.Printf("Wrote results to %s.\n", output)
			}

			if download != "" {
				blobs, err := blobstore.New(&settings.BlobStore)
				if err != nil {
					return err
				}
				failed := 0
				for _, res := range export.DownloadResults(cmd.Context(), blobs, download, results) {
					catalogMetrics.RecordBlobDownload(downloadStatus(res.Err))
					if res.Err != nil {
						failed++
						fmt.Printf("  %s: %v\n", res.Request.FileName, res.Err)
					}
				}
				fmt.Printf("Downloaded %d of %d payloads to %s.\n",
					len(results)-failed, len(results), download)
				if failed > 0 {
					return fmt.Errorf("%d of %d payload downloads failed", failed, len(results))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filters.Date, "date", "", "Capture date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filters.StartTime, "start-time", "", "Capture time range start, HH:MM:SS")
	cmd.Flags().StringVar(&filters.EndTime, "end-time", "", "Capture time range end, HH:MM:SS")
	cmd.Flags().StringVar(&filters.Country, "country", "", "Camera country")
	cmd.Flags().StringVar(&filters.State, "state", "", "Camera state")
	cmd.Flags().StringVar(&filters.City, "city", "", "Camera city")
	cmd.Flags().IntVar(&cameraID, "camera-id", 0, "Camera identifier")
	cmd.Flags().Float64Var(&latitude, "latitude", 0, "Camera latitude")
	cmd.Flags().Float64Var(&longitude, "longitude", 0, "Camera longitude")
	cmd.Flags().StringSliceVar(&filters.Features, "feature", nil, "Feature name, repeatable; media matching any listed feature qualify")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write results to this CSV file")
	cmd.Flags().StringVar(&download, "download", "", "Download matched payloads into this directory")

	return cmd
}

func downloadStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
