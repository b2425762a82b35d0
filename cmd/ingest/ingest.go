package ingest

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tphakala/imagedb-go/internal/blobstore"
	"github.com/tphakala/imagedb-go/internal/conf"
	"github.com/tphakala/imagedb-go/internal/datastore"
	"github.com/tphakala/imagedb-go/internal/ingest"
	"github.com/tphakala/imagedb-go/internal/observability/metrics"
)

// Command creates the ingest command for loading a media batch.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		bucket      string
		sourceDir   string
		featuresCSV string
	)

	cmd := &cobra.Command{
		Use:   "ingest [manifest.csv]",
		Short: "Ingest a media batch into the catalog",
		Long: "Provide a CSV media manifest to catalog a batch of images or videos. " +
			"All metadata is committed before any payload is uploaded.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := ingest.ReadMediaManifest(args[0])
			if err != nil {
				return err
			}

			var matrix *ingest.FeatureMatrix
			if featuresCSV != "" {
				matrix, err = ingest.ReadFeatureMatrix(featuresCSV, settings.Ingest.PresentFlag)
				if err != nil {
					return err
				}
			}

			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return fmt.Errorf("opening metadata store: %w", err)
			}
			defer store.Close()

			blobs, err := blobstore.New(&settings.BlobStore)
			if err != nil {
				return err
			}

			catalogMetrics, err := metrics.NewCatalogMetrics(prometheus.NewRegistry())
			if err != nil {
				return fmt.Errorf("initializing metrics: %w", err)
			}

			pipeline := ingest.NewPipeline(store, blobs, catalogMetrics, settings.Ingest.UploadWorkers)
			result, err := pipeline.IngestMedia(cmd.Context(), bucket, sourceDir, rows, matrix)
			if err != nil {
				return err
			}

			fmt.Printf("Committed %d rows, uploaded %d payloads, %d failures.\n",
				len(result.Rows), result.Uploaded(), result.Failed())
			for i := range result.Rows {
				if result.Rows[i].Err != nil {
					fmt.Printf("  %s: %v\n", result.Rows[i].Name, result.Rows[i].Err)
				}
			}
			if result.Failed() > 0 {
				return fmt.Errorf("%d of %d payload uploads failed", result.Failed(), len(result.Rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Destination bucket for payloads")
	cmd.Flags().StringVarP(&sourceDir, "source", "s", ".", "Directory holding the payload files")
	cmd.Flags().StringVarP(&featuresCSV, "features", "f", "", "Optional feature matrix CSV")
	_ = cmd.MarkFlagRequired("bucket")

	return cmd
}
