package camera

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/imagedb-go/internal/conf"
	"github.com/tphakala/imagedb-go/internal/datastore"
	"github.com/tphakala/imagedb-go/internal/ingest"
	"gorm.io/gorm"
)

// Command creates the camera command for loading camera manifests.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "camera [manifest.csv]",
		Short: "Load a camera manifest into the catalog",
		Long:  "Provide a CSV camera manifest to insert or update the fleet's cameras.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := ingest.ReadCameraManifest(args[0])
			if err != nil {
				return err
			}

			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return fmt.Errorf("opening metadata store: %w", err)
			}
			defer store.Close()

			err = store.Transaction(func(tx *gorm.DB) error {
				return store.UpsertCameras(tx, ingest.ToCameras(rows))
			})
			if err != nil {
				return err
			}
			fmt.Printf("Loaded %d cameras.\n", len(rows))
			return nil
		},
	}
}
