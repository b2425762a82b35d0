package inittables

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tphakala/imagedb-go/internal/conf"
	"github.com/tphakala/imagedb-go/internal/datastore"
)

// Command creates the init-tables command, which creates any missing catalog
// tables in the configured metadata store.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "init-tables",
		Short: "Create missing catalog tables in the metadata store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return fmt.Errorf("opening metadata store: %w", err)
			}
			defer store.Close()

			if err := store.InitTables(); err != nil {
				return fmt.Errorf("initializing tables: %w", err)
			}
			fmt.Println("Catalog tables are ready.")
			return nil
		},
	}
}
