// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"

	"github.com/tphakala/imagedb-go/internal/conf"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations the catalog performs against the metadata store. Methods that
// mutate rows take an explicit *gorm.DB session handle so callers can scope
// them to a transaction; Session() hands out the default handle for
// single-statement use.
type Interface interface {
	Open() error
	Close() error
	InitTables() error
	Session() *gorm.DB
	Transaction(fn func(tx *gorm.DB) error) error

	UpsertCameras(db *gorm.DB, cameras []Camera) error
	GetCamera(cameraID int) (Camera, error)

	ResolveMediaID(db *gorm.DB, name string) (id string, existing bool, err error)
	UpsertMedia(db *gorm.DB, media *MediaFile) error
	GetMedia(id string) (MediaFile, error)
	GetMediaByName(name string) (MediaFile, error)

	GetOrCreateFeature(db *gorm.DB, name string) (*Feature, error)
	InsertMediaFeatures(db *gorm.DB, relations []MediaFeature) error
	MediaFeatures(mediaID string) ([]Feature, error)

	SearchMedia(filters *SearchFilters) ([]MediaResult, QueryStatus, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		// Guarded against by conf.ValidateSettings
		return nil
	}
}

// Session returns the default database handle for single-statement operations.
func (ds *DataStore) Session() *gorm.DB {
	return ds.DB
}

// Transaction runs fn inside a single database transaction. Any error
// returned by fn rolls back every statement issued through the tx handle.
func (ds *DataStore) Transaction(fn func(tx *gorm.DB) error) error {
	return ds.DB.Transaction(fn)
}

// InitTables creates any catalog table that does not yet exist. Existence is
// probed explicitly per table rather than inferred from statement errors.
func (ds *DataStore) InitTables() error {
	migrator := ds.DB.Migrator()
	for _, model := range []any{&Camera{}, &MediaFile{}, &Feature{}, &MediaFeature{}} {
		if migrator.HasTable(model) {
			continue
		}
		if err := ds.DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

// close closes the underlying SQL connection shared by both dialect stores.
func (ds *DataStore) close() error {
	if ds.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	return sqlDB.Close()
}
