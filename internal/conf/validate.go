package conf

import (
	"errors"
	"fmt"
)

// ErrNoOutputEnabled is returned when neither metadata store backend is enabled.
var ErrNoOutputEnabled = errors.New("no metadata store enabled, enable either output.sqlite or output.mysql")

// ValidateSettings checks the loaded settings for obvious misconfiguration.
func ValidateSettings(settings *Settings) error {
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return ErrNoOutputEnabled
	}
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return errors.New("only one metadata store backend may be enabled at a time")
	}

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.New("output.sqlite.path must not be empty")
	}

	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" || settings.Output.MySQL.Port == "" {
			return errors.New("output.mysql.host and output.mysql.port must be set")
		}
		if settings.Output.MySQL.Database == "" {
			return errors.New("output.mysql.database must not be empty")
		}
	}

	if settings.BlobStore.Endpoint == "" {
		return errors.New("blobstore.endpoint must not be empty")
	}
	if settings.BlobStore.Timeout <= 0 {
		return fmt.Errorf("blobstore.timeout must be positive, got %d", settings.BlobStore.Timeout)
	}

	if settings.Ingest.UploadWorkers < 1 {
		return fmt.Errorf("ingest.uploadworkers must be at least 1, got %d", settings.Ingest.UploadWorkers)
	}
	if settings.Ingest.PresentFlag == "" {
		return errors.New("ingest.presentflag must not be empty")
	}

	return nil
}
