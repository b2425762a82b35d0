// Package conf handles loading and accessing the imagedb-go configuration.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// LogConfig defines the configuration for a log file.
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
	MaxSize int64  // max log size in bytes before rotation
}

// MainSettings contains the main settings for the application.
type MainSettings struct {
	Name string    // name of this node, used in log identification
	Log  LogConfig // main log configuration
}

// SQLiteSettings contains the settings for the SQLite metadata store.
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite
	Path    string // path to SQLite database file
}

// MySQLSettings contains the settings for the MySQL metadata store.
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL
	Username string // username for MySQL connection
	Password string // password for MySQL connection
	Database string // database name
	Host     string // host for MySQL connection
	Port     string // port for MySQL connection
}

// OutputSettings selects the metadata store backend.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// BlobStoreSettings contains the settings for the MinIO object store.
type BlobStoreSettings struct {
	Endpoint  string // host:port of the MinIO server
	AccessKey string // access key for the MinIO server
	SecretKey string // secret key for the MinIO server
	UseSSL    bool   // true to connect over TLS
	Timeout   int    // per-operation timeout in seconds
}

// IngestSettings tunes the ingestion pipeline.
type IngestSettings struct {
	UploadWorkers int    // max concurrent blob uploads after commit
	PresentFlag   string // feature matrix cell value denoting a tagged feature
}

// Settings contains all configuration settings for the application.
type Settings struct {
	Debug bool // true to enable debug logging

	Main      MainSettings
	Output    OutputSettings
	BlobStore BlobStoreSettings
	Ingest    IngestSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file found, run with defaults
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the config file search paths in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user directory: %w", err)
	}
	return []string{
		".",
		filepath.Join(homeDir, ".config", "imagedb-go"),
	}, nil
}

// GetSettings returns the settings loaded by Load, or nil before the first
// successful Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
