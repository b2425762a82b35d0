package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "imagedb.db"
	s.BlobStore.Endpoint = "localhost:9000"
	s.BlobStore.Timeout = 60
	s.Ingest.UploadWorkers = 4
	s.Ingest.PresentFlag = "1"
	return s
}

func TestValidateSettingsAccepted(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))

	mysql := validSettings()
	mysql.Output.SQLite.Enabled = false
	mysql.Output.MySQL.Enabled = true
	mysql.Output.MySQL.Host = "localhost"
	mysql.Output.MySQL.Port = "3306"
	mysql.Output.MySQL.Database = "imagedb"
	require.NoError(t, ValidateSettings(mysql))
}

func TestValidateSettingsNoBackend(t *testing.T) {
	s := validSettings()
	s.Output.SQLite.Enabled = false

	err := ValidateSettings(s)
	assert.ErrorIs(t, err, ErrNoOutputEnabled)
}

func TestValidateSettingsRejected(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"both backends enabled", func(s *Settings) { s.Output.MySQL.Enabled = true }},
		{"empty sqlite path", func(s *Settings) { s.Output.SQLite.Path = "" }},
		{"empty blobstore endpoint", func(s *Settings) { s.BlobStore.Endpoint = "" }},
		{"zero blobstore timeout", func(s *Settings) { s.BlobStore.Timeout = 0 }},
		{"zero upload workers", func(s *Settings) { s.Ingest.UploadWorkers = 0 }},
		{"empty present flag", func(s *Settings) { s.Ingest.PresentFlag = "" }},
		{"mysql without host", func(s *Settings) {
			s.Output.SQLite.Enabled = false
			s.Output.MySQL.Enabled = true
			s.Output.MySQL.Database = "imagedb"
			s.Output.MySQL.Port = "3306"
		}},
		{"mysql without database", func(s *Settings) {
			s.Output.SQLite.Enabled = false
			s.Output.MySQL.Enabled = true
			s.Output.MySQL.Host = "localhost"
			s.Output.MySQL.Port = "3306"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSettings()
			tc.mutate(s)
			assert.Error(t, ValidateSettings(s))
		})
	}
}
