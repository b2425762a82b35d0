package datastore

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tphakala/imagedb-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResolveMediaID maps a media file's natural name to its stable identifier.
// A name seen before returns the existing identifier so re-ingestion updates
// in place; an unseen name gets a freshly minted UUID. The new identifier is
// not persisted here, that happens with the caller's subsequent upsert.
func (ds *DataStore) ResolveMediaID(db *gorm.DB, name string) (string, bool, error) {
	var media MediaFile
	err := db.Select("id").Where("name = ?", name).First(&media).Error
	if err == nil {
		return media.ID, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, errors.New(fmt.Errorf("resolving media id for %q: %w", name, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("media_name", name).
			Build()
	}
	return uuid.NewString(), false, nil
}

// UpsertMedia inserts a media row, or overwrites all non-key attributes when
// a row with the same ID already exists. The ID itself is never updated.
func (ds *DataStore) UpsertMedia(db *gorm.DB, media *MediaFile) error {
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "camera_id", "date", "time", "file_type", "file_size",
			"blob_link", "dataset", "processed",
		}),
	}).Create(media).Error
	if err != nil {
		return errors.New(fmt.Errorf("upserting media %q: %w", media.Name, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("media_id", media.ID).
			Context("media_name", media.Name).
			Build()
	}
	return nil
}

// GetMedia retrieves a media row by its stable identifier.
func (ds *DataStore) GetMedia(id string) (MediaFile, error) {
	var media MediaFile
	if err := ds.DB.First(&media, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MediaFile{}, errors.Newf("media %s not found", id).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return MediaFile{}, fmt.Errorf("getting media %s: %w", id, err)
	}
	return media, nil
}

// GetMediaByName retrieves a media row by its natural name key.
func (ds *DataStore) GetMediaByName(name string) (MediaFile, error) {
	var media MediaFile
	if err := ds.DB.First(&media, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MediaFile{}, errors.Newf("media named %q not found", name).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return MediaFile{}, fmt.Errorf("getting media named %q: %w", name, err)
	}
	return media, nil
}
