package datastore

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tphakala/imagedb-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// relationBatchSize limits rows per INSERT to stay under SQL parameter limits.
const relationBatchSize = 400

// GetOrCreateFeature resolves a feature name to its row, creating the row on
// first use. Creation is race-tolerant: when a concurrent caller wins the
// insert on the unique name constraint, the loser re-reads and returns the
// winner's identifier so one name never maps to two identifiers.
func (ds *DataStore) GetOrCreateFeature(db *gorm.DB, name string) (*Feature, error) {
	var feature Feature

	err := db.Where("name = ?", name).First(&feature).Error
	if err == nil {
		return &feature, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(fmt.Errorf("looking up feature %q: %w", name, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("feature_name", name).
			Build()
	}

	feature = Feature{
		ID:   uuid.NewString(),
		Name: name,
	}

	createErr := db.Create(&feature).Error
	if createErr != nil {
		// Another caller may have created it between our read and write.
		// Re-read; if that also misses, the create failed for another reason.
		findErr := db.Where("name = ?", name).First(&feature).Error
		if findErr != nil {
			return nil, errors.New(fmt.Errorf("creating feature %q: %w", name, createErr)).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("feature_name", name).
				Build()
		}
	}

	return &feature, nil
}

// InsertMediaFeatures stores feature-media bindings, ignoring pairs that
// already exist so repeated ingestion leaves exactly one relation row.
func (ds *DataStore) InsertMediaFeatures(db *gorm.DB, relations []MediaFeature) error {
	if len(relations) == 0 {
		return nil
	}

	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(relations, relationBatchSize).Error
	if err != nil {
		return errors.New(fmt.Errorf("inserting %d media-feature relations: %w", len(relations), err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "insert_media_features").
			Build()
	}
	return nil
}

// MediaFeatures returns the features bound to a media file, name-ordered.
func (ds *DataStore) MediaFeatures(mediaID string) ([]Feature, error) {
	var features []Feature
	err := ds.DB.Table("features").
		Joins("INNER JOIN media_features ON media_features.feature_id = features.id").
		Where("media_features.media_id = ?", mediaID).
		Order("features.name ASC").
		Find(&features).Error
	if err != nil {
		return nil, fmt.Errorf("listing features for media %s: %w", mediaID, err)
	}
	return features, nil
}
