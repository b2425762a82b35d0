package datastore

import (
	"fmt"

	"github.com/tphakala/imagedb-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cameraBatchSize limits rows per INSERT to stay under SQL parameter limits.
const cameraBatchSize = 100

// UpsertCameras inserts the given cameras, overwriting all non-key attributes
// of any camera whose CameraID already exists.
func (ds *DataStore) UpsertCameras(db *gorm.DB, cameras []Camera) error {
	if len(cameras) == 0 {
		return nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "camera_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"country", "state", "city", "latitude", "longitude",
			"resolution_w", "resolution_h",
		}),
	}).CreateInBatches(cameras, cameraBatchSize).Error
	if err != nil {
		return errors.New(fmt.Errorf("upserting %d cameras: %w", len(cameras), err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "upsert_cameras").
			Build()
	}
	return nil
}

// GetCamera retrieves a camera by its external identifier.
func (ds *DataStore) GetCamera(cameraID int) (Camera, error) {
	var camera Camera
	if err := ds.DB.First(&camera, "camera_id = ?", cameraID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Camera{}, errors.Newf("camera %d not found", cameraID).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return Camera{}, fmt.Errorf("getting camera %d: %w", cameraID, err)
	}
	return camera, nil
}
