// model.go this code defines the data model for the catalog
package datastore

// Camera represents a single camera in the fleet. The CameraID is assigned
// by the caller and acts as the external primary key; re-inserting an
// existing CameraID overwrites all non-key attributes.
type Camera struct {
	CameraID    int     `gorm:"column:camera_id;primaryKey"`
	Country     string  `gorm:"size:30;not null"`
	State       string  `gorm:"size:30;not null"`
	City        string  `gorm:"size:30;not null;index:idx_cameras_city"`
	Latitude    float64 `gorm:"not null"`
	Longitude   float64 `gorm:"not null"`
	ResolutionW int     `gorm:"not null"`
	ResolutionH int     `gorm:"not null"`
}

// MediaFile represents one catalog entry for a captured image or video,
// bridging the relational metadata and its blob in the object store.
// ID is immutable once assigned; Name is the natural key used to detect
// re-ingestion of a previously cataloged file.
type MediaFile struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:500;not null;uniqueIndex:idx_media_files_name"`
	CameraID  int    `gorm:"not null;index:idx_media_files_camera"`
	Date      string `gorm:"size:10;not null;index:idx_media_files_date"` // YYYY-MM-DD
	Time      string `gorm:"size:8;not null;index:idx_media_files_time"`  // HH:MM:SS
	FileType  string `gorm:"size:10;not null"`
	FileSize  int64  `gorm:"not null"`
	BlobLink  string `gorm:"size:500;not null"`
	Dataset   string `gorm:"size:500;not null"`
	Processed string `gorm:"size:5;not null"`
}

// Feature is a named, reusable tag applicable to zero or more media files.
// Names are unique and case-sensitive; identifiers are minted lazily on
// first use and stable thereafter.
type Feature struct {
	ID   string `gorm:"primaryKey;size:36"`
	Name string `gorm:"size:100;not null;uniqueIndex:idx_features_name"`
}

// MediaFeature is the many-to-many binding between Feature and MediaFile.
// The composite primary key makes duplicate inserts conflict, which the
// insert path turns into a no-op.
type MediaFeature struct {
	FeatureID string `gorm:"primaryKey;size:36"`
	MediaID   string `gorm:"primaryKey;size:36;index:idx_media_features_media"`
}

// MediaResult is one search result row: the media columns joined with the
// owning camera's attributes. Column order matters to the export surface.
type MediaResult struct {
	ID          string  `gorm:"column:id"`
	Name        string  `gorm:"column:name"`
	CameraID    int     `gorm:"column:camera_id"`
	Date        string  `gorm:"column:date"`
	Time        string  `gorm:"column:time"`
	FileType    string  `gorm:"column:file_type"`
	FileSize    int64   `gorm:"column:file_size"`
	BlobLink    string  `gorm:"column:blob_link"`
	Dataset     string  `gorm:"column:dataset"`
	Processed   string  `gorm:"column:processed"`
	Country     string  `gorm:"column:country"`
	State       string  `gorm:"column:state"`
	City        string  `gorm:"column:city"`
	Latitude    float64 `gorm:"column:latitude"`
	Longitude   float64 `gorm:"column:longitude"`
	ResolutionW int     `gorm:"column:resolution_w"`
	ResolutionH int     `gorm:"column:resolution_h"`
}
