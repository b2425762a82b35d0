package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/imagedb-go/internal/blobstore"
	"github.com/tphakala/imagedb-go/internal/conf"
	"github.com/tphakala/imagedb-go/internal/datastore"
	"github.com/tphakala/imagedb-go/internal/errors"
	"gorm.io/gorm"
)

// fakeBlobStore records uploads in memory. failNames fails the upload of any
// payload whose file name matches; onPut runs before each recorded upload.
type fakeBlobStore struct {
	mu        sync.Mutex
	buckets   map[string]bool
	uploads   map[string]string // key -> local path
	failNames map[string]bool
	onPut     func(key string)

	bucketErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		buckets:   make(map[string]bool),
		uploads:   make(map[string]string),
		failNames: make(map[string]bool),
	}
}

func (f *fakeBlobStore) EnsureBucket(ctx context.Context, bucket string) error {
	if f.bucketErr != nil {
		return f.bucketErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	return nil
}

func (f *fakeBlobStore) PutFile(ctx context.Context, bucket, key, localPath string) error {
	if f.onPut != nil {
		f.onPut(key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNames[filepath.Base(localPath)] {
		return errors.Newf("upload refused for %s", localPath).
			Component("blobstore").
			Category(errors.CategoryBlobUpload).
			Build()
	}
	f.uploads[key] = localPath
	return nil
}

func (f *fakeBlobStore) FetchBatch(ctx context.Context, destDir string, requests []blobstore.FetchRequest) []blobstore.FetchResult {
	results := make([]blobstore.FetchResult, len(requests))
	for i, req := range requests {
		results[i] = blobstore.FetchResult{Request: req}
	}
	return results
}

func (f *fakeBlobStore) ObjectLink(bucket, key string) string {
	return blobstore.FormatLink("fake:9000", bucket, key)
}

func (f *fakeBlobStore) Endpoint() string { return "fake:9000" }

func (f *fakeBlobStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// failingStore wraps a datastore and fails media upserts after a set number
// of successes, forcing the batch transaction to roll back.
type failingStore struct {
	datastore.Interface
	allow int
	seen  int
}

func (s *failingStore) UpsertMedia(db *gorm.DB, media *datastore.MediaFile) error {
	s.seen++
	if s.seen > s.allow {
		return errors.Newf("induced metadata failure on %s", media.Name).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return s.Interface.UpsertMedia(db, media)
}

func openTestStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	require.NoError(t, store.InitTables())
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

// stageBatch materializes payload files on disk and returns the source
// directory plus manifest rows naming them.
func stageBatch(t *testing.T, names ...string) (string, []MediaRow) {
	t.Helper()
	sourceDir := t.TempDir()
	rows := make([]MediaRow, 0, len(names))
	for i, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(sourceDir, name), []byte("payload"), 0o644))
		rows = append(rows, MediaRow{
			Name:      name,
			CameraID:  1,
			Date:      "2024-05-01",
			Time:      "09:15:00",
			FileType:  "jpg",
			FileSize:  int64(100 + i),
			Dataset:   "spring",
			Processed: "0",
		})
	}
	return sourceDir, rows
}

func seedCamera(t *testing.T, store datastore.Interface) {
	t.Helper()
	require.NoError(t, store.UpsertCameras(store.Session(), []datastore.Camera{{
		CameraID: 1, Country: "USA", State: "MA", City: "Boston",
		Latitude: 42.3601, Longitude: -71.0589, ResolutionW: 1920, ResolutionH: 1080,
	}}))
}

func TestIngestMediaCommitsThenUploads(t *testing.T) {
	store := openTestStore(t)
	seedCamera(t, store)
	blobs := newFakeBlobStore()

	// Every upload must observe its own committed metadata row.
	blobs.onPut = func(key string) {
		_, err := store.GetMedia(key)
		assert.NoError(t, err, "payload upload started before its metadata was committed")
	}

	sourceDir, rows := stageBatch(t, "frame_001.jpg", "frame_002.jpg")
	matrix := &FeatureMatrix{
		Features: []string{"pedestrian"},
		Flagged: map[string][]string{
			"frame_001.jpg": {"pedestrian"},
			"frame_002.jpg": {},
		},
	}

	pipeline := NewPipeline(store, blobs, nil, 2)
	result, err := pipeline.IngestMedia(context.Background(), "fleet", sourceDir, rows, matrix)
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	for _, row := range result.Rows {
		assert.True(t, row.Committed)
		assert.True(t, row.Uploaded)
		assert.NoError(t, row.Err)
	}
	assert.Equal(t, 2, blobs.uploadCount())
	assert.True(t, blobs.buckets["fleet"])

	// The committed rows carry the locator of their uploaded payload.
	media, err := store.GetMediaByName("frame_001.jpg")
	require.NoError(t, err)
	assert.Equal(t, blobs.ObjectLink("fleet", media.ID), media.BlobLink)

	features, err := store.MediaFeatures(media.ID)
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "pedestrian", features[0].Name)
}

func TestIngestMediaMetadataFailureUploadsNothing(t *testing.T) {
	store := openTestStore(t)
	seedCamera(t, store)
	blobs := newFakeBlobStore()

	sourceDir, rows := stageBatch(t, "frame_001.jpg", "frame_002.jpg", "frame_003.jpg")

	failing := &failingStore{Interface: store, allow: 2}
	pipeline := NewPipeline(failing, blobs, nil, 2)

	_, err := pipeline.IngestMedia(context.Background(), "fleet", sourceDir, rows, nil)
	require.Error(t, err)

	// The transaction rolled back, so no payload may have left the machine
	// and no metadata row may survive.
	assert.Zero(t, blobs.uploadCount())
	_, err = store.GetMediaByName("frame_001.jpg")
	assert.Error(t, err)
}

func TestIngestMediaUploadFailureLeavesMetadataCommitted(t *testing.T) {
	store := openTestStore(t)
	seedCamera(t, store)
	blobs := newFakeBlobStore()
	blobs.failNames["frame_002.jpg"] = true

	sourceDir, rows := stageBatch(t, "frame_001.jpg", "frame_002.jpg")

	pipeline := NewPipeline(store, blobs, nil, 2)
	result, err := pipeline.IngestMedia(context.Background(), "fleet", sourceDir, rows, nil)
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	byName := make(map[string]RowOutcome, 2)
	for _, row := range result.Rows {
		byName[row.Name] = row
	}

	assert.True(t, byName["frame_001.jpg"].Uploaded)
	assert.NoError(t, byName["frame_001.jpg"].Err)

	failed := byName["frame_002.jpg"]
	assert.True(t, failed.Committed, "committed metadata stands even when the upload fails")
	assert.False(t, failed.Uploaded)
	assert.Error(t, failed.Err)

	// Both rows remain queryable.
	_, err = store.GetMediaByName("frame_002.jpg")
	assert.NoError(t, err)

	assert.Equal(t, 1, result.Uploaded())
	assert.Equal(t, 1, result.Failed())
}

func TestIngestMediaReingestionKeepsIdentifier(t *testing.T) {
	store := openTestStore(t)
	seedCamera(t, store)
	blobs := newFakeBlobStore()

	sourceDir, rows := stageBatch(t, "frame_001.jpg")
	pipeline := NewPipeline(store, blobs, nil, 1)

	first, err := pipeline.IngestMedia(context.Background(), "fleet", sourceDir, rows, nil)
	require.NoError(t, err)

	rows[0].Processed = "1"
	second, err := pipeline.IngestMedia(context.Background(), "fleet", sourceDir, rows, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Rows[0].MediaID, second.Rows[0].MediaID,
		"re-ingesting a known name must reuse its identifier")

	media, err := store.GetMediaByName("frame_001.jpg")
	require.NoError(t, err)
	assert.Equal(t, "1", media.Processed)
}

func TestIngestMediaRejectsMatrixWithUnknownMedia(t *testing.T) {
	store := openTestStore(t)
	seedCamera(t, store)
	blobs := newFakeBlobStore()

	sourceDir, rows := stageBatch(t, "frame_001.jpg")
	matrix := &FeatureMatrix{
		Features: []string{"pedestrian"},
		Flagged: map[string][]string{
			"ghost.jpg": {"pedestrian"},
		},
	}

	pipeline := NewPipeline(store, blobs, nil, 1)
	_, err := pipeline.IngestMedia(context.Background(), "fleet", sourceDir, rows, matrix)
	require.ErrorIs(t, err, ErrUnknownMedia)

	// The bad matrix was rejected before any mutation.
	assert.Zero(t, blobs.uploadCount())
	_, err = store.GetMediaByName("frame_001.jpg")
	assert.Error(t, err)
}

func TestIngestCameras(t *testing.T) {
	store := openTestStore(t)
	pipeline := NewPipeline(store, newFakeBlobStore(), nil, 1)

	rows := []CameraRow{
		{CameraID: 1, Country: "USA", State: "MA", City: "Boston",
			Latitude: 42.3601, Longitude: -71.0589, ResolutionW: 1920, ResolutionH: 1080},
		{CameraID: 2, Country: "USA", State: "NY", City: "New York",
			Latitude: 40.7128, Longitude: -74.0060, ResolutionW: 3840, ResolutionH: 2160},
	}
	require.NoError(t, pipeline.IngestCameras(rows))

	camera, err := store.GetCamera(2)
	require.NoError(t, err)
	assert.Equal(t, "New York", camera.City)
}
