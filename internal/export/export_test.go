package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/imagedb-go/internal/blobstore"
	"github.com/tphakala/imagedb-go/internal/datastore"
)

func sampleResults() []datastore.MediaResult {
	return []datastore.MediaResult{
		{
			ID:       "5f1c9f0e-8a4b-4d7e-9b3a-111111111111",
			Name:     "boston_day.jpg",
			CameraID: 1, Date: "2024-05-01", Time: "09:15:00",
			FileType: "jpg", FileSize: 204800,
			BlobLink: "localhost:9000:/fleet:/5f1c9f0e-8a4b-4d7e-9b3a-111111111111",
			Dataset:  "spring", Processed: "0",
			Country: "USA", State: "MA", City: "Boston",
			Latitude: 42.3601, Longitude: -71.0589,
			ResolutionW: 1920, ResolutionH: 1080,
		},
		{
			ID:       "5f1c9f0e-8a4b-4d7e-9b3a-222222222222",
			Name:     "nyc_day.jpg",
			CameraID: 2, Date: "2024-05-01", Time: "10:00:00",
			FileType: "jpg", FileSize: 102400,
			BlobLink: "localhost:9000:/fleet:/5f1c9f0e-8a4b-4d7e-9b3a-222222222222",
			Dataset:  "spring", Processed: "1",
			Country: "USA", State: "NY", City: "New York",
			Latitude: 40.7128, Longitude: -74.006,
			ResolutionW: 3840, ResolutionH: 2160,
		},
	}
}

func TestWriteAndReadResultsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	want := sampleResults()

	require.NoError(t, WriteResultsCSV(path, want))

	got, err := ReadResultsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteResultsCSVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteResultsCSV(path, nil))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ResultHeader, records[0])
}

func TestReadResultsCSVRejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := ReadResultsCSV(path)
	assert.Error(t, err)
}

// recordingStore captures FetchBatch requests without touching a network.
type recordingStore struct {
	requests []blobstore.FetchRequest
}

func (r *recordingStore) EnsureBucket(ctx context.Context, bucket string) error { return nil }

func (r *recordingStore) PutFile(ctx context.Context, bucket, key, localPath string) error {
	return nil
}

func (r *recordingStore) FetchBatch(ctx context.Context, destDir string, requests []blobstore.FetchRequest) []blobstore.FetchResult {
	r.requests = append(r.requests, requests...)
	results := make([]blobstore.FetchResult, len(requests))
	for i, req := range requests {
		results[i] = blobstore.FetchResult{
			Request:   req,
			LocalPath: filepath.Join(destDir, req.FileName),
		}
	}
	return results
}

func (r *recordingStore) ObjectLink(bucket, key string) string {
	return blobstore.FormatLink("localhost:9000", bucket, key)
}

func (r *recordingStore) Endpoint() string { return "localhost:9000" }

func TestDownloadResults(t *testing.T) {
	store := &recordingStore{}
	results := sampleResults()

	fetched := DownloadResults(context.Background(), store, t.TempDir(), results)
	require.Len(t, fetched, 2)

	require.Len(t, store.requests, 2)
	assert.Equal(t, "fleet", store.requests[0].Bucket)
	assert.Equal(t, results[0].ID, store.requests[0].Key)
	assert.Equal(t, "boston_day.jpg", store.requests[0].FileName)

	for _, res := range fetched {
		assert.NoError(t, res.Err)
	}
}

func TestDownloadResultsSkipsMalformedLinks(t *testing.T) {
	store := &recordingStore{}
	results := sampleResults()

	// A malformed locator in the middle of the batch fails alone; the rows
	// around it still download, and every entry stays at its input index.
	extra := results[1]
	extra.ID = "5f1c9f0e-8a4b-4d7e-9b3a-333333333333"
	extra.Name = "nyc_night.jpg"
	extra.BlobLink = "localhost:9000:/fleet:/" + extra.ID
	results = append(results, extra)
	results[1].BlobLink = "not a locator"

	fetched := DownloadResults(context.Background(), store, t.TempDir(), results)
	require.Len(t, fetched, 3)

	assert.NoError(t, fetched[0].Err)
	assert.Equal(t, "boston_day.jpg", fetched[0].Request.FileName)

	assert.Error(t, fetched[1].Err)
	assert.Equal(t, "nyc_day.jpg", fetched[1].Request.FileName)

	assert.NoError(t, fetched[2].Err)
	assert.Equal(t, "nyc_night.jpg", fetched[2].Request.FileName)

	require.Len(t, store.requests, 2)
	assert.Equal(t, results[0].ID, store.requests[0].Key)
	assert.Equal(t, extra.ID, store.requests[1].Key)
}
