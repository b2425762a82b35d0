package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCameraManifest(t *testing.T) {
	path := writeFile(t, "cameras.csv",
		"Camera_ID,Country,State,City,Latitude,Longitude,Resolution_w,Resolution_h\n"+
			"1,USA,MA,Boston,42.3601,-71.0589,1920,1080\n"+
			"2,USA,NY,New York,40.7128,-74.0060,3840,2160\n")

	rows, err := ReadCameraManifest(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, CameraRow{
		CameraID: 1, Country: "USA", State: "MA", City: "Boston",
		Latitude: 42.3601, Longitude: -71.0589, ResolutionW: 1920, ResolutionH: 1080,
	}, rows[0])
	assert.Equal(t, 2, rows[1].CameraID)
}

func TestReadCameraManifestRejectsBadHeader(t *testing.T) {
	path := writeFile(t, "cameras.csv",
		"Camera_ID,Country,State,City,Latitude,Longitude,Resolution_w\n"+
			"1,USA,MA,Boston,42.3601,-71.0589,1920\n")

	_, err := ReadCameraManifest(path)
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestReadCameraManifestRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		row  string
	}{
		{"non-numeric camera id", "one,USA,MA,Boston,42.36,-71.05,1920,1080"},
		{"non-numeric latitude", "1,USA,MA,Boston,north,-71.05,1920,1080"},
		{"non-numeric resolution", "1,USA,MA,Boston,42.36,-71.05,wide,1080"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "cameras.csv",
				"Camera_ID,Country,State,City,Latitude,Longitude,Resolution_w,Resolution_h\n"+
					tc.row+"\n")
			_, err := ReadCameraManifest(path)
			assert.Error(t, err)
		})
	}
}

func TestReadMediaManifest(t *testing.T) {
	path := writeFile(t, "media.csv",
		"IV_Name,Camera_ID,IV_date,IV_time,File_type,File_size,Minio_link,Dataset,Is_processed\n"+
			"frame_001.jpg,1,2024-05-01,09:15:00,jpg,204800,pending,spring,0\n")

	rows, err := ReadMediaManifest(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, MediaRow{
		Name: "frame_001.jpg", CameraID: 1, Date: "2024-05-01", Time: "09:15:00",
		FileType: "jpg", FileSize: 204800, Dataset: "spring", Processed: "0",
	}, rows[0])
}

func TestReadMediaManifestRejectsDuplicateNames(t *testing.T) {
	path := writeFile(t, "media.csv",
		"IV_Name,Camera_ID,IV_date,IV_time,File_type,File_size,Minio_link,Dataset,Is_processed\n"+
			"frame.jpg,1,2024-05-01,09:15:00,jpg,100,pending,spring,0\n"+
			"frame.jpg,1,2024-05-01,09:16:00,jpg,100,pending,spring,0\n")

	_, err := ReadMediaManifest(path)
	assert.Error(t, err)
}

func TestReadMediaManifestRejectsRaggedAndEmptyRows(t *testing.T) {
	header := "IV_Name,Camera_ID,IV_date,IV_time,File_type,File_size,Minio_link,Dataset,Is_processed\n"

	t.Run("ragged row", func(t *testing.T) {
		path := writeFile(t, "media.csv", header+"frame.jpg,1,2024-05-01\n")
		_, err := ReadMediaManifest(path)
		assert.ErrorIs(t, err, ErrRaggedRow)
	})

	t.Run("empty cell", func(t *testing.T) {
		path := writeFile(t, "media.csv",
			header+"frame.jpg,1,2024-05-01,09:15:00,,100,pending,spring,0\n")
		_, err := ReadMediaManifest(path)
		assert.ErrorIs(t, err, ErrEmptyCell)
	})
}

func TestReconcileSourceDir(t *testing.T) {
	rows := []MediaRow{{Name: "frame_001.jpg"}, {Name: "frame_002.jpg"}}

	t.Run("matching directory", func(t *testing.T) {
		dir := t.TempDir()
		for _, row := range rows {
			require.NoError(t, os.WriteFile(filepath.Join(dir, row.Name), []byte("x"), 0o644))
		}
		assert.NoError(t, ReconcileSourceDir(dir, rows))
	})

	t.Run("payload missing from directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_001.jpg"), []byte("x"), 0o644))
		err := ReconcileSourceDir(dir, rows)
		assert.ErrorIs(t, err, ErrMissingPayload)
	})

	t.Run("payload missing from manifest", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"frame_001.jpg", "frame_002.jpg", "stray.jpg"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}
		err := ReconcileSourceDir(dir, rows)
		assert.ErrorIs(t, err, ErrUnlistedPayload)
	})
}

func TestReadFeatureMatrix(t *testing.T) {
	path := writeFile(t, "features.csv",
		"IV_Name,pedestrian,vehicle,low_light\n"+
			"frame_001.jpg,1,0,1\n"+
			"frame_002.jpg,0,0,0\n")

	matrix, err := ReadFeatureMatrix(path, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"pedestrian", "vehicle", "low_light"}, matrix.Features)
	assert.Equal(t, []string{"pedestrian", "low_light"}, matrix.Flagged["frame_001.jpg"])
	assert.Empty(t, matrix.Flagged["frame_002.jpg"])
}

func TestReadFeatureMatrixHonorsPresentFlag(t *testing.T) {
	path := writeFile(t, "features.csv",
		"IV_Name,pedestrian\n"+
			"frame.jpg,yes\n")

	matrix, err := ReadFeatureMatrix(path, "yes")
	require.NoError(t, err)
	assert.Equal(t, []string{"pedestrian"}, matrix.Flagged["frame.jpg"])

	// With a different flag value the same cell is unset.
	matrix, err = ReadFeatureMatrix(path, "1")
	require.NoError(t, err)
	assert.Empty(t, matrix.Flagged["frame.jpg"])
}

func TestReadFeatureMatrixRejectsBadHeader(t *testing.T) {
	t.Run("wrong name column", func(t *testing.T) {
		path := writeFile(t, "features.csv", "Name,pedestrian\nframe.jpg,1\n")
		_, err := ReadFeatureMatrix(path, "1")
		assert.ErrorIs(t, err, ErrHeaderMismatch)
	})

	t.Run("no feature columns", func(t *testing.T) {
		path := writeFile(t, "features.csv", "IV_Name\nframe.jpg\n")
		_, err := ReadFeatureMatrix(path, "1")
		assert.ErrorIs(t, err, ErrHeaderMismatch)
	})
}
