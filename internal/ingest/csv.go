// Package ingest loads camera and media batches from CSV manifests into the
// catalog, committing all metadata before any payload leaves the machine.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/tphakala/imagedb-go/internal/errors"
)

// CameraHeader is the required header row of a camera manifest.
var CameraHeader = []string{
	"Camera_ID", "Country", "State", "City",
	"Latitude", "Longitude", "Resolution_w", "Resolution_h",
}

// MediaHeader is the required header row of a media manifest. The Minio_link
// column is present in the file but its value is replaced at ingestion time
// with the locator of the uploaded payload.
var MediaHeader = []string{
	"IV_Name", "Camera_ID", "IV_date", "IV_time",
	"File_type", "File_size", "Minio_link", "Dataset", "Is_processed",
}

// featureNameColumn is the required first column of a feature matrix.
const featureNameColumn = "IV_Name"

// Manifest validation failures callers may want to distinguish.
var (
	ErrHeaderMismatch = errors.Newf("manifest header does not match the required layout").
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()
	ErrRaggedRow = errors.Newf("manifest row has wrong column count").
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()
	ErrEmptyCell = errors.Newf("manifest row has an empty cell").
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Build()
	ErrUnknownMedia = errors.Newf("feature matrix names media absent from the batch").
			Component("ingest").
			Category(errors.CategoryValidation).
			Build()
	ErrMissingPayload = errors.Newf("manifest names a payload file absent from the source directory").
				Component("ingest").
				Category(errors.CategoryValidation).
				Build()
	ErrUnlistedPayload = errors.Newf("source directory holds a payload file absent from the manifest").
				Component("ingest").
				Category(errors.CategoryValidation).
				Build()
)

// CameraRow is one parsed camera manifest record.
type CameraRow struct {
	CameraID    int
	Country     string
	State       string
	City        string
	Latitude    float64
	Longitude   float64
	ResolutionW int
	ResolutionH int
}

// MediaRow is one parsed media manifest record. The raw cells are retained so
// the pipeline can rewrite the link column when building the committed row.
type MediaRow struct {
	Name      string
	CameraID  int
	Date      string
	Time      string
	FileType  string
	FileSize  int64
	Dataset   string
	Processed string
}

// FeatureMatrix is the parsed per-media feature tagging table. Features holds
// the column names in file order; Flagged maps each media name to the feature
// names whose cell carried the present flag.
type FeatureMatrix struct {
	Features []string
	Flagged  map[string][]string
}

func headerError(path string, want, got []string) error {
	return errors.New(fmt.Errorf("%w: %s: want %v, got %v", ErrHeaderMismatch, path, want, got)).
		Component("ingest").
		Category(errors.CategoryFileParsing).
		Context("path", path).
		Build()
}

func rowError(sentinel error, path string, line int) error {
	return errors.New(fmt.Errorf("%w: %s line %d", sentinel, path, line)).
		Component("ingest").
		Category(errors.CategoryFileParsing).
		Context("path", path).
		Context("line", line).
		Build()
}

// readManifest reads a CSV file, verifies its header and returns the data
// rows. Every cell of every row must be non-empty.
func readManifest(path string, header []string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("opening manifest: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading manifest header: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	if !slices.Equal(first, header) {
		return nil, headerError(path, header, first)
	}

	var rows [][]string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(fmt.Errorf("reading manifest: %s line %d: %w", path, line, err)).
				Component("ingest").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Build()
		}
		if len(record) != len(header) {
			return nil, rowError(ErrRaggedRow, path, line)
		}
		for _, cell := range record {
			if cell == "" {
				return nil, rowError(ErrEmptyCell, path, line)
			}
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// ReadCameraManifest parses a camera manifest file.
func ReadCameraManifest(path string) ([]CameraRow, error) {
	records, err := readManifest(path, CameraHeader)
	if err != nil {
		return nil, err
	}

	cameras := make([]CameraRow, 0, len(records))
	for i, rec := range records {
		line := i + 2
		row := CameraRow{
			Country: rec[1],
			State:   rec[2],
			City:    rec[3],
		}
		if row.CameraID, err = strconv.Atoi(rec[0]); err != nil {
			return nil, parseError(path, line, "Camera_ID", rec[0], err)
		}
		if row.Latitude, err = strconv.ParseFloat(rec[4], 64); err != nil {
			return nil, parseError(path, line, "Latitude", rec[4], err)
		}
		if row.Longitude, err = strconv.ParseFloat(rec[5], 64); err != nil {
			return nil, parseError(path, line, "Longitude", rec[5], err)
		}
		if row.ResolutionW, err = strconv.Atoi(rec[6]); err != nil {
			return nil, parseError(path, line, "Resolution_w", rec[6], err)
		}
		if row.ResolutionH, err = strconv.Atoi(rec[7]); err != nil {
			return nil, parseError(path, line, "Resolution_h", rec[7], err)
		}
		cameras = append(cameras, row)
	}
	return cameras, nil
}

func parseError(path string, line int, column, value string, err error) error {
	return errors.New(fmt.Errorf("%s line %d: invalid %s %q: %w", path, line, column, value, err)).
		Component("ingest").
		Category(errors.CategoryFileParsing).
		Context("path", path).
		Context("line", line).
		Context("column", column).
		Build()
}

// ReadMediaManifest parses a media manifest file. Duplicate media names
// within one manifest are rejected, each name must resolve to one row.
func ReadMediaManifest(path string) ([]MediaRow, error) {
	records, err := readManifest(path, MediaHeader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(records))
	media := make([]MediaRow, 0, len(records))
	for i, rec := range records {
		line := i + 2
		row := MediaRow{
			Name:      rec[0],
			Date:      rec[2],
			Time:      rec[3],
			FileType:  rec[4],
			Dataset:   rec[7],
			Processed: rec[8],
		}
		if seen[row.Name] {
			return nil, errors.Newf("%s line %d: duplicate media name %q", path, line, row.Name).
				Component("ingest").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Build()
		}
		seen[row.Name] = true

		if row.CameraID, err = strconv.Atoi(rec[1]); err != nil {
			return nil, parseError(path, line, "Camera_ID", rec[1], err)
		}
		if row.FileSize, err = strconv.ParseInt(rec[5], 10, 64); err != nil {
			return nil, parseError(path, line, "File_size", rec[5], err)
		}
		media = append(media, row)
	}
	return media, nil
}

// ReconcileSourceDir checks the manifest and the payload directory both ways:
// every listed media must have a file and every file must be listed. The
// check runs before any mutation so a mismatched batch changes nothing.
func ReconcileSourceDir(sourceDir string, rows []MediaRow) error {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return errors.New(fmt.Errorf("reading source directory: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("source_dir", sourceDir).
			Build()
	}

	onDisk := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		onDisk[entry.Name()] = true
	}

	listed := make(map[string]bool, len(rows))
	for i := range rows {
		listed[rows[i].Name] = true
		if !onDisk[rows[i].Name] {
			return errors.New(fmt.Errorf("%w: %q", ErrMissingPayload, rows[i].Name)).
				Component("ingest").
				Category(errors.CategoryValidation).
				Context("media_name", rows[i].Name).
				Build()
		}
	}
	for name := range onDisk {
		if !listed[name] {
			return errors.New(fmt.Errorf("%w: %q", ErrUnlistedPayload, name)).
				Component("ingest").
				Category(errors.CategoryValidation).
				Context("file_name", name).
				Build()
		}
	}
	return nil
}

// ReadFeatureMatrix parses a feature matrix file. presentFlag is the cell
// value that marks a feature as tagged on that media row, any other value
// leaves the feature unset.
func ReadFeatureMatrix(path, presentFlag string) (*FeatureMatrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("opening feature matrix: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading feature matrix header: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	if len(header) < 2 || header[0] != featureNameColumn {
		return nil, headerError(path, []string{featureNameColumn, "<feature>..."}, header)
	}
	features := header[1:]
	for _, name := range features {
		if name == "" {
			return nil, headerError(path, []string{featureNameColumn, "<feature>..."}, header)
		}
	}

	matrix := &FeatureMatrix{
		Features: features,
		Flagged:  make(map[string][]string),
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(fmt.Errorf("reading feature matrix: %s line %d: %w", path, line, err)).
				Component("ingest").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Build()
		}
		if len(record) != len(header) {
			return nil, rowError(ErrRaggedRow, path, line)
		}
		name := record[0]
		if name == "" {
			return nil, rowError(ErrEmptyCell, path, line)
		}
		var flagged []string
		for i, cell := range record[1:] {
			if cell == presentFlag {
				flagged = append(flagged, features[i])
			}
		}
		matrix.Flagged[name] = flagged
	}
	return matrix, nil
}
