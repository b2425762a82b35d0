// Package export writes search results to CSV and pulls their payloads back
// out of the object store.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/tphakala/imagedb-go/internal/blobstore"
	"github.com/tphakala/imagedb-go/internal/datastore"
	"github.com/tphakala/imagedb-go/internal/errors"
)

// ResultHeader is the column layout of an exported result set. The order
// mirrors the search projection: media columns first, then the joined
// camera attributes.
var ResultHeader = []string{
	"IV_ID", "IV_Name", "Image_Camera_ID", "IV_date", "IV_time",
	"File_type", "File_size", "Minio_link", "Dataset", "Is_processed",
	"Camera_ID", "Country", "State", "City",
	"Latitude", "Longitude", "Resolution_w", "Resolution_h",
}

// WriteResultsCSV writes search results to path with the ResultHeader layout.
func WriteResultsCSV(path string, results []datastore.MediaResult) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.New(fmt.Errorf("creating export file: %w", err)).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(ResultHeader); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}
	for i := range results {
		r := &results[i]
		record := []string{
			r.ID, r.Name, strconv.Itoa(r.CameraID), r.Date, r.Time,
			r.FileType, strconv.FormatInt(r.FileSize, 10), r.BlobLink,
			r.Dataset, r.Processed,
			strconv.Itoa(r.CameraID), r.Country, r.State, r.City,
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			strconv.Itoa(r.ResolutionW), strconv.Itoa(r.ResolutionH),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing export row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.New(fmt.Errorf("flushing export file: %w", err)).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return nil
}

// ReadResultsCSV reads a previously exported result set back from path.
func ReadResultsCSV(path string) ([]datastore.MediaResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("opening export file: %w", err)).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading export header: %w", err)
	}
	if !slices.Equal(header, ResultHeader) {
		return nil, errors.Newf("export file %s has unexpected header %v", path, header).
			Component("export").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	var results []datastore.MediaResult
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading export row: %s line %d: %w", path, line, err)
		}
		r, err := parseResult(record)
		if err != nil {
			return nil, errors.New(fmt.Errorf("%s line %d: %w", path, line, err)).
				Component("export").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Build()
		}
		results = append(results, r)
	}
	return results, nil
}

func parseResult(record []string) (datastore.MediaResult, error) {
	var r datastore.MediaResult
	if len(record) != len(ResultHeader) {
		return r, fmt.Errorf("want %d columns, got %d", len(ResultHeader), len(record))
	}

	r.ID = record[0]
	r.Name = record[1]
	r.Date = record[3]
	r.Time = record[4]
	r.FileType = record[5]
	r.BlobLink = record[7]
	r.Dataset = record[8]
	r.Processed = record[9]
	r.Country = record[11]
	r.State = record[12]
	r.City = record[13]

	var err error
	if r.CameraID, err = strconv.Atoi(record[2]); err != nil {
		return r, fmt.Errorf("invalid camera id %q: %w", record[2], err)
	}
	if r.FileSize, err = strconv.ParseInt(record[6], 10, 64); err != nil {
		return r, fmt.Errorf("invalid file size %q: %w", record[6], err)
	}
	if r.Latitude, err = strconv.ParseFloat(record[14], 64); err != nil {
		return r, fmt.Errorf("invalid latitude %q: %w", record[14], err)
	}
	if r.Longitude, err = strconv.ParseFloat(record[15], 64); err != nil {
		return r, fmt.Errorf("invalid longitude %q: %w", record[15], err)
	}
	if r.ResolutionW, err = strconv.Atoi(record[16]); err != nil {
		return r, fmt.Errorf("invalid resolution width %q: %w", record[16], err)
	}
	if r.ResolutionH, err = strconv.Atoi(record[17]); err != nil {
		return r, fmt.Errorf("invalid resolution height %q: %w", record[17], err)
	}
	return r, nil
}

// DownloadResults fetches the payload of every result row into destDir, named
// by the row's catalog name. Rows with malformed locators fail individually,
// the rest of the batch still downloads. The returned slice holds one entry
// per input row, in input order.
func DownloadResults(ctx context.Context, store blobstore.Store, destDir string, results []datastore.MediaResult) []blobstore.FetchResult {
	fetchResults := make([]blobstore.FetchResult, len(results))
	var requests []blobstore.FetchRequest
	var rowIndex []int

	for i := range results {
		r := &results[i]
		_, bucket, key, err := blobstore.ParseLink(r.BlobLink)
		if err != nil {
			fetchResults[i] = blobstore.FetchResult{
				Request: blobstore.FetchRequest{FileName: r.Name},
				Err:     err,
			}
			continue
		}
		requests = append(requests, blobstore.FetchRequest{
			Bucket:   bucket,
			Key:      key,
			FileName: r.Name,
		})
		rowIndex = append(rowIndex, i)
	}

	for j, res := range store.FetchBatch(ctx, destDir, requests) {
		fetchResults[rowIndex[j]] = res
	}
	return fetchResults
}
