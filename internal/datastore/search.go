package datastore

import (
	"fmt"
	"time"

	"github.com/tphakala/imagedb-go/internal/errors"
)

// QueryStatus classifies the outcome of a search so callers can distinguish
// an empty result from a rejected filter set and from a backend fault.
type QueryStatus int

const (
	// QueryMatched means the search executed and returned at least one row.
	QueryMatched QueryStatus = iota
	// QueryNoMatch means the search executed and matched nothing.
	QueryNoMatch
	// QueryInvalidArgs means the filter combination was rejected before execution.
	QueryInvalidArgs
	// QueryFailed means the backend reported an execution fault.
	QueryFailed
)

// String returns a human-readable name for the query status.
func (s QueryStatus) String() string {
	switch s {
	case QueryMatched:
		return "matched"
	case QueryNoMatch:
		return "no-match"
	case QueryInvalidArgs:
		return "invalid-arguments"
	case QueryFailed:
		return "query-failed"
	default:
		return fmt.Sprintf("QueryStatus(%d)", int(s))
	}
}

// SearchFilters provides the optional retrieval criteria. A zero-value field
// contributes no predicate; a zero-value struct matches every media row
// joined to its camera.
type SearchFilters struct {
	// Date filters on the capture date, YYYY-MM-DD.
	Date string

	// StartTime and EndTime bound the capture time as a closed range,
	// HH:MM:SS. Both must be set together.
	StartTime string
	EndTime   string

	// Camera-scoped attributes, AND-combined against the joined camera row.
	Latitude  *float64
	Longitude *float64
	City      string
	State     string
	Country   string
	CameraID  *int

	// Features restricts results to media tagged with at least one of the
	// named features.
	Features []string
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Validate rejects filter combinations that cannot form a well-defined query.
func (f *SearchFilters) Validate() error {
	if (f.StartTime == "") != (f.EndTime == "") {
		return errors.Newf("start_time and end_time must be supplied together").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if f.Date != "" {
		if _, err := time.Parse(dateLayout, f.Date); err != nil {
			return errors.New(fmt.Errorf("invalid date %q: %w", f.Date, err)).
				Component("datastore").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	for _, ts := range []string{f.StartTime, f.EndTime} {
		if ts == "" {
			continue
		}
		if _, err := time.Parse(timeLayout, ts); err != nil {
			return errors.New(fmt.Errorf("invalid time %q: %w", ts, err)).
				Component("datastore").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	if f.StartTime != "" && f.StartTime > f.EndTime {
		return errors.Newf("start_time %q is after end_time %q", f.StartTime, f.EndTime).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	for _, name := range f.Features {
		if name == "" {
			return errors.Newf("feature names must not be empty").
				Component("datastore").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return nil
}

// SearchMedia composes the optional filters into one cross-table retrieval.
// Every user-supplied literal travels as a bound parameter. The returned
// status is authoritative: rows are only valid when it is QueryMatched.
func (ds *DataStore) SearchMedia(filters *SearchFilters) ([]MediaResult, QueryStatus, error) {
	if filters == nil {
		filters = &SearchFilters{}
	}
	if err := filters.Validate(); err != nil {
		return nil, QueryInvalidArgs, err
	}

	query := ds.DB.Table("media_files").
		Select("media_files.id, media_files.name, media_files.camera_id, " +
			"media_files.date, media_files.time, media_files.file_type, " +
			"media_files.file_size, media_files.blob_link, media_files.dataset, " +
			"media_files.processed, cameras.country, cameras.state, cameras.city, " +
			"cameras.latitude, cameras.longitude, cameras.resolution_w, cameras.resolution_h").
		Joins("INNER JOIN cameras ON cameras.camera_id = media_files.camera_id")

	// Camera-scoped predicates
	if filters.CameraID != nil {
		query = query.Where("cameras.camera_id = ?", *filters.CameraID)
	}
	if filters.Country != "" {
		query = query.Where("cameras.country = ?", filters.Country)
	}
	if filters.State != "" {
		query = query.Where("cameras.state = ?", filters.State)
	}
	if filters.City != "" {
		query = query.Where("cameras.city = ?", filters.City)
	}
	if filters.Latitude != nil {
		query = query.Where("cameras.latitude = ?", *filters.Latitude)
	}
	if filters.Longitude != nil {
		query = query.Where("cameras.longitude = ?", *filters.Longitude)
	}

	// Capture date/time predicates
	if filters.Date != "" {
		query = query.Where("media_files.date = ?", filters.Date)
	}
	if filters.StartTime != "" {
		query = query.Where("media_files.time BETWEEN ? AND ?", filters.StartTime, filters.EndTime)
	}

	// Media tagged with any of the named features
	if len(filters.Features) > 0 {
		tagged := ds.DB.Table("media_features").
			Select("media_features.media_id").
			Joins("INNER JOIN features ON features.id = media_features.feature_id").
			Where("features.name IN ?", filters.Features)
		query = query.Where("media_files.id IN (?)", tagged)
	}

	var results []MediaResult
	err := query.Order("media_files.date ASC, media_files.time ASC, media_files.id ASC").
		Scan(&results).Error
	if err != nil {
		return nil, QueryFailed, errors.New(fmt.Errorf("executing media search: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "search_media").
			Build()
	}

	if len(results) == 0 {
		return nil, QueryNoMatch, nil
	}
	return results, QueryMatched, nil
}
