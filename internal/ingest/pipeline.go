package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/tphakala/imagedb-go/internal/blobstore"
	"github.com/tphakala/imagedb-go/internal/datastore"
	"github.com/tphakala/imagedb-go/internal/errors"
	"github.com/tphakala/imagedb-go/internal/logging"
	"github.com/tphakala/imagedb-go/internal/observability/metrics"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Pipeline drives batch ingestion. All metadata for a batch is committed in
// one transaction before the first payload upload starts, so the catalog
// never references an upload that preceded its own record.
type Pipeline struct {
	Store         datastore.Interface
	Blobs         blobstore.Store
	Metrics       *metrics.CatalogMetrics
	UploadWorkers int

	log *slog.Logger
}

// NewPipeline wires an ingestion pipeline over the given stores.
func NewPipeline(store datastore.Interface, blobs blobstore.Store, m *metrics.CatalogMetrics, uploadWorkers int) *Pipeline {
	log := logging.ForService("ingest")
	if log == nil {
		log = slog.Default().With("service", "ingest")
	}
	if uploadWorkers < 1 {
		uploadWorkers = 1
	}
	return &Pipeline{
		Store:         store,
		Blobs:         blobs,
		Metrics:       m,
		UploadWorkers: uploadWorkers,
		log:           log,
	}
}

// RowOutcome reports the fate of one media row through the batch. Committed
// metadata with a failed upload is a valid terminal state, the catalog row
// stands and the payload can be re-sent later.
type RowOutcome struct {
	Name      string
	MediaID   string
	Committed bool
	Uploaded  bool
	Err       error
}

// BatchResult summarizes one ingested batch.
type BatchResult struct {
	Rows []RowOutcome
}

// Uploaded counts rows whose payload reached the object store.
func (r *BatchResult) Uploaded() int {
	n := 0
	for i := range r.Rows {
		if r.Rows[i].Uploaded {
			n++
		}
	}
	return n
}

// Failed counts rows that ended with an error.
func (r *BatchResult) Failed() int {
	n := 0
	for i := range r.Rows {
		if r.Rows[i].Err != nil {
			n++
		}
	}
	return n
}

// ToCameras converts parsed manifest rows to their storable form.
func ToCameras(rows []CameraRow) []datastore.Camera {
	cameras := make([]datastore.Camera, 0, len(rows))
	for _, row := range rows {
		cameras = append(cameras, datastore.Camera{
			CameraID:    row.CameraID,
			Country:     row.Country,
			State:       row.State,
			City:        row.City,
			Latitude:    row.Latitude,
			Longitude:   row.Longitude,
			ResolutionW: row.ResolutionW,
			ResolutionH: row.ResolutionH,
		})
	}
	return cameras
}

// IngestCameras upserts a batch of camera rows.
func (p *Pipeline) IngestCameras(rows []CameraRow) error {
	cameras := ToCameras(rows)

	err := p.Store.Transaction(func(tx *gorm.DB) error {
		return p.Store.UpsertCameras(tx, cameras)
	})
	if err != nil {
		return err
	}
	p.log.Info("Ingested cameras", "count", len(cameras))
	return nil
}

// stagedRow pairs a manifest row with its resolved identity for the
// post-commit upload phase.
type stagedRow struct {
	row      MediaRow
	mediaID  string
	existing bool
}

// IngestMedia runs one media batch: validate, commit all metadata in a single
// transaction, then upload payloads concurrently. sourceDir is where the
// payload files live, named by their manifest Name. A nil matrix ingests the
// batch without feature tags.
func (p *Pipeline) IngestMedia(ctx context.Context, bucket, sourceDir string, rows []MediaRow, matrix *FeatureMatrix) (*BatchResult, error) {
	start := time.Now()

	if err := ReconcileSourceDir(sourceDir, rows); err != nil {
		return nil, err
	}
	if matrix != nil {
		if err := validateMatrix(rows, matrix); err != nil {
			return nil, err
		}
	}

	result := &BatchResult{Rows: make([]RowOutcome, len(rows))}
	staged := make([]stagedRow, len(rows))

	txErr := p.Store.Transaction(func(tx *gorm.DB) error {
		// Features are deduplicated per batch so each distinct name is
		// resolved once no matter how many rows carry it.
		featureIDs := make(map[string]string)

		for i := range rows {
			row := rows[i]

			id, existing, err := p.Store.ResolveMediaID(tx, row.Name)
			if err != nil {
				return err
			}
			staged[i] = stagedRow{row: row, mediaID: id, existing: existing}

			media := datastore.MediaFile{
				ID:        id,
				Name:      row.Name,
				CameraID:  row.CameraID,
				Date:      row.Date,
				Time:      row.Time,
				FileType:  row.FileType,
				FileSize:  row.FileSize,
				BlobLink:  p.Blobs.ObjectLink(bucket, id),
				Dataset:   row.Dataset,
				Processed: row.Processed,
			}
			if err := p.Store.UpsertMedia(tx, &media); err != nil {
				return err
			}

			if matrix == nil {
				continue
			}
			var relations []datastore.MediaFeature
			for _, name := range matrix.Flagged[row.Name] {
				featureID, ok := featureIDs[name]
				if !ok {
					feature, err := p.Store.GetOrCreateFeature(tx, name)
					if err != nil {
						return err
					}
					featureID = feature.ID
					featureIDs[name] = featureID
				}
				relations = append(relations, datastore.MediaFeature{
					FeatureID: featureID,
					MediaID:   id,
				})
			}
			if err := p.Store.InsertMediaFeatures(tx, relations); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		// Nothing was uploaded and nothing was committed.
		p.Metrics.RecordIngestBatch("failed", time.Since(start).Seconds())
		for range rows {
			p.Metrics.RecordIngestRow("rolled_back")
		}
		return nil, txErr
	}

	for i := range staged {
		result.Rows[i] = RowOutcome{
			Name:      staged[i].row.Name,
			MediaID:   staged[i].mediaID,
			Committed: true,
		}
	}

	if err := p.Blobs.EnsureBucket(ctx, bucket); err != nil {
		// Metadata stands; every upload fails with the bucket error.
		for i := range result.Rows {
			result.Rows[i].Err = err
			p.Metrics.RecordIngestRow("upload_failed")
		}
		p.Metrics.RecordIngestBatch("degraded", time.Since(start).Seconds())
		return result, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.UploadWorkers)
	for i := range staged {
		g.Go(func() error {
			localPath := filepath.Join(sourceDir, staged[i].row.Name)
			err := p.Blobs.PutFile(gctx, bucket, staged[i].mediaID, localPath)
			if err != nil {
				result.Rows[i].Err = err
				p.Metrics.RecordBlobUpload("failed")
				p.Metrics.RecordIngestRow("upload_failed")
				return nil
			}
			result.Rows[i].Uploaded = true
			p.Metrics.RecordBlobUpload("success")
			p.Metrics.RecordIngestRow("ingested")
			return nil
		})
	}
	// Upload errors are per-row outcomes, the group never returns one.
	_ = g.Wait()

	status := "success"
	if result.Failed() > 0 {
		status = "degraded"
	}
	p.Metrics.RecordIngestBatch(status, time.Since(start).Seconds())

	updated := 0
	for i := range staged {
		if staged[i].existing {
			updated++
		}
	}
	p.log.Info("Ingested media batch",
		"bucket", bucket,
		"rows", len(rows),
		"updated", updated,
		"uploaded", result.Uploaded(),
		"failed", result.Failed())
	return result, nil
}

// validateMatrix rejects a feature matrix that names media missing from the
// batch. The check runs before any mutation so a bad matrix leaves the
// catalog untouched.
func validateMatrix(rows []MediaRow, matrix *FeatureMatrix) error {
	names := make(map[string]bool, len(rows))
	for i := range rows {
		names[rows[i].Name] = true
	}
	for name := range matrix.Flagged {
		if !names[name] {
			return errors.New(fmt.Errorf("%w: %q", ErrUnknownMedia, name)).
				Component("ingest").
				Category(errors.CategoryValidation).
				Context("media_name", name).
				Build()
		}
	}
	return nil
}
