// Package blobstore moves media payloads to and from S3-compatible object
// storage. Metadata stays in the relational catalog; this package only ever
// sees opaque files keyed by their catalog identifiers.
package blobstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tphakala/imagedb-go/internal/conf"
	"github.com/tphakala/imagedb-go/internal/errors"
	"github.com/tphakala/imagedb-go/internal/logging"
)

// Store is the object storage surface the ingestion and export pipelines use.
type Store interface {
	// EnsureBucket creates the bucket when it does not yet exist.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutFile uploads the file at localPath under the given key.
	PutFile(ctx context.Context, bucket, key, localPath string) error

	// FetchBatch downloads the requested objects into destDir, one result
	// per request in the same order. A failed item does not abort the rest.
	FetchBatch(ctx context.Context, destDir string, requests []FetchRequest) []FetchResult

	// ObjectLink renders the stored locator for an uploaded object.
	ObjectLink(bucket, key string) string

	// Endpoint reports the store's configured endpoint address.
	Endpoint() string
}

// FetchRequest names one object to download. FileName is the name the object
// is saved under locally.
type FetchRequest struct {
	Bucket   string
	Key      string
	FileName string
}

// FetchResult reports the outcome of one FetchBatch item.
type FetchResult struct {
	Request   FetchRequest
	LocalPath string
	Err       error
}

// MinioStore talks to a MinIO or any S3-compatible endpoint.
type MinioStore struct {
	client   *minio.Client
	endpoint string
	timeout  time.Duration
	log      *slog.Logger
}

// New connects to the configured object storage endpoint.
func New(settings *conf.BlobStoreSettings) (*MinioStore, error) {
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("connecting to object store at %s: %w", settings.Endpoint, err)).
			Component("blobstore").
			Category(errors.CategoryConfiguration).
			Context("endpoint", settings.Endpoint).
			Build()
	}

	timeout := time.Duration(settings.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	log := logging.ForService("blobstore")
	if log == nil {
		log = slog.Default().With("service", "blobstore")
	}

	return &MinioStore{
		client:   client,
		endpoint: settings.Endpoint,
		timeout:  timeout,
		log:      log,
	}, nil
}

// Endpoint reports the configured endpoint address.
func (s *MinioStore) Endpoint() string {
	return s.endpoint
}

// EnsureBucket creates the bucket when it does not yet exist.
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return errors.New(fmt.Errorf("checking bucket %q: %w", bucket, err)).
			Component("blobstore").
			Category(errors.CategoryNetwork).
			Context("bucket", bucket).
			Build()
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.New(fmt.Errorf("creating bucket %q: %w", bucket, err)).
			Component("blobstore").
			Category(errors.CategoryNetwork).
			Context("bucket", bucket).
			Build()
	}
	s.log.Info("Created bucket", "bucket", bucket)
	return nil
}

// PutFile uploads the file at localPath under the given key.
func (s *MinioStore) PutFile(ctx context.Context, bucket, key, localPath string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{})
	if err != nil {
		return errors.New(fmt.Errorf("uploading %s to %s/%s: %w", localPath, bucket, key, err)).
			Component("blobstore").
			Category(errors.CategoryBlobUpload).
			Context("bucket", bucket).
			Context("key", key).
			Build()
	}
	s.log.Debug("Uploaded object",
		"bucket", bucket,
		"key", key,
		"size", info.Size)
	return nil
}

// FetchBatch downloads each requested object into destDir. Items fail
// independently so one missing object does not abort the batch.
func (s *MinioStore) FetchBatch(ctx context.Context, destDir string, requests []FetchRequest) []FetchResult {
	results := make([]FetchResult, len(requests))
	for i, req := range requests {
		results[i] = FetchResult{Request: req}

		name := req.FileName
		if name == "" {
			name = req.Key
		}
		localPath := filepath.Join(destDir, name)

		err := s.fetchOne(ctx, req.Bucket, req.Key, localPath)
		if err != nil {
			results[i].Err = err
			s.log.Warn("Object download failed",
				"bucket", req.Bucket,
				"key", req.Key,
				"error", err)
			continue
		}
		results[i].LocalPath = localPath
	}
	return results
}

func (s *MinioStore) fetchOne(ctx context.Context, bucket, key, localPath string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return errors.New(fmt.Errorf("downloading %s/%s: %w", bucket, key, err)).
			Component("blobstore").
			Category(errors.CategoryBlobDownload).
			Context("bucket", bucket).
			Context("key", key).
			Build()
	}
	return nil
}

// ObjectLink renders the locator persisted alongside the catalog row, in the
// form endpoint:/bucket:/key.
func (s *MinioStore) ObjectLink(bucket, key string) string {
	return FormatLink(s.endpoint, bucket, key)
}

// FormatLink builds an object locator from its parts.
func FormatLink(endpoint, bucket, key string) string {
	return fmt.Sprintf("%s:/%s:/%s", endpoint, bucket, key)
}

// ParseLink splits an object locator back into endpoint, bucket and key.
func ParseLink(link string) (endpoint, bucket, key string, err error) {
	parts := strings.Split(link, ":/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", errors.Newf("malformed object link %q", link).
			Component("blobstore").
			Category(errors.CategoryValidation).
			Build()
	}
	return parts[0], parts[1], parts[2], nil
}
