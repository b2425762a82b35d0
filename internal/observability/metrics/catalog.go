// Package metrics provides Prometheus metrics for catalog operations
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics contains Prometheus metrics for ingestion and retrieval operations
type CatalogMetrics struct {
	registry *prometheus.Registry

	// Ingestion metrics
	ingestRowsTotal    *prometheus.CounterVec
	ingestBatchesTotal *prometheus.CounterVec
	ingestDuration     prometheus.Histogram

	// Blob store metrics
	blobUploadsTotal   *prometheus.CounterVec
	blobDownloadsTotal *prometheus.CounterVec

	// Search metrics
	searchOperationsTotal *prometheus.CounterVec
	searchDuration        prometheus.Histogram
	searchResultSizeHist  prometheus.Histogram
}

// NewCatalogMetrics creates and registers catalog metrics with the given registry
func NewCatalogMetrics(registry *prometheus.Registry) (*CatalogMetrics, error) {
	m := &CatalogMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CatalogMetrics) initMetrics() error {
	m.ingestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_ingest_rows_total",
			Help: "Total number of media rows processed by the ingestion pipeline",
		},
		[]string{"status"},
	)

	m.ingestBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_ingest_batches_total",
			Help: "Total number of ingestion batches by outcome",
		},
		[]string{"status"},
	)

	m.ingestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagedb_ingest_batch_duration_seconds",
			Help:    "Duration of ingestion batches in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	m.blobUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_blob_uploads_total",
			Help: "Total number of blob uploads by outcome",
		},
		[]string{"status"},
	)

	m.blobDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_blob_downloads_total",
			Help: "Total number of blob downloads by outcome",
		},
		[]string{"status"},
	)

	m.searchOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedb_search_operations_total",
			Help: "Total number of search operations by outcome",
		},
		[]string{"status"},
	)

	m.searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagedb_search_duration_seconds",
			Help:    "Duration of search operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	m.searchResultSizeHist = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagedb_search_result_size",
			Help:    "Number of rows returned by search operations",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	collectors := []prometheus.Collector{
		m.ingestRowsTotal,
		m.ingestBatchesTotal,
		m.ingestDuration,
		m.blobUploadsTotal,
		m.blobDownloadsTotal,
		m.searchOperationsTotal,
		m.searchDuration,
		m.searchResultSizeHist,
	}
	for _, collector := range collectors {
		if err := m.registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordIngestRow records the outcome of a single ingested row
func (m *CatalogMetrics) RecordIngestRow(status string) {
	if m == nil {
		return
	}
	m.ingestRowsTotal.WithLabelValues(status).Inc()
}

// RecordIngestBatch records the outcome and duration of an ingestion batch
func (m *CatalogMetrics) RecordIngestBatch(status string, seconds float64) {
	if m == nil {
		return
	}
	m.ingestBatchesTotal.WithLabelValues(status).Inc()
	m.ingestDuration.Observe(seconds)
}

// RecordBlobUpload records the outcome of a blob upload
func (m *CatalogMetrics) RecordBlobUpload(status string) {
	if m == nil {
		return
	}
	m.blobUploadsTotal.WithLabelValues(status).Inc()
}

// RecordBlobDownload records the outcome of a blob download
func (m *CatalogMetrics) RecordBlobDownload(status string) {
	if m == nil {
		return
	}
	m.blobDownloadsTotal.WithLabelValues(status).Inc()
}

// RecordSearch records the outcome, duration and result size of a search
func (m *CatalogMetrics) RecordSearch(status string, seconds float64, resultSize int) {
	if m == nil {
		return
	}
	m.searchOperationsTotal.WithLabelValues(status).Inc()
	m.searchDuration.Observe(seconds)
	m.searchResultSizeHist.Observe(float64(resultSize))
}
