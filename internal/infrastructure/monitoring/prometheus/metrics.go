package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the application metric vectors.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPRequestSize     HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Document pipeline
	DocumentsUploadedTotal  CounterVec
	DocumentUploadBytes     HistogramVec
	ExtractionDuration      HistogramVec
	ExtractionPagesTotal    CounterVec
	ExtractionFailuresTotal CounterVec
	OCRPagesTotal           CounterVec
	OCRFailuresTotal        CounterVec

	// Analysis layer
	AnalysisDuration       HistogramVec
	AnalysisRequestsTotal  CounterVec
	AnalysisDegradedTotal  CounterVec
	AnalysisRetriesTotal   CounterVec
	AnalysisInFlight       GaugeVec
	ComparisonsTotal       CounterVec
	InsightRequestsTotal   CounterVec

	// Infrastructure layer
	DBConnectionPoolActive GaugeVec
	DBQueryDuration        HistogramVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	EventsPublishedTotal   CounterVec
	EventProcessDuration   HistogramVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultExtractionDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultAnalysisDurationBuckets   = []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	DefaultSizeBuckets               = []float64{1024, 10240, 102400, 1048576, 10485760, 52428800}
	DefaultDBDurationBuckets         = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all application metrics on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Document pipeline
	m.DocumentsUploadedTotal = collector.RegisterCounter("documents_uploaded_total", "Uploaded documents", "file_type", "status")
	m.DocumentUploadBytes = collector.RegisterHistogram("document_upload_bytes", "Uploaded document size", DefaultSizeBuckets, "file_type")
	m.ExtractionDuration = collector.RegisterHistogram("extraction_duration_seconds", "Text extraction duration", DefaultExtractionDurationBuckets, "file_type")
	m.ExtractionPagesTotal = collector.RegisterCounter("extraction_pages_total", "Pages extracted", "file_type")
	m.ExtractionFailuresTotal = collector.RegisterCounter("extraction_failures_total", "Extraction failures", "file_type", "error_code")
	m.OCRPagesTotal = collector.RegisterCounter("ocr_pages_total", "Pages routed through OCR", "status")
	m.OCRFailuresTotal = collector.RegisterCounter("ocr_failures_total", "OCR page failures")

	// Analysis
	m.AnalysisDuration = collector.RegisterHistogram("analysis_duration_seconds", "End-to-end analysis duration", DefaultAnalysisDurationBuckets, "outcome")
	m.AnalysisRequestsTotal = collector.RegisterCounter("analysis_requests_total", "Analysis requests", "outcome")
	m.AnalysisDegradedTotal = collector.RegisterCounter("analysis_degraded_total", "Analyses that fell back to a degraded result", "reason")
	m.AnalysisRetriesTotal = collector.RegisterCounter("analysis_retries_total", "Analyzer call retries", "reason")
	m.AnalysisInFlight = collector.RegisterGauge("analysis_in_flight", "Analyses currently running", "source")
	m.ComparisonsTotal = collector.RegisterCounter("comparisons_total", "Document comparisons", "status")
	m.InsightRequestsTotal = collector.RegisterCounter("insight_requests_total", "Insight computations", "insight")

	// Infrastructure
	m.DBConnectionPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Events published", "topic", "status")
	m.EventProcessDuration = collector.RegisterHistogram("event_process_duration_seconds", "Event processing duration", DefaultHTTPDurationBuckets, "topic")

	// System health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// Recording helpers.

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	status := strconv.Itoa(statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

func RecordUpload(metrics *AppMetrics, fileType string, size int64, accepted bool) {
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	metrics.DocumentsUploadedTotal.WithLabelValues(fileType, status).Inc()
	if accepted {
		metrics.DocumentUploadBytes.WithLabelValues(fileType).Observe(float64(size))
	}
}

func RecordExtraction(metrics *AppMetrics, fileType string, pages int, duration time.Duration, errCode string) {
	metrics.ExtractionDuration.WithLabelValues(fileType).Observe(duration.Seconds())
	if pages > 0 {
		metrics.ExtractionPagesTotal.WithLabelValues(fileType).Add(float64(pages))
	}
	if errCode != "" {
		metrics.ExtractionFailuresTotal.WithLabelValues(fileType, errCode).Inc()
	}
}

func RecordAnalysis(metrics *AppMetrics, outcome string, duration time.Duration) {
	metrics.AnalysisRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.AnalysisDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func RecordDegraded(metrics *AppMetrics, reason string) {
	metrics.AnalysisDegradedTotal.WithLabelValues(reason).Inc()
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordDBQuery(metrics *AppMetrics, db, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(db, "query_error").Inc()
	}
}

func RecordEventPublished(metrics *AppMetrics, topic string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EventsPublishedTotal.WithLabelValues(topic, status).Inc()
}
