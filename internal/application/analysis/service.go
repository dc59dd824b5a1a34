// Package analysis orchestrates the document pipeline: store the upload,
// extract text, call the external analyzer, persist the result, and publish
// lifecycle events.  Pipeline failures after a document is accepted never
// surface as errors; they produce a degraded record instead.
package analysis

import (
	"context"
	"strings"
	"time"

	domain "github.com/clauselens/clauselens/internal/domain/analysis"
	"github.com/clauselens/clauselens/internal/domain/upload"
	"github.com/clauselens/clauselens/internal/extraction"
	"github.com/clauselens/clauselens/internal/infrastructure/database/redis"
	"github.com/clauselens/clauselens/internal/infrastructure/messaging/kafka"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/prometheus"
	"github.com/clauselens/clauselens/internal/intelligence/analyzer"
	"github.com/clauselens/clauselens/pkg/errors"
)

const (
	cacheKeyPrefix  = "analysis:"
	cacheTTL        = 30 * time.Minute
	eventSource     = "clauselens"
	objectKeyPrefix = "documents/"
)

// Extractor is the text-extraction port, satisfied by *extraction.Service.
type Extractor interface {
	ExtractText(ctx context.Context, doc extraction.Document) (*extraction.Result, error)
}

// DocumentStore is the object-storage port for raw uploads.
type DocumentStore interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) error
	Download(ctx context.Context, objectKey string) ([]byte, error)
	Delete(ctx context.Context, objectKey string) error
}

// EventPublisher is the messaging port, satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, env *kafka.EventEnvelope) error
}

// Config carries the pipeline stage deadlines.
type Config struct {
	ExtractTimeout time.Duration
	AnalyzeTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ExtractTimeout <= 0 {
		c.ExtractTimeout = 2 * time.Minute
	}
	if c.AnalyzeTimeout <= 0 {
		c.AnalyzeTimeout = 2 * time.Minute
	}
}

// Service runs the analysis pipeline end to end.
type Service struct {
	cfg       Config
	extractor Extractor
	analyzer  analyzer.Client
	repo      domain.Repository
	cache     redis.Cache
	store     DocumentStore
	publisher EventPublisher
	tracker   *upload.Tracker
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// Option customises the Service.
type Option func(*Service)

// WithCache enables read-through caching of analysis records.
func WithCache(c redis.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithDocumentStore enables archival of raw uploads in object storage.
func WithDocumentStore(store DocumentStore) Option {
	return func(s *Service) { s.store = store }
}

// WithPublisher enables lifecycle event publication.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics enables pipeline metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs the pipeline service.  Extractor, analyzer client and
// repository are required; cache, store, publisher and metrics are optional.
func NewService(cfg Config, extractor Extractor, client analyzer.Client, repo domain.Repository, logger logging.Logger, opts ...Option) *Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Service{
		cfg:       cfg,
		extractor: extractor,
		analyzer:  client,
		repo:      repo,
		tracker:   upload.NewTracker(),
		logger:    logger.Named("analysis"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tracker exposes the upload state registry for status queries.
func (s *Service) Tracker() *upload.Tracker { return s.tracker }

// Analyze runs the full pipeline for one uploaded document and returns the
// persisted record.  Empty uploads are rejected with an error; every failure
// after that point degrades the result instead of failing the call.  Only a
// persistence failure is returned, since a record we could not save cannot be
// fetched later.
func (s *Service) Analyze(ctx context.Context, fileName string, data []byte) (*domain.Record, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, errors.InvalidParam("file name is required")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDocument, "uploaded document is empty").
			WithDetail("file=" + fileName)
	}

	state := upload.NewState(fileName)
	s.tracker.Add(state)
	analysisID := state.ID()
	started := time.Now()

	if err := state.MarkProcessing(); err != nil {
		return nil, err
	}

	objectKey := s.archive(ctx, analysisID, fileName, data)
	s.publishUploaded(ctx, analysisID, fileName, objectKey, int64(len(data)))

	rec := s.runPipeline(ctx, analysisID, fileName, data)
	rec.ObjectKey = objectKey

	if err := s.repo.Save(ctx, rec); err != nil {
		_ = state.MarkError("failed to store analysis result")
		s.publishFailed(ctx, rec, errors.GetCode(err).String(), "failed to store analysis result")
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to store analysis result")
	}

	s.cacheSet(ctx, rec)
	s.publishAnalyzed(ctx, rec)
	_ = state.MarkCompleted(rec.ID)
	s.recordOutcome(rec, time.Since(started))

	return rec, nil
}

// AnalyzeStored re-runs the pipeline for a document already sitting in object
// storage.  Used by the background worker as the at-least-once repair path:
// if a record already exists for the ID the event is a duplicate and nothing
// happens.
func (s *Service) AnalyzeStored(ctx context.Context, analysisID, fileName, objectKey string) error {
	if _, err := s.repo.Get(ctx, analysisID); err == nil {
		s.logger.Debug("analysis already present, skipping",
			logging.String("analysis_id", analysisID))
		return nil
	} else if !errors.IsCode(err, errors.ErrCodeNotFound) {
		return err
	}

	if s.store == nil {
		return errors.Internal("document store not configured")
	}
	data, err := s.store.Download(ctx, objectKey)
	if err != nil {
		return err
	}

	started := time.Now()
	rec := s.runPipeline(ctx, analysisID, fileName, data)
	rec.ObjectKey = objectKey

	if err := s.repo.Save(ctx, rec); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to store analysis result")
	}
	s.cacheSet(ctx, rec)
	s.publishAnalyzed(ctx, rec)
	s.recordOutcome(rec, time.Since(started))
	return nil
}

// runPipeline performs extraction and analysis, degrading on any stage
// failure.  The returned record always carries a usable analysis.
func (s *Service) runPipeline(ctx context.Context, analysisID, fileName string, data []byte) *domain.Record {
	extracted, extractErr := s.extract(ctx, fileName, data)

	var (
		result        *domain.DocumentAnalysis
		degradedFor   string
		lowConfidence bool
	)

	switch {
	case extractErr != nil:
		degradedFor = degradeReason(extractErr)
	case strings.TrimSpace(extracted.Text) == "":
		degradedFor = errors.DefaultMessageForCode(errors.ErrCodeEmptyContent)
	default:
		lowConfidence = extracted.LowConfidence
		var analyzeErr error
		result, analyzeErr = s.analyze(ctx, extracted.Text, fileName)
		if analyzeErr != nil {
			degradedFor = degradeReason(analyzeErr)
		}
	}

	if degradedFor != "" {
		s.logger.Warn("analysis degraded",
			logging.String("file", fileName),
			logging.String("reason", degradedFor),
		)
		if s.metrics != nil {
			prometheus.RecordDegraded(s.metrics, degradedFor)
		}
		result = domain.Degraded(fileName, degradedFor)
	}

	rec := domain.NewRecord(fileName, result)
	rec.ID = analysisID
	rec.LowConfidence = lowConfidence
	rec.DegradedReason = degradedFor
	return rec
}

func (s *Service) extract(ctx context.Context, fileName string, data []byte) (*extraction.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	defer cancel()
	started := time.Now()
	res, err := s.extractor.ExtractText(ctx, extraction.Document{Name: fileName, Data: data})
	if s.metrics != nil {
		pages := 0
		if res != nil {
			pages = res.PageCount
		}
		prometheus.RecordExtraction(s.metrics, fileType(fileName), pages, time.Since(started), errCodeLabel(err))
	}
	return res, err
}

func (s *Service) analyze(ctx context.Context, text, fileName string) (*domain.DocumentAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AnalyzeTimeout)
	defer cancel()
	return s.analyzer.Analyze(ctx, text, fileName)
}

// Get returns the record for id, reading through the cache when one is
// configured.
func (s *Service) Get(ctx context.Context, id string) (*domain.Record, error) {
	if s.cache == nil {
		return s.repo.Get(ctx, id)
	}
	var rec domain.Record
	err := s.cache.GetOrSet(ctx, cacheKeyPrefix+id, &rec, cacheTTL, func(ctx context.Context) (interface{}, error) {
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns records matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Record, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes the record, its cache entry and its stored object.  Object
// deletion is best effort: an unreachable store does not resurrect the record.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKeyPrefix+id); err != nil {
			s.logger.Warn("failed to evict analysis from cache",
				logging.String("analysis_id", id), logging.Err(err))
		}
	}
	if s.store != nil && rec.ObjectKey != "" {
		if err := s.store.Delete(ctx, rec.ObjectKey); err != nil {
			s.logger.Warn("failed to delete stored document",
				logging.String("object_key", rec.ObjectKey), logging.Err(err))
		}
	}
	return nil
}

// Compare loads both analyses and delegates the diff to the external
// comparison capability.
func (s *Service) Compare(ctx context.Context, id1, id2 string) (*domain.ComparisonResult, error) {
	rec1, err := s.Get(ctx, id1)
	if err != nil {
		return nil, err
	}
	rec2, err := s.Get(ctx, id2)
	if err != nil {
		return nil, err
	}
	result, err := s.analyzer.Compare(ctx,
		analyzer.NamedAnalysis{Name: rec1.FileName, Analysis: rec1.Analysis},
		analyzer.NamedAnalysis{Name: rec2.FileName, Analysis: rec2.Analysis},
	)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.ComparisonsTotal.WithLabelValues(status).Inc()
	}
	return result, err
}

// archive stores the raw upload; failure is non-fatal and leaves the record
// without an object key.
func (s *Service) archive(ctx context.Context, analysisID, fileName string, data []byte) string {
	if s.store == nil {
		return ""
	}
	objectKey := objectKeyPrefix + analysisID + "/" + fileName
	if err := s.store.Upload(ctx, objectKey, data, contentTypeFor(fileName)); err != nil {
		s.logger.Warn("failed to archive upload, continuing without object storage",
			logging.String("file", fileName), logging.Err(err))
		return ""
	}
	return objectKey
}

func (s *Service) cacheSet(ctx context.Context, rec *domain.Record) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+rec.ID, rec, cacheTTL); err != nil {
		s.logger.Warn("failed to cache analysis",
			logging.String("analysis_id", rec.ID), logging.Err(err))
	}
}

func (s *Service) publishUploaded(ctx context.Context, analysisID, fileName, objectKey string, size int64) {
	if s.publisher == nil {
		return
	}
	env, err := kafka.NewEventEnvelope(kafka.TopicDocumentUploaded, eventSource, kafka.DocumentUploadedPayload{
		AnalysisID: analysisID,
		FileName:   fileName,
		ObjectKey:  objectKey,
		Size:       size,
		UploadedAt: time.Now().UTC(),
	})
	if err == nil {
		err = s.publisher.Publish(ctx, kafka.TopicDocumentUploaded, analysisID, env)
	}
	s.notePublish(kafka.TopicDocumentUploaded, err)
}

func (s *Service) publishAnalyzed(ctx context.Context, rec *domain.Record) {
	if s.publisher == nil {
		return
	}
	high := 0
	for _, r := range rec.Analysis.Risks {
		if r.Level == domain.RiskHigh {
			high++
		}
	}
	env, err := kafka.NewEventEnvelope(kafka.TopicDocumentAnalyzed, eventSource, kafka.DocumentAnalyzedPayload{
		AnalysisID:    rec.ID,
		FileName:      rec.FileName,
		RiskCount:     len(rec.Analysis.Risks),
		HighRiskCount: high,
		Degraded:      rec.DegradedReason != "",
		LowConfidence: rec.LowConfidence,
		AnalyzedAt:    rec.UpdatedAt,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, kafka.TopicDocumentAnalyzed, rec.ID, env)
	}
	s.notePublish(kafka.TopicDocumentAnalyzed, err)
}

func (s *Service) publishFailed(ctx context.Context, rec *domain.Record, errCode, reason string) {
	if s.publisher == nil {
		return
	}
	env, err := kafka.NewEventEnvelope(kafka.TopicDocumentAnalysisFailed, eventSource, kafka.DocumentAnalysisFailedPayload{
		AnalysisID: rec.ID,
		FileName:   rec.FileName,
		ErrorCode:  errCode,
		Reason:     reason,
		FailedAt:   time.Now().UTC(),
	})
	if err == nil {
		err = s.publisher.Publish(ctx, kafka.TopicDocumentAnalysisFailed, rec.ID, env)
	}
	s.notePublish(kafka.TopicDocumentAnalysisFailed, err)
}

func (s *Service) notePublish(topic string, err error) {
	if err != nil {
		s.logger.Warn("failed to publish event", logging.String("topic", topic), logging.Err(err))
	}
	if s.metrics != nil {
		prometheus.RecordEventPublished(s.metrics, topic, err)
	}
}

func (s *Service) recordOutcome(rec *domain.Record, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if rec.DegradedReason != "" {
		outcome = "degraded"
	}
	prometheus.RecordAnalysis(s.metrics, outcome, elapsed)
}

// degradeReason renders a pipeline error as the user-visible degradation
// reason stored on the record.
func degradeReason(err error) string {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr.Message
	}
	return err.Error()
}

func errCodeLabel(err error) string {
	if err == nil {
		return ""
	}
	return errors.GetCode(err).String()
}

func fileType(fileName string) string {
	if idx := strings.LastIndex(fileName, "."); idx >= 0 && idx < len(fileName)-1 {
		return strings.ToLower(fileName[idx+1:])
	}
	return "unknown"
}

func contentTypeFor(fileName string) string {
	switch fileType(fileName) {
	case "pdf":
		return "application/pdf"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
