// Background worker entry point for ClauseLens.  Consumes document lifecycle
// events from Kafka and re-runs the analysis pipeline for documents whose
// synchronous processing never completed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	appanalysis "github.com/clauselens/clauselens/internal/application/analysis"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/extraction"
	"github.com/clauselens/clauselens/internal/infrastructure/database/postgres"
	"github.com/clauselens/clauselens/internal/infrastructure/database/postgres/repositories"
	"github.com/clauselens/clauselens/internal/infrastructure/database/redis"
	"github.com/clauselens/clauselens/internal/infrastructure/messaging/kafka"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/prometheus"
	"github.com/clauselens/clauselens/internal/infrastructure/storage/minio"
	"github.com/clauselens/clauselens/internal/intelligence/analyzer"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultHealthPort = 8081
	handlerTimeout    = 5 * time.Minute
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	concurrency := flag.Int("workers", 0, "number of concurrent consumers (overrides config)")
	healthPort := flag.Int("health-port", defaultHealthPort, "health probe port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("worker")

	workers := cfg.Worker.Concurrency
	if *concurrency > 0 {
		workers = *concurrency
	}
	if workers <= 0 {
		workers = 2
	}

	logger.Info("starting ClauseLens worker",
		logging.Int("workers", workers),
		logging.String("group_id", cfg.Kafka.GroupID),
	)

	svc, cleanup, err := buildService(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", logging.Err(err))
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Liveness endpoint for orchestration probes.
	probe := &http.Server{
		Addr: fmt.Sprintf(":%d", *healthPort),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}),
	}
	go func() {
		if err := probe.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health probe server error", logging.Err(err))
		}
	}()

	// One consumer per worker; the Kafka group balances partitions across
	// them, and each consumer handles its messages sequentially.
	g, gctx := errgroup.WithContext(ctx)
	consumers := make([]*kafka.Consumer, 0, workers)
	for i := 0; i < workers; i++ {
		consumer, err := kafka.NewConsumer(cfg.Kafka, []string{kafka.TopicDocumentUploaded}, logger)
		if err != nil {
			logger.Error("failed to create kafka consumer", logging.Err(err))
			os.Exit(1)
		}
		consumer.Register(kafka.TopicDocumentUploaded, uploadedHandler(svc, logger))
		consumers = append(consumers, consumer)

		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	<-gctx.Done()
	logger.Info("shutting down worker")

	for _, consumer := range consumers {
		if err := consumer.Close(); err != nil {
			logger.Warn("consumer close failed", logging.Err(err))
		}
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer group error", logging.Err(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = probe.Shutdown(shutdownCtx)

	logger.Info("worker stopped")
}

// uploadedHandler re-runs the pipeline for a stored document.  The service
// skips documents that already have a persisted record, so redelivered
// events are harmless.
func uploadedHandler(svc *appanalysis.Service, logger logging.Logger) kafka.Handler {
	return func(ctx context.Context, env *kafka.EventEnvelope) error {
		var payload kafka.DocumentUploadedPayload
		if err := env.DecodePayload(&payload); err != nil {
			logger.Warn("undecodable document.uploaded payload",
				logging.String("event_id", env.EventID), logging.Err(err))
			return nil
		}
		if payload.ObjectKey == "" {
			logger.Debug("upload was not archived, nothing to repair",
				logging.String("analysis_id", payload.AnalysisID))
			return nil
		}

		hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()
		return svc.AnalyzeStored(hctx, payload.AnalysisID, payload.FileName, payload.ObjectKey)
	}
}

// buildService wires the analysis pipeline for background processing.
func buildService(cfg *config.Config, logger logging.Logger) (*appanalysis.Service, func(), error) {
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	repo := repositories.NewAnalysisRepo(conn, logger)

	minioClient, err := minio.NewClient(cfg.MinIO, logger)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("minio connection failed: %w", err)
	}
	store := minio.NewDocumentStore(minioClient, logger)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "clauselens",
		Subsystem: "worker",
	}, logger)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("metrics collector failed: %w", err)
	}

	opts := []appanalysis.Option{
		appanalysis.WithDocumentStore(store),
		appanalysis.WithMetrics(prometheus.NewAppMetrics(collector)),
	}

	var redisClient *redis.Client
	if rc, err := redis.NewClient(cfg.Redis, logger); err != nil {
		logger.Warn("redis unavailable, caching disabled", logging.Err(err))
	} else {
		redisClient = rc
		opts = append(opts, appanalysis.WithCache(redis.NewCache(rc, logger)))
	}

	var producer *kafka.Producer
	if p, err := kafka.NewProducer(cfg.Kafka, logger); err != nil {
		logger.Warn("kafka producer unavailable, event publishing disabled", logging.Err(err))
	} else {
		producer = p
		opts = append(opts, appanalysis.WithPublisher(p))
	}

	extractor := extraction.NewService(
		extraction.NewFitzEngine(),
		extraction.NewTesseractOCR(cfg.Extraction.OCRLanguage),
		extraction.Config{
			SubstantialTextLen: cfg.Extraction.SubstantialTextLen,
			MinViableLen:       cfg.Extraction.MinViableLen,
			OCRScale:           cfg.Extraction.OCRScale,
		},
		logger,
	)
	analyzerClient := analyzer.New(analyzer.Config{
		BaseURL:        cfg.Analyzer.BaseURL,
		APIKey:         cfg.Analyzer.APIKey,
		RequestTimeout: cfg.Analyzer.RequestTimeout,
		MaxRetries:     cfg.Analyzer.MaxRetries,
		RetryBackoff:   cfg.Analyzer.RetryBackoff,
	}, logger)

	svc := appanalysis.NewService(
		appanalysis.Config{
			ExtractTimeout: cfg.Extraction.ExtractTimeout,
			AnalyzeTimeout: cfg.Extraction.AnalyzeTimeout,
		},
		extractor,
		analyzerClient,
		repo,
		logger,
		opts...,
	)

	cleanup := func() {
		if producer != nil {
			_ = producer.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
		_ = conn.Close()
	}
	return svc, cleanup, nil
}
