package main

import (
	"fmt"

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
	httpserver "github.com/clauselens/clauselens/internal/interfaces/http"
	"github.com/clauselens/clauselens/internal/interfaces/http/handlers"
	"github.com/clauselens/clauselens/internal/interfaces/http/middleware"
)

// dependencies holds every initialized infrastructure component so shutdown
// can release them in reverse order.
type dependencies struct {
	logger    logging.Logger
	conn      *postgres.Connection
	redis     *redis.Client
	cache     redis.Cache
	store     minio.DocumentStore
	producer  *kafka.Producer
	collector prometheus.MetricsCollector
	metrics   *prometheus.AppMetrics
	service   *appanalysis.Service
	limiter   *middleware.TokenBucketLimiter
}

// buildDependencies wires the infrastructure and application layers from the
// configuration.  Postgres and the analyzer are required; cache, object store
// and messaging degrade to warnings so a partial stack still serves requests.
func buildDependencies(cfg *config.Config, logger logging.Logger) (*dependencies, error) {
	deps := &dependencies{logger: logger}

	// Postgres is the system of record; refuse to start without it.
	if err := postgres.RunMigrations(postgres.DSN(cfg.Database), "file://"+cfg.Database.MigrationPath); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	deps.conn = conn
	repo := repositories.NewAnalysisRepo(conn, logger)

	// Metrics
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "clauselens",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("metrics collector failed: %w", err)
	}
	deps.collector = collector
	deps.metrics = prometheus.NewAppMetrics(collector)

	// Extraction and analysis
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

	opts := []appanalysis.Option{
		appanalysis.WithMetrics(deps.metrics),
	}

	// Optional components.
	if redisClient, err := redis.NewClient(cfg.Redis, logger); err != nil {
		logger.Warn("redis unavailable, caching disabled", logging.Err(err))
	} else {
		deps.redis = redisClient
		deps.cache = redis.NewCache(redisClient, logger)
		opts = append(opts, appanalysis.WithCache(deps.cache))
	}

	if minioClient, err := minio.NewClient(cfg.MinIO, logger); err != nil {
		logger.Warn("minio unavailable, document archiving disabled", logging.Err(err))
	} else {
		deps.store = minio.NewDocumentStore(minioClient, logger)
		opts = append(opts, appanalysis.WithDocumentStore(deps.store))
	}

	if producer, err := kafka.NewProducer(cfg.Kafka, logger); err != nil {
		logger.Warn("kafka unavailable, event publishing disabled", logging.Err(err))
	} else {
		deps.producer = producer
		opts = append(opts, appanalysis.WithPublisher(producer))
	}

	deps.service = appanalysis.NewService(
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

	return deps, nil
}

// RouterConfig assembles the HTTP route tree configuration.
func (d *dependencies) RouterConfig(cfg *config.Config) httpserver.RouterConfig {
	routerCfg := httpserver.RouterConfig{
		DocumentHandler:  handlers.NewDocumentHandler(d.service, cfg.Server.MaxUploadBytes, d.logger),
		HealthHandler:    handlers.NewHealthHandler(d.healthCheckers(), d.logger),
		Logger:           d.logger,
		Logging:          middleware.DefaultLoggingConfig(),
		Metrics:          d.metrics,
		MetricsCollector: d.collector,
	}

	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = cfg.Server.CORSOrigins
		routerCfg.CORS = &corsCfg
	}

	if cfg.Server.RateLimitRPS > 0 {
		rlCfg := middleware.DefaultRateLimitConfig()
		rlCfg.RequestsPerSecond = cfg.Server.RateLimitRPS
		if cfg.Server.RateLimitBurst > 0 {
			rlCfg.BurstSize = cfg.Server.RateLimitBurst
		}
		d.limiter = middleware.NewTokenBucketLimiter(
			rlCfg.RequestsPerSecond, rlCfg.BurstSize, rlCfg.CleanupInterval)
		routerCfg.RateLimiter = d.limiter
		routerCfg.RateLimit = rlCfg
	}

	return routerCfg
}

// healthCheckers exposes one readiness checker per live component.
func (d *dependencies) healthCheckers() map[string]handlers.ComponentChecker {
	checkers := map[string]handlers.ComponentChecker{
		"postgres": d.conn.HealthCheck,
	}
	if d.cache != nil {
		checkers["redis"] = d.cache.Ping
	}
	return checkers
}

// Close releases all components; safe to call with partially built deps.
func (d *dependencies) Close() {
	if d.limiter != nil {
		d.limiter.Stop()
	}
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			d.logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			d.logger.Warn("postgres close failed", logging.Err(err))
		}
	}
}
