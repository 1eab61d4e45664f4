package main

import (
	"context"
	"log"

	"qanoonhub-backend/config"
	"qanoonhub-backend/embedding"
	"qanoonhub-backend/handlers"
	"qanoonhub-backend/repository"
	"qanoonhub-backend/service"
	"qanoonhub-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := initPostgres(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Postgres", zap.Error(err))
	}
	defer db.Close()

	// Payload archive for bulk ingestion. Best-effort: the server runs
	// without it.
	archive, err := storage.NewStorageFromEnv()
	if err != nil {
		logger.Warn("Payload archive unavailable, bulk payloads will not be archived", zap.Error(err))
		archive = nil
	}

	// Initialize repositories
	judgmentRepo := repository.NewJudgmentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	citationRepo := repository.NewCitationRepository(db)
	jobRepo := repository.NewIngestionJobRepository(db)

	// Embedding client. A missing provider is a warning, not a fatal: the
	// service runs lexical-only until one is configured.
	var embedClient *embedding.Client
	provider, err := embedding.NewProviderFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Warn("No embedding provider available, running lexical-only", zap.Error(err))
	} else {
		embedClient = embedding.NewClient(provider, cfg.EmbeddingModel, cfg.EmbeddingCacheTTL, logger)
		logger.Info("Embedding provider initialized",
			zap.String("provider", provider.Name()),
			zap.Int("dimension", provider.Dimension()),
		)
	}

	// Initialize services
	searchOpts := []service.SearchServiceOption{
		service.SearchWithJudgmentStore(judgmentRepo),
		service.SearchWithChunkStore(chunkRepo),
		service.SearchWithLogger(logger),
	}
	if embedClient != nil {
		searchOpts = append(searchOpts, service.SearchWithEmbedder(embedClient))
	}
	searchService := service.NewSearchService(searchOpts...)

	judgmentService := service.NewJudgmentService(
		service.JudgmentWithJudgmentStore(judgmentRepo),
		service.JudgmentWithChunkStore(chunkRepo),
		service.JudgmentWithCitationStore(citationRepo),
		service.JudgmentWithJobStore(jobRepo),
		service.JudgmentWithLogger(logger),
	)

	ingestOpts := []service.IngestServiceOption{
		service.IngestWithJudgmentStore(judgmentRepo),
		service.IngestWithChunkStore(chunkRepo),
		service.IngestWithCitationStore(citationRepo),
		service.IngestWithJobStore(jobRepo),
		service.IngestWithChunker(service.NewChunker(cfg.MaxChunkTokens)),
		service.IngestWithEmbedBatching(cfg.EmbedBatchSize, cfg.EmbedBatchDelay, cfg.EmbedRatePerSecond),
		service.IngestWithLogger(logger),
	}
	if embedClient != nil {
		ingestOpts = append(ingestOpts, service.IngestWithEmbedder(embedClient))
	}
	if archive != nil {
		ingestOpts = append(ingestOpts, service.IngestWithArchive(archive))
	}
	ingestService := service.NewIngestService(ingestOpts...)

	backfillOpts := []service.BackfillServiceOption{
		service.BackfillWithJudgmentStore(judgmentRepo),
		service.BackfillWithChunkStore(chunkRepo),
		service.BackfillWithLimits(0, cfg.BackfillMaxChunks),
		service.BackfillWithEmbedBatching(cfg.EmbedBatchSize, cfg.EmbedBatchDelay),
		service.BackfillWithLogger(logger),
	}
	if embedClient != nil {
		backfillOpts = append(backfillOpts, service.BackfillWithEmbedder(embedClient))
	}
	backfillService := service.NewBackfillService(backfillOpts...)

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(searchService)
	judgmentHandler := handlers.NewJudgmentHandler(judgmentService)
	ingestHandler := handlers.NewIngestHandler(ingestService, logger)
	adminHandler := handlers.NewAdminHandler(judgmentService, backfillService)

	// Scheduled maintenance: nightly embedding backfill plus a watchdog that
	// fails jobs whose worker died mid-run.
	scheduler := cron.New()
	if embedClient != nil {
		if _, err := scheduler.AddFunc(cfg.BackfillCronSchedule, func() {
			if _, err := backfillService.Run(context.Background()); err != nil {
				logger.Error("Scheduled backfill failed", zap.Error(err))
			}
		}); err != nil {
			logger.Fatal("Invalid backfill cron schedule", zap.Error(err))
		}
	}
	if _, err := scheduler.AddFunc("@every 5m", func() {
		failed, err := jobRepo.FailStuck(context.Background(), cfg.JobMaxRuntime)
		if err != nil {
			logger.Error("Stuck-job watchdog failed", zap.Error(err))
			return
		}
		if failed > 0 {
			logger.Warn("Marked stuck ingestion jobs as failed", zap.Int64("count", failed))
		}
	}); err != nil {
		logger.Fatal("Failed to schedule job watchdog", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup Gin router
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Read endpoints
		api.POST("/search", searchHandler.Search)
		api.GET("/judgments", judgmentHandler.ListJudgments)
		api.GET("/judgments/:id", judgmentHandler.GetJudgment)
		api.GET("/judgments/:id/citations", judgmentHandler.GetCitations)
		api.GET("/ingest/jobs/:id", ingestHandler.GetJobStatus)

		// Write and operational endpoints, API-key guarded when configured
		guarded := api.Group("", handlers.APIKeyAuth(cfg.APIKeyHash))
		{
			guarded.PUT("/judgments/:id", judgmentHandler.UpdateJudgment)
			guarded.POST("/ingest", ingestHandler.Ingest)
			guarded.POST("/ingest/jobs", ingestHandler.CreateJob)
			guarded.GET("/admin/stats", adminHandler.GetStats)
			guarded.POST("/admin/backfill", adminHandler.RunBackfill)
		}
	}

	logger.Info("Server starting", zap.String("port", cfg.HTTPPort))
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func initPostgres(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	// Enable pgvector extension
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		logger.Warn("Failed to create pgvector extension, it may already exist or require superuser", zap.Error(err))
	} else {
		logger.Info("pgvector extension enabled")
	}

	logger.Info("Postgres connection established")
	return pool, nil
}
