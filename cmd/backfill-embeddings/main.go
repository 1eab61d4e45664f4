package main

import (
	"context"
	"flag"
	"log"

	"qanoonhub-backend/config"
	"qanoonhub-backend/embedding"
	"qanoonhub-backend/repository"
	"qanoonhub-backend/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// One-shot embedding backfill. The server runs the same sweep on a schedule;
// this tool exists for initial corpus loads and incident recovery, where an
// operator wants to drive repeated passes by hand.
func main() {
	maxDocs := flag.Int("max-docs", service.DefaultBackfillMaxDocuments, "documents to embed per pass")
	maxChunks := flag.Int("max-chunks", 0, "chunks to embed per pass (0 = configured default)")
	passes := flag.Int("passes", 1, "number of passes to run")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	provider, err := embedding.NewProviderFromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("No embedding provider available", zap.Error(err))
	}
	embedClient := embedding.NewClient(provider, cfg.EmbeddingModel, cfg.EmbeddingCacheTTL, logger)

	chunkCap := cfg.BackfillMaxChunks
	if *maxChunks > 0 {
		chunkCap = *maxChunks
	}

	backfill := service.NewBackfillService(
		service.BackfillWithJudgmentStore(repository.NewJudgmentRepository(pool)),
		service.BackfillWithChunkStore(repository.NewChunkRepository(pool)),
		service.BackfillWithEmbedder(embedClient),
		service.BackfillWithLimits(*maxDocs, chunkCap),
		service.BackfillWithEmbedBatching(cfg.EmbedBatchSize, cfg.EmbedBatchDelay),
		service.BackfillWithLogger(logger),
	)

	totalDocs, totalChunks := 0, 0
	for pass := 1; pass <= *passes; pass++ {
		result, err := backfill.Run(ctx)
		if err != nil {
			logger.Fatal("Backfill pass failed", zap.Int("pass", pass), zap.Error(err))
		}
		totalDocs += result.DocumentsEmbedded
		totalChunks += result.ChunksEmbedded
		logger.Info("Pass complete",
			zap.Int("pass", pass),
			zap.Int("documents", result.DocumentsEmbedded),
			zap.Int("chunks", result.ChunksEmbedded),
		)
		if result.DocumentsEmbedded == 0 && result.ChunksEmbedded == 0 {
			break
		}
	}

	logger.Info("Backfill finished",
		zap.Int("documents", totalDocs),
		zap.Int("chunks", totalChunks),
	)
}
