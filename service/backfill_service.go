package service

import (
	"context"
	"fmt"
	"time"

	"qanoonhub-backend/metrics"

	"go.uber.org/zap"
)

// Backfill batch limits per run. The nightly sweep is intentionally small;
// anything left over is picked up by the next run.
const (
	DefaultBackfillMaxDocuments = 200
	DefaultBackfillMaxChunks    = 500
)

// BackfillResult reports what one backfill run embedded
type BackfillResult struct {
	DocumentsEmbedded int `json:"documentsEmbedded"`
	ChunksEmbedded    int `json:"chunksEmbedded"`
}

// BackfillService sweeps up documents and chunks that missed their
// embeddings at ingestion time, usually because the provider was down or
// rate limited. Runs are idempotent: rows gain a vector at most once and
// drop out of the candidate set.
type BackfillService struct {
	judgments JudgmentStore
	chunks    ChunkStore
	embedder  Embedder

	maxDocuments int
	maxChunks    int
	batchSize    int
	batchDelay   time.Duration
	logger       *zap.Logger
}

// BackfillServiceOption is a functional option for BackfillService
type BackfillServiceOption func(*BackfillService)

// BackfillWithJudgmentStore sets the judgment store
func BackfillWithJudgmentStore(store JudgmentStore) BackfillServiceOption {
	return func(s *BackfillService) {
		s.judgments = store
	}
}

// BackfillWithChunkStore sets the chunk store
func BackfillWithChunkStore(store ChunkStore) BackfillServiceOption {
	return func(s *BackfillService) {
		s.chunks = store
	}
}

// BackfillWithEmbedder sets the embedding client
func BackfillWithEmbedder(embedder Embedder) BackfillServiceOption {
	return func(s *BackfillService) {
		s.embedder = embedder
	}
}

// BackfillWithLimits overrides the per-run document and chunk caps
func BackfillWithLimits(maxDocuments, maxChunks int) BackfillServiceOption {
	return func(s *BackfillService) {
		if maxDocuments > 0 {
			s.maxDocuments = maxDocuments
		}
		if maxChunks > 0 {
			s.maxChunks = maxChunks
		}
	}
}

// BackfillWithEmbedBatching overrides the embedding batch size and delay
func BackfillWithEmbedBatching(size int, delay time.Duration) BackfillServiceOption {
	return func(s *BackfillService) {
		if size > 0 {
			s.batchSize = size
		}
		s.batchDelay = delay
	}
}

// BackfillWithLogger sets the logger
func BackfillWithLogger(logger *zap.Logger) BackfillServiceOption {
	return func(s *BackfillService) {
		s.logger = logger
	}
}

// NewBackfillService creates a new backfill service
func NewBackfillService(opts ...BackfillServiceOption) *BackfillService {
	s := &BackfillService{
		maxDocuments: DefaultBackfillMaxDocuments,
		maxChunks:    DefaultBackfillMaxChunks,
		batchSize:    DefaultEmbedBatchSize,
		batchDelay:   DefaultEmbedBatchDelay,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one backfill pass and reports how many rows gained vectors.
// Provider failures leave the affected rows for the next run.
func (s *BackfillService) Run(ctx context.Context) (*BackfillResult, error) {
	result := &BackfillResult{}

	docs, err := s.judgments.ListMissingEmbeddings(ctx, s.maxDocuments)
	if err != nil {
		return nil, fmt.Errorf("failed to list judgments missing embeddings: %w", err)
	}
	for start := 0; start < len(docs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.EmbeddingInput())
		}
		vectors := s.embedder.EmbedBatch(ctx, texts)
		for i, d := range docs[start:end] {
			if vectors[i] == nil {
				continue
			}
			if err := s.judgments.UpdateEmbedding(ctx, d.ID, vectors[i]); err != nil {
				s.logger.Warn("failed to store backfilled judgment embedding",
					zap.String("judgment_id", d.ID.String()),
					zap.Error(err),
				)
				continue
			}
			result.DocumentsEmbedded++
			metrics.VectorsEmbedded.Inc()
		}
		if end < len(docs) && s.batchDelay > 0 {
			time.Sleep(s.batchDelay)
		}
	}

	chunks, err := s.chunks.ListMissingEmbeddings(ctx, s.maxChunks)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks missing embeddings: %w", err)
	}
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.ChunkText)
		}
		vectors := s.embedder.EmbedBatch(ctx, texts)
		for i, c := range chunks[start:end] {
			if vectors[i] == nil {
				continue
			}
			if err := s.chunks.UpdateEmbedding(ctx, c.ID, vectors[i]); err != nil {
				s.logger.Warn("failed to store backfilled chunk embedding",
					zap.String("chunk_id", c.ID.String()),
					zap.Error(err),
				)
				continue
			}
			result.ChunksEmbedded++
			metrics.VectorsEmbedded.Inc()
		}
		if end < len(chunks) && s.batchDelay > 0 {
			time.Sleep(s.batchDelay)
		}
	}

	if result.DocumentsEmbedded > 0 || result.ChunksEmbedded > 0 {
		s.logger.Info("embedding backfill finished",
			zap.Int("documents", result.DocumentsEmbedded),
			zap.Int("chunks", result.ChunksEmbedded),
		)
	}
	return result, nil
}
