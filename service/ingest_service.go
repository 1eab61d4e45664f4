package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qanoonhub-backend/metrics"
	"qanoonhub-backend/models"
	"qanoonhub-backend/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Embedding throughput knobs. Texts are embedded in small fixed groups with
// a pause between groups; this caps throughput on purpose to stay inside the
// provider's rate limits.
const (
	DefaultEmbedBatchSize  = 8
	DefaultEmbedBatchDelay = 500 * time.Millisecond
)

// IngestResult is the outcome of one ingestion call
type IngestResult struct {
	Processed int `json:"processed"`
	Embedded  int `json:"embedded"`
	Failed    int `json:"failed"`
}

// IngestService accepts batches of raw judgment records, persists them with
// their chunks, schedules embedding generation and tracks job progress for
// polling.
type IngestService struct {
	judgments JudgmentStore
	chunks    ChunkStore
	citations CitationStore
	jobs      JobStore
	embedder  Embedder
	resolver  *CitationResolver
	chunker   *Chunker
	archive   storage.Storage

	batchSize  int
	batchDelay time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// IngestServiceOption is a functional option for IngestService
type IngestServiceOption func(*IngestService)

// IngestWithJudgmentStore sets the judgment store
func IngestWithJudgmentStore(store JudgmentStore) IngestServiceOption {
	return func(s *IngestService) {
		s.judgments = store
		s.resolver = NewCitationResolver(store)
	}
}

// IngestWithChunkStore sets the chunk store
func IngestWithChunkStore(store ChunkStore) IngestServiceOption {
	return func(s *IngestService) {
		s.chunks = store
	}
}

// IngestWithCitationStore sets the citation store
func IngestWithCitationStore(store CitationStore) IngestServiceOption {
	return func(s *IngestService) {
		s.citations = store
	}
}

// IngestWithJobStore sets the ingestion job store
func IngestWithJobStore(store JobStore) IngestServiceOption {
	return func(s *IngestService) {
		s.jobs = store
	}
}

// IngestWithEmbedder sets the embedding client
func IngestWithEmbedder(embedder Embedder) IngestServiceOption {
	return func(s *IngestService) {
		s.embedder = embedder
	}
}

// IngestWithChunker sets the chunk splitter
func IngestWithChunker(chunker *Chunker) IngestServiceOption {
	return func(s *IngestService) {
		s.chunker = chunker
	}
}

// IngestWithArchive sets the optional raw-payload archive
func IngestWithArchive(archive storage.Storage) IngestServiceOption {
	return func(s *IngestService) {
		s.archive = archive
	}
}

// IngestWithEmbedBatching overrides the embedding batch size and delay
func IngestWithEmbedBatching(size int, delay time.Duration, ratePerSecond float64) IngestServiceOption {
	return func(s *IngestService) {
		if size > 0 {
			s.batchSize = size
		}
		s.batchDelay = delay
		if ratePerSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
		}
	}
}

// IngestWithLogger sets the logger
func IngestWithLogger(logger *zap.Logger) IngestServiceOption {
	return func(s *IngestService) {
		s.logger = logger
	}
}

// NewIngestService creates a new ingestion service
func NewIngestService(opts ...IngestServiceOption) *IngestService {
	s := &IngestService{
		chunker:    NewChunker(DefaultMaxChunkTokens),
		batchSize:  DefaultEmbedBatchSize,
		batchDelay: DefaultEmbedBatchDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJob creates an ingestion job in pending state and returns it
func (s *IngestService) CreateJob(ctx context.Context, jobType models.IngestionJobType, totalRecords int, jurisdiction string) (*models.IngestionJob, error) {
	if jobType != models.JobTypeIncremental && jobType != models.JobTypeBulk {
		return nil, fmt.Errorf("invalid job type: %s", jobType)
	}
	if totalRecords <= 0 {
		return nil, ErrNoRecords
	}

	job := &models.IngestionJob{
		JobType:      jobType,
		TotalRecords: totalRecords,
		Status:       models.JobStatusPending,
	}
	if jurisdiction != "" {
		job.Jurisdiction = &jurisdiction
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create ingestion job: %w", err)
	}
	return job, nil
}

// GetJobStatus returns a job by id, or ErrJobNotFound
func (s *IngestService) GetJobStatus(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Ingest processes records in input order under the given job. Records
// failing validation increment the failed counter and are skipped; only a
// storage-level failure aborts the batch and marks the job failed. Job
// counters are updated record by record so a concurrent poll sees live,
// monotonically increasing progress.
func (s *IngestService) Ingest(ctx context.Context, jobID uuid.UUID, records []models.JudgmentRecord) (*IngestResult, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	job, err := s.GetJobStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.MarkRunning(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("failed to mark job running: %w", err)
	}

	if s.archive != nil && job.JobType == models.JobTypeBulk {
		s.archivePayload(ctx, job.ID, records)
	}

	result := &IngestResult{}
	for i := range records {
		record := &records[i]

		if err := record.Validate(); err != nil {
			result.Processed++
			result.Failed++
			metrics.RecordsFailed.Inc()
			s.logger.Warn("record failed validation",
				zap.String("job_id", job.ID.String()),
				zap.Int("index", i),
				zap.Error(err),
			)
			if err := s.jobs.AddProgress(ctx, job.ID, 1, 0, 1); err != nil {
				s.logger.Warn("failed to update job progress", zap.Error(err))
			}
			continue
		}

		embedded, err := s.ingestRecord(ctx, record)
		if err != nil {
			// Storage is unreachable or rejecting writes: nothing further
			// can succeed, so the whole job fails.
			failErr := fmt.Errorf("ingestion aborted at record %d: %w", i, err)
			if markErr := s.jobs.Fail(ctx, job.ID, failErr.Error()); markErr != nil {
				s.logger.Error("failed to mark job failed", zap.Error(markErr))
			}
			return nil, failErr
		}

		result.Processed++
		embeddedDelta := 0
		if embedded {
			result.Embedded++
			embeddedDelta = 1
		}
		metrics.DocumentsIngested.Inc()
		if err := s.jobs.AddProgress(ctx, job.ID, 1, embeddedDelta, 0); err != nil {
			s.logger.Warn("failed to update job progress", zap.Error(err))
		}
	}

	if err := s.jobs.Complete(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("failed to complete job: %w", err)
	}

	s.logger.Info("ingestion job finished",
		zap.String("job_id", job.ID.String()),
		zap.Int("processed", result.Processed),
		zap.Int("embedded", result.Embedded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ingestRecord persists one record and attempts its embeddings. A record whose
// citation already exists replaces that judgment in place: metadata is
// rewritten, the stale vector cleared and the old chunks dropped before the
// new ones are written. The bool reports whether a document-level vector was
// stored; embedding failures leave the rows un-embedded and eligible for
// backfill, never an error.
func (s *IngestService) ingestRecord(ctx context.Context, record *models.JudgmentRecord) (bool, error) {
	judgment := record.ToJudgment()
	if existingID := s.resolver.Resolve(ctx, judgment.Citation); existingID != nil {
		judgment.ID = *existingID
		if err := s.judgments.Update(ctx, judgment, true); err != nil {
			return false, fmt.Errorf("failed to replace judgment: %w", err)
		}
		if err := s.chunks.DeleteByJudgment(ctx, judgment.ID); err != nil {
			return false, fmt.Errorf("failed to drop stale chunks: %w", err)
		}
		if err := s.citations.DeleteOutgoing(ctx, judgment.ID); err != nil {
			s.logger.Warn("failed to drop stale citation links", zap.Error(err))
		}
	} else if err := s.judgments.Create(ctx, judgment); err != nil {
		return false, fmt.Errorf("failed to persist judgment: %w", err)
	}

	var chunks []*models.JudgmentChunk
	if record.FullText != "" {
		for ordinal, text := range s.chunker.Split(record.FullText) {
			chunks = append(chunks, &models.JudgmentChunk{
				JudgmentID: judgment.ID,
				ChunkText:  text,
				Ordinal:    ordinal,
			})
		}
		if err := s.chunks.CreateBatch(ctx, chunks); err != nil {
			return false, fmt.Errorf("failed to persist chunks: %w", err)
		}
	}

	s.linkCitations(ctx, judgment, record.CitedCitations)

	// The document-level text is embedded together with the chunk texts.
	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, judgment.EmbeddingInput())
	for _, c := range chunks {
		texts = append(texts, c.ChunkText)
	}
	vectors := s.embedBatched(ctx, texts)

	embedded := false
	if vectors[0] != nil {
		if err := s.judgments.UpdateEmbedding(ctx, judgment.ID, vectors[0]); err != nil {
			s.logger.Warn("failed to store judgment embedding", zap.Error(err))
		} else {
			embedded = true
			metrics.VectorsEmbedded.Inc()
		}
	}
	for i, c := range chunks {
		vec := vectors[i+1]
		if vec == nil {
			continue
		}
		if err := s.chunks.UpdateEmbedding(ctx, c.ID, vec); err != nil {
			s.logger.Warn("failed to store chunk embedding", zap.Error(err))
			continue
		}
		metrics.VectorsEmbedded.Inc()
	}

	return embedded, nil
}

// linkCitations writes the record's outgoing citation links (resolved
// best-effort) and points older unresolved links at the new judgment.
// Citation bookkeeping never fails a record.
func (s *IngestService) linkCitations(ctx context.Context, judgment *models.Judgment, citedCitations []string) {
	if err := s.citations.ResolveAgainst(ctx, judgment.Citation, judgment.ID); err != nil {
		s.logger.Warn("failed to resolve pending citations", zap.Error(err))
	}

	if len(citedCitations) == 0 {
		return
	}
	links := make([]*models.CitationLink, 0, len(citedCitations))
	for _, cited := range citedCitations {
		if NormalizeCitation(cited) == "" {
			continue
		}
		links = append(links, &models.CitationLink{
			CitingJudgmentID: judgment.ID,
			CitedCitation:    cited,
			CitedJudgmentID:  s.resolver.Resolve(ctx, cited),
		})
	}
	if err := s.citations.CreateBatch(ctx, links); err != nil {
		s.logger.Warn("failed to persist citation links", zap.Error(err))
	}
}

// embedBatched embeds texts in fixed-size groups with a pause between
// groups. Failed texts come back nil.
func (s *IngestService) embedBatched(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	if s.embedder == nil {
		return vectors
	}

	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return vectors
			}
		}
		batch := s.embedder.EmbedBatch(ctx, texts[start:end])
		copy(vectors[start:end], batch)
		if end < len(texts) && s.batchDelay > 0 {
			time.Sleep(s.batchDelay)
		}
	}
	return vectors
}

// archivePayload stores the raw records of a bulk job for audit/replay.
// Best-effort: the archive is never a hard dependency.
func (s *IngestService) archivePayload(ctx context.Context, jobID uuid.UUID, records []models.JudgmentRecord) {
	payload, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("failed to marshal ingestion payload", zap.Error(err))
		return
	}
	filename := fmt.Sprintf("ingest-%s.json", jobID)
	if _, err := s.archive.Upload(ctx, jobID, filename, bytes.NewReader(payload)); err != nil {
		s.logger.Warn("failed to archive ingestion payload",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
	}
}
