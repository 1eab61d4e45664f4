package service

import (
	"context"
	"errors"
	"time"

	"qanoonhub-backend/models"

	"github.com/google/uuid"
)

// Boundary constants the API layer enforces before any work begins
const (
	// MinQueryLength is the shortest free-text query search accepts
	MinQueryLength = 3
	// MaxIncrementalRecords is the largest batch the synchronous ingestion
	// path takes; anything larger must go through a bulk job
	MaxIncrementalRecords = 100
)

// Sentinel errors the handlers map to response codes
var (
	ErrJudgmentNotFound = errors.New("judgment not found")
	ErrJobNotFound      = errors.New("ingestion job not found")
	ErrNoRecords        = errors.New("no records provided")
)

// JudgmentStore is the judgment persistence the services depend on
type JudgmentStore interface {
	Create(ctx context.Context, j *models.Judgment) error
	GetByID(ctx context.Context, id uuid.UUID, includeFullText bool) (*models.Judgment, error)
	Update(ctx context.Context, j *models.Judgment, clearEmbedding bool) error
	List(ctx context.Context, filters models.SearchFilters, sortBy models.SortBy, sortOrder models.SortOrder, limit, offset int) ([]*models.Judgment, int, error)
	SearchCandidates(ctx context.Context, filters models.SearchFilters, queryVector []float32, limit int) ([]*models.SearchCandidate, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.Judgment, error)
	FindIDByCitation(ctx context.Context, citation string) (*uuid.UUID, error)
	CountAll(ctx context.Context) (total int, embedded int, err error)
}

// ChunkStore is the chunk persistence the services depend on
type ChunkStore interface {
	CreateBatch(ctx context.Context, chunks []*models.JudgmentChunk) error
	DeleteByJudgment(ctx context.Context, judgmentID uuid.UUID) error
	TopMatches(ctx context.Context, judgmentIDs []uuid.UUID, queryVector []float32, perJudgment int) (map[uuid.UUID][]models.ChunkMatch, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.JudgmentChunk, error)
	CountAll(ctx context.Context) (total int, embedded int, err error)
}

// CitationStore is the citation-link persistence the services depend on
type CitationStore interface {
	CreateBatch(ctx context.Context, links []*models.CitationLink) error
	DeleteOutgoing(ctx context.Context, citingJudgmentID uuid.UUID) error
	Outgoing(ctx context.Context, judgmentID uuid.UUID) ([]*models.CitationLink, error)
	Incoming(ctx context.Context, judgmentID uuid.UUID) ([]*models.CitationLink, error)
	ResolveAgainst(ctx context.Context, citation string, judgmentID uuid.UUID) error
}

// JobStore is the ingestion-job persistence the services depend on
type JobStore interface {
	Create(ctx context.Context, job *models.IngestionJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	AddProgress(ctx context.Context, id uuid.UUID, processed, embedded, failed int) error
	Complete(ctx context.Context, id uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error
	Latest(ctx context.Context) (*models.IngestionJob, error)
	FailStuck(ctx context.Context, maxRuntime time.Duration) (int64, error)
}

// Embedder is the degrading embedding client: nil means "no vector available"
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
	EmbedBatch(ctx context.Context, texts []string) [][]float32
}
