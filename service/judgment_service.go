package service

import (
	"context"
	"errors"
	"fmt"

	"qanoonhub-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	defaultBrowseLimit = 20
	maxBrowseLimit     = 100
)

// JudgmentService covers the non-scored read paths: filtered browsing,
// single-judgment detail, metadata updates and the citation graph.
type JudgmentService struct {
	judgments JudgmentStore
	chunks    ChunkStore
	citations CitationStore
	jobs      JobStore
	logger    *zap.Logger
}

// JudgmentServiceOption is a functional option for JudgmentService
type JudgmentServiceOption func(*JudgmentService)

// JudgmentWithJudgmentStore sets the judgment store
func JudgmentWithJudgmentStore(store JudgmentStore) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.judgments = store
	}
}

// JudgmentWithChunkStore sets the chunk store
func JudgmentWithChunkStore(store ChunkStore) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.chunks = store
	}
}

// JudgmentWithCitationStore sets the citation store
func JudgmentWithCitationStore(store CitationStore) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.citations = store
	}
}

// JudgmentWithJobStore sets the ingestion job store
func JudgmentWithJobStore(store JobStore) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.jobs = store
	}
}

// JudgmentWithLogger sets the logger
func JudgmentWithLogger(logger *zap.Logger) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.logger = logger
	}
}

// NewJudgmentService creates a new judgment service
func NewJudgmentService(opts ...JudgmentServiceOption) *JudgmentService {
	s := &JudgmentService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BrowseParams are the inputs for structural navigation without a query
type BrowseParams struct {
	Filters   models.SearchFilters
	SortBy    models.SortBy
	SortOrder models.SortOrder
	Limit     int
	Offset    int
}

// Browse filters, sorts and paginates judgments without scoring. The result
// carries the true pre-pagination total so the caller can render page
// controls.
func (s *JudgmentService) Browse(ctx context.Context, params BrowseParams) (*models.BrowseResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultBrowseLimit
	}
	if limit > maxBrowseLimit {
		limit = maxBrowseLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	sortBy := params.SortBy
	if sortBy != models.SortByDate && sortBy != models.SortByCourt {
		sortBy = models.SortByDate
	}
	sortOrder := params.SortOrder
	if sortOrder != models.SortAsc && sortOrder != models.SortDesc {
		sortOrder = models.SortDesc
	}

	judgments, total, err := s.judgments.List(ctx, params.Filters, sortBy, sortOrder, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("browse failed: %w", err)
	}
	if judgments == nil {
		judgments = []*models.Judgment{}
	}

	return &models.BrowseResult{
		Judgments: judgments,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	}, nil
}

// GetJudgment retrieves one judgment; ErrJudgmentNotFound when the id is
// unknown, so callers can tell "no such thing" from "something broke".
func (s *JudgmentService) GetJudgment(ctx context.Context, id uuid.UUID, includeFullText bool) (*models.Judgment, error) {
	j, err := s.judgments.GetByID(ctx, id, includeFullText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJudgmentNotFound
		}
		return nil, fmt.Errorf("failed to get judgment: %w", err)
	}
	return j, nil
}

// UpdateJudgment rewrites a judgment's metadata. Any change to the fields
// the embedding is derived from stale-dates the stored vector, so it is
// nulled and the row re-enters the backfill queue.
func (s *JudgmentService) UpdateJudgment(ctx context.Context, updated *models.Judgment) (*models.Judgment, error) {
	existing, err := s.GetJudgment(ctx, updated.ID, false)
	if err != nil {
		return nil, err
	}

	clearEmbedding := existing.EmbeddingInput() != updated.EmbeddingInput()
	if err := s.judgments.Update(ctx, updated, clearEmbedding); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJudgmentNotFound
		}
		return nil, fmt.Errorf("failed to update judgment: %w", err)
	}
	if clearEmbedding {
		s.logger.Info("embeddable text changed, vector invalidated",
			zap.String("judgment_id", updated.ID.String()))
	}
	return s.GetJudgment(ctx, updated.ID, false)
}

// GetCitationGraph returns both directions of the cites relation for one
// judgment. A judgment nothing links to yields empty lists, not an error.
func (s *JudgmentService) GetCitationGraph(ctx context.Context, id uuid.UUID) (*models.CitationGraph, error) {
	if _, err := s.GetJudgment(ctx, id, false); err != nil {
		return nil, err
	}

	outgoing, err := s.citations.Outgoing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load outgoing citations: %w", err)
	}
	incoming, err := s.citations.Incoming(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load incoming citations: %w", err)
	}

	return &models.CitationGraph{Outgoing: outgoing, Incoming: incoming}, nil
}

// CorpusStats is the admin/operational snapshot of the retrieval corpus
type CorpusStats struct {
	TotalJudgments    int                  `json:"total_judgments"`
	EmbeddedJudgments int                  `json:"embedded_judgments"`
	TotalChunks       int                  `json:"total_chunks"`
	EmbeddedChunks    int                  `json:"embedded_chunks"`
	LatestJob         *models.IngestionJob `json:"latest_job,omitempty"`
}

// Stats aggregates corpus counts and the latest job for monitoring
func (s *JudgmentService) Stats(ctx context.Context) (*CorpusStats, error) {
	totalJudgments, embeddedJudgments, err := s.judgments.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count judgments: %w", err)
	}
	totalChunks, embeddedChunks, err := s.chunks.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	latest, err := s.jobs.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest job: %w", err)
	}

	return &CorpusStats{
		TotalJudgments:    totalJudgments,
		EmbeddedJudgments: embeddedJudgments,
		TotalChunks:       totalChunks,
		EmbeddedChunks:    embeddedChunks,
		LatestJob:         latest,
	}, nil
}
