package service

import (
	"context"
	"fmt"

	"qanoonhub-backend/metrics"
	"qanoonhub-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
	chunkMatchesPerDoc = 3
)

// SearchService runs hybrid (lexical + vector) search over judgments and
// their chunks, merging and re-ranking at the judgment level.
type SearchService struct {
	judgments JudgmentStore
	chunks    ChunkStore
	embedder  Embedder
	scorer    LexicalScorer
	fuser     ScoreFuser
	logger    *zap.Logger
}

// SearchServiceOption is a functional option for SearchService
type SearchServiceOption func(*SearchService)

// SearchWithJudgmentStore sets the judgment store
func SearchWithJudgmentStore(store JudgmentStore) SearchServiceOption {
	return func(s *SearchService) {
		s.judgments = store
	}
}

// SearchWithChunkStore sets the chunk store
func SearchWithChunkStore(store ChunkStore) SearchServiceOption {
	return func(s *SearchService) {
		s.chunks = store
	}
}

// SearchWithEmbedder sets the embedding client
func SearchWithEmbedder(embedder Embedder) SearchServiceOption {
	return func(s *SearchService) {
		s.embedder = embedder
	}
}

// SearchWithLogger sets the logger
func SearchWithLogger(logger *zap.Logger) SearchServiceOption {
	return func(s *SearchService) {
		s.logger = logger
	}
}

// NewSearchService creates a new search service
func NewSearchService(opts ...SearchServiceOption) *SearchService {
	s := &SearchService{
		fuser:  NewScoreFuser(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchParams are the inputs to one hybrid search
type SearchParams struct {
	Query           string
	Filters         models.SearchFilters
	Limit           int
	Offset          int
	IncludeChunks   bool
	GroupByJudgment bool
}

// Search ranks the filtered judgment corpus against the query. The filters
// are a hard pre-filter; scoring happens over the whole candidate set and
// pagination is applied only after fusion and sort. An unavailable embedding
// provider silently degrades the ranking to lexical-only, never an error.
func (s *SearchService) Search(ctx context.Context, params SearchParams) ([]*models.SearchResult, error) {
	metrics.SearchRequests.Inc()

	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	var queryVector []float32
	if s.embedder != nil {
		queryVector = s.embedder.Embed(ctx, params.Query)
	}
	if queryVector == nil {
		metrics.SearchDegraded.Inc()
		s.logger.Debug("no query embedding, scoring lexical-only", zap.String("query", params.Query))
	}

	candidates, err := s.judgments.SearchCandidates(ctx, params.Filters, queryVector, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load search candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []*models.SearchResult{}, nil
	}

	var chunkMatches map[uuid.UUID][]models.ChunkMatch
	if params.IncludeChunks && queryVector != nil {
		ids := make([]uuid.UUID, len(candidates))
		for i, c := range candidates {
			ids[i] = c.Judgment.ID
		}
		chunkMatches, err = s.chunks.TopMatches(ctx, ids, queryVector, chunkMatchesPerDoc)
		if err != nil {
			// Chunk evidence is an enrichment, not a requirement.
			s.logger.Warn("chunk match lookup failed", zap.Error(err))
			chunkMatches = nil
		}
	}

	var results []*models.SearchResult
	for _, cand := range candidates {
		lex := s.scorer.ScoreJudgment(params.Query, cand.Judgment)
		matches := chunkMatches[cand.Judgment.ID]

		if params.IncludeChunks && !params.GroupByJudgment && len(matches) > 0 {
			// One result entry per matching chunk.
			for _, m := range matches {
				sim := m.Similarity
				results = append(results, &models.SearchResult{
					Judgment:        cand.Judgment,
					Score:           s.fuser.Fuse(lex.Score, cand.Similarity, &sim),
					MatchedKeywords: lex.MatchedKeywords,
					MatchedAreas:    lex.MatchedAreas,
					Chunks:          []models.ChunkMatch{m},
				})
			}
			continue
		}

		var chunkSim *float64
		if len(matches) > 0 {
			sim := matches[0].Similarity
			chunkSim = &sim
		}

		score := s.fuser.Fuse(lex.Score, cand.Similarity, chunkSim)
		if score == 0 {
			continue
		}
		result := &models.SearchResult{
			Judgment:        cand.Judgment,
			Score:           score,
			MatchedKeywords: lex.MatchedKeywords,
			MatchedAreas:    lex.MatchedAreas,
		}
		if params.IncludeChunks {
			result.Chunks = matches
		}
		results = append(results, result)
	}

	SortResults(results)

	// Pagination strictly after fusion and sort.
	if offset >= len(results) {
		return []*models.SearchResult{}, nil
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end], nil
}
