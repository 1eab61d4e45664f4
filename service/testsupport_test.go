package service

import (
	"context"
	"errors"
	"time"

	"qanoonhub-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// In-memory stores standing in for the pgx repositories.

type stubJudgmentStore struct {
	judgments  map[uuid.UUID]*models.Judgment
	order      []uuid.UUID
	embeddings map[uuid.UUID][]float32
	candidates []*models.SearchCandidate
	createErr  error
}

func newStubJudgmentStore() *stubJudgmentStore {
	return &stubJudgmentStore{
		judgments:  map[uuid.UUID]*models.Judgment{},
		embeddings: map[uuid.UUID][]float32{},
	}
}

func (s *stubJudgmentStore) Create(ctx context.Context, j *models.Judgment) error {
	if s.createErr != nil {
		return s.createErr
	}
	j.ID = uuid.New()
	j.CreatedAt = time.Now()
	s.judgments[j.ID] = j
	s.order = append(s.order, j.ID)
	return nil
}

func (s *stubJudgmentStore) GetByID(ctx context.Context, id uuid.UUID, includeFullText bool) (*models.Judgment, error) {
	j, ok := s.judgments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *j
	if !includeFullText {
		copy.FullText = nil
	}
	return &copy, nil
}

func (s *stubJudgmentStore) Update(ctx context.Context, j *models.Judgment, clearEmbedding bool) error {
	if _, ok := s.judgments[j.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.judgments[j.ID] = j
	if clearEmbedding {
		delete(s.embeddings, j.ID)
	}
	return nil
}

func (s *stubJudgmentStore) List(ctx context.Context, filters models.SearchFilters, sortBy models.SortBy, sortOrder models.SortOrder, limit, offset int) ([]*models.Judgment, int, error) {
	var all []*models.Judgment
	for _, id := range s.order {
		all = append(all, s.judgments[id])
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *stubJudgmentStore) SearchCandidates(ctx context.Context, filters models.SearchFilters, queryVector []float32, limit int) ([]*models.SearchCandidate, error) {
	return s.candidates, nil
}

func (s *stubJudgmentStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	if _, ok := s.judgments[id]; !ok {
		return pgx.ErrNoRows
	}
	s.embeddings[id] = vector
	return nil
}

func (s *stubJudgmentStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.Judgment, error) {
	var missing []*models.Judgment
	for _, id := range s.order {
		if _, ok := s.embeddings[id]; ok {
			continue
		}
		missing = append(missing, s.judgments[id])
		if len(missing) == limit {
			break
		}
	}
	return missing, nil
}

func (s *stubJudgmentStore) FindIDByCitation(ctx context.Context, citation string) (*uuid.UUID, error) {
	for _, id := range s.order {
		if NormalizeCitation(s.judgments[id].Citation) == NormalizeCitation(citation) {
			found := id
			return &found, nil
		}
	}
	return nil, nil
}

func (s *stubJudgmentStore) CountAll(ctx context.Context) (int, int, error) {
	return len(s.judgments), len(s.embeddings), nil
}

type stubChunkStore struct {
	chunks     []*models.JudgmentChunk
	embeddings map[uuid.UUID][]float32
	topMatches map[uuid.UUID][]models.ChunkMatch
	topErr     error
}

func newStubChunkStore() *stubChunkStore {
	return &stubChunkStore{embeddings: map[uuid.UUID][]float32{}}
}

func (s *stubChunkStore) CreateBatch(ctx context.Context, chunks []*models.JudgmentChunk) error {
	for _, c := range chunks {
		c.ID = uuid.New()
		c.CreatedAt = time.Now()
		s.chunks = append(s.chunks, c)
	}
	return nil
}

func (s *stubChunkStore) DeleteByJudgment(ctx context.Context, judgmentID uuid.UUID) error {
	var kept []*models.JudgmentChunk
	for _, c := range s.chunks {
		if c.JudgmentID != judgmentID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

func (s *stubChunkStore) TopMatches(ctx context.Context, judgmentIDs []uuid.UUID, queryVector []float32, perJudgment int) (map[uuid.UUID][]models.ChunkMatch, error) {
	if s.topErr != nil {
		return nil, s.topErr
	}
	return s.topMatches, nil
}

func (s *stubChunkStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	s.embeddings[id] = vector
	return nil
}

func (s *stubChunkStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.JudgmentChunk, error) {
	var missing []*models.JudgmentChunk
	for _, c := range s.chunks {
		if _, ok := s.embeddings[c.ID]; ok {
			continue
		}
		missing = append(missing, c)
		if len(missing) == limit {
			break
		}
	}
	return missing, nil
}

func (s *stubChunkStore) CountAll(ctx context.Context) (int, int, error) {
	return len(s.chunks), len(s.embeddings), nil
}

type stubCitationStore struct {
	links []*models.CitationLink
}

func (s *stubCitationStore) CreateBatch(ctx context.Context, links []*models.CitationLink) error {
	for _, l := range links {
		l.ID = uuid.New()
		l.CreatedAt = time.Now()
		s.links = append(s.links, l)
	}
	return nil
}

func (s *stubCitationStore) DeleteOutgoing(ctx context.Context, citingJudgmentID uuid.UUID) error {
	var kept []*models.CitationLink
	for _, l := range s.links {
		if l.CitingJudgmentID != citingJudgmentID {
			kept = append(kept, l)
		}
	}
	s.links = kept
	return nil
}

func (s *stubCitationStore) Outgoing(ctx context.Context, judgmentID uuid.UUID) ([]*models.CitationLink, error) {
	var out []*models.CitationLink
	for _, l := range s.links {
		if l.CitingJudgmentID == judgmentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubCitationStore) Incoming(ctx context.Context, judgmentID uuid.UUID) ([]*models.CitationLink, error) {
	var out []*models.CitationLink
	for _, l := range s.links {
		if l.CitedJudgmentID != nil && *l.CitedJudgmentID == judgmentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubCitationStore) ResolveAgainst(ctx context.Context, citation string, judgmentID uuid.UUID) error {
	for _, l := range s.links {
		if l.CitedJudgmentID == nil && NormalizeCitation(l.CitedCitation) == NormalizeCitation(citation) {
			id := judgmentID
			l.CitedJudgmentID = &id
		}
	}
	return nil
}

type stubJobStore struct {
	jobs map[uuid.UUID]*models.IngestionJob
}

func newStubJobStore() *stubJobStore {
	return &stubJobStore{jobs: map[uuid.UUID]*models.IngestionJob{}}
}

func (s *stubJobStore) Create(ctx context.Context, job *models.IngestionJob) error {
	job.ID = uuid.New()
	job.Status = models.JobStatusPending
	job.CreatedAt = time.Now()
	s.jobs[job.ID] = job
	return nil
}

func (s *stubJobStore) GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *job
	return &copy, nil
}

func (s *stubJobStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	job, ok := s.jobs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if job.Status == models.JobStatusPending {
		job.Status = models.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}
	return nil
}

func (s *stubJobStore) AddProgress(ctx context.Context, id uuid.UUID, processed, embedded, failed int) error {
	job, ok := s.jobs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	job.ProcessedCount += processed
	job.EmbeddedCount += embedded
	job.FailedCount += failed
	return nil
}

func (s *stubJobStore) Complete(ctx context.Context, id uuid.UUID) error {
	job, ok := s.jobs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	job.Status = models.JobStatusCompleted
	now := time.Now()
	job.CompletedAt = &now
	return nil
}

func (s *stubJobStore) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	job, ok := s.jobs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	job.Status = models.JobStatusFailed
	job.ErrorMessage = &errorMessage
	now := time.Now()
	job.CompletedAt = &now
	return nil
}

func (s *stubJobStore) Latest(ctx context.Context) (*models.IngestionJob, error) {
	var latest *models.IngestionJob
	for _, job := range s.jobs {
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	return latest, nil
}

func (s *stubJobStore) FailStuck(ctx context.Context, maxRuntime time.Duration) (int64, error) {
	var failed int64
	cutoff := time.Now().Add(-maxRuntime)
	for _, job := range s.jobs {
		if job.Status == models.JobStatusRunning && job.StartedAt != nil && job.StartedAt.Before(cutoff) {
			job.Status = models.JobStatusFailed
			failed++
		}
	}
	return failed, nil
}

// stubEmbedder returns a fixed vector per text, or nil for every text when
// failing is set. Batch calls are counted to assert batching behavior.
type stubEmbedder struct {
	failing    bool
	batchCalls int
	texts      []string
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) []float32 {
	return e.EmbedBatch(ctx, []string{text})[0]
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	e.batchCalls++
	e.texts = append(e.texts, texts...)
	vectors := make([][]float32, len(texts))
	if e.failing {
		return vectors
	}
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors
}

var errStoreDown = errors.New("store down")
