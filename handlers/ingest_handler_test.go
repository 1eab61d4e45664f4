package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"qanoonhub-backend/models"
	"qanoonhub-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Write-side doubles for the ingest routes. The handler tests only assert on
// the HTTP contract; pipeline behavior is covered in the service package.

type memJudgmentStore struct{}

func (s *memJudgmentStore) Create(ctx context.Context, j *models.Judgment) error {
	j.ID = uuid.New()
	return nil
}
func (s *memJudgmentStore) GetByID(ctx context.Context, id uuid.UUID, includeFullText bool) (*models.Judgment, error) {
	return nil, pgx.ErrNoRows
}
func (s *memJudgmentStore) Update(ctx context.Context, j *models.Judgment, clearEmbedding bool) error {
	return nil
}
func (s *memJudgmentStore) List(ctx context.Context, filters models.SearchFilters, sortBy models.SortBy, sortOrder models.SortOrder, limit, offset int) ([]*models.Judgment, int, error) {
	return nil, 0, nil
}
func (s *memJudgmentStore) SearchCandidates(ctx context.Context, filters models.SearchFilters, queryVector []float32, limit int) ([]*models.SearchCandidate, error) {
	return nil, nil
}
func (s *memJudgmentStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	return nil
}
func (s *memJudgmentStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.Judgment, error) {
	return nil, nil
}
func (s *memJudgmentStore) FindIDByCitation(ctx context.Context, citation string) (*uuid.UUID, error) {
	return nil, nil
}
func (s *memJudgmentStore) CountAll(ctx context.Context) (int, int, error) { return 0, 0, nil }

type memChunkStore struct{}

func (s *memChunkStore) CreateBatch(ctx context.Context, chunks []*models.JudgmentChunk) error {
	return nil
}
func (s *memChunkStore) DeleteByJudgment(ctx context.Context, judgmentID uuid.UUID) error {
	return nil
}
func (s *memChunkStore) TopMatches(ctx context.Context, judgmentIDs []uuid.UUID, queryVector []float32, perJudgment int) (map[uuid.UUID][]models.ChunkMatch, error) {
	return nil, nil
}
func (s *memChunkStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	return nil
}
func (s *memChunkStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.JudgmentChunk, error) {
	return nil, nil
}
func (s *memChunkStore) CountAll(ctx context.Context) (int, int, error) { return 0, 0, nil }

type memCitationStore struct{}

func (s *memCitationStore) CreateBatch(ctx context.Context, links []*models.CitationLink) error {
	return nil
}
func (s *memCitationStore) DeleteOutgoing(ctx context.Context, citingJudgmentID uuid.UUID) error {
	return nil
}
func (s *memCitationStore) Outgoing(ctx context.Context, judgmentID uuid.UUID) ([]*models.CitationLink, error) {
	return nil, nil
}
func (s *memCitationStore) Incoming(ctx context.Context, judgmentID uuid.UUID) ([]*models.CitationLink, error) {
	return nil, nil
}
func (s *memCitationStore) ResolveAgainst(ctx context.Context, citation string, judgmentID uuid.UUID) error {
	return nil
}

type memJobStore struct {
	jobs map[uuid.UUID]*models.IngestionJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: map[uuid.UUID]*models.IngestionJob{}}
}

func (s *memJobStore) Create(ctx context.Context, job *models.IngestionJob) error {
	job.ID = uuid.New()
	job.Status = models.JobStatusPending
	job.CreatedAt = time.Now()
	s.jobs[job.ID] = job
	return nil
}

func (s *memJobStore) GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *job
	return &copy, nil
}

func (s *memJobStore) MarkRunning(ctx context.Context, id uuid.UUID) error { return nil }
func (s *memJobStore) AddProgress(ctx context.Context, id uuid.UUID, processed, embedded, failed int) error {
	return nil
}
func (s *memJobStore) Complete(ctx context.Context, id uuid.UUID) error { return nil }
func (s *memJobStore) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return nil
}
func (s *memJobStore) Latest(ctx context.Context) (*models.IngestionJob, error) { return nil, nil }
func (s *memJobStore) FailStuck(ctx context.Context, maxRuntime time.Duration) (int64, error) {
	return 0, nil
}

func newIngestTestService(jobs *memJobStore) *service.IngestService {
	return service.NewIngestService(
		service.IngestWithJudgmentStore(&memJudgmentStore{}),
		service.IngestWithChunkStore(&memChunkStore{}),
		service.IngestWithCitationStore(&memCitationStore{}),
		service.IngestWithJobStore(jobs),
		service.IngestWithEmbedBatching(8, 0, 0),
	)
}

func ingestRouter(svc *service.IngestService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewIngestHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/api/ingest", h.Ingest)
	r.POST("/api/ingest/jobs", h.CreateJob)
	return r
}

func manyRecords(n int) []models.JudgmentRecord {
	records := make([]models.JudgmentRecord, n)
	for i := range records {
		records[i] = models.JudgmentRecord{
			CaseName: "State v. Ali",
			Citation: uuid.NewString(),
			Court:    "Supreme Court of Pakistan",
			Year:     2019,
		}
	}
	return records
}

func TestIngestBulkJobReferenceTakesLargeBatch(t *testing.T) {
	jobs := newMemJobStore()
	svc := newIngestTestService(jobs)
	r := ingestRouter(svc)

	job, err := svc.CreateJob(context.Background(), models.JobTypeBulk, 150, "Pakistan")
	require.NoError(t, err)

	// The caller identifies the pre-created bulk job by id only; the batch
	// limit belongs to incremental jobs and must not apply here.
	body, err := json.Marshal(map[string]any{
		"job_id":  job.ID.String(),
		"records": manyRecords(150),
	})
	require.NoError(t, err)

	w, payload := doJSON(t, r, http.MethodPost, "/api/ingest", string(body))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, true, payload["success"])
	data := payload["data"].(map[string]any)
	assert.Equal(t, job.ID.String(), data["job_id"])
}

func TestIngestIncrementalJobReferenceKeepsCap(t *testing.T) {
	jobs := newMemJobStore()
	svc := newIngestTestService(jobs)
	r := ingestRouter(svc)

	job, err := svc.CreateJob(context.Background(), models.JobTypeIncremental, 150, "")
	require.NoError(t, err)

	// Claiming bulk in the body does not change what the referenced job is.
	body, err := json.Marshal(map[string]any{
		"job_id":   job.ID.String(),
		"job_type": "bulk",
		"records":  manyRecords(150),
	})
	require.NoError(t, err)

	w, payload := doJSON(t, r, http.MethodPost, "/api/ingest", string(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BATCH_TOO_LARGE", errorCode(t, payload))
}

func TestIngestWithoutJobDefaultsToIncrementalCap(t *testing.T) {
	jobs := newMemJobStore()
	r := ingestRouter(newIngestTestService(jobs))

	body, err := json.Marshal(map[string]any{"records": manyRecords(101)})
	require.NoError(t, err)

	w, payload := doJSON(t, r, http.MethodPost, "/api/ingest", string(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BATCH_TOO_LARGE", errorCode(t, payload))
	assert.Empty(t, jobs.jobs, "an oversized batch must not leave a job behind")
}

func TestIngestUnknownJobReference(t *testing.T) {
	r := ingestRouter(newIngestTestService(newMemJobStore()))

	body, err := json.Marshal(map[string]any{
		"job_id":  uuid.NewString(),
		"records": manyRecords(1),
	})
	require.NoError(t, err)

	w, payload := doJSON(t, r, http.MethodPost, "/api/ingest", string(body))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, payload))
}
