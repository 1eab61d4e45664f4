package service

import (
	"context"
	"testing"

	"qanoonhub-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJudgmentService(judgments *stubJudgmentStore, chunks *stubChunkStore, citations *stubCitationStore, jobs *stubJobStore) *JudgmentService {
	return NewJudgmentService(
		JudgmentWithJudgmentStore(judgments),
		JudgmentWithChunkStore(chunks),
		JudgmentWithCitationStore(citations),
		JudgmentWithJobStore(jobs),
	)
}

func TestBrowseSanitizesInputs(t *testing.T) {
	judgments := newStubJudgmentStore()
	seedJudgments(t, judgments, 3)
	svc := newTestJudgmentService(judgments, newStubChunkStore(), &stubCitationStore{}, newStubJobStore())

	result, err := svc.Browse(context.Background(), BrowseParams{
		SortBy:    "bogus",
		SortOrder: "sideways",
		Limit:     -5,
		Offset:    -1,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Judgments, 3)
	assert.Equal(t, defaultBrowseLimit, result.Limit)
	assert.Zero(t, result.Offset)
}

func TestGetJudgmentNotFound(t *testing.T) {
	svc := newTestJudgmentService(newStubJudgmentStore(), newStubChunkStore(), &stubCitationStore{}, newStubJobStore())

	_, err := svc.GetJudgment(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrJudgmentNotFound)
}

func TestUpdateJudgmentInvalidatesStaleVector(t *testing.T) {
	judgments := newStubJudgmentStore()
	svc := newTestJudgmentService(judgments, newStubChunkStore(), &stubCitationStore{}, newStubJobStore())
	ctx := context.Background()

	j := &models.Judgment{CaseName: "State v. Ali", Citation: "PLD 2019 SC 1", Year: 2019}
	require.NoError(t, judgments.Create(ctx, j))
	require.NoError(t, judgments.UpdateEmbedding(ctx, j.ID, []float32{0.1}))

	// Changing a field outside the embedding input keeps the vector.
	unrelated := *j
	name := "Justice Shah"
	unrelated.JudgeName = &name
	_, err := svc.UpdateJudgment(ctx, &unrelated)
	require.NoError(t, err)
	assert.Contains(t, judgments.embeddings, j.ID)

	// Changing the case name stale-dates it.
	renamed := unrelated
	renamed.CaseName = "The State v. Muhammad Ali"
	_, err = svc.UpdateJudgment(ctx, &renamed)
	require.NoError(t, err)
	assert.NotContains(t, judgments.embeddings, j.ID)
}

func TestCitationGraphBothDirections(t *testing.T) {
	judgments := newStubJudgmentStore()
	citations := &stubCitationStore{}
	svc := newTestJudgmentService(judgments, newStubChunkStore(), citations, newStubJobStore())
	ctx := context.Background()

	citing := &models.Judgment{CaseName: "A", Citation: "PLD 1", Year: 2019}
	cited := &models.Judgment{CaseName: "B", Citation: "PLD 2", Year: 2010}
	require.NoError(t, judgments.Create(ctx, citing))
	require.NoError(t, judgments.Create(ctx, cited))
	require.NoError(t, citations.CreateBatch(ctx, []*models.CitationLink{{
		CitingJudgmentID: citing.ID,
		CitedCitation:    "PLD 2",
		CitedJudgmentID:  &cited.ID,
	}}))

	graph, err := svc.GetCitationGraph(ctx, citing.ID)
	require.NoError(t, err)
	assert.Len(t, graph.Outgoing, 1)
	assert.Empty(t, graph.Incoming)

	graph, err = svc.GetCitationGraph(ctx, cited.ID)
	require.NoError(t, err)
	assert.Empty(t, graph.Outgoing)
	assert.Len(t, graph.Incoming, 1)

	_, err = svc.GetCitationGraph(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrJudgmentNotFound)
}

func TestCorpusStats(t *testing.T) {
	judgments := newStubJudgmentStore()
	jobs := newStubJobStore()
	svc := newTestJudgmentService(judgments, newStubChunkStore(), &stubCitationStore{}, jobs)
	ctx := context.Background()

	seedJudgments(t, judgments, 2)
	require.NoError(t, judgments.UpdateEmbedding(ctx, judgments.order[0], []float32{0.1}))

	job := &models.IngestionJob{JobType: models.JobTypeBulk, TotalRecords: 2}
	require.NoError(t, jobs.Create(ctx, job))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalJudgments)
	assert.Equal(t, 1, stats.EmbeddedJudgments)
	require.NotNil(t, stats.LatestJob)
	assert.Equal(t, job.ID, stats.LatestJob.ID)
}
