package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"qanoonhub-backend/models"
	"qanoonhub-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCandidateStore serves a canned candidate set; the write-side methods
// are never reached by the search handler.
type fixedCandidateStore struct {
	candidates []*models.SearchCandidate
	gotFilters models.SearchFilters
}

func (s *fixedCandidateStore) Create(ctx context.Context, j *models.Judgment) error { return nil }
func (s *fixedCandidateStore) GetByID(ctx context.Context, id uuid.UUID, includeFullText bool) (*models.Judgment, error) {
	return nil, nil
}
func (s *fixedCandidateStore) Update(ctx context.Context, j *models.Judgment, clearEmbedding bool) error {
	return nil
}
func (s *fixedCandidateStore) List(ctx context.Context, filters models.SearchFilters, sortBy models.SortBy, sortOrder models.SortOrder, limit, offset int) ([]*models.Judgment, int, error) {
	return nil, 0, nil
}
func (s *fixedCandidateStore) SearchCandidates(ctx context.Context, filters models.SearchFilters, queryVector []float32, limit int) ([]*models.SearchCandidate, error) {
	s.gotFilters = filters
	return s.candidates, nil
}
func (s *fixedCandidateStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	return nil
}
func (s *fixedCandidateStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]*models.Judgment, error) {
	return nil, nil
}
func (s *fixedCandidateStore) FindIDByCitation(ctx context.Context, citation string) (*uuid.UUID, error) {
	return nil, nil
}
func (s *fixedCandidateStore) CountAll(ctx context.Context) (int, int, error) { return 0, 0, nil }

func searchRouter(store *fixedCandidateStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewSearchService(service.SearchWithJudgmentStore(store))
	r := gin.New()
	r.POST("/api/search", NewSearchHandler(svc).Search)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return w, payload
}

func errorCode(t *testing.T, payload map[string]any) string {
	t.Helper()
	errObj, ok := payload["error"].(map[string]any)
	require.True(t, ok, "error envelope missing")
	return errObj["code"].(string)
}

func TestSearchRejectsShortQuery(t *testing.T) {
	r := searchRouter(&fixedCandidateStore{})

	w, payload := doJSON(t, r, http.MethodPost, "/api/search", `{"query":"  ab  "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "QUERY_TOO_SHORT", errorCode(t, payload))
}

func TestSearchRejectsMissingQuery(t *testing.T) {
	r := searchRouter(&fixedCandidateStore{})

	w, payload := doJSON(t, r, http.MethodPost, "/api/search", `{"limit":5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, payload))
}

func TestSearchSuccessEnvelope(t *testing.T) {
	store := &fixedCandidateStore{
		candidates: []*models.SearchCandidate{{
			Judgment: &models.Judgment{
				ID:       uuid.New(),
				CaseName: "State v. Ali",
				Citation: "PLD 2019 SC 1",
				Year:     2019,
				Keywords: []string{"bail"},
			},
		}},
	}
	r := searchRouter(store)

	w, payload := doJSON(t, r, http.MethodPost, "/api/search", `{"query":"bail"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, payload["success"])

	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["count"])

	results, ok := data["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
}

func TestSearchDropsMalformedCourtTier(t *testing.T) {
	store := &fixedCandidateStore{
		candidates: []*models.SearchCandidate{{
			Judgment: &models.Judgment{
				ID:       uuid.New(),
				CaseName: "State v. Ali",
				Citation: "PLD 2019 SC 1",
				Year:     2019,
				Keywords: []string{"bail"},
			},
		}},
	}
	r := searchRouter(store)

	// An unknown tier is treated as absent, not as an unmatchable predicate.
	w, payload := doJSON(t, r, http.MethodPost, "/api/search",
		`{"query":"bail","filters":{"court_tier":"banana"}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, store.gotFilters.CourtTier)
	data := payload["data"].(map[string]any)
	assert.Equal(t, float64(1), data["count"])
}

func TestSearchNormalizesCourtTier(t *testing.T) {
	store := &fixedCandidateStore{}
	r := searchRouter(store)

	w, _ := doJSON(t, r, http.MethodPost, "/api/search",
		`{"query":"bail","filters":{"court_tier":" Apex "}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.gotFilters.CourtTier)
	assert.Equal(t, models.TierApex, *store.gotFilters.CourtTier)
}

func TestSearchEmptyCorpusReturnsEmptyList(t *testing.T) {
	r := searchRouter(&fixedCandidateStore{})

	w, payload := doJSON(t, r, http.MethodPost, "/api/search", `{"query":"bail"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, float64(0), data["count"])
}
