package models

import "github.com/google/uuid"

// SearchFilters is the structural predicate set applied before any scoring.
// All fields are optional and AND-combined; the year range is inclusive on
// both ends. Malformed values are dropped at the API boundary, never errors.
type SearchFilters struct {
	Jurisdiction string     `json:"jurisdiction,omitempty"`
	CourtTier    *CourtTier `json:"court_tier,omitempty"`
	Courts       []string   `json:"courts,omitempty"`
	YearFrom     *int       `json:"year_from,omitempty"`
	YearTo       *int       `json:"year_to,omitempty"`
	LegalAreas   []string   `json:"legal_areas,omitempty"`
	Judge        string     `json:"judge,omitempty"`
}

// Sanitize returns a copy with malformed values treated as absent. A court
// tier outside the known set would otherwise become an unmatchable SQL
// predicate and silently empty the result set.
func (f SearchFilters) Sanitize() SearchFilters {
	if f.CourtTier != nil {
		if tier, ok := ParseCourtTier(string(*f.CourtTier)); ok {
			f.CourtTier = &tier
		} else {
			f.CourtTier = nil
		}
	}
	return f
}

// SortBy enumerates the browse sort keys
type SortBy string

const (
	SortByDate  SortBy = "date"
	SortByCourt SortBy = "court"
)

// SortOrder enumerates browse sort directions
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ChunkMatch is a chunk-level piece of evidence contributing to a search hit
type ChunkMatch struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	Ordinal    int       `json:"ordinal"`
	Excerpt    string    `json:"excerpt"`
	Similarity float64   `json:"similarity"`
}

// SearchResult pairs a judgment with its fused relevance score (0-100 scale)
// and the lexical terms that contributed to it. It exists only for the
// duration of a query response.
type SearchResult struct {
	Judgment        *Judgment    `json:"judgment"`
	Score           float64      `json:"score"`
	MatchedKeywords []string     `json:"matched_keywords"`
	MatchedAreas    []string     `json:"matched_areas"`
	Chunks          []ChunkMatch `json:"chunks,omitempty"`
}

// SearchCandidate is a filtered judgment with its optional vector similarity,
// as returned by the candidate query before lexical scoring and fusion.
type SearchCandidate struct {
	Judgment   *Judgment
	Similarity *float64
}

// BrowseResult is a page of judgments plus the true pre-pagination total
type BrowseResult struct {
	Judgments []*Judgment `json:"judgments"`
	Total     int         `json:"total"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}
