package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CourtTier represents the level of the deciding court
type CourtTier string

const (
	TierTrial     CourtTier = "trial"
	TierAppellate CourtTier = "appellate"
	TierApex      CourtTier = "apex"
	TierTribunal  CourtTier = "tribunal"
)

// ParseCourtTier validates a tier string; unknown values are rejected
func ParseCourtTier(s string) (CourtTier, bool) {
	switch CourtTier(strings.ToLower(strings.TrimSpace(s))) {
	case TierTrial:
		return TierTrial, true
	case TierAppellate:
		return TierAppellate, true
	case TierApex:
		return TierApex, true
	case TierTribunal:
		return TierTribunal, true
	}
	return "", false
}

// Rank returns the tier's precedence weight for tie-breaking (apex highest)
func (t CourtTier) Rank() int {
	switch t {
	case TierApex:
		return 4
	case TierAppellate:
		return 3
	case TierTribunal:
		return 2
	case TierTrial:
		return 1
	}
	return 0
}

// Judgment represents a single court decision (judgment/precedent)
type Judgment struct {
	ID             uuid.UUID  `json:"id"`
	CaseName       string     `json:"case_name"`
	Citation       string     `json:"citation"`
	CourtName      string     `json:"court_name"`
	CourtTier      *CourtTier `json:"court_tier,omitempty"`
	Jurisdiction   string     `json:"jurisdiction"`
	Year           int        `json:"year"`
	JudgeName      *string    `json:"judge_name,omitempty"`
	DecisionDate   *time.Time `json:"decision_date,omitempty"`
	PartyNames     *string    `json:"party_names,omitempty"`
	LegalAreas     []string   `json:"legal_areas"`
	Keywords       []string   `json:"keywords"`
	Headnotes      []string   `json:"headnotes"`
	Summary        *string    `json:"summary,omitempty"`
	RatioDecidendi *string    `json:"ratio_decidendi,omitempty"`
	// FullText is large and only populated when explicitly requested
	FullText     *string   `json:"full_text,omitempty"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

// EmbeddingInput returns the canonical text the document-level embedding is
// generated from. Changing any of these fields stale-dates the stored vector.
func (j *Judgment) EmbeddingInput() string {
	var b strings.Builder
	b.WriteString(j.CaseName)
	b.WriteString("\n")
	b.WriteString(j.Citation)
	if j.Summary != nil && *j.Summary != "" {
		b.WriteString("\n")
		b.WriteString(*j.Summary)
	}
	if j.RatioDecidendi != nil && *j.RatioDecidendi != "" {
		b.WriteString("\n")
		b.WriteString(*j.RatioDecidendi)
	}
	if len(j.Headnotes) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(j.Headnotes, "\n"))
	}
	if len(j.Keywords) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(j.Keywords, ", "))
	}
	return b.String()
}
