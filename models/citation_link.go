package models

import (
	"time"

	"github.com/google/uuid"
)

// CitationLink is a directed edge "citing judgment cites cited citation".
// CitedJudgmentID is nil when the citation text did not match any known
// judgment; unresolved links are kept so coverage can be measured.
type CitationLink struct {
	ID               uuid.UUID  `json:"id"`
	CitingJudgmentID uuid.UUID  `json:"citing_judgment_id"`
	CitedCitation    string     `json:"cited_citation"`
	CitedJudgmentID  *uuid.UUID `json:"cited_judgment_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CitationGraph holds both directions of the cites relation for one judgment
type CitationGraph struct {
	Outgoing []*CitationLink `json:"outgoing"`
	Incoming []*CitationLink `json:"incoming"`
}
