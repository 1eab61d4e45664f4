package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// NormalizeCitation canonicalizes a free-text citation string for matching:
// lowercased, inner whitespace collapsed, trailing punctuation stripped.
// Resolution is best-effort string matching; it will miss reformatted
// citations, and that is accepted.
func NormalizeCitation(citation string) string {
	s := strings.Join(strings.Fields(citation), " ")
	s = strings.TrimRight(s, ".,;")
	return strings.ToLower(s)
}

// CitationResolver resolves extracted citation strings to known judgments
type CitationResolver struct {
	judgments JudgmentStore
}

// NewCitationResolver creates a citation resolver
func NewCitationResolver(judgments JudgmentStore) *CitationResolver {
	return &CitationResolver{judgments: judgments}
}

// Resolve returns the id of the judgment carrying the citation, or nil when
// nothing matches. Lookup failures also resolve to nil: an unresolved link
// is still worth keeping.
func (r *CitationResolver) Resolve(ctx context.Context, citation string) *uuid.UUID {
	normalized := NormalizeCitation(citation)
	if normalized == "" {
		return nil
	}
	id, err := r.judgments.FindIDByCitation(ctx, normalized)
	if err != nil {
		return nil
	}
	return id
}
