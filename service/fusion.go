package service

import (
	"sort"

	"qanoonhub-backend/models"
)

// Default fusion weights. When a vector signal is present it dominates the
// blend: semantic similarity captures intent that literal keyword overlap
// misses. Without a vector the score degrades to lexical-only.
const (
	defaultVectorWeight  = 0.65
	defaultLexicalWeight = 0.35
)

// ScoreFuser blends lexical and vector signals into the 0-100 relevance scale
type ScoreFuser struct {
	VectorWeight  float64
	LexicalWeight float64
}

// NewScoreFuser creates a fuser with the default weights
func NewScoreFuser() ScoreFuser {
	return ScoreFuser{
		VectorWeight:  defaultVectorWeight,
		LexicalWeight: defaultLexicalWeight,
	}
}

// Fuse combines a lexical score in [0,1] with the optional document-level
// and chunk-level cosine similarities. The stronger of the two vector
// signals is used.
func (f ScoreFuser) Fuse(lexical float64, docSimilarity, chunkSimilarity *float64) float64 {
	vector := pickVectorSignal(docSimilarity, chunkSimilarity)
	var score float64
	if vector == nil {
		score = lexical * 100
	} else {
		score = (f.VectorWeight**vector + f.LexicalWeight*lexical) * 100
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func pickVectorSignal(docSimilarity, chunkSimilarity *float64) *float64 {
	best := docSimilarity
	if chunkSimilarity != nil && (best == nil || *chunkSimilarity > *best) {
		best = chunkSimilarity
	}
	if best == nil {
		return nil
	}
	v := *best
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}

// SortResults orders fused results by score descending, breaking ties by
// more recent decision year, then court tier rank (apex highest), then id
// for a stable order.
func SortResults(results []*models.SearchResult) {
	sort.SliceStable(results, func(a, b int) bool {
		ra, rb := results[a], results[b]
		if ra.Score != rb.Score {
			return ra.Score > rb.Score
		}
		if ra.Judgment.Year != rb.Judgment.Year {
			return ra.Judgment.Year > rb.Judgment.Year
		}
		ta, tb := 0, 0
		if ra.Judgment.CourtTier != nil {
			ta = ra.Judgment.CourtTier.Rank()
		}
		if rb.Judgment.CourtTier != nil {
			tb = rb.Judgment.CourtTier.Rank()
		}
		if ta != tb {
			return ta > tb
		}
		return ra.Judgment.ID.String() < rb.Judgment.ID.String()
	})
}
