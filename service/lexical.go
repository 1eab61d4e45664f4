package service

import (
	"sort"
	"strings"

	"qanoonhub-backend/models"
)

// Lexical field weights: exact case-name/citation matches dominate, curated
// keyword/area lists come next, free-text body matches count least.
const (
	weightCaseName  = 3.0
	weightKeyword   = 2.0
	weightLegalArea = 2.0
	weightHeadnote  = 1.0
	weightBody      = 0.5
	phraseBonus     = 5.0
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "for": true, "in": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "vs": true, "v": true,
}

// tokenize lowercases and splits a query, dropping stopwords and fragments
// too short to carry meaning
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// LexicalScore is one document's keyword-overlap score plus the terms that
// produced it, for UI highlighting
type LexicalScore struct {
	Score           float64
	MatchedKeywords []string
	MatchedAreas    []string
}

// LexicalScorer computes normalized keyword/phrase overlap between a query
// and a judgment's textual fields
type LexicalScorer struct{}

// ScoreJudgment returns a value in [0,1]. Adding query terms that match a
// document never lowers its score relative to a document lacking them.
func (LexicalScorer) ScoreJudgment(query string, j *models.Judgment) LexicalScore {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return LexicalScore{}
	}

	caseName := strings.ToLower(j.CaseName)
	citation := strings.ToLower(j.Citation)
	keywords := lowerAll(j.Keywords)
	legalAreas := lowerAll(j.LegalAreas)
	headnotes := strings.ToLower(strings.Join(j.Headnotes, "\n"))
	var body strings.Builder
	if j.Summary != nil {
		body.WriteString(strings.ToLower(*j.Summary))
		body.WriteString("\n")
	}
	if j.RatioDecidendi != nil {
		body.WriteString(strings.ToLower(*j.RatioDecidendi))
	}
	bodyText := body.String()

	var raw float64
	matchedKeywords := map[int]bool{}
	matchedAreas := map[int]bool{}

	for _, tok := range tokens {
		best := 0.0
		if strings.Contains(caseName, tok) || strings.Contains(citation, tok) {
			best = weightCaseName
		}
		for i, kw := range keywords {
			if strings.Contains(kw, tok) {
				matchedKeywords[i] = true
				if best < weightKeyword {
					best = weightKeyword
				}
			}
		}
		for i, area := range legalAreas {
			if strings.Contains(area, tok) {
				matchedAreas[i] = true
				if best < weightLegalArea {
					best = weightLegalArea
				}
			}
		}
		if best < weightHeadnote && strings.Contains(headnotes, tok) {
			best = weightHeadnote
		}
		if best < weightBody && strings.Contains(bodyText, tok) {
			best = weightBody
		}
		raw += best
	}

	// Whole-query phrase hit on the case name or citation outranks any
	// scattered token overlap.
	queryLower := strings.ToLower(strings.TrimSpace(query))
	var bonus float64
	if queryLower != "" && (strings.Contains(caseName, queryLower) || citation == queryLower) {
		bonus = phraseBonus
	}

	maxRaw := weightCaseName*float64(len(tokens)) + phraseBonus
	score := (raw + bonus) / maxRaw
	if score > 1 {
		score = 1
	}

	return LexicalScore{
		Score:           score,
		MatchedKeywords: pickMatched(j.Keywords, matchedKeywords),
		MatchedAreas:    pickMatched(j.LegalAreas, matchedAreas),
	}
}

// pickMatched maps matched indexes back to the original (cased) terms
func pickMatched(original []string, matched map[int]bool) []string {
	terms := make([]string, 0, len(matched))
	for i := range matched {
		terms = append(terms, original[i])
	}
	sort.Strings(terms)
	return terms
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
