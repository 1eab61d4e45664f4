package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JudgmentRecord is the raw ingestion input format for one judgment
type JudgmentRecord struct {
	CaseName       string   `json:"case_name"`
	Citation       string   `json:"citation"`
	Court          string   `json:"court"`
	Year           int      `json:"year"`
	Jurisdiction   string   `json:"jurisdiction"`
	CourtTier      string   `json:"court_tier,omitempty"`
	JudgeName      string   `json:"judge_name,omitempty"`
	DecisionDate   string   `json:"decision_date,omitempty"`
	PartyNames     string   `json:"party_names,omitempty"`
	LegalAreas     []string `json:"legal_areas,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Headnotes      []string `json:"headnotes,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	Ratio          string   `json:"ratio,omitempty"`
	FullText       string   `json:"full_text,omitempty"`
	CitedCitations []string `json:"cited_citations,omitempty"`
}

// Validate checks the minimum required fields for a record to be persisted
func (r *JudgmentRecord) Validate() error {
	if strings.TrimSpace(r.CaseName) == "" {
		return errors.New("case_name is required")
	}
	if strings.TrimSpace(r.Citation) == "" {
		return errors.New("citation is required")
	}
	if strings.TrimSpace(r.Court) == "" {
		return errors.New("court is required")
	}
	if r.Year <= 0 {
		return fmt.Errorf("year must be positive, got %d", r.Year)
	}
	return nil
}

// ToJudgment converts a validated record into a Judgment entity. Unknown
// court tiers and unparseable dates are dropped, not errors.
func (r *JudgmentRecord) ToJudgment() *Judgment {
	j := &Judgment{
		CaseName:     strings.TrimSpace(r.CaseName),
		Citation:     strings.TrimSpace(r.Citation),
		CourtName:    strings.TrimSpace(r.Court),
		Jurisdiction: strings.TrimSpace(r.Jurisdiction),
		Year:         r.Year,
		LegalAreas:   r.LegalAreas,
		Keywords:     r.Keywords,
		Headnotes:    r.Headnotes,
	}
	if tier, ok := ParseCourtTier(r.CourtTier); ok {
		j.CourtTier = &tier
	}
	if r.JudgeName != "" {
		name := r.JudgeName
		j.JudgeName = &name
	}
	if r.PartyNames != "" {
		parties := r.PartyNames
		j.PartyNames = &parties
	}
	if r.Summary != "" {
		summary := r.Summary
		j.Summary = &summary
	}
	if r.Ratio != "" {
		ratio := r.Ratio
		j.RatioDecidendi = &ratio
	}
	if r.FullText != "" {
		fullText := r.FullText
		j.FullText = &fullText
	}
	if r.DecisionDate != "" {
		if d, err := time.Parse("2006-01-02", r.DecisionDate); err == nil {
			j.DecisionDate = &d
		}
	}
	if j.LegalAreas == nil {
		j.LegalAreas = []string{}
	}
	if j.Keywords == nil {
		j.Keywords = []string{}
	}
	if j.Headnotes == nil {
		j.Headnotes = []string{}
	}
	return j
}
