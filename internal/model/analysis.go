package model

import (
	"encoding/json"
	"strings"
	"time"
)

// AnalysisKind distinguishes the primary lead analysis from the CIS pass
// over visit notes. Both flow through the same orchestration and store.
type AnalysisKind string

const (
	KindLeadAnalysis AnalysisKind = "lead_analysis"
	KindCIS          AnalysisKind = "cis"
)

// FallbackMarker appears in the insight text of analyses produced by the
// heuristic fallback after both LLM attempts failed to parse. Records
// carrying it are the ones eligible for re-submission.
const FallbackMarker = "auto-generated fallback"

// AnalysisRecord is the durable result of one AI scoring pass for one lead
// within one project. One row per (lead_id, project_id, kind).
//
// RevisitDateAtAnalysis snapshots the lead's latest-revisit value at the
// moment the analysis ran: the cached record is authoritative until that
// business timestamp moves, regardless of wall-clock age.
type AnalysisRecord struct {
	ID        string       `json:"id"`
	LeadID    string       `json:"lead_id"`
	ProjectID string       `json:"project_id"`
	Kind      AnalysisKind `json:"kind"`

	Rating   string        `json:"rating,omitempty"`
	Insight  string        `json:"insight,omitempty"`
	Analysis *LeadAnalysis `json:"analysis,omitempty"`

	RevisitDateAtAnalysis string `json:"revisit_date_at_analysis,omitempty"`

	RawResponse json.RawMessage `json:"raw_response,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the upsert key. Kind is carried separately by the store.
func (r AnalysisRecord) Key() LeadKey {
	return LeadKey{LeadID: r.LeadID, ProjectID: r.ProjectID}
}

// Stale reports whether the stored analysis is invalidated by the lead's
// current latest-revisit value. A missing snapshot is always stale.
func (r AnalysisRecord) Stale(latestRevisitDate string) bool {
	if r.RevisitDateAtAnalysis == "" {
		return latestRevisitDate != ""
	}
	return r.RevisitDateAtAnalysis != latestRevisitDate
}

// IsFallback reports whether this record was produced by the heuristic
// fallback rather than a parsed LLM response.
func (r AnalysisRecord) IsFallback() bool {
	return r.Analysis != nil && containsFold(r.Insight, FallbackMarker)
}

// LeadAnalysis is the structured scoring output of the LLM.
type LeadAnalysis struct {
	Persona        string          `json:"persona,omitempty"`
	Profession     string          `json:"profession,omitempty"`
	Concerns       []string        `json:"concerns,omitempty"`
	TalkingPoints  []string        `json:"talking_points,omitempty"`
	NextBestAction string          `json:"next_best_action,omitempty"`
	Signals        map[string]string `json:"signals,omitempty"`
	Score          CompositeScore  `json:"score"`
}

// CompositeScore is the weighted total with its sub-component breakdown.
type CompositeScore struct {
	Total      float64            `json:"total"`
	Components map[string]float64 `json:"components,omitempty"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// MarshalAnalysis serializes a LeadAnalysis for storage.
func MarshalAnalysis(a *LeadAnalysis) (json.RawMessage, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}
