package model

import (
	"encoding/json"
	"time"
)

// EnrichmentStatus is the terminal outcome of one enrichment call.
type EnrichmentStatus string

const (
	EnrichmentSuccess EnrichmentStatus = "SUCCESS"
	EnrichmentNoData  EnrichmentStatus = "NO_DATA"
	EnrichmentFailed  EnrichmentStatus = "FAILED"
)

// EnrichmentRecord is the durable result of enriching one lead within one
// project. Exactly one row exists per (lead_id, project_id); a lead that
// already has a row is treated as enriched and skipped on resubmission.
// RawResponse keeps the full provider payload for audit and fallback
// extraction; the extracted fields are conveniences, never the source.
type EnrichmentRecord struct {
	ID        string           `json:"id"`
	LeadID    string           `json:"lead_id"`
	ProjectID string           `json:"project_id"`
	Status    EnrichmentStatus `json:"status"`

	MQLRating      string  `json:"mql_rating,omitempty"`
	CreditScore    float64 `json:"credit_score,omitempty"`
	FinalIncomeLac float64 `json:"final_income_lacs,omitempty"`
	Designation    string  `json:"designation,omitempty"`
	Employer       string  `json:"employer,omitempty"`

	RawResponse json.RawMessage `json:"raw_response,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the upsert key.
func (r EnrichmentRecord) Key() LeadKey {
	return LeadKey{LeadID: r.LeadID, ProjectID: r.ProjectID}
}
