package model

import (
	"encoding/json"
	"time"
)

// Lead represents a prospective customer sourced from a CRM export.
// RawData is the untouched CRM row and is the durable source of truth;
// every other field is a projection of it resolved at ingestion time.
type Lead struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`

	Project           string     `json:"project,omitempty"`
	Owner             string     `json:"owner,omitempty"`
	Source            string     `json:"source,omitempty"`
	VisitDate         *time.Time `json:"visit_date,omitempty"`
	LatestRevisitDate string     `json:"latest_revisit_date,omitempty"`
	BudgetCr          float64    `json:"budget_cr,omitempty"`
	Preference        string     `json:"preference,omitempty"`
	VisitNotes        string     `json:"visit_notes,omitempty"`

	ManagerRating string `json:"manager_rating,omitempty"`
	AIRating      string `json:"ai_rating,omitempty"` // empty until analyzed

	RawData json.RawMessage `json:"raw_data"` // immutable after ingestion

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the natural key used for upserts. A lead id is only unique
// within a project.
func (l Lead) Key() LeadKey {
	return LeadKey{LeadID: l.ID, ProjectID: l.ProjectID}
}

// LeadKey is the (lead, project) natural key shared by leads, enrichment
// records and analysis records.
type LeadKey struct {
	LeadID    string `json:"lead_id"`
	ProjectID string `json:"project_id"`
}
