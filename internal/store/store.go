// Package store persists leads, enrichment records and analysis records.
// Upsert-by-natural-key is the sole concurrency-safety mechanism: the same
// key always overwrites, never duplicates, so retries are free. No method
// assumes transactional atomicity across tables.
package store

import (
	"context"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// Store is the durable persistence interface for the lead pipeline.
// Read methods taking leadIDs treat a nil/empty slice as "all rows in the
// project" (an eq filter); a populated slice is an in filter.
type Store interface {
	// Leads
	UpsertLeads(ctx context.Context, leads []model.Lead) error
	GetLeads(ctx context.Context, projectID string, leadIDs []string) ([]model.Lead, error)
	SetAIRating(ctx context.Context, key model.LeadKey, rating string) error

	// Enrichment records, keyed by (lead_id, project_id).
	UpsertEnrichment(ctx context.Context, rec model.EnrichmentRecord) error
	GetEnrichments(ctx context.Context, projectID string, leadIDs []string) ([]model.EnrichmentRecord, error)

	// Analysis records, keyed by (lead_id, project_id, kind).
	UpsertAnalysis(ctx context.Context, rec model.AnalysisRecord) error
	GetAnalyses(ctx context.Context, projectID string, kind model.AnalysisKind, leadIDs []string) ([]model.AnalysisRecord, error)
	DeleteAnalysis(ctx context.Context, key model.LeadKey, kind model.AnalysisKind) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
