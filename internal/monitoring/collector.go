// Package monitoring gathers project-health metrics from the store and
// raises webhook alerts when scoring quality degrades.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of one project's health.
type MetricsSnapshot struct {
	ProjectID string `json:"project_id"`

	// Lead coverage.
	Leads    int `json:"leads"`
	Enriched int `json:"enriched"`
	Analyzed int `json:"analyzed"`

	// Enrichment outcomes.
	EnrichSuccess  int     `json:"enrich_success"`
	EnrichNoData   int     `json:"enrich_no_data"`
	EnrichFailed   int     `json:"enrich_failed"`
	EnrichFailRate float64 `json:"enrich_fail_rate"`

	// Analysis quality.
	Fallbacks    int     `json:"fallbacks"`
	FallbackRate float64 `json:"fallback_rate"`
	Stale        int     `json:"stale"`

	// Rating distribution over analyzed leads.
	Hot  int `json:"hot"`
	Warm int `json:"warm"`
	Cold int `json:"cold"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of one project's health.
func (c *Collector) Collect(ctx context.Context, projectID string) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		ProjectID:   projectID,
		CollectedAt: time.Now().UTC(),
	}

	leads, err := c.store.GetLeads(ctx, projectID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: load leads")
	}
	snap.Leads = len(leads)
	revisits := make(map[model.LeadKey]string, len(leads))
	for _, l := range leads {
		revisits[l.Key()] = l.LatestRevisitDate
	}

	enrichments, err := c.store.GetEnrichments(ctx, projectID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: load enrichments")
	}
	snap.Enriched = len(enrichments)
	for _, rec := range enrichments {
		switch rec.Status {
		case model.EnrichmentSuccess:
			snap.EnrichSuccess++
		case model.EnrichmentNoData:
			snap.EnrichNoData++
		case model.EnrichmentFailed:
			snap.EnrichFailed++
		}
	}
	if snap.Enriched > 0 {
		snap.EnrichFailRate = float64(snap.EnrichFailed) / float64(snap.Enriched)
	}

	analyses, err := c.store.GetAnalyses(ctx, projectID, model.KindLeadAnalysis, nil)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: load analyses")
	}
	snap.Analyzed = len(analyses)
	for _, rec := range analyses {
		if rec.IsFallback() {
			snap.Fallbacks++
		}
		if rec.Stale(revisits[rec.Key()]) {
			snap.Stale++
		}
		switch model.RatingOrder(rec.Rating) {
		case 3:
			snap.Hot++
		case 2:
			snap.Warm++
		case 1:
			snap.Cold++
		}
	}
	if snap.Analyzed > 0 {
		snap.FallbackRate = float64(snap.Fallbacks) / float64(snap.Analyzed)
	}

	return snap, nil
}
