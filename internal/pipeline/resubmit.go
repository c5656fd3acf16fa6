package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// FallbackRecords returns the stored lead analyses produced by the
// heuristic fallback, identified by the marker in their insight text.
func FallbackRecords(records []model.AnalysisRecord) []model.AnalysisRecord {
	var out []model.AnalysisRecord
	for _, rec := range records {
		if rec.IsFallback() {
			out = append(out, rec)
		}
	}
	return out
}

// ResubmitFailed re-runs analysis for every fallback-marked record in the
// project. The stale records are deleted first so the cache-skip rule does
// not short-circuit the fresh dispatch; the re-run then flows through the
// same pipeline as a smaller batch.
func (p *Pipeline) ResubmitFailed(ctx context.Context, projectID string) (*Outcome, error) {
	records, err := p.store.GetAnalyses(ctx, projectID, model.KindLeadAnalysis, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load analyses for resubmission")
	}

	fallbacks := FallbackRecords(records)
	if len(fallbacks) == 0 {
		zap.L().Info("pipeline: no fallback records to resubmit",
			zap.String("project_id", projectID))
		return &Outcome{State: NewState(nil), Complete: true}, nil
	}

	ids := make([]string, 0, len(fallbacks))
	for _, rec := range fallbacks {
		if err := p.store.DeleteAnalysis(ctx, rec.Key(), model.KindLeadAnalysis); err != nil {
			return nil, eris.Wrapf(err, "pipeline: clear fallback record for lead %s", rec.LeadID)
		}
		ids = append(ids, rec.LeadID)
	}

	zap.L().Info("pipeline: resubmitting fallback records",
		zap.String("project_id", projectID),
		zap.Int("count", len(ids)))

	return p.AnalyzeLeads(ctx, projectID, ids)
}
