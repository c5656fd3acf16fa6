package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/batch"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/reconcile"
	"github.com/sells-group/leadscore-cli/pkg/mql"
)

// Outcome is the result of one orchestration run: the folded-in state, the
// per-item tallies, and how much of the batch the completion poll observed.
type Outcome struct {
	State    State
	Meta     batch.Meta
	Observed int
	Complete bool
}

// EnrichLeads enriches the given leads (all of the project's leads when
// leadIDs is empty) through the MQL provider. A lead with any existing
// enrichment record is skipped: enrichment is immutable once obtained, only
// explicit resubmission replaces it.
func (p *Pipeline) EnrichLeads(ctx context.Context, projectID string, leadIDs []string) (*Outcome, error) {
	leads, err := p.store.GetLeads(ctx, projectID, leadIDs)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load leads")
	}

	existing, err := p.store.GetEnrichments(ctx, projectID, leadIDs)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load enrichments")
	}
	byKey := make(map[model.LeadKey]model.EnrichmentRecord, len(existing))
	for _, rec := range existing {
		byKey[rec.Key()] = rec
	}

	state := NewState(leads)

	cached := func(_ context.Context, lead model.Lead) (model.EnrichmentRecord, bool, error) {
		rec, ok := byKey[lead.Key()]
		return rec, ok, nil
	}

	run := batch.Run(ctx, leads, p.cfg.EnrichOpts, cached, p.enrichOne)

	for _, r := range run.Results {
		if r.Outcome == batch.OutcomeFailed {
			zap.L().Warn("pipeline: enrichment failed",
				zap.String("lead_id", r.Item.ID),
				zap.Error(r.Err))
			continue
		}
		state = ApplyEnrichment(state, r.Value)
	}

	// Poll the store until every requested lead has a row, merging whatever
	// is visible on each tick.
	want := len(leads)
	ids := make([]string, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
	}
	observed, complete, err := batch.Poll(ctx, p.cfg.EnrichOpts, want, func(ctx context.Context) (int, error) {
		recs, err := p.store.GetEnrichments(ctx, projectID, ids)
		if err != nil {
			return 0, err
		}
		for _, rec := range recs {
			state = ApplyEnrichment(state, rec)
		}
		return len(recs), nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: enrichment poll")
	}

	logRunMeta("enrich", projectID, run.Meta, observed, complete)
	return &Outcome{State: state, Meta: run.Meta, Observed: observed, Complete: complete}, nil
}

// enrichOne calls the provider for one lead and persists the outcome
// before returning. Provider transport failures persist a FAILED row so a
// completed run is always fully backed by queryable records.
func (p *Pipeline) enrichOne(ctx context.Context, lead model.Lead) (model.EnrichmentRecord, error) {
	now := time.Now().UTC()
	rec := model.EnrichmentRecord{
		ID:        newID(),
		LeadID:    lead.ID,
		ProjectID: lead.ProjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	resp, err := p.mql.Enrich(ctx, mql.EnrichRequest{
		Name:      lead.Name,
		Phone:     lead.Phone,
		ProjectID: lead.ProjectID,
	})
	if err != nil {
		rec.Status = model.EnrichmentFailed
		if perr := p.persistEnrichment(ctx, rec); perr != nil {
			zap.L().Error("pipeline: persist failed enrichment", zap.String("lead_id", lead.ID), zap.Error(perr))
		}
		return rec, eris.Wrapf(err, "pipeline: enrich lead %s", lead.ID)
	}

	rec.RawResponse = resp.Raw
	if resp.NotFound() {
		rec.Status = model.EnrichmentNoData
	} else {
		rec.Status = model.EnrichmentSuccess
		rec.MQLRating = resp.MQLRating
		fillEnrichmentFields(&rec, resp)
	}

	if err := p.persistEnrichment(ctx, rec); err != nil {
		return rec, eris.Wrapf(err, "pipeline: persist enrichment for lead %s", lead.ID)
	}
	return rec, nil
}

// fillEnrichmentFields projects the provider payload into the record's
// convenience columns. RawResponse stays authoritative; a projection
// failure costs nothing but the conveniences.
func fillEnrichmentFields(rec *model.EnrichmentRecord, resp *mql.EnrichResponse) {
	doc, err := reconcile.ParsePayload(resp.Data)
	if err != nil || doc == nil {
		return
	}
	if score, ok := doc.Doc("credit_score").Num("score", "value"); ok {
		rec.CreditScore = score
	}
	if lacs, ok := doc.Doc("income").Num("final_income_lacs", "income_lacs", "annual_income_lacs"); ok {
		rec.FinalIncomeLac = lacs
	}
	if prof, err := reconcile.NewReconciler().ProfileFromRaw(resp.Data); err == nil {
		rec.Designation = prof.CurrentRole
		rec.Employer = prof.CurrentEmployer
	}
}
