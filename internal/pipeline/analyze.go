package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/batch"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/reconcile"
	"github.com/sells-group/leadscore-cli/pkg/anthropic"
)

// AnalyzeLeads scores the given leads (all of the project's leads when
// leadIDs is empty) with the LLM. A lead whose stored analysis snapshot
// still matches its latest-revisit date is served from cache; only a moved
// revisit date re-dispatches.
func (p *Pipeline) AnalyzeLeads(ctx context.Context, projectID string, leadIDs []string) (*Outcome, error) {
	return p.runAnalysis(ctx, projectID, leadIDs, model.KindLeadAnalysis)
}

// ScoreVisitNotes runs the structurally-identical CIS pass over the
// managers' visit notes. Same orchestration, same staleness gate, separate
// record kind.
func (p *Pipeline) ScoreVisitNotes(ctx context.Context, projectID string, leadIDs []string) (*Outcome, error) {
	return p.runAnalysis(ctx, projectID, leadIDs, model.KindCIS)
}

func (p *Pipeline) runAnalysis(ctx context.Context, projectID string, leadIDs []string, kind model.AnalysisKind) (*Outcome, error) {
	leads, err := p.store.GetLeads(ctx, projectID, leadIDs)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load leads")
	}

	analyses, err := p.store.GetAnalyses(ctx, projectID, kind, leadIDs)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load analyses")
	}
	byKey := make(map[model.LeadKey]model.AnalysisRecord, len(analyses))
	for _, rec := range analyses {
		byKey[rec.Key()] = rec
	}

	enrichments, err := p.store.GetEnrichments(ctx, projectID, leadIDs)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load enrichments")
	}
	enrichByKey := make(map[model.LeadKey]model.EnrichmentRecord, len(enrichments))
	for _, rec := range enrichments {
		enrichByKey[rec.Key()] = rec
	}

	state := NewState(leads)
	for _, rec := range enrichments {
		state = ApplyEnrichment(state, rec)
	}

	cached := func(_ context.Context, lead model.Lead) (model.AnalysisRecord, bool, error) {
		rec, ok := byKey[lead.Key()]
		if !ok || rec.Stale(lead.LatestRevisitDate) {
			return model.AnalysisRecord{}, false, nil
		}
		return rec, true, nil
	}

	call := func(ctx context.Context, lead model.Lead) (model.AnalysisRecord, error) {
		return p.analyzeOne(ctx, lead, enrichByKey[lead.Key()], kind)
	}

	// A configured brand context makes the system preamble large enough to
	// be worth priming: one warm-up request, then every lead reads the
	// cached blocks.
	if p.cfg.BrandContext != "" && len(leads) > 0 {
		if _, err := anthropic.PrimerRequest(ctx, p.llm, anthropic.MessageRequest{
			Model:     p.cfg.Model,
			MaxTokens: 1,
			System:    anthropic.BuildCachedSystemBlocks(p.systemText()),
			Messages:  []anthropic.Message{{Role: "user", Content: "ok"}},
		}); err != nil {
			zap.L().Warn("pipeline: cache primer failed", zap.Error(err))
		}
	}

	run := batch.Run(ctx, leads, p.cfg.AnalysisOpts, cached, call)

	for _, r := range run.Results {
		if r.Outcome == batch.OutcomeFailed {
			zap.L().Warn("pipeline: analysis failed",
				zap.String("lead_id", r.Item.ID),
				zap.String("kind", string(kind)),
				zap.Error(r.Err))
			continue
		}
		state = ApplyAnalysis(state, r.Value)
	}

	// Poll the store, counting only records that are fresh for their lead's
	// current revisit date, and fold each tick's partial results in.
	want := len(leads)
	ids := make([]string, len(leads))
	revisits := make(map[model.LeadKey]string, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
		revisits[l.Key()] = l.LatestRevisitDate
	}
	observed, complete, err := batch.Poll(ctx, p.cfg.AnalysisOpts, want, func(ctx context.Context) (int, error) {
		recs, err := p.store.GetAnalyses(ctx, projectID, kind, ids)
		if err != nil {
			return 0, err
		}
		fresh := 0
		for _, rec := range recs {
			if rec.Stale(revisits[rec.Key()]) {
				continue
			}
			state = ApplyAnalysis(state, rec)
			fresh++
		}
		return fresh, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: analysis poll")
	}

	logRunMeta(string(kind), projectID, run.Meta, observed, complete)
	return &Outcome{State: state, Meta: run.Meta, Observed: observed, Complete: complete}, nil
}

// analyzeOne runs the prompt chain for one lead: full prompt, then the
// simplified retry on a malformed response, then the heuristic fallback.
// Only provider transport errors surface as failures; a malformed response
// always settles into a persisted record.
func (p *Pipeline) analyzeOne(ctx context.Context, lead model.Lead, enrich model.EnrichmentRecord, kind model.AnalysisKind) (model.AnalysisRecord, error) {
	var userPrompt string
	if kind == model.KindCIS {
		userPrompt = cisUserPrompt(lead)
	} else {
		fin, prof := p.reconciledProfiles(enrich)
		userPrompt = analysisUserPrompt(lead, fin, prof)
	}

	text, err := p.createMessage(ctx, userPrompt, string(kind))
	if err != nil {
		return model.AnalysisRecord{}, eris.Wrapf(err, "pipeline: analyze lead %s", lead.ID)
	}

	rating, insight, analysis, parseErr := parseAnalysis(text)
	if parseErr != nil {
		zap.L().Warn("pipeline: malformed analysis, retrying with simplified prompt",
			zap.String("lead_id", lead.ID),
			zap.Error(parseErr))

		retryText, err := p.createMessage(ctx, simplifiedUserPrompt(lead), string(kind)+"_retry")
		if err != nil {
			return model.AnalysisRecord{}, eris.Wrapf(err, "pipeline: analyze lead %s (retry)", lead.ID)
		}
		text = retryText
		rating, insight, analysis, parseErr = parseAnalysis(text)
	}
	if parseErr != nil {
		zap.L().Warn("pipeline: simplified retry still malformed, using heuristic fallback",
			zap.String("lead_id", lead.ID))
		rating, insight, analysis = heuristicFallback(lead, text)
	}

	now := time.Now().UTC()
	rawResp, _ := json.Marshal(map[string]string{"text": text})
	rec := model.AnalysisRecord{
		ID:                    newID(),
		LeadID:                lead.ID,
		ProjectID:             lead.ProjectID,
		Kind:                  kind,
		Rating:                rating,
		Insight:               insight,
		Analysis:              analysis,
		RevisitDateAtAnalysis: lead.LatestRevisitDate,
		RawResponse:           rawResp,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := p.persistAnalysis(ctx, rec); err != nil {
		return rec, eris.Wrapf(err, "pipeline: persist analysis for lead %s", lead.ID)
	}
	if kind == model.KindLeadAnalysis {
		if err := p.store.SetAIRating(ctx, lead.Key(), rating); err != nil {
			zap.L().Error("pipeline: set ai rating", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}
	return rec, nil
}

// reconciledProfiles derives the prompt's profile sections from the stored
// provider payload. Missing or malformed payloads yield empty profiles, not
// errors: analysis proceeds on the CRM row alone.
func (p *Pipeline) reconciledProfiles(enrich model.EnrichmentRecord) (model.FinancialSummary, model.ProfessionalProfile) {
	if len(enrich.RawResponse) == 0 || enrich.Status != model.EnrichmentSuccess {
		return model.FinancialSummary{}, model.ProfessionalProfile{}
	}
	fin, err := reconcile.SummaryFromRaw(enrich.RawResponse)
	if err != nil {
		fin = model.FinancialSummary{}
	}
	prof, err := reconcile.NewReconciler().ProfileFromRaw(enrich.RawResponse)
	if err != nil {
		prof = model.ProfessionalProfile{}
	}
	return fin, prof
}

func (p *Pipeline) systemText() string {
	if p.cfg.BrandContext == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\n--- Project & Brand Context ---\n" + p.cfg.BrandContext
}

// createMessage sends one scoring request with the cached system preamble
// and returns the concatenated text blocks.
func (p *Pipeline) createMessage(ctx context.Context, userPrompt, phase string) (string, error) {
	resp, err := p.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Model,
		MaxTokens: p.cfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(p.systemText()),
		Messages:  []anthropic.Message{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(p.cfg.Model, phase)
	return resp.Text(), nil
}
