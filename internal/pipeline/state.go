package pipeline

import "github.com/sells-group/leadscore-cli/internal/model"

// State is the caller-visible view of one project's leads with whatever
// enrichment and analysis results have arrived so far. It is updated only
// through the Apply* transition functions, which take the current state and
// an incoming delta and return a new state. Deltas arrive in per-item
// completion order, which is not input order; everything is keyed, nothing
// is index-aligned.
type State struct {
	Leads       []model.Lead
	Enrichments map[model.LeadKey]model.EnrichmentRecord
	Analyses    map[model.LeadKey]model.AnalysisRecord
	Notes       map[model.LeadKey]model.AnalysisRecord

	index map[model.LeadKey]int
}

// NewState seeds a state from the project's leads.
func NewState(leads []model.Lead) State {
	s := State{
		Leads:       make([]model.Lead, len(leads)),
		Enrichments: make(map[model.LeadKey]model.EnrichmentRecord),
		Analyses:    make(map[model.LeadKey]model.AnalysisRecord),
		Notes:       make(map[model.LeadKey]model.AnalysisRecord),
		index:       make(map[model.LeadKey]int, len(leads)),
	}
	copy(s.Leads, leads)
	for i, l := range s.Leads {
		s.index[l.Key()] = i
	}
	return s
}

// clone shallow-copies the containers so transitions never mutate their
// input. Records themselves are value types.
func (s State) clone() State {
	out := State{
		Leads:       make([]model.Lead, len(s.Leads)),
		Enrichments: make(map[model.LeadKey]model.EnrichmentRecord, len(s.Enrichments)),
		Analyses:    make(map[model.LeadKey]model.AnalysisRecord, len(s.Analyses)),
		Notes:       make(map[model.LeadKey]model.AnalysisRecord, len(s.Notes)),
		index:       make(map[model.LeadKey]int, len(s.index)),
	}
	copy(out.Leads, s.Leads)
	for k, v := range s.Enrichments {
		out.Enrichments[k] = v
	}
	for k, v := range s.Analyses {
		out.Analyses[k] = v
	}
	for k, v := range s.Notes {
		out.Notes[k] = v
	}
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

// Lead returns the lead for a key, if it is part of this state.
func (s State) Lead(key model.LeadKey) (model.Lead, bool) {
	i, ok := s.index[key]
	if !ok {
		return model.Lead{}, false
	}
	return s.Leads[i], true
}

// ApplyEnrichment folds one enrichment record into the state. A record for
// an unknown lead is kept anyway; the lead may arrive in a later delta.
func ApplyEnrichment(s State, rec model.EnrichmentRecord) State {
	out := s.clone()
	out.Enrichments[rec.Key()] = rec
	if rec.Status == model.EnrichmentSuccess && rec.MQLRating != "" {
		if i, ok := out.index[rec.Key()]; ok {
			out.Leads[i].UpdatedAt = rec.UpdatedAt
		}
	}
	return out
}

// ApplyAnalysis folds one analysis record into the state. A lead-analysis
// record also carries the lead's new AI rating onto the lead itself.
func ApplyAnalysis(s State, rec model.AnalysisRecord) State {
	out := s.clone()
	switch rec.Kind {
	case model.KindCIS:
		out.Notes[rec.Key()] = rec
	default:
		out.Analyses[rec.Key()] = rec
		if i, ok := out.index[rec.Key()]; ok {
			out.Leads[i].AIRating = rec.Rating
		}
	}
	return out
}

// ApplyLeads upserts refreshed lead rows into the state, preserving the
// position of leads already present.
func ApplyLeads(s State, leads []model.Lead) State {
	out := s.clone()
	for _, l := range leads {
		if i, ok := out.index[l.Key()]; ok {
			out.Leads[i] = l
			continue
		}
		out.Leads = append(out.Leads, l)
		out.index[l.Key()] = len(out.Leads) - 1
	}
	return out
}
