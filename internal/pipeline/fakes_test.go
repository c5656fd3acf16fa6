package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/batch"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/resilience"
	"github.com/sells-group/leadscore-cli/pkg/anthropic"
	"github.com/sells-group/leadscore-cli/pkg/mql"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	mu          sync.Mutex
	leads       map[model.LeadKey]model.Lead
	enrichments map[model.LeadKey]model.EnrichmentRecord
	analyses    map[string]model.AnalysisRecord // key + kind

	failUpserts int // fail this many upserts before succeeding
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:       make(map[model.LeadKey]model.Lead),
		enrichments: make(map[model.LeadKey]model.EnrichmentRecord),
		analyses:    make(map[string]model.AnalysisRecord),
	}
}

func analysisKey(key model.LeadKey, kind model.AnalysisKind) string {
	return key.LeadID + "|" + key.ProjectID + "|" + string(kind)
}

func (s *fakeStore) UpsertLeads(_ context.Context, leads []model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range leads {
		s.leads[l.Key()] = l
	}
	return nil
}

func (s *fakeStore) GetLeads(_ context.Context, projectID string, leadIDs []string) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Lead
	for _, l := range s.leads {
		if l.ProjectID == projectID && matchIDs(l.ID, leadIDs) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) SetAIRating(_ context.Context, key model.LeadKey, rating string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[key]
	if !ok {
		return eris.New("lead not found")
	}
	l.AIRating = rating
	s.leads[key] = l
	return nil
}

func (s *fakeStore) UpsertEnrichment(_ context.Context, rec model.EnrichmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpserts > 0 {
		s.failUpserts--
		return eris.New("store unavailable")
	}
	s.enrichments[rec.Key()] = rec
	return nil
}

func (s *fakeStore) GetEnrichments(_ context.Context, projectID string, leadIDs []string) ([]model.EnrichmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EnrichmentRecord
	for _, rec := range s.enrichments {
		if rec.ProjectID == projectID && matchIDs(rec.LeadID, leadIDs) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertAnalysis(_ context.Context, rec model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpserts > 0 {
		s.failUpserts--
		return eris.New("store unavailable")
	}
	s.analyses[analysisKey(rec.Key(), rec.Kind)] = rec
	return nil
}

func (s *fakeStore) GetAnalyses(_ context.Context, projectID string, kind model.AnalysisKind, leadIDs []string) ([]model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AnalysisRecord
	for _, rec := range s.analyses {
		if rec.ProjectID == projectID && rec.Kind == kind && matchIDs(rec.LeadID, leadIDs) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteAnalysis(_ context.Context, key model.LeadKey, kind model.AnalysisKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.analyses, analysisKey(key, kind))
	return nil
}

func (s *fakeStore) Migrate(context.Context) error { return nil }
func (s *fakeStore) Close() error                  { return nil }

func matchIDs(id string, leadIDs []string) bool {
	if len(leadIDs) == 0 {
		return true
	}
	for _, want := range leadIDs {
		if id == want {
			return true
		}
	}
	return false
}

// fakeLLM returns scripted responses in order, repeating the last one.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeLLM) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if len(req.Messages) > 0 {
		f.prompts = append(f.prompts, req.Messages[0].Content)
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := ""
	if len(f.responses) > 0 {
		if i >= len(f.responses) {
			i = len(f.responses) - 1
		}
		text = f.responses[i]
	}
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}, nil
}

// fakeEnricher maps phone numbers to responses.
type fakeEnricher struct {
	mu        sync.Mutex
	responses map[string]*mql.EnrichResponse
	errs      map[string]error
	calls     []string
}

func (f *fakeEnricher) Enrich(_ context.Context, req mql.EnrichRequest) (*mql.EnrichResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Phone)
	if err, ok := f.errs[req.Phone]; ok {
		return nil, err
	}
	if resp, ok := f.responses[req.Phone]; ok {
		return resp, nil
	}
	return &mql.EnrichResponse{Status: mql.StatusNotFound}, nil
}

// testConfig removes all pacing so tests run instantly.
func testConfig() Config {
	opts := batch.Options{
		ChunkSize:       1,
		InterItemDelay:  0,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 2,
	}
	return Config{
		Model:        "claude-haiku-4-5-20251001",
		MaxTokens:    1024,
		AnalysisOpts: opts,
		EnrichOpts:   opts,
		StoreRetry: resilience.RetryConfig{
			MaxAttempts: 2,
			Delay:       time.Millisecond,
			ShouldRetry: func(error) bool { return true },
		},
	}
}

func testLead(id, project string) model.Lead {
	return model.Lead{
		ID:                id,
		ProjectID:         project,
		Name:              "Lead " + id,
		Phone:             "98" + id,
		ManagerRating:     model.RatingWarm,
		LatestRevisitDate: "2024-05-01",
		VisitNotes:        "liked the layout, asked about emi options",
	}
}
