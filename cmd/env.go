package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/pipeline"
	"github.com/sells-group/leadscore-cli/internal/resilience"
	"github.com/sells-group/leadscore-cli/internal/store"
	anthropicpkg "github.com/sells-group/leadscore-cli/pkg/anthropic"
	"github.com/sells-group/leadscore-cli/pkg/crm"
	"github.com/sells-group/leadscore-cli/pkg/mql"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed by
// the enrich/analyze/serve commands. Callers should defer env.Close().
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadscore.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store and API clients and builds the Pipeline.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.Anthropic.Key == "" {
		_ = st.Close()
		return nil, eris.New("anthropic API key is required (LEADSCORE_ANTHROPIC_KEY)")
	}
	llm := anthropicpkg.NewClient(cfg.Anthropic.Key)

	mqlOpts := []mql.Option{}
	if cfg.MQL.BaseURL != "" {
		mqlOpts = append(mqlOpts, mql.WithBaseURL(cfg.MQL.BaseURL))
	}
	if cfg.MQL.RateLimitRPS > 0 {
		mqlOpts = append(mqlOpts, mql.WithRateLimit(cfg.MQL.RateLimitRPS, 1))
	}
	enricher := mql.NewClient(cfg.MQL.Key, mqlOpts...)

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(st, llm, enricher, pipelineConfig()),
	}, nil
}

// pipelineConfig maps the batch settings onto pipeline pacing. Zero-valued
// settings fall back to the built-in defaults.
func pipelineConfig() pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.Model = cfg.Anthropic.HaikuModel
	if cfg.Anthropic.MaxTokens > 0 {
		pc.MaxTokens = cfg.Anthropic.MaxTokens
	}

	b := cfg.Batch
	if b.AnalysisDelayMs > 0 {
		pc.AnalysisOpts.InterItemDelay = time.Duration(b.AnalysisDelayMs) * time.Millisecond
	}
	if b.AnalysisPollSecs > 0 {
		pc.AnalysisOpts.PollInterval = time.Duration(b.AnalysisPollSecs) * time.Second
	}
	if b.AnalysisPollLimit > 0 {
		pc.AnalysisOpts.MaxPollAttempts = b.AnalysisPollLimit
	}
	if b.EnrichDelayMs > 0 {
		pc.EnrichOpts.InterItemDelay = time.Duration(b.EnrichDelayMs) * time.Millisecond
	}
	if b.EnrichPollSecs > 0 {
		pc.EnrichOpts.PollInterval = time.Duration(b.EnrichPollSecs) * time.Second
	}
	if b.EnrichPollLimit > 0 {
		pc.EnrichOpts.MaxPollAttempts = b.EnrichPollLimit
	}
	if b.RetryMaxAttempts > 0 {
		pc.StoreRetry = resilience.RetryConfig{
			MaxAttempts: b.RetryMaxAttempts,
			Delay:       time.Duration(b.RetryDelaySecs) * time.Second,
			ShouldRetry: func(error) bool { return true },
		}
	}
	return pc
}

func initSalesforce() (crm.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADSCORE_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	opts := []crm.ClientOption{}
	if cfg.Salesforce.RateLimitRPS > 0 {
		opts = append(opts, crm.WithRateLimit(cfg.Salesforce.RateLimitRPS))
	}
	return crm.NewClient(sf, opts...), nil
}
