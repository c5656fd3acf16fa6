package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscore-cli/internal/analytics"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/monitoring"
	"github.com/sells-group/leadscore-cli/internal/pipeline"
)

var (
	servePort    int
	serveMonitor string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		collector := monitoring.NewCollector(env.Store)
		router := buildRouter(ctx, env, collector)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			return srv.Shutdown(cmd.Context())
		})

		if serveMonitor != "" {
			alerter := monitoring.NewAlerter(cfg.Monitoring)
			checker := monitoring.NewChecker(collector, alerter, serveMonitor, cfg.Monitoring)
			g.Go(func() error {
				checker.Run(gctx)
				return nil
			})
		}

		return g.Wait()
	},
}

// buildRouter wires the dashboard API. Async triggers run on serveCtx so a
// shutdown cancels in-flight pipeline runs.
func buildRouter(serveCtx context.Context, env *pipelineEnv, collector *monitoring.Collector) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/projects/{projectID}", func(r chi.Router) {
		r.Get("/leads", func(w http.ResponseWriter, req *http.Request) {
			handleLeads(w, req, env)
		})
		r.Get("/report", func(w http.ResponseWriter, req *http.Request) {
			projectID := chi.URLParam(req, "projectID")
			scored, err := loadScoredLeads(req.Context(), env.Store, projectID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, analytics.Aggregate(scored))
		})
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			snap, err := collector.Collect(req.Context(), chi.URLParam(req, "projectID"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})
		r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
			handleRun(serveCtx, w, req, "enrich", env.Pipeline.EnrichLeads)
		})
		r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
			handleRun(serveCtx, w, req, "analyze", env.Pipeline.AnalyzeLeads)
		})
	})

	return r
}

// leadView is a lead joined with its analysis and the display bucket the
// dashboard colors it with.
type leadView struct {
	model.Lead
	Analysis  *model.AnalysisRecord `json:"analysis,omitempty"`
	Highlight model.HighlightClass  `json:"highlight"`
	Stale     bool                  `json:"stale"`
}

func handleLeads(w http.ResponseWriter, req *http.Request, env *pipelineEnv) {
	ctx := req.Context()
	projectID := chi.URLParam(req, "projectID")

	leads, err := env.Store.GetLeads(ctx, projectID, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	analyses, err := env.Store.GetAnalyses(ctx, projectID, model.KindLeadAnalysis, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	byKey := make(map[model.LeadKey]model.AnalysisRecord, len(analyses))
	for _, rec := range analyses {
		byKey[rec.Key()] = rec
	}

	views := make([]leadView, 0, len(leads))
	for _, lead := range leads {
		v := leadView{Lead: lead}
		rating := lead.ManagerRating
		if rec, ok := byKey[lead.Key()]; ok {
			v.Analysis = &rec
			v.Stale = rec.Stale(lead.LatestRevisitDate)
			if rec.Rating != "" {
				rating = rec.Rating
			}
		}
		v.Highlight = model.Highlight(rating)
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

// handleRun accepts a pipeline trigger and executes it asynchronously. The
// run outlives the request but not the server.
func handleRun(ctx context.Context, w http.ResponseWriter, req *http.Request, flow string, run func(context.Context, string, []string) (*pipeline.Outcome, error)) {
	projectID := chi.URLParam(req, "projectID")

	var body struct {
		Leads []string `json:"leads"`
	}
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&body)
	}

	go func() {
		outcome, err := run(ctx, projectID, body.Leads)
		if err != nil {
			zap.L().Error("triggered run failed",
				zap.String("flow", flow),
				zap.String("project", projectID),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("triggered run complete",
			zap.String("flow", flow),
			zap.String("project", projectID),
			zap.Int("succeeded", outcome.Meta.Succeeded),
			zap.Int("failed", outcome.Meta.Failed),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"flow":    flow,
		"project": projectID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveMonitor, "monitor-project", "", "project ID for background scoring-quality checks")
	rootCmd.AddCommand(serveCmd)
}
