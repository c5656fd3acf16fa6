package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/pipeline"
	"github.com/sells-group/leadscore-cli/pkg/crm"
)

var (
	analyzeProject  string
	analyzeLeads    []string
	analyzeResubmit bool
	analyzePush     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score leads via Claude and assign AI ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var outcome *pipeline.Outcome
		if analyzeResubmit {
			outcome, err = env.Pipeline.ResubmitFailed(ctx, analyzeProject)
		} else {
			outcome, err = env.Pipeline.AnalyzeLeads(ctx, analyzeProject, analyzeLeads)
		}
		if err != nil {
			return err
		}

		zap.L().Info("analysis finished",
			zap.String("project", analyzeProject),
			zap.Int("succeeded", outcome.Meta.Succeeded),
			zap.Int("failed", outcome.Meta.Failed),
			zap.Int("cached", outcome.Meta.Cached),
			zap.Bool("complete", outcome.Complete),
		)

		if analyzePush {
			return pushRatings(cmd, outcome)
		}
		return nil
	},
}

// pushRatings writes the run's AI and MQL ratings back to Salesforce.
func pushRatings(cmd *cobra.Command, outcome *pipeline.Outcome) error {
	sf, err := initSalesforce()
	if err != nil {
		return err
	}

	updates := make([]crm.RatingUpdate, 0, len(outcome.State.Leads))
	for _, lead := range outcome.State.Leads {
		u := crm.RatingUpdate{ID: lead.ID, AIRating: lead.AIRating}
		if rec, ok := outcome.State.Enrichments[lead.Key()]; ok {
			u.MQLRating = rec.MQLRating
		}
		if u.AIRating == "" && u.MQLRating == "" {
			continue
		}
		updates = append(updates, u)
	}
	if len(updates) == 0 {
		zap.L().Info("no ratings to push")
		return nil
	}

	results, err := crm.PushRatings(cmd.Context(), sf, updates)
	for _, r := range results {
		if !r.Success {
			zap.L().Warn("rating push rejected",
				zap.String("lead", r.ID),
				zap.Strings("errors", r.Errors),
			)
		}
	}
	if err != nil {
		return err
	}
	zap.L().Info("ratings pushed", zap.Int("updated", len(updates)))
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeProject, "project", "", "project ID (required)")
	analyzeCmd.Flags().StringSliceVar(&analyzeLeads, "leads", nil, "lead IDs to analyze (default all in project)")
	analyzeCmd.Flags().BoolVar(&analyzeResubmit, "resubmit-failed", false, "re-run only leads whose last analysis fell back to the heuristic")
	analyzeCmd.Flags().BoolVar(&analyzePush, "push-crm", false, "push resulting ratings back to Salesforce")
	_ = analyzeCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(analyzeCmd)
}
