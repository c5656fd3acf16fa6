package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/model"
)

var (
	enrichProject string
	enrichLeads   []string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich leads with financial and professional data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		outcome, err := env.Pipeline.EnrichLeads(ctx, enrichProject, enrichLeads)
		if err != nil {
			return err
		}

		var noData int
		for _, lead := range outcome.State.Leads {
			if rec, ok := outcome.State.Enrichments[lead.Key()]; ok && rec.Status == model.EnrichmentNoData {
				noData++
			}
		}
		zap.L().Info("enrichment finished",
			zap.String("project", enrichProject),
			zap.Int("succeeded", outcome.Meta.Succeeded),
			zap.Int("failed", outcome.Meta.Failed),
			zap.Int("cached", outcome.Meta.Cached),
			zap.Int("no_data", noData),
			zap.Bool("complete", outcome.Complete),
		)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichProject, "project", "", "project ID (required)")
	enrichCmd.Flags().StringSliceVar(&enrichLeads, "leads", nil, "lead IDs to enrich (default all in project)")
	_ = enrichCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(enrichCmd)
}
