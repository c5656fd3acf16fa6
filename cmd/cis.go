package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cisProject string
	cisLeads   []string
)

var cisCmd = &cobra.Command{
	Use:   "cis",
	Short: "Score customer-interaction quality from visit notes",
	Long:  "Runs the customer interaction score (CIS) flow: visit notes are scored separately from lead analyses and never touch AI ratings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		outcome, err := env.Pipeline.ScoreVisitNotes(ctx, cisProject, cisLeads)
		if err != nil {
			return err
		}

		zap.L().Info("visit-note scoring finished",
			zap.String("project", cisProject),
			zap.Int("succeeded", outcome.Meta.Succeeded),
			zap.Int("failed", outcome.Meta.Failed),
			zap.Int("cached", outcome.Meta.Cached),
			zap.Bool("complete", outcome.Complete),
		)
		return nil
	},
}

func init() {
	cisCmd.Flags().StringVar(&cisProject, "project", "", "project ID (required)")
	cisCmd.Flags().StringSliceVar(&cisLeads, "leads", nil, "lead IDs to score (default all in project)")
	_ = cisCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(cisCmd)
}
