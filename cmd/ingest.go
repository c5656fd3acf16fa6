package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/ingest"
	"github.com/sells-group/leadscore-cli/internal/model"
)

var (
	ingestProject string
	ingestMapping string
	ingestSheet   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Import site-visit leads from a CRM export (CSV or XLSX)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mappingPath := ingestMapping
		if mappingPath == "" {
			mappingPath = cfg.Ingest.FieldMappingPath
		}
		registry, err := model.LoadFieldRegistry(mappingPath)
		if err != nil {
			return err
		}

		sheet := ingestSheet
		if sheet == "" {
			sheet = cfg.Ingest.SheetName
		}

		result, err := ingest.ReadFile(ctx, args[0], ingest.Options{
			ProjectID: ingestProject,
			Registry:  registry,
			SheetName: sheet,
		})
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}
		if err := st.UpsertLeads(ctx, result.Leads); err != nil {
			return err
		}

		for _, s := range result.Skipped {
			zap.L().Warn("skipped row",
				zap.Int("row", s.RowNumber),
				zap.Strings("missing", s.Missing),
			)
		}
		zap.L().Info("ingest complete",
			zap.String("project", ingestProject),
			zap.Int("imported", len(result.Leads)),
			zap.Int("skipped", len(result.Skipped)),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestProject, "project", "", "project ID to attach leads to (required)")
	ingestCmd.Flags().StringVar(&ingestMapping, "mapping", "", "field mapping YAML (default from config)")
	ingestCmd.Flags().StringVar(&ingestSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	_ = ingestCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(ingestCmd)
}
