package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscore-cli/internal/analytics"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/store"
)

var (
	reportProject string
	reportJSON    bool
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"analytics"},
	Short:   "Aggregate rating analytics for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		scored, err := loadScoredLeads(ctx, st, reportProject)
		if err != nil {
			return err
		}
		report := analytics.Aggregate(scored)

		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		formatReport(os.Stdout, report)
		return nil
	},
}

// loadScoredLeads pairs each lead with its latest lead analysis, if any.
// The two reads are independent, so they run concurrently.
func loadScoredLeads(ctx context.Context, st store.Store, projectID string) ([]analytics.ScoredLead, error) {
	var (
		leads    []model.Lead
		analyses []model.AnalysisRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = st.GetLeads(gctx, projectID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		analyses, err = st.GetAnalyses(gctx, projectID, model.KindLeadAnalysis, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byKey := make(map[model.LeadKey]model.AnalysisRecord, len(analyses))
	for _, rec := range analyses {
		byKey[rec.Key()] = rec
	}

	scored := make([]analytics.ScoredLead, 0, len(leads))
	for _, lead := range leads {
		sl := analytics.ScoredLead{Lead: lead}
		if rec, ok := byKey[lead.Key()]; ok {
			sl.Analysis = &rec
		}
		scored = append(scored, sl)
	}
	return scored, nil
}

func formatReport(out io.Writer, r analytics.Report) {
	fmt.Fprintf(out, "Leads: %d  Analyzed: %d  Upgraded: %d (%d%%)  Downgraded: %d\n",
		r.Totals.Leads, r.Totals.Analyzed, r.Totals.Upgraded, r.Totals.UpgradePct, r.Totals.Downgraded)
	fmt.Fprintf(out, "Ratings: %d hot / %d warm / %d cold / %d unrated\n\n",
		r.Totals.Hot, r.Totals.Warm, r.Totals.Cold, r.Totals.Unrated)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "MANAGER\tLEADS\tUPGRADED\tUPGRADE%")
	for _, g := range r.ByManager {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d%%\n", g.Key, g.Count, g.Upgraded, g.UpgradePct)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SOURCE\tLEADS\tUPGRADED\tUPGRADE%")
	for _, g := range r.BySource {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d%%\n", g.Key, g.Count, g.Upgraded, g.UpgradePct)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "CONCERN\tLEADS\tPERSONA\tPROFESSION")
	for _, c := range r.ByConcern {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.Category, c.Count, c.DominantPersona, c.DominantProfession)
	}
	_ = w.Flush()
}

func init() {
	reportCmd.Flags().StringVar(&reportProject, "project", "", "project ID (required)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "emit the report as JSON")
	_ = reportCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(reportCmd)
}
