package main

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/pkg/crm"
)

var pullProject string

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull site-visit leads for a project from Salesforce",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sf, err := initSalesforce()
		if err != nil {
			return err
		}

		records, err := crm.FindLeadsByProject(ctx, sf, pullProject)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			zap.L().Info("no leads found", zap.String("project", pullProject))
			return nil
		}

		leads := make([]model.Lead, 0, len(records))
		for _, r := range records {
			leads = append(leads, crmLead(r, pullProject))
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}
		if err := st.UpsertLeads(ctx, leads); err != nil {
			return err
		}

		zap.L().Info("pull complete",
			zap.String("project", pullProject),
			zap.Int("leads", len(leads)),
		)
		return nil
	},
}

// crmLead converts a Salesforce record to the internal lead shape. The full
// record is preserved as raw data so later mapping changes never lose columns.
func crmLead(r crm.SiteVisitLead, projectID string) model.Lead {
	lead := model.Lead{
		ID:                r.ID,
		ProjectID:         projectID,
		Name:              r.Name,
		Phone:             r.Phone,
		Email:             r.Email,
		Project:           r.Project,
		Owner:             r.OwnerName,
		Source:            r.LeadSource,
		LatestRevisitDate: r.LatestRevisitDate,
		BudgetCr:          r.BudgetCr,
		Preference:        r.Preference,
		VisitNotes:        r.VisitNotes,
		ManagerRating:     r.ManagerRating,
	}
	if t, err := time.Parse("2006-01-02", r.VisitDate); err == nil {
		lead.VisitDate = &t
	}
	lead.RawData, _ = json.Marshal(r)
	return lead
}

func init() {
	pullCmd.Flags().StringVar(&pullProject, "project", "", "Salesforce project name (required)")
	_ = pullCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(pullCmd)
}
