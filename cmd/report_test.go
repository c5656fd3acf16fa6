package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/analytics"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/store"
)

func TestFormatReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatReport(&buf, analytics.Report{})

	output := buf.String()
	assert.Contains(t, output, "Leads: 0")
	assert.Contains(t, output, "MANAGER")
	assert.Contains(t, output, "SOURCE")
	assert.Contains(t, output, "CONCERN")
}

func TestFormatReport_Rows(t *testing.T) {
	report := analytics.Report{
		Totals: analytics.Totals{Leads: 4, Analyzed: 4, Upgraded: 1, UpgradePct: 25, Hot: 1, Warm: 2, Cold: 1},
		ByManager: []analytics.GroupStat{
			{Key: "Priya", Count: 3, Upgraded: 1, UpgradePct: 33},
		},
		BySource: []analytics.GroupStat{
			{Key: "Walk-in", Count: 4, Upgraded: 1, UpgradePct: 25},
		},
		ByConcern: []analytics.ConcernStat{
			{Category: "Price", Count: 2, DominantPersona: "Upgrader", DominantProfession: "Engineer"},
		},
	}

	var buf bytes.Buffer
	formatReport(&buf, report)

	output := buf.String()
	assert.Contains(t, output, "Upgraded: 1 (25%)")
	assert.Contains(t, output, "1 hot / 2 warm / 1 cold")
	assert.Contains(t, output, "Priya")
	assert.Contains(t, output, "33%")
	assert.Contains(t, output, "Walk-in")
	assert.Contains(t, output, "Price")
	assert.Contains(t, output, "Upgrader")
	assert.Contains(t, output, "Engineer")
}

func TestLoadScoredLeads(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	defer st.Close()

	require.NoError(t, st.UpsertLeads(ctx, []model.Lead{
		{ID: "L-1", ProjectID: "proj-1", Name: "Asha", Phone: "9811", ManagerRating: "Warm"},
		{ID: "L-2", ProjectID: "proj-1", Name: "Ravi", Phone: "9822", ManagerRating: "Cold"},
	}))
	require.NoError(t, st.UpsertAnalysis(ctx, model.AnalysisRecord{
		ID: "a-1", LeadID: "L-1", ProjectID: "proj-1", Kind: model.KindLeadAnalysis, Rating: "Hot",
	}))
	// CIS rows never count as lead analyses.
	require.NoError(t, st.UpsertAnalysis(ctx, model.AnalysisRecord{
		ID: "a-2", LeadID: "L-2", ProjectID: "proj-1", Kind: model.KindCIS, Rating: "Warm",
	}))

	scored, err := loadScoredLeads(ctx, st, "proj-1")
	require.NoError(t, err)
	require.Len(t, scored, 2)

	byID := make(map[string]analytics.ScoredLead, len(scored))
	for _, sl := range scored {
		byID[sl.Lead.ID] = sl
	}
	require.NotNil(t, byID["L-1"].Analysis)
	assert.Equal(t, "Hot", byID["L-1"].Analysis.Rating)
	assert.Nil(t, byID["L-2"].Analysis)
}
