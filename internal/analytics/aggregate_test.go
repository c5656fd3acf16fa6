package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/model"
)

func scoredLead(owner, source, manager, ai string) ScoredLead {
	s := ScoredLead{
		Lead: model.Lead{ID: "L", ProjectID: "p1", Owner: owner, Source: source, ManagerRating: manager},
	}
	if ai != "" {
		s.Analysis = &model.AnalysisRecord{Rating: ai, Kind: model.KindLeadAnalysis}
	}
	return s
}

func withConcerns(s ScoredLead, persona, profession string, concerns ...string) ScoredLead {
	if s.Analysis == nil {
		s.Analysis = &model.AnalysisRecord{Kind: model.KindLeadAnalysis}
	}
	s.Analysis.Analysis = &model.LeadAnalysis{
		Persona:    persona,
		Profession: profession,
		Concerns:   concerns,
	}
	return s
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(nil)
	assert.Equal(t, 0, report.Totals.Leads)
	assert.Equal(t, 0, report.Totals.UpgradePct, "empty input must not divide by zero")
	assert.Empty(t, report.ByManager)
}

func TestAggregate_Totals(t *testing.T) {
	report := Aggregate([]ScoredLead{
		scoredLead("Asha", "Portal", model.RatingWarm, model.RatingHot),  // upgraded
		scoredLead("Asha", "Portal", model.RatingHot, model.RatingCold), // downgraded
		scoredLead("Vikram", "Walk-in", model.RatingCold, model.RatingCold),
		scoredLead("Vikram", "Walk-in", model.RatingWarm, ""), // unanalyzed
	})

	assert.Equal(t, 4, report.Totals.Leads)
	assert.Equal(t, 3, report.Totals.Analyzed)
	assert.Equal(t, 1, report.Totals.Upgraded)
	assert.Equal(t, 1, report.Totals.Downgraded)
	assert.Equal(t, 1, report.Totals.Hot)
	assert.Equal(t, 2, report.Totals.Cold)
	assert.Equal(t, 1, report.Totals.Unrated)
	assert.Equal(t, 25, report.Totals.UpgradePct)
}

func TestAggregate_MissingKeysBucketAsUnknown(t *testing.T) {
	report := Aggregate([]ScoredLead{
		scoredLead("", "", model.RatingWarm, model.RatingHot),
		scoredLead("Asha", "Portal", model.RatingWarm, model.RatingWarm),
	})

	require.Len(t, report.ByManager, 2)
	assert.Equal(t, UnknownGroup, report.ByManager[0].Key)
	assert.Equal(t, 1, report.ByManager[0].Count)
	assert.Equal(t, 100, report.ByManager[0].UpgradePct)

	require.Len(t, report.BySource, 2)
	assert.Equal(t, UnknownGroup, report.BySource[0].Key)
}

func TestAggregate_GroupUpgradePctRounds(t *testing.T) {
	// 1 of 3 upgraded = 33.33% -> 33
	report := Aggregate([]ScoredLead{
		scoredLead("Asha", "Portal", model.RatingWarm, model.RatingHot),
		scoredLead("Asha", "Portal", model.RatingWarm, model.RatingWarm),
		scoredLead("Asha", "Portal", model.RatingWarm, model.RatingCold),
	})

	require.Len(t, report.ByManager, 1)
	assert.Equal(t, 33, report.ByManager[0].UpgradePct)
}

func TestAggregate_GroupKeyCaseInsensitive(t *testing.T) {
	report := Aggregate([]ScoredLead{
		scoredLead("asha", "portal", model.RatingWarm, model.RatingWarm),
		scoredLead("ASHA", "Portal", model.RatingWarm, model.RatingWarm),
	})

	require.Len(t, report.ByManager, 1)
	assert.Equal(t, "Asha", report.ByManager[0].Key)
	assert.Equal(t, 2, report.ByManager[0].Count)
}

func TestAggregate_DominantPersonaMode(t *testing.T) {
	// 6 leads carry concern "Price" with personas A,A,A,B,B,C
	personas := []string{"A", "A", "A", "B", "B", "C"}
	scored := make([]ScoredLead, 0, 10)
	for _, p := range personas {
		scored = append(scored, withConcerns(
			scoredLead("Asha", "Portal", model.RatingWarm, model.RatingWarm),
			p, "Engineer", "Price"))
	}
	for i := 0; i < 4; i++ {
		scored = append(scored, scoredLead("Asha", "Portal", model.RatingWarm, model.RatingWarm))
	}

	report := Aggregate(scored)
	require.Len(t, report.ByConcern, 1)
	concern := report.ByConcern[0]
	assert.Equal(t, "Price", concern.Category)
	assert.Equal(t, 6, concern.Count)
	assert.Equal(t, "A", concern.DominantPersona)
	assert.Equal(t, "Engineer", concern.DominantProfession)
}

func TestAggregate_ModeTieFirstEncountered(t *testing.T) {
	scored := []ScoredLead{
		withConcerns(scoredLead("Asha", "Portal", model.RatingWarm, model.RatingWarm), "B", "Doctor", "loan"),
		withConcerns(scoredLead("Asha", "Portal", model.RatingWarm, model.RatingWarm), "A", "Lawyer", "loan"),
		withConcerns(scoredLead("Asha", "Portal", model.RatingWarm, model.RatingWarm), "A", "Doctor", "loan"),
		withConcerns(scoredLead("Asha", "Portal", model.RatingWarm, model.RatingWarm), "B", "Lawyer", "loan"),
	}

	report := Aggregate(scored)
	require.Len(t, report.ByConcern, 1)
	// A and B tie at 2; B was encountered first
	assert.Equal(t, "B", report.ByConcern[0].DominantPersona)
	assert.Equal(t, "Doctor", report.ByConcern[0].DominantProfession)
	// display casing normalizes the category
	assert.Equal(t, "Loan", report.ByConcern[0].Category)
}

func TestAggregate_MissingAIRatingNeverUpgrades(t *testing.T) {
	report := Aggregate([]ScoredLead{
		scoredLead("Asha", "Portal", "", model.RatingHot),
		scoredLead("Asha", "Portal", model.RatingWarm, ""),
	})
	assert.Equal(t, 0, report.Totals.Upgraded)
}
