package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// heuristicFallback produces an analysis when both LLM attempts failed to
// yield parseable JSON. The rating comes from string-matching the raw
// response text, falling back to the manager's own rating, then Cold. The
// insight carries the fallback marker so these records stay identifiable
// for re-submission.
func heuristicFallback(lead model.Lead, rawText string) (rating, insight string, analysis *model.LeadAnalysis) {
	rating = matchRating(rawText)
	if rating == "" {
		rating = matchRating(lead.ManagerRating)
	}
	if rating == "" {
		rating = model.RatingCold
	}

	insight = fmt.Sprintf("%s: rating inferred from unstructured response; re-run analysis for a full breakdown", model.FallbackMarker)

	return rating, insight, &model.LeadAnalysis{
		Persona: "Unknown",
		Score:   model.CompositeScore{Total: 0},
	}
}

// matchRating scans text for a rating keyword, highest tier first.
func matchRating(text string) string {
	lower := strings.ToLower(text)
	for _, r := range []string{model.RatingHot, model.RatingWarm, model.RatingCold} {
		if strings.Contains(lower, strings.ToLower(r)) {
			return r
		}
	}
	return ""
}
