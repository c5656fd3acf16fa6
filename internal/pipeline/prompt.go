package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// systemPrompt is the shared system instruction for all scoring passes.
// It is static per run, so the pipeline sends it as a cached system block.
const systemPrompt = `You are an expert real-estate sales analyst. You evaluate site-visit leads for residential projects and score how likely each lead is to convert.

Rules:
- Return valid JSON for every response, with no surrounding prose
- rating must be exactly one of "Hot", "Warm", "Cold"
- Base every claim on the provided CRM row and enrichment profile
- Keep insight to 2-3 sentences a sales manager can act on
- score.total is 0-100; components break it down by dimension`

// analysisUserPrompt lays out one lead's CRM row and reconciled profile and
// asks for the full structured analysis.
func analysisUserPrompt(lead model.Lead, fin model.FinancialSummary, prof model.ProfessionalProfile) string {
	var sb strings.Builder

	sb.WriteString("Analyze this site-visit lead and respond with JSON matching this shape:\n")
	sb.WriteString(`{"rating": "...", "insight": "...", "persona": "...", "profession": "...", "concerns": [], "talking_points": [], "next_best_action": "...", "signals": {}, "score": {"total": 0, "components": {}}}`)
	sb.WriteString("\n\n--- CRM Row ---\n")
	writeLeadContext(&sb, lead)

	sb.WriteString("\n--- Financial Profile ---\n")
	finJSON, _ := json.Marshal(fin)
	sb.Write(finJSON)

	sb.WriteString("\n\n--- Professional Profile ---\n")
	profJSON, _ := json.Marshal(prof)
	sb.Write(profJSON)
	sb.WriteString("\n")

	return sb.String()
}

// simplifiedUserPrompt is the one-shot retry used after a malformed
// response: a minimal schema and no profile payloads, to minimize the ways
// the model can wander off JSON.
func simplifiedUserPrompt(lead model.Lead) string {
	var sb strings.Builder
	sb.WriteString("Respond with ONLY this JSON, filled in for the lead below:\n")
	sb.WriteString(`{"rating": "Hot|Warm|Cold", "insight": "...", "persona": "...", "score": {"total": 0}}`)
	sb.WriteString("\n\n")
	writeLeadContext(&sb, lead)
	return sb.String()
}

// cisUserPrompt asks for the compliance & insight score over visit notes.
func cisUserPrompt(lead model.Lead) string {
	var sb strings.Builder
	sb.WriteString("Review the sales manager's visit notes for this lead. Score the notes for completeness and compliance, and extract any insight the manager recorded. Respond with JSON:\n")
	sb.WriteString(`{"rating": "...", "insight": "...", "signals": {}, "score": {"total": 0, "components": {}}}`)
	sb.WriteString("\n\n")
	writeLeadContext(&sb, lead)
	if lead.VisitNotes == "" {
		sb.WriteString("Visit Notes: (none recorded)\n")
	}
	return sb.String()
}

func writeLeadContext(sb *strings.Builder, lead model.Lead) {
	fmt.Fprintf(sb, "Name: %s\n", lead.Name)
	if lead.Project != "" {
		fmt.Fprintf(sb, "Project: %s\n", lead.Project)
	}
	if lead.Source != "" {
		fmt.Fprintf(sb, "Source: %s\n", lead.Source)
	}
	if lead.BudgetCr > 0 {
		fmt.Fprintf(sb, "Budget: %.2f Cr\n", lead.BudgetCr)
	}
	if lead.Preference != "" {
		fmt.Fprintf(sb, "Preference: %s\n", lead.Preference)
	}
	if lead.VisitDate != nil {
		fmt.Fprintf(sb, "Visit Date: %s\n", lead.VisitDate.Format("2006-01-02"))
	}
	if lead.LatestRevisitDate != "" {
		fmt.Fprintf(sb, "Latest Revisit: %s\n", lead.LatestRevisitDate)
	}
	if lead.ManagerRating != "" {
		fmt.Fprintf(sb, "Manager Rating: %s\n", lead.ManagerRating)
	}
	if lead.VisitNotes != "" {
		fmt.Fprintf(sb, "Visit Notes: %s\n", lead.VisitNotes)
	}
}

// analysisWire is the JSON shape the scoring provider returns.
type analysisWire struct {
	Rating         string             `json:"rating"`
	Insight        string             `json:"insight"`
	Persona        string             `json:"persona"`
	Profession     string             `json:"profession"`
	Concerns       []string           `json:"concerns"`
	TalkingPoints  []string           `json:"talking_points"`
	NextBestAction string             `json:"next_best_action"`
	Signals        map[string]string  `json:"signals"`
	Score          model.CompositeScore `json:"score"`
}

// parseAnalysis extracts the JSON object from a model response and decodes
// it. Responses wrapped in code fences or prose are tolerated; anything
// without a decodable object is an error, which triggers the retry chain.
func parseAnalysis(text string) (rating, insight string, analysis *model.LeadAnalysis, err error) {
	raw, err := extractJSON(text)
	if err != nil {
		return "", "", nil, err
	}

	var wire analysisWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return "", "", nil, eris.Wrap(err, "pipeline: decode analysis")
	}
	if wire.Rating == "" {
		return "", "", nil, eris.New("pipeline: analysis missing rating")
	}

	return wire.Rating, wire.Insight, &model.LeadAnalysis{
		Persona:        wire.Persona,
		Profession:     wire.Profession,
		Concerns:       wire.Concerns,
		TalkingPoints:  wire.TalkingPoints,
		NextBestAction: wire.NextBestAction,
		Signals:        wire.Signals,
		Score:          wire.Score,
	}, nil
}

// extractJSON returns the outermost {...} object in text.
func extractJSON(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.New("pipeline: no JSON object in response")
	}
	return json.RawMessage(text[start : end+1]), nil
}
