// Package analytics aggregates scored leads into the dashboard's summary
// views: overall totals plus per-manager, per-source and per-concern
// breakdowns.
package analytics

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// UnknownGroup is the bucket for rows whose grouping key is missing.
// Bucketing beats dropping: every lead stays visible in every breakdown.
const UnknownGroup = "Unknown"

var titleCaser = cases.Title(language.English)

// ScoredLead pairs a lead with its analysis record, when one exists.
type ScoredLead struct {
	Lead     model.Lead
	Analysis *model.AnalysisRecord
}

// Totals summarizes the whole scored set.
type Totals struct {
	Leads      int `json:"leads"`
	Analyzed   int `json:"analyzed"`
	Upgraded   int `json:"upgraded"`
	Downgraded int `json:"downgraded"`
	Hot        int `json:"hot"`
	Warm       int `json:"warm"`
	Cold       int `json:"cold"`
	Unrated    int `json:"unrated"`
	UpgradePct int `json:"upgrade_pct"`
}

// GroupStat is one row of a per-manager or per-source breakdown.
type GroupStat struct {
	Key        string `json:"key"`
	Count      int    `json:"count"`
	Upgraded   int    `json:"upgraded"`
	UpgradePct int    `json:"upgrade_pct"`
}

// ConcernStat is one row of the per-concern breakdown, extended with the
// dominant persona and profession among leads carrying the concern.
type ConcernStat struct {
	Category           string `json:"category"`
	Count              int    `json:"count"`
	Upgraded           int    `json:"upgraded"`
	UpgradePct         int    `json:"upgrade_pct"`
	DominantPersona    string `json:"dominant_persona,omitempty"`
	DominantProfession string `json:"dominant_profession,omitempty"`
}

// Report is the full aggregation output. Group order is first-encountered
// input order, which keeps repeated runs over the same export stable.
type Report struct {
	Totals    Totals        `json:"totals"`
	ByManager []GroupStat   `json:"by_manager"`
	BySource  []GroupStat   `json:"by_source"`
	ByConcern []ConcernStat `json:"by_concern"`
}

// Aggregate folds scored leads into the report. Pure: no store access, no
// mutation of the input.
func Aggregate(scored []ScoredLead) Report {
	var report Report
	managers := newGrouper()
	sources := newGrouper()
	concerns := newConcernGrouper()

	for _, s := range scored {
		report.Totals.Leads++

		aiRating := s.Lead.AIRating
		if s.Analysis != nil {
			report.Totals.Analyzed++
			if s.Analysis.Rating != "" {
				aiRating = s.Analysis.Rating
			}
		}

		switch model.RatingOrder(aiRating) {
		case 3:
			report.Totals.Hot++
		case 2:
			report.Totals.Warm++
		case 1:
			report.Totals.Cold++
		default:
			report.Totals.Unrated++
		}

		upgraded := model.IsUpgraded(s.Lead.ManagerRating, aiRating)
		if upgraded {
			report.Totals.Upgraded++
		}
		if model.CompareRatings(s.Lead.ManagerRating, aiRating) == model.ShiftDowngraded {
			report.Totals.Downgraded++
		}

		managers.add(s.Lead.Owner, upgraded)
		sources.add(s.Lead.Source, upgraded)

		if s.Analysis != nil && s.Analysis.Analysis != nil {
			a := s.Analysis.Analysis
			for _, c := range a.Concerns {
				concerns.add(c, upgraded, a.Persona, a.Profession)
			}
		}
	}

	report.Totals.UpgradePct = pct(report.Totals.Upgraded, report.Totals.Leads)
	report.ByManager = managers.stats()
	report.BySource = sources.stats()
	report.ByConcern = concerns.stats()
	return report
}

// pct is the rounded integer percentage, with the zero-division guard: an
// empty group reports 0, never NaN.
func pct(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// groupKey normalizes a raw grouping value: missing values land in the
// Unknown bucket, and casing differences collapse into one group.
func groupKey(raw string) (key, display string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return strings.ToLower(UnknownGroup), UnknownGroup
	}
	return strings.ToLower(raw), titleCaser.String(strings.ToLower(raw))
}

type group struct {
	display  string
	count    int
	upgraded int
}

type grouper struct {
	order  []string
	groups map[string]*group
}

func newGrouper() *grouper {
	return &grouper{groups: make(map[string]*group)}
}

func (g *grouper) add(raw string, upgraded bool) {
	key, display := groupKey(raw)
	grp, ok := g.groups[key]
	if !ok {
		grp = &group{display: display}
		g.groups[key] = grp
		g.order = append(g.order, key)
	}
	grp.count++
	if upgraded {
		grp.upgraded++
	}
}

func (g *grouper) stats() []GroupStat {
	out := make([]GroupStat, 0, len(g.order))
	for _, key := range g.order {
		grp := g.groups[key]
		out = append(out, GroupStat{
			Key:        grp.display,
			Count:      grp.count,
			Upgraded:   grp.upgraded,
			UpgradePct: pct(grp.upgraded, grp.count),
		})
	}
	return out
}

type concernGroup struct {
	group
	personas    *modeCounter
	professions *modeCounter
}

type concernGrouper struct {
	order  []string
	groups map[string]*concernGroup
}

func newConcernGrouper() *concernGrouper {
	return &concernGrouper{groups: make(map[string]*concernGroup)}
}

func (g *concernGrouper) add(raw string, upgraded bool, persona, profession string) {
	key, display := groupKey(raw)
	grp, ok := g.groups[key]
	if !ok {
		grp = &concernGroup{
			group:       group{display: display},
			personas:    newModeCounter(),
			professions: newModeCounter(),
		}
		g.groups[key] = grp
		g.order = append(g.order, key)
	}
	grp.count++
	if upgraded {
		grp.upgraded++
	}
	grp.personas.add(persona)
	grp.professions.add(profession)
}

func (g *concernGrouper) stats() []ConcernStat {
	out := make([]ConcernStat, 0, len(g.order))
	for _, key := range g.order {
		grp := g.groups[key]
		out = append(out, ConcernStat{
			Category:           grp.display,
			Count:              grp.count,
			Upgraded:           grp.upgraded,
			UpgradePct:         pct(grp.upgraded, grp.count),
			DominantPersona:    grp.personas.mode(),
			DominantProfession: grp.professions.mode(),
		})
	}
	return out
}

// modeCounter tracks the most frequent value, ties broken by
// first-encountered order. Empty values never count.
type modeCounter struct {
	order  []string
	counts map[string]int
}

func newModeCounter() *modeCounter {
	return &modeCounter{counts: make(map[string]int)}
}

func (m *modeCounter) add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, ok := m.counts[value]; !ok {
		m.order = append(m.order, value)
	}
	m.counts[value]++
}

func (m *modeCounter) mode() string {
	best := ""
	bestCount := 0
	for _, v := range m.order {
		if m.counts[v] > bestCount {
			best = v
			bestCount = m.counts[v]
		}
	}
	return best
}
