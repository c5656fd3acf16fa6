// Package estimate provides income and budget normalization heuristics
// shared by reconciliation and analytics.
package estimate

import (
	"strconv"
	"strings"
)

const (
	lakh  = 100_000
	crore = 10_000_000
)

// MonthlyIncome converts an annual income reported in lakhs to currency
// units per month. Non-positive inputs report 0, meaning unknown.
func MonthlyIncome(incomeLacs float64) float64 {
	if incomeLacs <= 0 {
		return 0
	}
	return incomeLacs * lakh / 12
}

// BudgetCrores normalizes a CRM budget figure to crores.
//
// Exports disagree on units: some carry crores directly ("1.5"), others
// raw currency ("15000000") or lakhs ("150"). The disambiguation is a
// magnitude heuristic: values >= 100 are assumed to not be crores and are
// scaled down. This is a known approximation; a genuine budget of 100+
// crores will be misread. Zero and negatives report 0, meaning unknown.
func BudgetCrores(value float64) float64 {
	switch {
	case value <= 0:
		return 0
	case value >= lakh:
		// Raw currency units.
		return value / crore
	case value >= 100:
		// Lakhs.
		return value / 100
	default:
		return value
	}
}

// ParseBudget parses a CRM budget cell ("1.5 Cr", "150", "₹1,50,00,000")
// and normalizes it to crores. Unparseable input reports 0.
func ParseBudget(raw string) float64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	// Explicit unit suffixes bypass the magnitude heuristic.
	unit := 0.0
	switch {
	case strings.Contains(s, "cr"):
		unit = 1
	case strings.Contains(s, "lac"), strings.Contains(s, "lakh"):
		unit = 1.0 / 100
	}

	s = strings.NewReplacer(",", "", "₹", "", "rs.", "", "crores", "", "crore", "", "cr", "", "lakhs", "", "lakh", "", "lacs", "", "lac", "", "rs", "").Replace(s)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0
	}
	if unit > 0 {
		return v * unit
	}
	return BudgetCrores(v)
}
