package model

import "strings"

// Canonical lead rating values.
const (
	RatingHot  = "Hot"
	RatingWarm = "Warm"
	RatingCold = "Cold"
)

// RatingOrder maps a manager/AI lead rating to its position in the fixed
// total order Hot(3) > Warm(2) > Cold(1) > unrated(0). Comparison across
// every surface goes through this single mapping.
func RatingOrder(rating string) int {
	switch strings.ToLower(strings.TrimSpace(rating)) {
	case "hot":
		return 3
	case "warm":
		return 2
	case "cold":
		return 1
	default:
		return 0
	}
}

// MQLOrder maps the enrichment provider's P0..P5 qualification tiers to a
// sortable weight, highest priority first. Unknown tiers sort last.
func MQLOrder(tier string) int {
	switch strings.ToUpper(strings.TrimSpace(tier)) {
	case "P0":
		return 6
	case "P1":
		return 5
	case "P2":
		return 4
	case "P3":
		return 3
	case "P4":
		return 2
	case "P5":
		return 1
	default:
		return 0
	}
}

// RatingShift classifies how the AI rating moved relative to the manager's.
type RatingShift string

const (
	ShiftUpgraded   RatingShift = "upgraded"
	ShiftDowngraded RatingShift = "downgraded"
	ShiftUnchanged  RatingShift = "unchanged"
)

// IsUpgraded reports whether the AI rating strictly exceeds the manager
// rating in the fixed order. Missing values on either side never count as
// an upgrade.
func IsUpgraded(managerRating, aiRating string) bool {
	if strings.TrimSpace(managerRating) == "" || strings.TrimSpace(aiRating) == "" {
		return false
	}
	return RatingOrder(aiRating) > RatingOrder(managerRating)
}

// CompareRatings classifies the AI rating against the manager rating.
// Either side missing means unchanged: an absent rating carries no signal.
func CompareRatings(managerRating, aiRating string) RatingShift {
	if strings.TrimSpace(managerRating) == "" || strings.TrimSpace(aiRating) == "" {
		return ShiftUnchanged
	}
	mo, ao := RatingOrder(managerRating), RatingOrder(aiRating)
	switch {
	case ao > mo:
		return ShiftUpgraded
	case ao < mo:
		return ShiftDowngraded
	default:
		return ShiftUnchanged
	}
}
