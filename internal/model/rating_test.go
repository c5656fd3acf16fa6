package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingOrder_TotalOrder(t *testing.T) {
	assert.Greater(t, RatingOrder("Hot"), RatingOrder("Warm"))
	assert.Greater(t, RatingOrder("Warm"), RatingOrder("Cold"))
	assert.Greater(t, RatingOrder("Cold"), RatingOrder(""))
}

func TestRatingOrder_CaseInsensitive(t *testing.T) {
	assert.Equal(t, 3, RatingOrder("HOT"))
	assert.Equal(t, 2, RatingOrder(" warm "))
	assert.Equal(t, 1, RatingOrder("Cold"))
}

func TestRatingOrder_UnknownIsZero(t *testing.T) {
	assert.Equal(t, 0, RatingOrder("Lukewarm"))
	assert.Equal(t, 0, RatingOrder(""))
}

func TestMQLOrder_PriorityScale(t *testing.T) {
	prev := MQLOrder("P0")
	for _, tier := range []string{"P1", "P2", "P3", "P4", "P5"} {
		cur := MQLOrder(tier)
		assert.Less(t, cur, prev, "tier %s should sort below its predecessor", tier)
		prev = cur
	}
	assert.Equal(t, 0, MQLOrder("P9"))
	assert.Equal(t, 0, MQLOrder(""))
}

func TestIsUpgraded_StrictlyGreater(t *testing.T) {
	assert.True(t, IsUpgraded("Warm", "Hot"))
	assert.True(t, IsUpgraded("Cold", "Warm"))
	assert.False(t, IsUpgraded("Hot", "Hot"))
	assert.False(t, IsUpgraded("Hot", "Warm"))
}

func TestIsUpgraded_MissingSideIsNever(t *testing.T) {
	assert.False(t, IsUpgraded("", "Hot"))
	assert.False(t, IsUpgraded("Warm", ""))
	assert.False(t, IsUpgraded("", ""))
}

func TestCompareRatings(t *testing.T) {
	assert.Equal(t, ShiftUpgraded, CompareRatings("Cold", "Hot"))
	assert.Equal(t, ShiftDowngraded, CompareRatings("Hot", "Cold"))
	assert.Equal(t, ShiftUnchanged, CompareRatings("Warm", "Warm"))
	assert.Equal(t, ShiftUnchanged, CompareRatings("", "Hot"))
	assert.Equal(t, ShiftUnchanged, CompareRatings("Warm", ""))
}
