package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlight_StrongKeys(t *testing.T) {
	for _, v := range []string{"A", "a+", "High", "Premium Segment", "affluent", "HOT", "p0"} {
		assert.Equal(t, HighlightStrong, Highlight(v), "value %q", v)
	}
}

func TestHighlight_MediumKeys(t *testing.T) {
	for _, v := range []string{"B", "medium", "Mid Segment", "moderate", "Warm", "P1", "popular"} {
		assert.Equal(t, HighlightMedium, Highlight(v), "value %q", v)
	}
}

func TestHighlight_WeakKeys(t *testing.T) {
	for _, v := range []string{"c", "D", "low", "COLD", "p2", "affordable"} {
		assert.Equal(t, HighlightWeak, Highlight(v), "value %q", v)
	}
}

func TestHighlight_UnknownFallback(t *testing.T) {
	assert.Equal(t, HighlightUnknown, Highlight(""))
	assert.Equal(t, HighlightUnknown, Highlight("   "))
	assert.Equal(t, HighlightUnknown, Highlight("e"))
	assert.Equal(t, HighlightUnknown, Highlight("luxury"))
}

// Strong keys must be checked before medium, medium before weak.
func TestHighlight_PriorityOrder(t *testing.T) {
	// "hot and cold" contains both a strong and a weak key.
	assert.Equal(t, HighlightStrong, Highlight("hot and cold"))
	// "moderate-low" contains a medium and a weak key.
	assert.Equal(t, HighlightMedium, Highlight("moderate-low"))
}

// Single-letter grades must not substring-match longer values.
func TestHighlight_SingleLetterExactOnly(t *testing.T) {
	// "warm" contains the letter "a" but is a medium rating.
	assert.Equal(t, HighlightMedium, Highlight("warm"))
	// "cold" contains "c"... as a substring only; exact weak key still wins
	// through the "cold" keyword, not the letter grade.
	assert.Equal(t, HighlightWeak, Highlight("cold"))
}

func TestHighlight_Deterministic(t *testing.T) {
	for _, v := range []string{"A", "warm", "p2", "whatever"} {
		assert.Equal(t, Highlight(v), Highlight(v))
	}
}
