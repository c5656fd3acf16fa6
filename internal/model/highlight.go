package model

import "strings"

// HighlightClass is the display bucket for a rating-like string. Every
// surface that colors a rating goes through Highlight; the bucket
// vocabulary lives here and nowhere else.
type HighlightClass string

const (
	HighlightStrong  HighlightClass = "strong"
	HighlightMedium  HighlightClass = "medium"
	HighlightWeak    HighlightClass = "weak"
	HighlightUnknown HighlightClass = "unknown"
)

// highlightBuckets is evaluated in order: strong keys win over medium,
// medium over weak. Single-character grades match exactly, longer keys by
// substring, so "A+" lands in strong without "warm" tripping on "a".
var highlightBuckets = []struct {
	class HighlightClass
	keys  []string
}{
	{HighlightStrong, []string{"a+", "a", "high", "premium", "affluent", "hot", "p0"}},
	{HighlightMedium, []string{"b", "medium", "mid", "moderate", "warm", "p1", "popular"}},
	{HighlightWeak, []string{"c", "d", "low", "cold", "p2", "affordable"}},
}

// Highlight maps an arbitrary rating-like string to one of exactly four
// buckets. Pure: same input, same bucket, always.
func Highlight(value string) HighlightClass {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return HighlightUnknown
	}
	for _, bucket := range highlightBuckets {
		for _, key := range bucket.keys {
			if len(key) <= 2 {
				if v == key {
					return bucket.class
				}
				continue
			}
			if strings.Contains(v, key) {
				return bucket.class
			}
		}
	}
	return HighlightUnknown
}
