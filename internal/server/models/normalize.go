package models

import (
	"math"
	"strings"
	"unicode/utf8"
)

// ClampPercent rounds f and clamps it to [0,100].
func ClampPercent(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Round(math.Min(100, math.Max(0, f))))
}

// ClampUnit clamps f to [0,1].
func ClampUnit(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Min(1, math.Max(0, f))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// NormalizeEvidence clamps scores and keeps at most MaxEvidenceItems entries.
func NormalizeEvidence(items []Evidence) []Evidence {
	if len(items) > MaxEvidenceItems {
		items = items[:MaxEvidenceItems]
	}
	out := make([]Evidence, 0, len(items))
	for _, e := range items {
		e.Title = strings.TrimSpace(e.Title)
		e.Credibility = ClampUnit(e.Credibility)
		e.Relevance = ClampUnit(e.Relevance)
		out = append(out, e)
	}
	return out
}

// NormalizeTags trims tags and drops empty ones. ok is false when more than
// MaxTags remain or one is longer than MaxTagLength.
func NormalizeTags(tags []string) (out []string, ok bool) {
	out = make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagLength {
			return nil, false
		}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, false
	}
	return out, true
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
