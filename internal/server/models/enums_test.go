package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		raw  string
		want Verdict
	}{
		{"T", VerdictTrue},
		{"correct", VerdictTrue},
		{" Accurate ", VerdictTrue},
		{"verified", VerdictTrue},
		{"F", VerdictFalse},
		{"incorrect", VerdictFalse},
		{"inaccurate", VerdictFalse},
		{"FAKE", VerdictFalse},
		{"partial", VerdictMisleading},
		{"mixed", VerdictMisleading},
		{"Partially True", VerdictMisleading},
		{"half-true", VerdictMisleading},
		{"misleading", VerdictMisleading},
		{"unknown", VerdictUnknown},
		{"maybe", VerdictUnknown},
		{"", VerdictUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVerdict(tt.raw))
		})
	}
}

func TestNormalizeHarmIndex(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want HarmIndex
	}{
		{"enum", "high", HarmHigh},
		{"enum mixed case", " Critical ", HarmCritical},
		{"zero", float64(0), HarmLow},
		{"25 boundary", float64(25), HarmLow},
		{"just above 25", 25.5, HarmMedium},
		{"50 boundary", 50, HarmMedium},
		{"51", int64(51), HarmHigh},
		{"75 boundary", json.Number("75"), HarmHigh},
		{"76", json.Number("76"), HarmCritical},
		{"numeric string", "90", HarmCritical},
		{"negative", -10.0, HarmLow},
		{"garbage string", "severe", HarmLow},
		{"nil", nil, HarmLow},
		{"bool", true, HarmLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHarmIndex(tt.raw))
		})
	}
}

func TestNormalizeClaimTypeAndCategory(t *testing.T) {
	assert.Equal(t, ClaimURL, NormalizeClaimType("URL"))
	assert.Equal(t, ClaimText, NormalizeClaimType("video"))
	assert.Equal(t, CategoryHealth, NormalizeCategory("Health"))
	assert.Equal(t, CategoryOther, NormalizeCategory("sports"))

	_, ok := ParseCategory("sports")
	assert.False(t, ok)
}

func TestParseVerdict(t *testing.T) {
	v, ok := ParseVerdict("False")
	assert.True(t, ok)
	assert.Equal(t, VerdictFalse, v)

	_, ok = ParseVerdict("fake")
	assert.False(t, ok, "filters take canonical names only")
}

func TestParseSortOrder(t *testing.T) {
	s, ok := ParseSortOrder("")
	assert.True(t, ok)
	assert.Equal(t, SortRecent, s)

	s, ok = ParseSortOrder("Trending")
	assert.True(t, ok)
	assert.Equal(t, SortTrending, s)

	_, ok = ParseSortOrder("popular")
	assert.False(t, ok)
}
