package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Verdict string

const (
	VerdictTrue       Verdict = "true"
	VerdictFalse      Verdict = "false"
	VerdictMisleading Verdict = "misleading"
	VerdictUnknown    Verdict = "unknown"
)

var verdictSynonyms = map[string]Verdict{
	"true":           VerdictTrue,
	"t":              VerdictTrue,
	"correct":        VerdictTrue,
	"accurate":       VerdictTrue,
	"verified":       VerdictTrue,
	"real":           VerdictTrue,
	"yes":            VerdictTrue,
	"false":          VerdictFalse,
	"f":              VerdictFalse,
	"incorrect":      VerdictFalse,
	"inaccurate":     VerdictFalse,
	"fake":           VerdictFalse,
	"fabricated":     VerdictFalse,
	"no":             VerdictFalse,
	"misleading":     VerdictMisleading,
	"partial":        VerdictMisleading,
	"partially true": VerdictMisleading,
	"partially-true": VerdictMisleading,
	"partially_true": VerdictMisleading,
	"mixed":          VerdictMisleading,
	"half true":      VerdictMisleading,
	"half-true":      VerdictMisleading,
	"unknown":        VerdictUnknown,
}

// NormalizeVerdict maps a free-form verdict onto the closed set.
// Unrecognised values become VerdictUnknown.
func NormalizeVerdict(raw string) Verdict {
	if v, ok := verdictSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v
	}
	return VerdictUnknown
}

// ParseVerdict accepts only canonical verdict names, for filters.
func ParseVerdict(s string) (Verdict, bool) {
	switch v := Verdict(strings.ToLower(strings.TrimSpace(s))); v {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnknown:
		return v, true
	}
	return "", false
}

type HarmIndex string

const (
	HarmLow      HarmIndex = "low"
	HarmMedium   HarmIndex = "medium"
	HarmHigh     HarmIndex = "high"
	HarmCritical HarmIndex = "critical"
)

// NormalizeHarmIndex accepts an enum name or a numeric score (JSON number or
// numeric string) and maps scores with fixed thresholds: ≤25 low, ≤50
// medium, ≤75 high, above that critical. Anything else is low.
func NormalizeHarmIndex(raw any) HarmIndex {
	switch v := raw.(type) {
	case HarmIndex:
		return NormalizeHarmIndex(string(v))
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch h := HarmIndex(s); h {
		case HarmLow, HarmMedium, HarmHigh, HarmCritical:
			return h
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return HarmLow
		}
		return harmFromScore(f)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return HarmLow
		}
		return harmFromScore(f)
	case float64:
		return harmFromScore(v)
	case float32:
		return harmFromScore(float64(v))
	case int:
		return harmFromScore(float64(v))
	case int64:
		return harmFromScore(float64(v))
	default:
		return HarmLow
	}
}

func harmFromScore(h float64) HarmIndex {
	switch {
	case math.IsNaN(h):
		return HarmLow
	case h <= 25:
		return HarmLow
	case h <= 50:
		return HarmMedium
	case h <= 75:
		return HarmHigh
	default:
		return HarmCritical
	}
}

type ClaimType string

const (
	ClaimText  ClaimType = "text"
	ClaimURL   ClaimType = "url"
	ClaimImage ClaimType = "image"
)

// NormalizeClaimType defaults unknown values to ClaimText.
func NormalizeClaimType(raw string) ClaimType {
	switch c := ClaimType(strings.ToLower(strings.TrimSpace(raw))); c {
	case ClaimText, ClaimURL, ClaimImage:
		return c
	}
	return ClaimText
}

type Category string

const (
	CategoryScience    Category = "science"
	CategoryPolitics   Category = "politics"
	CategoryHealth     Category = "health"
	CategoryTechnology Category = "technology"
	CategoryFinance    Category = "finance"
	CategoryOther      Category = "other"
)

// ParseCategory accepts only known category names.
func ParseCategory(raw string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryScience, CategoryPolitics, CategoryHealth, CategoryTechnology, CategoryFinance, CategoryOther:
		return c, true
	}
	return "", false
}

// NormalizeCategory defaults unknown values to CategoryOther.
func NormalizeCategory(raw string) Category {
	if c, ok := ParseCategory(raw); ok {
		return c
	}
	return CategoryOther
}

type SortOrder string

const (
	SortRecent   SortOrder = "recent"
	SortTrending SortOrder = "trending"
)

// ParseSortOrder defaults an empty value to SortRecent.
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch s := SortOrder(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return SortRecent, true
	case SortRecent, SortTrending:
		return s, true
	}
	return "", false
}
