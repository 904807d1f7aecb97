package models

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, ClampPercent(-5))
	assert.Equal(t, 100, ClampPercent(140))
	assert.Equal(t, 73, ClampPercent(72.6))
	assert.Equal(t, 0, ClampPercent(math.NaN()))
}

func TestNormalizeEvidence(t *testing.T) {
	in := make([]Evidence, 25)
	in[0] = Evidence{Title: " WHO report ", Credibility: 1.4, Relevance: -0.2}

	out := NormalizeEvidence(in)

	assert.Len(t, out, MaxEvidenceItems)
	assert.Equal(t, "WHO report", out[0].Title)
	assert.Equal(t, 1.0, out[0].Credibility)
	assert.Equal(t, 0.0, out[0].Relevance)
}

func TestNormalizeTags(t *testing.T) {
	out, ok := NormalizeTags([]string{" health ", "", "  ", "vaccines"})
	assert.True(t, ok)
	assert.Equal(t, []string{"health", "vaccines"}, out)

	_, ok = NormalizeTags([]string{strings.Repeat("x", MaxTagLength+1)})
	assert.False(t, ok)

	_, ok = NormalizeTags(strings.Split("a,b,c,d,e,f,g,h,i,j,k", ","))
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo wörld", 5))
	assert.Equal(t, "short", Truncate("short", 10))
}

func TestVerification_VisibleTo(t *testing.T) {
	private := &Verification{UserID: "owner"}
	public := &Verification{UserID: "owner", IsPublic: true}

	assert.True(t, private.VisibleTo("owner"))
	assert.False(t, private.VisibleTo("stranger"))
	assert.False(t, private.VisibleTo(""))
	assert.True(t, public.VisibleTo(""))
	assert.False(t, public.IsOwnedBy(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
}
