package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/models"
)

func TestMockAnalyzer_Deterministic(t *testing.T) {
	a := MockAnalyzer{}
	ctx := context.Background()

	first, err := a.Analyze(ctx, "u1", AnalysisRequest{Claim: "The election was rigged"})
	require.NoError(t, err)
	second, err := a.Analyze(ctx, "u2", AnalysisRequest{Claim: "  the ELECTION was rigged "})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, string(models.CategoryPolitics), first.Category)
	assert.GreaterOrEqual(t, first.Confidence, 60.0)
	assert.Less(t, first.Confidence, 96.0)
}

func TestGuessCategory(t *testing.T) {
	tests := map[string]models.Category{
		"NASA found water on the planet": models.CategoryScience,
		"Bitcoin crashes again":          models.CategoryFinance,
		"5G towers spread illness":       models.CategoryTechnology,
		"Cats are liquid":                models.CategoryOther,
		"Aid workers arrive":             models.CategoryOther,
	}
	for claim, want := range tests {
		assert.Equal(t, want, guessCategory(claim), claim)
	}
}

type recordingCaller struct {
	capability string
	payload    map[string]any
	body       map[string]any
	err        error
}

func (r *recordingCaller) Call(ctx context.Context, capability, userID string, payload map[string]any) (map[string]any, error) {
	r.capability = capability
	r.payload = payload
	return r.body, r.err
}

func TestGatewayAnalyzer_Classify(t *testing.T) {
	caller := &recordingCaller{body: map[string]any{
		"verdict":            "FALSE",
		"confidence":         0.87,
		"category":           "health",
		"explanation":        "no evidence",
		"harm_index":         62.0,
		"source_credibility": 70.0,
		"evidence":           []any{map[string]any{"title": "WHO", "credibility": 0.9}},
		"timestamp":          "2026-03-10T12:00:00Z",
	}}
	a := NewGatewayAnalyzer(caller)

	got, err := a.Analyze(context.Background(), "u1", AnalysisRequest{Claim: "x", ClaimType: models.ClaimText})
	require.NoError(t, err)
	assert.Equal(t, "classify", caller.capability)
	assert.Equal(t, map[string]any{"claim": "x"}, caller.payload)
	assert.Equal(t, "FALSE", got.Verdict)
	assert.InDelta(t, 87.0, got.Confidence, 0.001)
	assert.Equal(t, 70.0, got.SourceCredibility)
	assert.Equal(t, 62.0, got.HarmIndex)
	assert.Equal(t, []models.Evidence{{Title: "WHO", Credibility: 0.9}}, got.Evidence)
	assert.Equal(t, "classify", got.AIModel)
}

func TestGatewayAnalyzer_Image(t *testing.T) {
	caller := &recordingCaller{body: map[string]any{"verdict": "unknown", "confidence": 40.0, "manipulated": true, "model": "forensics-2"}}
	a := NewGatewayAnalyzer(caller)

	got, err := a.Analyze(context.Background(), "u1", AnalysisRequest{Claim: "img", ClaimType: models.ClaimImage, ImageURL: "https://x/y.png"})
	require.NoError(t, err)
	assert.Equal(t, "verify-image", caller.capability)
	assert.Equal(t, map[string]any{"image_url": "https://x/y.png"}, caller.payload)
	assert.Equal(t, "forensics-2", got.AIModel)
	assert.NotEmpty(t, got.Explanation)
}

func TestGatewayAnalyzer_UpstreamFailure(t *testing.T) {
	caller := &recordingCaller{err: common.ErrUpstreamUnavailable}
	a := NewGatewayAnalyzer(caller)

	_, err := a.Analyze(context.Background(), "u1", AnalysisRequest{Claim: "x"})
	assert.True(t, errors.Is(err, common.ErrUpstreamUnavailable))
}
