package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/truthmate/truthmate/internal/server/models"
)

// AnalysisRequest is what /api/verify asks an analyzer to judge.
type AnalysisRequest struct {
	Claim     string
	ClaimType models.ClaimType
	// Image is base64 or a data URL; ImageURL points at a remote image.
	Image    string
	ImageURL string
}

// Analysis is an analyzer's raw verdict. Values are not normalised yet;
// VerificationService.Create does that.
type Analysis struct {
	Verdict           string
	Confidence        float64
	Explanation       string
	SourceCredibility float64
	HarmIndex         any
	Category          string
	Evidence          []models.Evidence
	AIModel           string
}

// Analyzer produces a verdict for a claim.
type Analyzer interface {
	Analyze(ctx context.Context, userID string, req AnalysisRequest) (*Analysis, error)
}

// MockAnalyzer returns a canned, deterministic result derived from the claim
// text. It never calls out.
type MockAnalyzer struct{}

const mockModelName = "truthmate-mock-1"

var mockVerdicts = []string{"accurate", "fake", "partially true", "unverifiable"}

var categoryKeywords = []struct {
	category models.Category
	words    []string
}{
	{models.CategoryHealth, []string{"vaccine", "virus", "covid", "health", "cancer", "diet"}},
	{models.CategoryPolitics, []string{"election", "president", "vote", "senate", "government", "minister"}},
	{models.CategoryFinance, []string{"stock", "bitcoin", "market", "inflation", "bank", "economy"}},
	{models.CategoryTechnology, []string{"ai", "software", "phone", "internet", "5g", "robot"}},
	{models.CategoryScience, []string{"climate", "nasa", "planet", "study", "scientist", "space"}},
}

func (MockAnalyzer) Analyze(ctx context.Context, userID string, req AnalysisRequest) (*Analysis, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(req.Claim))))
	n := h.Sum32()

	verdict := mockVerdicts[n%uint32(len(mockVerdicts))]
	return &Analysis{
		Verdict:           verdict,
		Confidence:        float64(60 + n%36),
		Explanation:       fmt.Sprintf("Demo analysis: the claim was rated %q based on simulated sources.", verdict),
		SourceCredibility: float64(50 + (n>>8)%46),
		HarmIndex:         float64((n >> 16) % 101),
		Category:          string(guessCategory(req.Claim)),
		Evidence: []models.Evidence{{
			Title:       "Simulated reference",
			Link:        "https://example.org/fact-check",
			Snippet:     "Generated by the demo analyzer.",
			Credibility: 0.5,
			Relevance:   float64(n%100) / 100,
			Summary:     "No external sources were consulted.",
		}},
		AIModel: mockModelName,
	}, nil
}

func guessCategory(claim string) models.Category {
	words := strings.FieldsFunc(strings.ToLower(claim), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, ck := range categoryKeywords {
		for _, w := range words {
			for _, k := range ck.words {
				if w == k {
					return ck.category
				}
			}
		}
	}
	return models.CategoryOther
}

// ModelCaller forwards a payload to one analysis capability. The gateway
// client implements it.
type ModelCaller interface {
	Call(ctx context.Context, capability, userID string, payload map[string]any) (map[string]any, error)
}

// GatewayAnalyzer asks the analysis service: classify for text and URL
// claims, verify-image for images.
type GatewayAnalyzer struct {
	caller ModelCaller
}

func NewGatewayAnalyzer(caller ModelCaller) *GatewayAnalyzer {
	return &GatewayAnalyzer{caller: caller}
}

type upstreamAnalysis struct {
	Verdict           string            `json:"verdict"`
	Confidence        float64           `json:"confidence"`
	Explanation       string            `json:"explanation"`
	Category          string            `json:"category"`
	HarmIndex         any               `json:"harm_index"`
	SourceCredibility float64           `json:"source_credibility"`
	Evidence          []models.Evidence `json:"evidence"`
	Model             string            `json:"model"`
	Manipulated       *bool             `json:"manipulated"`
}

func (a *GatewayAnalyzer) Analyze(ctx context.Context, userID string, req AnalysisRequest) (*Analysis, error) {
	capability := "classify"
	payload := map[string]any{"claim": req.Claim}
	if req.ClaimType == models.ClaimImage {
		capability = "verify-image"
		payload = map[string]any{}
		if req.Image != "" {
			payload["image"] = req.Image
		}
		if req.ImageURL != "" {
			payload["image_url"] = req.ImageURL
		}
	}

	body, err := a.caller.Call(ctx, capability, userID, payload)
	if err != nil {
		return nil, fmt.Errorf("analysis %s: %w", capability, err)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("analysis %s: re-encoding response: %w", capability, err)
	}
	var up upstreamAnalysis
	if err := json.Unmarshal(raw, &up); err != nil {
		return nil, fmt.Errorf("analysis %s: decoding response: %w", capability, err)
	}

	// The model reports scores as fractions.
	if up.Confidence > 0 && up.Confidence <= 1 {
		up.Confidence *= 100
	}
	if up.SourceCredibility > 0 && up.SourceCredibility <= 1 {
		up.SourceCredibility *= 100
	}
	if up.Explanation == "" && up.Manipulated != nil && *up.Manipulated {
		up.Explanation = "The image shows signs of manipulation."
	}
	if up.Model == "" {
		up.Model = capability
	}

	return &Analysis{
		Verdict:           up.Verdict,
		Confidence:        up.Confidence,
		Explanation:       up.Explanation,
		SourceCredibility: up.SourceCredibility,
		HarmIndex:         up.HarmIndex,
		Category:          up.Category,
		Evidence:          up.Evidence,
		AIModel:           up.Model,
	}, nil
}
