// Package gateway forwards analysis requests to the external ML service.
// Every capability has its own upstream path, timeout and a fallback body
// with the same shape as a successful answer.
package gateway

import (
	"slices"
	"strings"
	"time"

	"github.com/truthmate/truthmate/internal/common"
)

// Capability describes one analysis endpoint.
type Capability struct {
	Name     string
	Path     string
	Timeout  time.Duration
	validate func(payload map[string]any) error
	fallback func() map[string]any
}

// Validate checks the fields the upstream needs before any call is made.
func (c Capability) Validate(payload map[string]any) error {
	if c.validate == nil {
		return nil
	}
	return c.validate(payload)
}

// Fallback returns a fresh copy of the degraded answer.
func (c Capability) Fallback() map[string]any {
	if c.fallback == nil {
		return map[string]any{}
	}
	return c.fallback()
}

const HealthPath = "/health"

const healthTimeout = 5 * time.Second

var capabilities = map[string]Capability{
	"classify": {
		Path:     "/classify",
		Timeout:  10 * time.Second,
		validate: requireString("claim"),
		fallback: func() map[string]any {
			return map[string]any{"verdict": "unknown", "confidence": 0, "category": "other", "explanation": ""}
		},
	},
	"stance": {
		Path:     "/stance",
		Timeout:  15 * time.Second,
		validate: requireString("claim"),
		fallback: func() map[string]any {
			return map[string]any{"stance": "unknown", "confidence": 0, "sources": []any{}}
		},
	},
	"credibility": {
		Path:     "/credibility",
		Timeout:  10 * time.Second,
		validate: requireOneOf("url", "domain", "queries"),
		fallback: func() map[string]any {
			return map[string]any{"credibility": 0, "rating": "unknown", "sources": []any{}}
		},
	},
	"extract-claim": {
		Path:     "/extract-claims",
		Timeout:  15 * time.Second,
		validate: requireString("text"),
		fallback: func() map[string]any {
			return map[string]any{"claims": []any{}}
		},
	},
	"bias-sentiment": {
		Path:     "/bias-sentiment",
		Timeout:  10 * time.Second,
		validate: requireString("text"),
		fallback: func() map[string]any {
			return map[string]any{"bias": "unknown", "sentiment": "neutral", "confidence": 0}
		},
	},
	"generate-explanation": {
		Path:     "/generate-explanation",
		Timeout:  15 * time.Second,
		validate: requireString("claim"),
		fallback: func() map[string]any {
			return map[string]any{"explanation": "", "sources": []any{}}
		},
	},
	"verify-image": {
		Path:     "/verify-image",
		Timeout:  20 * time.Second,
		validate: requireOneOf("image", "image_url"),
		fallback: func() map[string]any {
			return map[string]any{"verdict": "unknown", "confidence": 0, "manipulated": false}
		},
	},
}

func init() {
	for name, c := range capabilities {
		c.Name = name
		capabilities[name] = c
	}
}

// Lookup returns the capability registered under name.
func Lookup(name string) (Capability, bool) {
	c, ok := capabilities[name]
	return c, ok
}

// Names lists the capabilities in lexical order.
func Names() []string {
	names := make([]string, 0, len(capabilities))
	for n := range capabilities {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func requireString(field string) func(map[string]any) error {
	return func(p map[string]any) error {
		if !present(p[field]) {
			return common.MissingFields(field)
		}
		if _, ok := p[field].(string); !ok {
			return common.InvalidField(field, "%s must be a string", field)
		}
		return nil
	}
}

func requireOneOf(fields ...string) func(map[string]any) error {
	return func(p map[string]any) error {
		for _, f := range fields {
			if present(p[f]) {
				return nil
			}
		}
		return &common.ValidationError{
			Fields:  fields,
			Message: "one of " + strings.Join(fields, ", ") + " is required",
		}
	}
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
