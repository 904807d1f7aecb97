package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/truthmate/truthmate/internal/common"
)

const maxResponseBytes = 10 << 20

// HealthStatus is the ML service state reported by /api/health.
type HealthStatus string

const (
	StatusHealthy        HealthStatus = "healthy"
	StatusModelNotLoaded HealthStatus = "model_not_loaded"
	StatusUnhealthy      HealthStatus = "unhealthy"
	StatusUnreachable    HealthStatus = "unreachable"
)

// Client calls the ML service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeouts   map[string]time.Duration
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout overrides the timeout of one capability ("health" included).
func WithTimeout(capability string, d time.Duration) Option {
	return func(c *Client) { c.timeouts[capability] = d }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		timeouts:   make(map[string]time.Duration),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) timeout(name string, def time.Duration) time.Duration {
	if d, ok := c.timeouts[name]; ok {
		return d
	}
	return def
}

// Call validates payload and forwards it to the capability. On success the
// upstream object is returned with timestamp and userId added; a non-object
// body is wrapped as {result: ...}.
//
// When the upstream fails the capability's fallback body is returned
// together with an error wrapping common.ErrUpstreamUnavailable. Invalid
// payloads return a *common.ValidationError and no body.
func (c *Client) Call(ctx context.Context, capability, userID string, payload map[string]any) (map[string]any, error) {
	cp, ok := Lookup(capability)
	if !ok {
		return nil, fmt.Errorf("%w: capability %q", common.ErrorNotFound, capability)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if err := cp.Validate(payload); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout(cp.Name, cp.Timeout))
	defer cancel()

	out, err := c.post(ctx, cp.Path, payload)
	if err != nil {
		fb := cp.Fallback()
		fb["error"] = fmt.Sprintf("%s service unavailable: %v", cp.Name, err)
		fb["timestamp"] = c.timestamp()
		return fb, fmt.Errorf("%w: %s: %w", common.ErrUpstreamUnavailable, cp.Name, err)
	}

	body, isObject := out.(map[string]any)
	if !isObject {
		body = map[string]any{"result": out}
	}
	body["timestamp"] = c.timestamp()
	body["userId"] = userID
	return body, nil
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format(time.RFC3339)
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("upstream returned status %d", status)
	}

	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Health checks the ML service.
func (c *Client) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout("health", healthTimeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return StatusUnreachable
	}
	c.authorize(req)

	status, body, err := c.do(req)
	switch {
	case err != nil && status == 0:
		return StatusUnreachable
	case err != nil, status < 200 || status > 299:
		return StatusUnhealthy
	}

	var payload struct {
		ModelLoaded *bool `json:"model_loaded"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.ModelLoaded != nil && !*payload.ModelLoaded {
		return StatusModelNotLoaded
	}
	return StatusHealthy
}
