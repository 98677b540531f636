// Package generation is the client for the external content-generation
// service behind the AI assistant. Callers are authorized by the guard
// before a flow is invoked.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/optitalent/hr-backend/internal/config"
)

var (
	ErrUnknownFlow = errors.New("unknown generation flow")
	ErrGeneration  = errors.New("generation failed")
)

// Flows the assistant exposes.
var flows = map[string]bool{
	"job-description":     true,
	"interview-questions": true,
	"performance-summary": true,
	"leave-policy-answer": true,
	"resume-screening":    true,
}

func KnownFlow(flow string) bool {
	return flows[flow]
}

type Request struct {
	Flow  string         `json:"-"`
	Input map[string]any `json:"input"`
}

type Response struct {
	Flow   string         `json:"flow"`
	Output map[string]any `json:"output"`
}

type Service interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// New returns an HTTP client when a base URL is configured and the local
// stub otherwise.
func New(cfg config.GenerationConfig) Service {
	if cfg.BaseURL == "" {
		return Stub{}
	}
	return NewHTTPClient(cfg)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(cfg config.GenerationConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if !KnownFlow(req.Flow) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, req.Flow)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := c.baseURL + "/flows/" + url.PathEscape(req.Flow)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrGeneration, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrGeneration, err)
	}
	if out.Flow == "" {
		out.Flow = req.Flow
	}
	return &out, nil
}

// Stub echoes its input. Used when no generation service is configured.
type Stub struct{}

func (Stub) Generate(ctx context.Context, req Request) (*Response, error) {
	if !KnownFlow(req.Flow) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, req.Flow)
	}
	return &Response{
		Flow:   req.Flow,
		Output: map[string]any{"echo": req.Input, "stub": true},
	}, nil
}
