// Package client talks to a running coderev server over its HTTP and
// WebSocket API, returning normalized reviews.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sprite-ai/coderev/internal/fix"
	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/timing"
)

// Client calls a coderev server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// Health reports the server's health status.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	h := &Health{}
	if err := c.getJSON(ctx, "/health", h); err != nil {
		return nil, err
	}
	return h, nil
}

// Analyze runs a synchronous analysis on the server.
func (c *Client) Analyze(ctx context.Context, sub model.Submission) (*model.Review, error) {
	var resp struct {
		Status   string          `json:"status"`
		Analysis *model.Review   `json:"analysis"`
		Timing   *timing.Payload `json:"timing"`
	}
	if err := c.postJSON(ctx, "/api/v2/analyze", sub, &resp); err != nil {
		return nil, err
	}
	if resp.Analysis == nil {
		return nil, fmt.Errorf("server returned no analysis")
	}
	// A timing payload upgrades the review's own totals with the
	// server-measured per-step breakdown.
	if resp.Timing != nil {
		bd := timing.ComputeBreakdown(*resp.Timing)
		resp.Analysis.Timing = &bd
	}
	return resp.Analysis, nil
}

// Submit stores a submission on the server and returns its ID. The server
// analyzes on arrival, so the review is retrievable under the same ID.
func (c *Client) Submit(ctx context.Context, sub model.Submission) (string, error) {
	var resp struct {
		SubmissionID string `json:"submission_id"`
	}
	if err := c.postJSON(ctx, "/api/submissions", sub, &resp); err != nil {
		return "", err
	}
	return resp.SubmissionID, nil
}

// ApplyFixes applies fix recommendations to code on the server and returns
// the application outcome with the final code.
func (c *Client) ApplyFixes(ctx context.Context, code string, recs []model.Recommendation) (*fix.Outcome, error) {
	req := struct {
		Code            string                 `json:"code"`
		Recommendations []model.Recommendation `json:"recommendations"`
	}{Code: code, Recommendations: recs}

	var resp struct {
		Status string      `json:"status"`
		Result fix.Outcome `json:"result"`
	}
	if err := c.postJSON(ctx, "/api/v2/recommendations/apply", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

// postJSON sends body as JSON and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

// do executes the request. Non-200 responses become errors carrying the
// server's error message when one was sent.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
