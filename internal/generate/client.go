// Package generate calls the upstream service that rewrites a résumé for a
// job description and drafts a matching cover letter.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrUpstreamFailed is returned when the upstream answers with success=false.
var ErrUpstreamFailed = errors.New("upstream reported failure")

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// Request is the upstream request body.
type Request struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	IsPremiumUser  bool   `json:"isPremiumUser"`
	BypassCache    bool   `json:"bypassCache"`
}

// Response is the merged upstream payload.
type Response struct {
	TransformedResume string   `json:"transformedResume"`
	CoverLetter       string   `json:"coverLetter"`
	ChangesMade       []string `json:"changesMade"`
	KeywordsExtracted []string `json:"keywordsExtracted"`
	Success           bool     `json:"success"`
	FallbackMode      bool     `json:"fallbackMode,omitempty"`
}

// chunk is one object of a streamed response. Absent fields leave the
// merged value alone.
type chunk struct {
	TransformedResume *string  `json:"transformedResume"`
	CoverLetter       *string  `json:"coverLetter"`
	ChangesMade       []string `json:"changesMade"`
	KeywordsExtracted []string `json:"keywordsExtracted"`
	Success           *bool    `json:"success"`
	FallbackMode      *bool    `json:"fallbackMode"`
}

func (r *Response) merge(c chunk) {
	if c.TransformedResume != nil {
		r.TransformedResume = *c.TransformedResume
	}
	if c.CoverLetter != nil {
		r.CoverLetter = *c.CoverLetter
	}
	r.ChangesMade = append(r.ChangesMade, c.ChangesMade...)
	r.KeywordsExtracted = append(r.KeywordsExtracted, c.KeywordsExtracted...)
	if c.Success != nil {
		r.Success = *c.Success
	}
	if c.FallbackMode != nil {
		r.FallbackMode = *c.FallbackMode
	}
}

// ClientConfig configures a Client.
type ClientConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	Attempts uint
	Delay    time.Duration
}

// Client talks to the upstream transform endpoint.
type Client struct {
	mu         sync.RWMutex
	cfg        ClientConfig
	httpClient *http.Client
	stats      *Stats
	log        *slog.Logger
}

func NewClient(cfg ClientConfig, stats *Stats, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		stats:      stats,
		log:        log,
	}
}

// Reconfigure swaps the upstream endpoint and key for subsequent calls.
func (c *Client) Reconfigure(url, apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.URL = url
	c.cfg.APIKey = apiKey
}

// Enabled reports whether an upstream endpoint is configured.
func (c *Client) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.URL != ""
}

// Stats returns the latency tracker this client records into.
func (c *Client) Stats() *Stats {
	return c.stats
}

// Transform sends req upstream, retrying rate limits and server errors with
// exponential backoff.
func (c *Client) Transform(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out *Response
	err = retry.Do(
		func() error {
			start := time.Now()
			resp, err := c.call(ctx, body)
			c.stats.Record(time.Since(start).Milliseconds(), err == nil)
			if err != nil {
				return err
			}
			out = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.Attempts),
		retry.Delay(c.cfg.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("upstream retry", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, ErrUpstreamFailed
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, body []byte) (*Response, error) {
	c.mu.RLock()
	url, apiKey := c.cfg.URL, c.cfg.APIKey
	c.mu.RUnlock()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, application/x-ndjson")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return decode(respBody)
}

// decode reads a single JSON object or a newline-delimited stream of them,
// merging objects in arrival order.
func decode(body []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	out := &Response{}
	n := 0
	for {
		var c chunk
		err := dec.Decode(&c)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode response: %w (raw: %s)", err, truncate(string(body), 200))
		}
		out.merge(c)
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("empty response from upstream")
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
