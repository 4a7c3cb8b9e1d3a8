package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/buildconfig"
	"github.com/Harshitk-cp/tenantedge/internal/config"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 8 * time.Second
	maxErrorBody   = 64 << 10
)

// Config identifies the provider account and project the client acts on.
type Config struct {
	BaseURL     string
	Token       string
	TeamID      string
	ProjectID   string
	ProjectName string
	Timeout     time.Duration
	RPS         float64
	Burst       int
}

// Client talks to the deployment platform's HTTP API. It never retries;
// callers decide what to do with a failed call.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
}

// NewClient returns a *config.MissingError when the token or project id is
// not configured.
func NewClient(cfg Config, metrics *Metrics) (*Client, error) {
	if err := config.Require(
		"PROVIDER_TOKEN", cfg.Token,
		"PROVIDER_PROJECT_ID", cfg.ProjectID,
		"PROVIDER_API_URL", cfg.BaseURL,
	); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = cfg.ProjectID
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		metrics:    metrics,
	}, nil
}

type apiError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends one request and decodes a 2xx JSON body into out (if non-nil).
// Non-2xx responses become *Error with the status preserved.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	start := time.Now()
	defer func() { c.metrics.observe(op, start, err) }()

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(callCtx); err != nil {
		return c.transportError(op, callCtx, err)
	}

	if query == nil {
		query = url.Values{}
	}
	if c.cfg.TeamID != "" {
		query.Set("teamId", c.cfg.TeamID)
	}
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(callCtx, method, u, body)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("User-Agent", buildconfig.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(op, callCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if callCtx.Err() != nil {
			return c.transportError(op, callCtx, err)
		}
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// transportError maps a failure without a usable response. A deadline hit
// on the per-call context is reported as ErrTimeout; cancellation by the
// caller keeps context.Canceled in the chain.
func (c *Client) transportError(op string, callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &Error{Op: op, Err: ErrTimeout}
	}
	return &Error{Op: op, Err: err}
}

func responseError(op string, resp *http.Response) error {
	e := &Error{Op: op, StatusCode: resp.StatusCode}

	var body apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(raw, &body) == nil && body.Error != nil {
		e.Code = body.Error.Code
		e.Message = body.Error.Message
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}
