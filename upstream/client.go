// Package upstream is the client for the forum statistics API and the news
// and outbreak feeds the dashboard draws from.
package upstream

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
	"time"

	"golang.org/x/time/rate"

	"tieba-stats/logger"
	"tieba-stats/metrics"
	"tieba-stats/signer"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = 200 * time.Millisecond
	defaultMaxBackoff  = 5 * time.Second
	maxErrorBody       = 512
)

// ErrUserNotFound is returned by LookupUser when the account does not exist.
var ErrUserNotFound = errors.New("user not found")

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.Code, e.Body)
}

// Config configures the Client.
type Config struct {
	BaseURL     string
	NewsURL     string
	OutbreakURL string
	Timeout     time.Duration
	// RatePerSecond caps outgoing requests; zero disables the limit.
	RatePerSecond  float64
	Burst          int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Location       *time.Location
}

// Client talks to the upstream APIs. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	signer  signer.Signer
	limiter *rate.Limiter
	log     logger.Logger
	metrics *metrics.Metrics
}

// New creates a Client. Tokens for signed endpoints come from s.
func New(cfg Config, s signer.Signer, log logger.Logger, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		signer:  s,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
		metrics: m,
	}
}

// Location is the time zone calendar days are resolved in.
func (c *Client) Location() *time.Location {
	return c.cfg.Location
}

func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, query url.Values, out any) error {
	target := rawURL
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.call(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	}, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, rawURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}
	return c.call(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

func (c *Client) call(ctx context.Context, endpoint string, build func(context.Context) (*http.Request, error), out any) error {
	start := time.Now()
	err := withRetry(ctx, c.retryPolicy(), func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := build(ctx)
		if err != nil {
			return err
		}
		return c.do(req, endpoint, out)
	})
	c.metrics.ObserveUpstream(endpoint, time.Since(start), err)

	if err != nil {
		c.log.Warn("Upstream request failed",
			logger.String("endpoint", endpoint),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err),
		)
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	c.log.Debug("Upstream request", logger.String("endpoint", endpoint), logger.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

func (c *Client) retryPolicy() retryPolicy {
	return retryPolicy{
		attempts: c.cfg.MaxAttempts,
		initial:  c.cfg.InitialBackoff,
		max:      c.cfg.MaxBackoff,
	}
}

func (c *Client) day(t time.Time) string {
	return t.In(c.cfg.Location).Format("2006-01-02")
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }
