package codewhisperer

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"portico-hq/portico/pkg/credential"
	"portico-hq/portico/pkg/providers"
)

const (
	contentTypeJSON = "application/json"
	acceptStream    = "*/*"
	agentModeVibe   = "vibe"

	// errorBodyLimit bounds how much of an error response is read for
	// the error message.
	errorBodyLimit = 8 << 10
)

// Config configures the backend client.
type Config struct {
	// Region selects the regional endpoints; defaults to us-east-1
	Region string

	// HeaderTimeout bounds the wait for response headers. The body is
	// a live event stream and is never subject to this timeout.
	HeaderTimeout time.Duration

	// HealthThreshold is the consecutive-failure count that opens an
	// endpoint's circuit breaker
	HealthThreshold int

	// MaxIdleConns and MaxIdleConnsPerHost tune the connection pool
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.HeaderTimeout <= 0 {
		c.HeaderTimeout = 60 * time.Second
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
}

// endpoint pairs a profile with its circuit breaker.
type endpoint struct {
	profile EndpointProfile
	health  *providers.HealthTracker
}

// Client sends conversation-state requests to the CodeWhisperer
// streaming backend. It implements providers.Provider.
type Client struct {
	cfg       Config
	client    *http.Client
	endpoints []*endpoint
	logger    *slog.Logger
}

// New creates a client for the configured region's endpoints.
func New(cfg Config, logger *slog.Logger) *Client {
	cfg.applyDefaults()
	return newClient(cfg, EndpointProfiles(cfg.Region), logger)
}

// NewWithEndpoints creates a client over an explicit endpoint list.
// Used by tests and by deployments fronting the backend with a relay.
func NewWithEndpoints(cfg Config, profiles []EndpointProfile, logger *slog.Logger) *Client {
	cfg.applyDefaults()
	return newClient(cfg, profiles, logger)
}

func newClient(cfg Config, profiles []EndpointProfile, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.HeaderTimeout,
		ForceAttemptHTTP2:     true,
	}
	eps := make([]*endpoint, 0, len(profiles))
	for _, p := range profiles {
		eps = append(eps, &endpoint{
			profile: p,
			health:  providers.NewHealthTracker(cfg.HealthThreshold),
		})
	}
	return &Client{
		cfg:       cfg,
		client:    &http.Client{Transport: transport},
		endpoints: eps,
		logger:    logger,
	}
}

// Name implements providers.Provider.
func (c *Client) Name() string { return "codewhisperer" }

// Send performs one request attempt against the first endpoint whose
// circuit breaker is closed. On success the caller owns the response
// body, which carries a vnd.amazon.eventstream payload.
func (c *Client) Send(ctx context.Context, req *providers.Request) (*http.Response, error) {
	ep := c.pickEndpoint()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.profile.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &providers.NonRetryableError{Message: err.Error()}
	}
	c.setHeaders(httpReq, req.Credential, ep.profile)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ep.health.RecordFailure(err)
		return nil, &providers.TransientError{
			CredentialID: req.Credential.ID,
			Cause:        err,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		ep.health.RecordSuccess()
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	resp.Body.Close()
	return nil, c.classify(req.Credential.ID, ep, resp, string(body))
}

// HealthCheck reports whether the preferred endpoint is reachable. Any
// HTTP response counts as reachable; only transport failures are
// health failures.
func (c *Client) HealthCheck(ctx context.Context) error {
	ep := c.endpoints[0]
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.profile.URL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))
	resp.Body.Close()
	return nil
}

// Endpoints exposes per-endpoint health for the admin surface.
func (c *Client) Endpoints() map[string]providers.Health {
	out := make(map[string]providers.Health, len(c.endpoints))
	for _, ep := range c.endpoints {
		out[ep.profile.Name] = ep.health.Snapshot()
	}
	return out
}

func (c *Client) pickEndpoint() *endpoint {
	for _, ep := range c.endpoints {
		if ep.health.Healthy() {
			return ep
		}
	}
	// Every breaker open: keep trying the preferred endpoint rather
	// than refusing outright, so recovery is observed.
	return c.endpoints[0]
}

func (c *Client) setHeaders(req *http.Request, cred credential.Credential, profile EndpointProfile) {
	fp := credential.NewFingerprint(cred.ID)

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", acceptStream)
	if profile.AmzTarget != "" {
		req.Header.Set("X-Amz-Target", profile.AmzTarget)
	}
	req.Header.Set("User-Agent", fp.UserAgent())
	req.Header.Set("X-Amz-User-Agent", fp.AmzUserAgent())
	req.Header.Set("x-amzn-kiro-agent-mode", agentModeVibe)
	req.Header.Set("x-amzn-codewhisperer-optout", "true")
	req.Header.Set("Amz-Sdk-Request", "attempt=1; max=3")
	req.Header.Set("Amz-Sdk-Invocation-Id", uuid.New().String())
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
}

func (c *Client) classify(credID string, ep *endpoint, resp *http.Response, body string) error {
	status := resp.StatusCode
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &providers.AuthError{
			CredentialID: credID,
			StatusCode:   status,
			Message:      body,
		}
	case status == http.StatusTooManyRequests:
		return &providers.RateLimitError{
			CredentialID: credID,
			RetryAfter:   parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:      body,
		}
	case status >= 500:
		ep.health.RecordFailure(&providers.TransientError{StatusCode: status, Message: body})
		return &providers.TransientError{
			CredentialID: credID,
			StatusCode:   status,
			Message:      body,
		}
	default:
		return &providers.NonRetryableError{
			StatusCode: status,
			Message:    body,
		}
	}
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
