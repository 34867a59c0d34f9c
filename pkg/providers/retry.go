package providers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"portico-hq/portico/pkg/credential"
)

// RetryConfig controls the failover orchestrator's retry behavior.
type RetryConfig struct {
	// PerCredentialRetries is the number of retries allowed on the
	// same credential after its first attempt, for transient failures
	PerCredentialRetries int

	// MaxAttempts is the total attempt ceiling across all credentials
	MaxAttempts int

	// BackoffBase is the initial delay between retries on the same
	// credential; it doubles per retry
	BackoffBase time.Duration

	// BackoffCap bounds the backoff delay
	BackoffCap time.Duration
}

// DefaultRetryConfig returns the standard retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		PerCredentialRetries: 2,
		MaxAttempts:          5,
		BackoffBase:          250 * time.Millisecond,
		BackoffCap:           10 * time.Second,
	}
}

func (c *RetryConfig) applyDefaults() {
	d := DefaultRetryConfig()
	if c.PerCredentialRetries <= 0 {
		c.PerCredentialRetries = d.PerCredentialRetries
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = d.BackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = d.BackoffCap
	}
}

// Result is the outcome of a successful orchestrated request.
type Result struct {
	// Response is the backend response; the caller must close its body
	Response *http.Response

	// CredentialID identifies the credential that served the request
	CredentialID string

	// Attempts is how many delivery attempts were made in total
	Attempts int
}

// Orchestrator drives requests through the provider with retry and
// credential failover.
//
// Each request acquires the highest-priority eligible credential from
// the manager. Transient failures retry on the same credential with
// exponential backoff, up to the per-credential limit. Auth failures
// get one token refresh and retry before the credential is reported
// failed and the next one is tried. Rate limits fail over immediately.
// The total attempt count never exceeds MaxAttempts; when the budget
// or the pool runs out, an ExhaustedError lists every attempt made.
type Orchestrator struct {
	provider Provider
	creds    *credential.Manager
	cfg      RetryConfig
	logger   *slog.Logger

	// sleep waits between retries; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates an orchestrator over the given provider and
// credential manager.
func NewOrchestrator(p Provider, creds *credential.Manager, cfg RetryConfig, logger *slog.Logger) *Orchestrator {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider: p,
		creds:    creds,
		cfg:      cfg,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Do delivers the request, retrying and failing over as needed.
//
// Context cancellation aborts immediately with the context's error and
// is never counted against any credential.
func (o *Orchestrator) Do(ctx context.Context, req *Request) (*Result, error) {
	var attempts []Attempt
	total := 0

	for total < o.cfg.MaxAttempts {
		cred, err := o.creds.Acquire(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if len(attempts) > 0 {
				return nil, &ExhaustedError{Attempts: attempts}
			}
			return nil, err
		}

		if req.Prepare != nil {
			body, perr := req.Prepare(cred)
			if perr != nil {
				return nil, perr
			}
			req.Body = body
		}

		retries := 0
		refreshed := false

	attempt:
		for total < o.cfg.MaxAttempts {
			total++
			req.Credential = cred

			resp, err := o.provider.Send(ctx, req)
			if err == nil {
				o.creds.ReportSuccess(cred.ID)
				return &Result{Response: resp, CredentialID: cred.ID, Attempts: total}, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			attempts = append(attempts, Attempt{CredentialID: cred.ID, Err: err})

			switch ra, isRate := IsRateLimit(err); {
			case IsAuth(err):
				if !refreshed {
					refreshed = true
					if rerr := o.creds.Refresh(ctx, cred.ID); rerr == nil {
						if c, ok := o.creds.Store().Get(cred.ID); ok {
							o.logger.Info("retrying with refreshed token",
								"credential", cred.ID)
							cred = c
							continue
						}
					} else if ctx.Err() != nil {
						return nil, ctx.Err()
					}
				}
				o.creds.ReportFailure(cred.ID, credential.FailureAuth, 0)
				o.logger.Warn("credential rejected, failing over",
					"credential", cred.ID, "error", err)
				break attempt

			case isRate:
				o.creds.ReportFailure(cred.ID, credential.FailureRateLimited, ra)
				o.logger.Warn("credential rate limited, failing over",
					"credential", cred.ID, "retry_after", ra)
				break attempt

			case IsRetryable(err):
				o.creds.ReportFailure(cred.ID, credential.FailureTransient, 0)
				if retries >= o.cfg.PerCredentialRetries {
					break attempt
				}
				delay := o.backoff(retries)
				retries++
				o.logger.Debug("transient failure, retrying",
					"credential", cred.ID, "delay", delay, "error", err)
				if serr := o.sleep(ctx, delay); serr != nil {
					return nil, serr
				}

			default:
				// Validation and other permanent rejections are not a
				// credential's fault; surface them as-is.
				return nil, err
			}
		}
	}

	return nil, &ExhaustedError{Attempts: attempts}
}

func (o *Orchestrator) backoff(retry int) time.Duration {
	d := o.cfg.BackoffBase << uint(retry)
	if d > o.cfg.BackoffCap || d <= 0 {
		d = o.cfg.BackoffCap
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
