package providers

import (
	"context"
	"net/http"

	"portico-hq/portico/pkg/credential"
)

// Request is one outbound call to the backend, already converted to
// the backend's wire format. The orchestrator fills in the credential
// for each attempt.
type Request struct {
	// Body is the serialized backend request payload
	Body []byte

	// Credential authenticates the attempt
	Credential credential.Credential

	// Model is the backend model identifier, kept for logging and
	// usage accounting
	Model string

	// Prepare, when set, rebuilds Body for the credential chosen on
	// each attempt. Backends that embed credential-scoped fields in
	// the payload (such as the profile ARN) need this.
	Prepare func(c credential.Credential) ([]byte, error)
}

// Provider issues requests against one backend service using the
// credential supplied per call.
//
// Send returns the raw HTTP response on success; the caller owns the
// body and must close it. Failures are reported as the typed errors in
// this package (AuthError, RateLimitError, TransientError,
// NonRetryableError) so the orchestrator can decide between retry,
// failover, and giving up.
//
// Implementations must respect context cancellation and return
// immediately when the context is cancelled.
type Provider interface {
	// Name returns the provider's name (e.g. "codewhisperer").
	Name() string

	// Send performs one request attempt and returns the response.
	// A non-2xx status is returned as a typed error, not a response.
	Send(ctx context.Context, req *Request) (*http.Response, error)

	// HealthCheck verifies the backend is reachable. It returns nil
	// when healthy, or an error describing the problem.
	HealthCheck(ctx context.Context) error
}
