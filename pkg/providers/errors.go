package providers

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthError represents an authentication failure.
// This occurs when the backend rejects the bearer token (HTTP 401 or 403).
type AuthError struct {
	// CredentialID is the credential whose token was rejected
	CredentialID string

	// StatusCode is the HTTP status code returned by the backend
	StatusCode int

	// Message is the error message from the backend
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("credential %q authentication failed (status %d): %s",
		e.CredentialID, e.StatusCode, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the backend.
type RateLimitError struct {
	// CredentialID is the credential that was rate limited
	CredentialID string

	// RetryAfter is the duration to wait before retrying (0 if not provided)
	RetryAfter time.Duration

	// Message is the error message from the backend
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("credential %q rate limited (retry after %s): %s",
			e.CredentialID, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("credential %q rate limited: %s", e.CredentialID, e.Message)
}

// TransientError represents a failure worth retrying: timeouts, 5xx
// responses, and dropped connections.
type TransientError struct {
	// CredentialID is the credential used for the failed attempt
	CredentialID string

	// StatusCode is the HTTP status code (0 for transport-level failures)
	StatusCode int

	// Cause is the underlying error (if any)
	Cause error

	// Message is the error message from the backend
	Message string
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient backend error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transient backend error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransientError) Unwrap() error {
	return e.Cause
}

// NonRetryableError represents a request the backend rejected for
// reasons that will not change on retry, such as a validation failure.
type NonRetryableError struct {
	// StatusCode is the HTTP status code returned by the backend
	StatusCode int

	// Message is the error message from the backend
	Message string
}

// Error implements the error interface.
func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("backend rejected request (status %d): %s", e.StatusCode, e.Message)
}

// Attempt records one failed delivery attempt for ExhaustedError.
type Attempt struct {
	// CredentialID is the credential used for the attempt
	CredentialID string

	// Err is the error that ended the attempt
	Err error
}

// ExhaustedError is returned when every attempt failed and no further
// credential or retry budget remains. It enumerates each credential
// tried and the error that ended its last attempt.
type ExhaustedError struct {
	// Attempts lists every failed attempt in order
	Attempts []Attempt
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all credentials exhausted"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "all credentials exhausted after %d attempts:", len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, " [%s: %v]", a.CredentialID, a.Err)
	}
	return b.String()
}

// Unwrap returns the error of the last attempt so callers can inspect
// the terminal cause with errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// IsRetryable reports whether the error is worth retrying on the same
// credential. Only transient failures qualify; auth and rate-limit
// errors require failing over to a different credential.
func IsRetryable(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsAuth reports whether the error is an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsRateLimit reports whether the error is a rate limit rejection.
// When it is, the retry-after duration is returned alongside.
func IsRateLimit(err error) (time.Duration, bool) {
	var re *RateLimitError
	if errors.As(err, &re) {
		return re.RetryAfter, true
	}
	return 0, false
}
