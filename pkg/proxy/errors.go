package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"portico-hq/portico/pkg/convert"
	"portico-hq/portico/pkg/credential"
	"portico-hq/portico/pkg/providers"
)

// Anthropic error type strings.
const (
	ErrTypeInvalidRequest = "invalid_request_error"
	ErrTypeAuthentication = "authentication_error"
	ErrTypeRateLimit      = "rate_limit_error"
	ErrTypeAPI            = "api_error"
	ErrTypeOverloaded     = "overloaded_error"
)

// RequestError is a failure to parse or validate the inbound request.
type RequestError struct {
	Message string
}

// Error implements the error interface.
func (e *RequestError) Error() string { return e.Message }

// MapError translates a pipeline error into the HTTP status and
// Messages-schema error body to send to the client.
func MapError(err error) (int, *convert.ErrorBody) {
	var (
		reqErr      *RequestError
		schemaErr   *convert.SchemaError
		contentErr  *convert.UnsupportedContentError
		noneErr     *credential.NoEligibleError
		exhausted   *providers.ExhaustedError
		authErr     *providers.AuthError
		permanent   *providers.NonRetryableError
		rateLimited *providers.RateLimitError
	)

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, convert.NewErrorBody(ErrTypeInvalidRequest, reqErr.Message)

	case errors.As(err, &schemaErr), errors.As(err, &contentErr):
		return http.StatusBadRequest, convert.NewErrorBody(ErrTypeInvalidRequest, err.Error())

	case errors.As(err, &noneErr):
		return http.StatusServiceUnavailable, convert.NewErrorBody(ErrTypeOverloaded,
			"no usable backend credential is currently available")

	case errors.As(err, &exhausted):
		if _, ok := providers.IsRateLimit(err); ok {
			return http.StatusTooManyRequests, convert.NewErrorBody(ErrTypeRateLimit,
				"all backend credentials are rate limited")
		}
		return http.StatusBadGateway, convert.NewErrorBody(ErrTypeAPI,
			fmt.Sprintf("backend request failed after %d attempts", len(exhausted.Attempts)))

	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests, convert.NewErrorBody(ErrTypeRateLimit,
			"the backend rate limited this request")

	case errors.As(err, &authErr):
		return http.StatusBadGateway, convert.NewErrorBody(ErrTypeAPI,
			"the backend rejected the proxy's credentials")

	case errors.As(err, &permanent):
		if permanent.StatusCode >= 400 && permanent.StatusCode < 500 {
			return permanent.StatusCode, convert.NewErrorBody(ErrTypeInvalidRequest, permanent.Message)
		}
		return http.StatusBadGateway, convert.NewErrorBody(ErrTypeAPI, permanent.Message)

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, convert.NewErrorBody(ErrTypeAPI,
			"the request took too long to complete")

	default:
		return http.StatusBadGateway, convert.NewErrorBody(ErrTypeAPI,
			"an upstream error occurred while processing the request")
	}
}
