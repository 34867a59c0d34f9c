package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"portico-hq/portico/pkg/convert"
)

// DefaultMaxBodyBytes caps inbound request bodies at 10 MiB.
const DefaultMaxBodyBytes = 10 << 20

// ParseMessagesRequest reads and decodes a Messages API request body.
// maxBytes of zero applies DefaultMaxBodyBytes.
func ParseMessagesRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (*convert.Request, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &RequestError{Message: fmt.Sprintf("request body exceeds %d bytes", maxBytes)}
		}
		return nil, &RequestError{Message: "failed to read request body"}
	}
	if len(body) == 0 {
		return nil, &RequestError{Message: "request body is empty"}
	}

	var req convert.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if req.Model == "" {
		return nil, &RequestError{Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return nil, &RequestError{Message: "messages must not be empty"}
	}
	return &req, nil
}
