package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"portico-hq/portico/pkg/convert"
)

// WriteJSON serializes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err through MapError and writes the resulting
// Messages-schema error envelope.
func WriteError(w http.ResponseWriter, err error) {
	status, body := MapError(err)
	WriteJSON(w, status, body)
}

// SSEWriter emits server-sent events in the Messages streaming format,
// flushing after every event so clients observe deltas as they arrive.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter prepares w for a server-sent event stream and writes the
// stream headers. It returns an error when w does not support flushing.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Send writes one stream event and flushes it to the client.
func (s *SSEWriter) Send(ev convert.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal stream event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// SendError emits an error event mid-stream. Used when the backend fails
// after the response headers have already been sent.
func (s *SSEWriter) SendError(err error) error {
	_, body := MapError(err)
	payload := map[string]any{"type": "error", "error": body.Error}
	data, merr := json.Marshal(payload)
	if merr != nil {
		return merr
	}
	if _, werr := fmt.Fprintf(s.w, "event: error\ndata: %s\n\n", data); werr != nil {
		return werr
	}
	s.flusher.Flush()
	return nil
}
