package proxy

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func postMessages(body string) (*httptest.ResponseRecorder, *strings.Reader) {
	return httptest.NewRecorder(), strings.NewReader(body)
}

func TestParseMessagesRequest(t *testing.T) {
	body := `{"model":"claude-sonnet-4-20250514","max_tokens":100,"messages":[{"role":"user","content":"hi"}]}`
	w, rd := postMessages(body)
	r := httptest.NewRequest("POST", "/v1/messages", rd)

	req, err := ParseMessagesRequest(w, r, 0)
	if err != nil {
		t.Fatalf("ParseMessagesRequest() error = %v", err)
	}
	if req.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Model = %q", req.Model)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(req.Messages))
	}
	if req.Messages[0].Content[0].Text != "hi" {
		t.Errorf("content = %q, want hi", req.Messages[0].Content[0].Text)
	}
}

func TestParseMessagesRequestRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid JSON", `{"model":`},
		{"missing model", `{"messages":[{"role":"user","content":"hi"}]}`},
		{"no messages", `{"model":"claude-sonnet-4-20250514","messages":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, rd := postMessages(tt.body)
			r := httptest.NewRequest("POST", "/v1/messages", rd)
			_, err := ParseMessagesRequest(w, r, 0)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error = %v, want RequestError", err)
			}
		})
	}
}

func TestParseMessagesRequestBodyLimit(t *testing.T) {
	body := `{"model":"m","messages":[{"role":"user","content":"` + strings.Repeat("x", 200) + `"}]}`
	w, rd := postMessages(body)
	r := httptest.NewRequest("POST", "/v1/messages", rd)

	_, err := ParseMessagesRequest(w, r, 64)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want RequestError", err)
	}
	if !strings.Contains(reqErr.Message, "exceeds") {
		t.Errorf("message = %q, want body-limit message", reqErr.Message)
	}
}
