package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"portico-hq/portico/pkg/assemble"
	"portico-hq/portico/pkg/convert"
	"portico-hq/portico/pkg/credential"
	"portico-hq/portico/pkg/eventstream"
	"portico-hq/portico/pkg/providers"
	"portico-hq/portico/pkg/proxy"
	"portico-hq/portico/pkg/proxy/middleware"
	"portico-hq/portico/pkg/telemetry/metrics"
	"portico-hq/portico/pkg/usage"
)

// readBufferSize is the chunk size for draining the backend stream.
const readBufferSize = 32 * 1024

// MessagesConfig tunes the Messages endpoint.
type MessagesConfig struct {
	// Compression is the tool-definition compression mode applied to
	// outbound requests.
	Compression convert.Mode

	// CompressionSource, when set, is consulted per request so the
	// mode can be switched at runtime through the admin surface.
	CompressionSource func() convert.Mode

	// Origin identifies the calling surface to the backend; defaults
	// to the backend's editor origin when empty.
	Origin string

	// MaxBodyBytes caps inbound request bodies; zero applies the
	// package default.
	MaxBodyBytes int64
}

func (c *MessagesConfig) mode() convert.Mode {
	if c.CompressionSource != nil {
		return c.CompressionSource()
	}
	return c.Compression
}

// MessagesHandler serves POST /v1/messages: it converts the Anthropic
// request to the backend shape, delivers it through the failover
// orchestrator, and translates the returned event stream back — either
// as SSE or as one aggregated JSON message.
type MessagesHandler struct {
	orch    *providers.Orchestrator
	usage   *usage.Store
	metrics *metrics.Collector
	logger  *slog.Logger
	cfg     MessagesConfig
}

// NewMessagesHandler wires the endpoint. The usage store and metrics
// collector are optional; nil disables that concern.
func NewMessagesHandler(orch *providers.Orchestrator, store *usage.Store, collector *metrics.Collector, logger *slog.Logger, cfg MessagesConfig) *MessagesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessagesHandler{
		orch:    orch,
		usage:   store,
		metrics: collector,
		logger:  logger,
		cfg:     cfg,
	}
}

// ServeHTTP implements http.Handler.
func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		proxy.WriteJSON(w, http.StatusMethodNotAllowed,
			convert.NewErrorBody(proxy.ErrTypeInvalidRequest, "method not allowed"))
		return
	}

	start := time.Now()
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, err := proxy.ParseMessagesRequest(w, r, h.cfg.MaxBodyBytes)
	if err != nil {
		h.finish("unknown", metrics.OutcomeClientErr, start, 0)
		proxy.WriteError(w, err)
		return
	}

	// One conversation ID for the whole request so failover attempts
	// stay threaded on the backend side.
	opts := convert.Options{
		Mode:           h.cfg.mode(),
		Origin:         h.cfg.Origin,
		ConversationID: uuid.NewString(),
	}

	// Validate the conversion up front so schema errors come back as
	// 400s before any backend attempt is made.
	if _, err := convert.BuildBackendRequest(req, opts); err != nil {
		h.finish(req.Model, metrics.OutcomeClientErr, start, 0)
		proxy.WriteError(w, err)
		return
	}

	preq := &providers.Request{
		Model: req.Model,
		Prepare: func(c credential.Credential) ([]byte, error) {
			o := opts
			o.ProfileARN = c.ProfileARN
			backendReq, err := convert.BuildBackendRequest(req, o)
			if err != nil {
				return nil, err
			}
			return json.Marshal(backendReq)
		},
	}

	result, err := h.orch.Do(ctx, preq)
	if err != nil {
		h.logger.Warn("backend delivery failed",
			"request_id", requestID,
			"model", req.Model,
			"error", err,
		)
		outcome := metrics.OutcomeUpstream
		if ctx.Err() != nil {
			outcome = metrics.OutcomeCancelled
		}
		h.finish(req.Model, outcome, start, 0)
		proxy.WriteError(w, err)
		return
	}
	defer result.Response.Body.Close()

	asm := assemble.New(req.Model)
	if req.Stream {
		h.serveStream(w, r, req, asm, result, start)
		return
	}
	h.serveJSON(w, r, req, asm, result, start)
}

// serveStream relays the backend stream to the client as SSE.
func (h *MessagesHandler) serveStream(w http.ResponseWriter, r *http.Request, req *convert.Request, asm *assemble.Assembler, result *providers.Result, start time.Time) {
	sse, err := proxy.NewSSEWriter(w)
	if err != nil {
		h.finish(req.Model, metrics.OutcomeClientErr, start, result.Attempts)
		proxy.WriteError(w, err)
		return
	}

	outcome := metrics.OutcomeSuccess
	pumpErr := h.pump(r, result.Response.Body, asm, func(evs []convert.StreamEvent) error {
		for _, ev := range evs {
			h.recordEvent(ev)
			if err := sse.Send(ev); err != nil {
				return err
			}
		}
		return nil
	})
	if pumpErr != nil {
		// Client disconnects end the stream silently; anything else
		// gets a terminal error event.
		if r.Context().Err() == nil {
			for _, ev := range asm.Fail(pumpErr) {
				h.recordEvent(ev)
				_ = sse.Send(ev)
			}
		}
		outcome = metrics.OutcomeUpstream
		if r.Context().Err() != nil {
			outcome = metrics.OutcomeCancelled
		}
	}

	h.logTruncations(r, asm)
	h.record(r, req, asm, result, start)
	h.finish(req.Model, outcome, start, result.Attempts)
}

// serveJSON aggregates the backend stream into one Messages response.
func (h *MessagesHandler) serveJSON(w http.ResponseWriter, r *http.Request, req *convert.Request, asm *assemble.Assembler, result *providers.Result, start time.Time) {
	var streamErr *convert.APIError
	pumpErr := h.pump(r, result.Response.Body, asm, func(evs []convert.StreamEvent) error {
		for _, ev := range evs {
			h.recordEvent(ev)
			if ev.Type == convert.EventError && ev.Error != nil {
				e := *ev.Error
				streamErr = &e
			}
		}
		return nil
	})

	switch {
	case pumpErr != nil:
		h.finish(req.Model, metrics.OutcomeUpstream, start, result.Attempts)
		proxy.WriteError(w, pumpErr)
		return
	case streamErr != nil:
		h.finish(req.Model, metrics.OutcomeUpstream, start, result.Attempts)
		proxy.WriteJSON(w, http.StatusBadGateway,
			&convert.ErrorBody{Type: "error", Error: *streamErr})
		return
	}

	h.logTruncations(r, asm)
	h.record(r, req, asm, result, start)
	h.finish(req.Model, metrics.OutcomeSuccess, start, result.Attempts)
	proxy.WriteJSON(w, http.StatusOK, asm.Response())
}

// pump drains the backend body through the frame decoder and assembler,
// handing each batch of public stream events to emit. It finishes the
// assembler on clean EOF.
func (h *MessagesHandler) pump(r *http.Request, body io.Reader, asm *assemble.Assembler, emit func([]convert.StreamEvent) error) error {
	dec := eventstream.NewDecoder()
	buf := make([]byte, readBufferSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			msgs, decErr := dec.Write(buf[:n])
			if err := h.dispatch(r, msgs, asm, emit); err != nil {
				return err
			}
			if decErr != nil {
				h.recordFrame("corrupt")
				return decErr
			}
			h.recordFrame("ok")
		}
		if readErr == io.EOF {
			if err := dec.Close(); err != nil {
				h.recordFrame("truncated")
				return err
			}
			return emit(asm.Finish())
		}
		if readErr != nil {
			return readErr
		}
	}
}

// dispatch parses decoded frames and pushes them through the assembler.
func (h *MessagesHandler) dispatch(r *http.Request, msgs []*eventstream.Message, asm *assemble.Assembler, emit func([]convert.StreamEvent) error) error {
	for _, msg := range msgs {
		ev, err := eventstream.ParseEvent(msg)
		if err != nil {
			// A payload that fails to decode is skipped rather than
			// killing the stream.
			var payloadErr *eventstream.PayloadDecodeError
			if errors.As(err, &payloadErr) {
				h.logger.Warn("skipping undecodable event",
					"request_id", middleware.GetRequestID(r.Context()),
					"event_type", payloadErr.EventType,
					"error", err,
				)
				continue
			}
			return err
		}
		if unknown, ok := ev.(*eventstream.UnknownEvent); ok {
			h.logger.Debug("skipping unmapped event",
				"request_id", middleware.GetRequestID(r.Context()),
				"event_type", unknown.EventType,
			)
			continue
		}
		if err := emit(asm.Push(ev)); err != nil {
			return err
		}
	}
	return nil
}

// logTruncations surfaces tool calls that arrived cut short.
func (h *MessagesHandler) logTruncations(r *http.Request, asm *assemble.Assembler) {
	for _, tr := range asm.Truncations() {
		h.logger.Warn("tool call input truncated",
			"request_id", middleware.GetRequestID(r.Context()),
			"kind", string(tr.Kind),
			"detail", tr.Message,
		)
	}
}

// record persists the request's usage accounting.
func (h *MessagesHandler) record(r *http.Request, req *convert.Request, asm *assemble.Assembler, result *providers.Result, start time.Time) {
	if h.usage == nil {
		return
	}
	u := asm.Usage()
	rec := &usage.Record{
		RequestID:       middleware.GetRequestID(r.Context()),
		CredentialID:    result.CredentialID,
		Model:           req.Model,
		InputTokens:     u.InputTokens,
		OutputTokens:    u.OutputTokens,
		CacheReadTokens: u.CacheReadInputTokens,
		StopReason:      asm.StopReason(),
		Attempts:        result.Attempts,
		Duration:        time.Since(start),
		Metering:        asm.Metering(),
	}
	// A client disconnect must not lose the row, so the record write
	// survives request-context cancellation.
	if err := h.usage.Record(context.WithoutCancel(r.Context()), rec); err != nil {
		h.logger.Error("usage record failed",
			"request_id", rec.RequestID,
			"error", err,
		)
	}
	if h.metrics != nil {
		h.metrics.Requests().RecordTokens(req.Model, u.InputTokens, u.OutputTokens)
	}
}

// finish emits the request-level metrics for one completed request.
func (h *MessagesHandler) finish(model, outcome string, start time.Time, attempts int) {
	if h.metrics == nil {
		return
	}
	h.metrics.Requests().RecordRequest(model, outcome, time.Since(start), attempts)
}

func (h *MessagesHandler) recordEvent(ev convert.StreamEvent) {
	if h.metrics != nil {
		h.metrics.Streams().RecordEvent(ev.Type)
	}
}

func (h *MessagesHandler) recordFrame(result string) {
	if h.metrics != nil {
		h.metrics.Streams().RecordFrame(result)
	}
}
