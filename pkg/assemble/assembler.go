package assemble

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"portico-hq/portico/pkg/convert"
	"portico-hq/portico/pkg/eventstream"
)

type blockKind int

const (
	blockNone blockKind = iota
	blockText
	blockTool
)

// Assembler converts decoded backend events into Anthropic stream events
// while accumulating the complete response for the non-streaming path.
// It is used by exactly one request pipeline and is not safe for
// concurrent use.
type Assembler struct {
	model     string
	messageID string

	started  bool
	finished bool

	blockIndex int
	open       blockKind

	// current text block accumulator
	textBuf strings.Builder

	// current tool block state
	toolID    string
	toolName  string
	toolInput strings.Builder

	sawToolUse bool
	stopReason string
	usage      convert.Usage
	webLinks   []eventstream.WebLink
	metering   []json.RawMessage

	content     []convert.ContentBlock
	truncations []convert.Truncation
}

// New returns an Assembler for one request against the given model.
func New(model string) *Assembler {
	return &Assembler{
		model:      model,
		messageID:  "msg_" + uuid.NewString(),
		blockIndex: -1,
	}
}

// MessageID returns the generated Anthropic message identifier.
func (a *Assembler) MessageID() string { return a.messageID }

// Usage returns the accumulated token accounting. Valid after the
// metadata event has been consumed, which the backend sends last.
func (a *Assembler) Usage() convert.Usage { return a.usage }

// StopReason returns the resolved stop reason. Valid after Finish.
func (a *Assembler) StopReason() string { return a.stopReason }

// Metering returns the raw metering payloads seen on the stream, for the
// usage recorder.
func (a *Assembler) Metering() []json.RawMessage { return a.metering }

// Truncations reports tool calls whose arguments were detected as cut
// short at stream end.
func (a *Assembler) Truncations() []convert.Truncation { return a.truncations }

// Response returns the accumulated non-streaming message. Valid after
// Finish.
func (a *Assembler) Response() *convert.Response {
	return &convert.Response{
		ID:         a.messageID,
		Type:       "message",
		Role:       "assistant",
		Model:      a.model,
		Content:    a.content,
		StopReason: a.stopReason,
		Usage:      a.usage,
	}
}

// Push consumes one backend event and returns the Anthropic stream
// events it gives rise to, possibly none. Events after the terminal one
// are dropped.
func (a *Assembler) Push(ev eventstream.Event) []convert.StreamEvent {
	if a.finished {
		return nil
	}
	switch e := ev.(type) {
	case *eventstream.AssistantEvent:
		return a.pushText(e.Content)
	case *eventstream.ToolUseEvent:
		return a.pushToolUse(e)
	case *eventstream.MetadataEvent:
		a.usage = convert.UsageFromBackend(e.TokenUsage)
		return nil
	case *eventstream.MeteringEvent:
		a.metering = append(a.metering, e.Raw)
		return nil
	case *eventstream.WebLinksEvent:
		a.webLinks = append(a.webLinks, e.Links...)
		return nil
	case *eventstream.ErrorEvent:
		return a.fail(convert.APIError{Type: "api_error", Message: e.Message})
	case *eventstream.FollowupPromptEvent, *eventstream.UnknownEvent:
		return nil
	default:
		return nil
	}
}

// Finish flushes buffered state and emits the closing message_delta and
// message_stop. It is a no-op after a terminal event has already gone
// out.
func (a *Assembler) Finish() []convert.StreamEvent {
	if a.finished {
		return nil
	}
	var out []convert.StreamEvent
	out = append(out, a.ensureStarted()...)
	out = append(out, a.flushWebLinks()...)
	out = append(out, a.closeBlock()...)

	if a.stopReason == "" {
		if a.sawToolUse {
			a.stopReason = "tool_use"
		} else {
			a.stopReason = "end_turn"
		}
	}
	out = append(out, convert.StreamEvent{
		Type:  convert.EventMessageDelta,
		Delta: &convert.Delta{StopReason: a.stopReason},
		Usage: &convert.Usage{OutputTokens: a.usage.OutputTokens},
	})
	out = append(out, convert.StreamEvent{Type: convert.EventMessageStop})
	a.finished = true
	return out
}

// Fail emits the terminal error event for a stream-level failure,
// closing any open block first. The connection is never left without a
// resolution.
func (a *Assembler) Fail(err error) []convert.StreamEvent {
	if a.finished {
		return nil
	}
	return a.fail(convert.APIError{Type: "api_error", Message: err.Error()})
}

func (a *Assembler) fail(apiErr convert.APIError) []convert.StreamEvent {
	var out []convert.StreamEvent
	out = append(out, a.ensureStarted()...)
	out = append(out, a.closeBlock()...)
	out = append(out, convert.StreamEvent{Type: convert.EventError, Error: &apiErr})
	a.finished = true
	return out
}

func (a *Assembler) ensureStarted() []convert.StreamEvent {
	if a.started {
		return nil
	}
	a.started = true
	return []convert.StreamEvent{{
		Type: convert.EventMessageStart,
		Message: &convert.Response{
			ID:      a.messageID,
			Type:    "message",
			Role:    "assistant",
			Model:   a.model,
			Content: []convert.ContentBlock{},
			Usage:   convert.Usage{InputTokens: a.usage.InputTokens},
		},
	}}
}

func (a *Assembler) pushText(text string) []convert.StreamEvent {
	if text == "" {
		return nil
	}
	var out []convert.StreamEvent
	out = append(out, a.ensureStarted()...)
	if a.open == blockTool {
		out = append(out, a.closeBlock()...)
	}
	if a.open == blockNone {
		a.blockIndex++
		a.open = blockText
		a.textBuf.Reset()
		idx := a.blockIndex
		out = append(out, convert.StreamEvent{
			Type:         convert.EventContentBlockStart,
			Index:        &idx,
			ContentBlock: &convert.ContentBlock{Type: "text", Text: ""},
		})
	}
	a.textBuf.WriteString(text)
	idx := a.blockIndex
	out = append(out, convert.StreamEvent{
		Type:  convert.EventContentBlockDelta,
		Index: &idx,
		Delta: &convert.Delta{Type: "text_delta", Text: text},
	})
	return out
}

// pushToolUse buffers argument fragments for the current tool call and
// emits the whole block once the argument JSON is structurally complete
// or the backend flags the final fragment.
func (a *Assembler) pushToolUse(e *eventstream.ToolUseEvent) []convert.StreamEvent {
	var out []convert.StreamEvent
	out = append(out, a.ensureStarted()...)

	// A new tool id while another call is buffering means the previous
	// call is done; flush it with whatever arrived.
	if a.open == blockTool && e.ToolUseID != "" && e.ToolUseID != a.toolID {
		out = append(out, a.closeBlock()...)
	}
	if a.open == blockText {
		out = append(out, a.closeBlock()...)
	}

	if a.open == blockNone {
		a.blockIndex++
		a.open = blockTool
		a.toolID = e.ToolUseID
		a.toolName = e.Name
		a.toolInput.Reset()
		idx := a.blockIndex
		out = append(out, convert.StreamEvent{
			Type:  convert.EventContentBlockStart,
			Index: &idx,
			ContentBlock: &convert.ContentBlock{
				Type:  "tool_use",
				ID:    e.ToolUseID,
				Name:  e.Name,
				Input: json.RawMessage(`{}`),
			},
		})
		a.sawToolUse = true
	}
	if e.Name != "" {
		a.toolName = e.Name
	}
	a.toolInput.WriteString(e.Input)

	if e.Stop || (a.toolInput.Len() > 0 && json.Valid([]byte(a.toolInput.String()))) {
		out = append(out, a.closeBlock()...)
	}
	return out
}

// closeBlock ends the open content block, emitting its buffered content
// and recording it for the non-streaming response.
func (a *Assembler) closeBlock() []convert.StreamEvent {
	switch a.open {
	case blockText:
		a.content = append(a.content, convert.ContentBlock{Type: "text", Text: a.textBuf.String()})
	case blockTool:
		raw := a.toolInput.String()
		if tr := convert.DetectTruncation(a.toolName, raw); tr != nil {
			a.truncations = append(a.truncations, *tr)
		}
		input := json.RawMessage(raw)
		if !json.Valid(input) || len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		a.content = append(a.content, convert.ContentBlock{
			Type:  "tool_use",
			ID:    a.toolID,
			Name:  a.toolName,
			Input: input,
		})
	default:
		return nil
	}

	idx := a.blockIndex
	var out []convert.StreamEvent
	if a.open == blockTool {
		if raw := a.toolInput.String(); raw != "" {
			out = append(out, convert.StreamEvent{
				Type:  convert.EventContentBlockDelta,
				Index: &idx,
				Delta: &convert.Delta{Type: "input_json_delta", PartialJSON: raw},
			})
		}
	}
	out = append(out, convert.StreamEvent{Type: convert.EventContentBlockStop, Index: &idx})
	a.open = blockNone
	a.toolID = ""
	a.toolName = ""
	a.toolInput.Reset()
	a.textBuf.Reset()
	return out
}

// flushWebLinks renders buffered citations as a trailing text block.
func (a *Assembler) flushWebLinks() []convert.StreamEvent {
	if len(a.webLinks) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("\n\nSources:\n")
	for _, l := range a.webLinks {
		if l.Title != "" {
			fmt.Fprintf(&b, "- %s: %s\n", l.Title, l.URL)
		} else {
			fmt.Fprintf(&b, "- %s\n", l.URL)
		}
	}
	a.webLinks = nil
	return a.pushText(b.String())
}
