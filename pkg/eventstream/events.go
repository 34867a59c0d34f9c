package eventstream

import (
	"encoding/json"
	"fmt"
)

// Event is the decoded, typed form of a backend stream frame. The set of
// variants is closed; consumers dispatch with a type switch.
type Event interface {
	isEvent()
}

// AssistantEvent carries a fragment of assistant text.
type AssistantEvent struct {
	Content string `json:"content"`
}

// ToolUseEvent carries one fragment of a tool invocation. Input arrives
// split across many events for the same ToolUseID; Stop marks the final
// fragment.
type ToolUseEvent struct {
	ToolUseID string `json:"toolUseId"`
	Name      string `json:"name"`
	Input     string `json:"input"`
	Stop      bool   `json:"stop"`
}

// TokenUsage mirrors the backend's usage accounting block. Absolute input
// token counts are frequently absent; ContextUsagePercentage then allows
// an estimate against the model's context window.
type TokenUsage struct {
	OutputTokens           int     `json:"outputTokens"`
	TotalTokens            int     `json:"totalTokens"`
	UncachedInputTokens    int     `json:"uncachedInputTokens"`
	CacheReadInputTokens   int     `json:"cacheReadInputTokens"`
	ContextUsagePercentage float64 `json:"contextUsagePercentage"`
}

// MetadataEvent closes a response with usage accounting.
type MetadataEvent struct {
	ConversationID string      `json:"conversationId"`
	TokenUsage     *TokenUsage `json:"tokenUsage"`
}

// MeteringEvent reports billing units. The breakdown shape varies by
// account type, so it is retained raw for the usage recorder.
type MeteringEvent struct {
	Raw json.RawMessage
}

// WebLink is one supplementary citation.
type WebLink struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// WebLinksEvent carries supplementary citations for the response.
type WebLinksEvent struct {
	Links []WebLink `json:"supplementaryWebLinks"`
}

// FollowupPromptEvent suggests a next user turn. Portico drops these,
// but they must still be recognized so the frame is consumed cleanly.
type FollowupPromptEvent struct {
	Content string `json:"content"`
}

// ErrorEvent is a backend-reported failure terminating the stream.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// UnknownEvent preserves frames whose event type Portico does not map.
// They are logged and skipped.
type UnknownEvent struct {
	EventType string
	Payload   []byte
}

func (*AssistantEvent) isEvent()      {}
func (*ToolUseEvent) isEvent()        {}
func (*MetadataEvent) isEvent()       {}
func (*MeteringEvent) isEvent()       {}
func (*WebLinksEvent) isEvent()       {}
func (*FollowupPromptEvent) isEvent() {}
func (*ErrorEvent) isEvent()          {}
func (*UnknownEvent) isEvent()        {}

// ParseEvent deserializes a decoded frame into its typed Event. An
// unparseable payload yields a PayloadDecodeError, which is non-fatal to
// the stream: the assembler decides how to surface it.
func ParseEvent(m *Message) (Event, error) {
	if m.IsError() {
		ev := &ErrorEvent{Code: m.EventType}
		if len(m.Payload) > 0 {
			if err := json.Unmarshal(m.Payload, ev); err != nil {
				ev.Message = string(m.Payload)
			}
		}
		if ev.Message == "" {
			ev.Message = fmt.Sprintf("backend reported %s", ev.Code)
		}
		return ev, nil
	}

	switch m.EventType {
	case "assistantResponseEvent":
		ev := &AssistantEvent{}
		if err := json.Unmarshal(m.Payload, ev); err != nil {
			return nil, &PayloadDecodeError{EventType: m.EventType, Err: err}
		}
		return ev, nil
	case "toolUseEvent":
		ev := &ToolUseEvent{}
		if err := json.Unmarshal(m.Payload, ev); err != nil {
			return nil, &PayloadDecodeError{EventType: m.EventType, Err: err}
		}
		return ev, nil
	case "messageMetadataEvent":
		ev := &MetadataEvent{}
		if err := json.Unmarshal(m.Payload, ev); err != nil {
			return nil, &PayloadDecodeError{EventType: m.EventType, Err: err}
		}
		return ev, nil
	case "meteringEvent":
		return &MeteringEvent{Raw: append(json.RawMessage(nil), m.Payload...)}, nil
	case "supplementaryWebLinksEvent":
		ev := &WebLinksEvent{}
		if err := json.Unmarshal(m.Payload, ev); err != nil {
			return nil, &PayloadDecodeError{EventType: m.EventType, Err: err}
		}
		return ev, nil
	case "followupPromptEvent":
		ev := &FollowupPromptEvent{}
		if err := json.Unmarshal(m.Payload, ev); err != nil {
			return nil, &PayloadDecodeError{EventType: m.EventType, Err: err}
		}
		return ev, nil
	case "error", "exception", "invalidStateEvent":
		ev := &ErrorEvent{Code: m.EventType}
		if len(m.Payload) > 0 {
			if err := json.Unmarshal(m.Payload, ev); err != nil {
				return nil, &PayloadDecodeError{EventType: m.EventType, Err: err}
			}
		}
		if ev.Message == "" {
			ev.Message = ev.Reason
		}
		return ev, nil
	default:
		return &UnknownEvent{EventType: m.EventType, Payload: append([]byte(nil), m.Payload...)}, nil
	}
}
