package convert

import (
	"encoding/json"
	"fmt"
)

// Request is an Anthropic Messages API request.
type Request struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	System        SystemPrompt    `json:"system,omitempty"`
	Tools         []Tool          `json:"tools,omitempty"`
	ToolChoice    json.RawMessage `json:"tool_choice,omitempty"`
	MaxTokens     int             `json:"max_tokens"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Stream        bool            `json:"stream,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// Message is one conversation turn.
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent is a message body: the wire form is either a bare
// string or an array of content blocks, normalized here to blocks.
type MessageContent []ContentBlock

// UnmarshalJSON accepts both the string shorthand and the block array.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = MessageContent{{Type: "text", Text: s}}
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	*c = blocks
	return nil
}

// ContentBlock is one typed unit of message content.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   MessageContent `json:"content,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

// SystemPrompt is either a bare string or an array of text blocks on the
// wire; normalized here to the flattened string.
type SystemPrompt string

func (s *SystemPrompt) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = SystemPrompt(v)
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	var out string
	for i, b := range blocks {
		if b.Type != "text" {
			return fmt.Errorf("system prompt block %d has unsupported type %q", i, b.Type)
		}
		if out != "" {
			out += "\n\n"
		}
		out += b.Text
	}
	*s = SystemPrompt(out)
	return nil
}

func (s SystemPrompt) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// Tool is an Anthropic tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
	Type        string          `json:"type,omitempty"`
}

// Usage is Anthropic-schema token accounting.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
}

// Response is a complete non-streaming Anthropic message.
type Response struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason,omitempty"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// Stream event types in the order the Messages streaming contract
// requires them.
const (
	EventMessageStart      = "message_start"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
	EventError             = "error"
	EventPing              = "ping"
)

// StreamEvent is one Anthropic SSE event. Exactly one of the optional
// fields is populated per event type.
type StreamEvent struct {
	Type         string        `json:"type"`
	Message      *Response     `json:"message,omitempty"`
	Index        *int          `json:"index,omitempty"`
	ContentBlock *ContentBlock `json:"content_block,omitempty"`
	Delta        *Delta        `json:"delta,omitempty"`
	Usage        *Usage        `json:"usage,omitempty"`
	Error        *APIError     `json:"error,omitempty"`
}

// Delta carries incremental content or the closing message delta.
type Delta struct {
	Type         string  `json:"type,omitempty"`
	Text         string  `json:"text,omitempty"`
	PartialJSON  string  `json:"partial_json,omitempty"`
	StopReason   string  `json:"stop_reason,omitempty"`
	StopSequence *string `json:"stop_sequence,omitempty"`
}

// APIError is the Anthropic error body shape, used both for error stream
// events and non-streaming error responses.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorBody wraps an APIError the way the Messages API returns errors.
type ErrorBody struct {
	Type  string   `json:"type"`
	Error APIError `json:"error"`
}

// NewErrorBody builds the standard error envelope.
func NewErrorBody(errType, message string) *ErrorBody {
	return &ErrorBody{Type: "error", Error: APIError{Type: errType, Message: message}}
}
