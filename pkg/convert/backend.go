package convert

import (
	"encoding/json"
	"strings"
)

// Backend conversation-state request shape. Field names follow the
// backend's wire contract, not Go conventions.

// BackendRequest is the top-level outbound request body.
type BackendRequest struct {
	ConversationState ConversationState `json:"conversationState"`
	ProfileARN        string            `json:"profileArn,omitempty"`
}

// ConversationState carries the current turn plus prior history.
type ConversationState struct {
	ChatTriggerType string        `json:"chatTriggerType"`
	ConversationID  string        `json:"conversationId"`
	CurrentMessage  ChatMessage   `json:"currentMessage"`
	History         []ChatMessage `json:"history,omitempty"`
}

// ChatMessage is a union: exactly one of the two fields is set.
type ChatMessage struct {
	UserInputMessage         *UserInputMessage         `json:"userInputMessage,omitempty"`
	AssistantResponseMessage *AssistantResponseMessage `json:"assistantResponseMessage,omitempty"`
}

// UserInputMessage is a user turn, optionally carrying tool results and
// the active tool definitions.
type UserInputMessage struct {
	Content string            `json:"content"`
	ModelID string            `json:"modelId,omitempty"`
	Origin  string            `json:"origin,omitempty"`
	Context *UserInputContext `json:"userInputMessageContext,omitempty"`
}

// UserInputContext attaches tools and tool results to a user turn.
type UserInputContext struct {
	Tools       []BackendTool       `json:"tools,omitempty"`
	ToolResults []BackendToolResult `json:"toolResults,omitempty"`
}

// BackendTool wraps one tool specification.
type BackendTool struct {
	ToolSpecification ToolSpecification `json:"toolSpecification"`
}

// ToolSpecification is the backend's tool definition shape.
type ToolSpecification struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema nests the JSON Schema document under a "json" key.
type InputSchema struct {
	JSON json.RawMessage `json:"json"`
}

// BackendToolResult reports the outcome of one tool invocation.
type BackendToolResult struct {
	ToolUseID string              `json:"toolUseId"`
	Status    string              `json:"status"`
	Content   []ToolResultContent `json:"content"`
}

// ToolResultContent is one flattened text chunk of a tool result.
type ToolResultContent struct {
	Text string `json:"text"`
}

// AssistantResponseMessage is an assistant turn in the history.
type AssistantResponseMessage struct {
	Content  string             `json:"content"`
	ToolUses []AssistantToolUse `json:"toolUses,omitempty"`
}

// AssistantToolUse is a completed tool call in the history.
type AssistantToolUse struct {
	ToolUseID string          `json:"toolUseId"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
}

// contextWindowTokens is the assumed model context window, used to turn
// the backend's context-usage percentage into an input token estimate
// when absolute counts are absent.
const contextWindowTokens = 200000

// modelAliases maps public model identifiers to backend model IDs.
// Unlisted models fall through to a mechanical transform.
var modelAliases = map[string]string{
	"claude-sonnet-4-20250514":   "CLAUDE_SONNET_4_20250514_V1_0",
	"claude-sonnet-4-5-20250929": "CLAUDE_SONNET_4_5_20250929_V1_0",
	"claude-3-7-sonnet-20250219": "CLAUDE_3_7_SONNET_20250219_V1_0",
	"claude-opus-4-20250514":     "CLAUDE_OPUS_4_20250514_V1_0",
	"claude-opus-4-1-20250805":   "CLAUDE_OPUS_4_1_20250805_V1_0",
	"claude-3-5-haiku-20241022":  "CLAUDE_3_5_HAIKU_20241022_V1_0",
}

// MapModel translates a public model identifier to the backend's model
// ID. Unknown models get the mechanical uppercase transform so new
// releases work without a table update.
func MapModel(model string) string {
	if id, ok := modelAliases[model]; ok {
		return id
	}
	id := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(model))
	if !strings.HasSuffix(id, "_V1_0") {
		id += "_V1_0"
	}
	return id
}
