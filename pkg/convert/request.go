package convert

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// disallowedTools are server-side tool variants the backend rejects.
// They are removed from outbound requests silently; clients relying on
// them fall back to their own implementations.
var disallowedTools = map[string]bool{
	"web_search": true,
	"websearch":  true,
	"web-search": true,
}

func isDisallowedTool(t Tool) bool {
	if disallowedTools[strings.ToLower(t.Name)] {
		return true
	}
	return strings.HasPrefix(t.Type, "web_search")
}

// Options configures one forward conversion.
type Options struct {
	// Mode is the active tool-definition compression mode.
	Mode Mode
	// Origin identifies the calling surface to the backend.
	Origin string
	// ProfileARN routes the request to a billing profile; optional.
	ProfileARN string
	// ConversationID threads multi-turn exchanges; a fresh UUID is
	// generated when empty.
	ConversationID string
}

const defaultOrigin = "AI_EDITOR"

// BuildBackendRequest translates an Anthropic Messages request into the
// backend's conversation-state shape. Disallowed tools are dropped, the
// remaining tool definitions pass through the configured compression
// mode, and the system prompt is folded into the first user turn.
func BuildBackendRequest(req *Request, opts Options) (*BackendRequest, error) {
	if req.Model == "" {
		return nil, &SchemaError{Field: "model", Reason: "is required"}
	}
	if len(req.Messages) == 0 {
		return nil, &SchemaError{Field: "messages", Reason: "must not be empty"}
	}

	tools := make([]Tool, 0, len(req.Tools))
	for _, t := range req.Tools {
		if t.Name == "" {
			return nil, &SchemaError{Field: "tools", Reason: "contains a tool without a name"}
		}
		if !isDisallowedTool(t) {
			tools = append(tools, t)
		}
	}

	system, tools, err := CompressTools(string(req.System), tools, opts.Mode)
	if err != nil {
		return nil, err
	}

	turns := make([]ChatMessage, 0, len(req.Messages))
	for i, msg := range req.Messages {
		switch msg.Role {
		case "user":
			turn, err := userTurn(msg.Content)
			if err != nil {
				return nil, err
			}
			turns = append(turns, turn)
		case "assistant":
			turn, err := assistantTurn(msg.Content)
			if err != nil {
				return nil, err
			}
			turns = append(turns, turn)
		default:
			return nil, &SchemaError{Field: "messages", Reason: "role must be user or assistant at index " + strconv.Itoa(i)}
		}
	}

	last := turns[len(turns)-1]
	if last.UserInputMessage == nil {
		return nil, &SchemaError{Field: "messages", Reason: "must end with a user turn"}
	}
	history := turns[:len(turns)-1]

	// The backend has no system field; the prompt rides on the earliest
	// user turn so it precedes everything the model sees.
	if system != "" {
		target := last.UserInputMessage
		for i := range history {
			if history[i].UserInputMessage != nil {
				target = history[i].UserInputMessage
				break
			}
		}
		if target.Content == "" {
			target.Content = system
		} else {
			target.Content = system + "\n\n" + target.Content
		}
	}

	origin := opts.Origin
	if origin == "" {
		origin = defaultOrigin
	}
	conversationID := opts.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	current := last.UserInputMessage
	current.ModelID = MapModel(req.Model)
	current.Origin = origin
	if len(tools) > 0 {
		if current.Context == nil {
			current.Context = &UserInputContext{}
		}
		current.Context.Tools = backendTools(tools)
	}

	return &BackendRequest{
		ConversationState: ConversationState{
			ChatTriggerType: "MANUAL",
			ConversationID:  conversationID,
			CurrentMessage:  last,
			History:         history,
		},
		ProfileARN: opts.ProfileARN,
	}, nil
}

// userTurn flattens a user message into content text plus tool results.
func userTurn(blocks MessageContent) (ChatMessage, error) {
	uim := &UserInputMessage{}
	var text []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			text = append(text, b.Text)
		case "tool_result":
			result := BackendToolResult{
				ToolUseID: b.ToolUseID,
				Status:    "success",
				Content:   []ToolResultContent{{Text: flattenBlocks(b.Content)}},
			}
			if b.IsError {
				result.Status = "error"
			}
			if uim.Context == nil {
				uim.Context = &UserInputContext{}
			}
			uim.Context.ToolResults = append(uim.Context.ToolResults, result)
		default:
			return ChatMessage{}, &UnsupportedContentError{ContentType: b.Type}
		}
	}
	uim.Content = strings.Join(text, "\n")
	return ChatMessage{UserInputMessage: uim}, nil
}

// assistantTurn flattens an assistant message into content text plus
// completed tool uses.
func assistantTurn(blocks MessageContent) (ChatMessage, error) {
	arm := &AssistantResponseMessage{}
	var text []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			text = append(text, b.Text)
		case "tool_use":
			input := b.Input
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			arm.ToolUses = append(arm.ToolUses, AssistantToolUse{
				ToolUseID: b.ID,
				Name:      b.Name,
				Input:     input,
			})
		default:
			return ChatMessage{}, &UnsupportedContentError{ContentType: b.Type}
		}
	}
	arm.Content = strings.Join(text, "\n")
	return ChatMessage{AssistantResponseMessage: arm}, nil
}

// flattenBlocks renders tool-result content down to plain text, the only
// result form the backend accepts.
func flattenBlocks(blocks MessageContent) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func backendTools(tools []Tool) []BackendTool {
	out := make([]BackendTool, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		out = append(out, BackendTool{ToolSpecification: ToolSpecification{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: InputSchema{JSON: schema},
		}})
	}
	return out
}
