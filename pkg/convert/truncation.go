package convert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TruncationKind classifies how a tool invocation's input was cut short
// when the backend hit its output limit mid-call.
type TruncationKind string

const (
	TruncationNone             TruncationKind = ""
	TruncationEmptyInput       TruncationKind = "empty_input"
	TruncationInvalidJSON      TruncationKind = "invalid_json"
	TruncationMissingFields    TruncationKind = "missing_fields"
	TruncationIncompleteString TruncationKind = "incomplete_string"
)

// Truncation describes a detected truncation of one tool call.
type Truncation struct {
	Kind    TruncationKind
	Message string
}

// writeTools are tools whose content argument is large enough to be the
// usual truncation victim.
var writeTools = map[string]bool{
	"Write":             true,
	"write_to_file":     true,
	"fsWrite":           true,
	"create_file":       true,
	"edit_file":         true,
	"apply_diff":        true,
	"str_replace_editor": true,
	"insert":            true,
}

// requiredToolFields lists the argument names a tool cannot function
// without; their absence after a successful parse signals truncation.
var requiredToolFields = map[string][]string{
	"Write":             {"file_path", "content"},
	"write_to_file":     {"path", "content"},
	"fsWrite":           {"path", "content"},
	"create_file":       {"path", "content"},
	"edit_file":         {"path"},
	"apply_diff":        {"path", "diff"},
	"str_replace_editor": {"path", "old_str", "new_str"},
	"Bash":              {"command"},
	"execute":           {"command"},
	"run_command":       {"command"},
}

// DetectTruncation inspects a completed tool call's raw input for signs
// of mid-transmission truncation. It returns nil when the input looks
// intact.
func DetectTruncation(toolName, rawInput string) *Truncation {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return &Truncation{
			Kind:    TruncationEmptyInput,
			Message: "Tool input was completely empty - API response may have been truncated",
		}
	}

	var obj map[string]json.RawMessage
	parseErr := json.Unmarshal([]byte(trimmed), &obj)
	if (parseErr != nil || len(obj) == 0) && looksLikeTruncatedJSON(trimmed) {
		return &Truncation{
			Kind:    TruncationInvalidJSON,
			Message: fmt.Sprintf("Tool input JSON was truncated mid-transmission (%d bytes received)", len(rawInput)),
		}
	}
	if parseErr != nil {
		return nil
	}

	if required, ok := requiredToolFields[toolName]; ok {
		var missing []string
		for _, f := range required {
			if _, present := obj[f]; !present {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			return &Truncation{
				Kind:    TruncationMissingFields,
				Message: fmt.Sprintf("Tool %q missing required fields: %s", toolName, strings.Join(missing, ", ")),
			}
		}
	}

	if writeTools[toolName] {
		if msg := detectContentTruncation(obj, rawInput); msg != "" {
			return &Truncation{Kind: TruncationIncompleteString, Message: msg}
		}
	}
	return nil
}

// looksLikeTruncatedJSON applies cheap structural heuristics: unbalanced
// brackets, a suspicious final byte, or an unclosed string literal.
func looksLikeTruncatedJSON(trimmed string) bool {
	if trimmed == "" || trimmed[0] != '{' {
		return false
	}

	if strings.Count(trimmed, "{") > strings.Count(trimmed, "}") ||
		strings.Count(trimmed, "[") > strings.Count(trimmed, "]") {
		return true
	}

	last := trimmed[len(trimmed)-1]
	if last != '}' && last != ']' && (last == '"' || last == ':' || last == ',') {
		return true
	}

	inString := false
	escaped := false
	for i := 0; i < len(trimmed); i++ {
		b := trimmed[i]
		if escaped {
			escaped = false
			continue
		}
		if b == '\\' {
			escaped = true
			continue
		}
		if b == '"' {
			inString = !inString
		}
	}
	return inString
}

// detectContentTruncation applies write-tool heuristics to the content
// argument: implausibly short content relative to the raw input, or an
// odd number of code fences.
func detectContentTruncation(obj map[string]json.RawMessage, rawInput string) string {
	raw, ok := obj["content"]
	if !ok {
		return ""
	}
	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return ""
	}

	if len(rawInput) > 1000 && len(content) < 100 {
		return "content field appears suspiciously short compared to raw input size"
	}
	if n := strings.Count(content, "```"); n%2 != 0 {
		return "content contains unclosed code fence (```) suggesting truncation"
	}
	return ""
}
