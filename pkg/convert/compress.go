package convert

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode selects the tool-definition compression strategy applied before a
// request leaves the converter.
type Mode string

const (
	// ModeNone forwards tool definitions untouched.
	ModeNone Mode = "none"
	// ModeSchema lossily shrinks oversized tool sets: schemas are
	// simplified first, then descriptions truncated proportionally.
	ModeSchema Mode = "schema"
	// ModeElevate losslessly relocates very long tool descriptions into
	// a documentation section of the system prompt.
	ModeElevate Mode = "elevate"
	// ModeHybrid runs elevate first, then schema on the result.
	ModeHybrid Mode = "hybrid"
)

// ParseMode validates a mode string from configuration or the admin API.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModeSchema, ModeElevate, ModeHybrid:
		return Mode(s), nil
	case "":
		return ModeNone, nil
	default:
		return "", fmt.Errorf("unknown tool compression mode %q (want none, schema, elevate or hybrid)", s)
	}
}

const (
	// compressionTargetSize is the serialized tool-set size that
	// triggers schema-mode compression.
	compressionTargetSize = 20 * 1024
	// minDescriptionLength is the shortest a description is truncated to.
	minDescriptionLength = 50
	// elevateThreshold is the description length above which elevate
	// mode moves the text into the system prompt.
	elevateThreshold = 10000
)

// CompressTools applies the active compression mode to the tool set,
// returning the (possibly extended) system prompt and the transformed
// tools. The input slices are not modified.
func CompressTools(system string, tools []Tool, mode Mode) (string, []Tool, error) {
	if len(tools) == 0 {
		return system, tools, nil
	}
	switch mode {
	case ModeNone, "":
		return system, tools, nil
	case ModeSchema:
		out, err := compressSchemas(tools)
		return system, out, err
	case ModeElevate:
		system, out := elevateDescriptions(system, tools)
		return system, out, nil
	case ModeHybrid:
		system, out := elevateDescriptions(system, tools)
		out, err := compressSchemas(out)
		return system, out, err
	default:
		return "", nil, fmt.Errorf("unknown tool compression mode %q", mode)
	}
}

// compressSchemas shrinks the tool set under compressionTargetSize in two
// steps: strip schemas down to their structural essentials, then truncate
// descriptions proportionally to the remaining overshoot.
func compressSchemas(tools []Tool) ([]Tool, error) {
	size, err := serializedSize(tools)
	if err != nil {
		return nil, err
	}
	if size <= compressionTargetSize {
		return tools, nil
	}

	out := make([]Tool, len(tools))
	copy(out, tools)
	for i := range out {
		simplified, err := simplifySchema(out[i].InputSchema)
		if err != nil {
			return nil, &SchemaError{Field: "tools", Reason: fmt.Sprintf("tool %q has an invalid input schema: %v", out[i].Name, err)}
		}
		out[i].InputSchema = simplified
	}

	size, err = serializedSize(out)
	if err != nil {
		return nil, err
	}
	if size <= compressionTargetSize {
		return out, nil
	}

	totalDescLen := 0
	for _, t := range out {
		totalDescLen += len(t.Description)
	}
	if totalDescLen == 0 {
		return out, nil
	}

	// The ellipsis appended to each truncated description adds bytes
	// back, so it is folded into the reduction budget up front.
	toReduce := size - compressionTargetSize + 3*len(out)
	keepRatio := 1.0 - float64(toReduce)/float64(totalDescLen)
	if keepRatio < 0 {
		keepRatio = 0
	}
	if keepRatio > 1 {
		keepRatio = 1
	}
	for i := range out {
		out[i].Description = truncateDescription(out[i].Description, keepRatio)
	}
	return out, nil
}

// truncateDescription keeps the given ratio of a description, never less
// than minDescriptionLength, cutting on a rune boundary.
func truncateDescription(desc string, keepRatio float64) string {
	keep := int(float64(len(desc)) * keepRatio)
	if keep < minDescriptionLength {
		keep = minDescriptionLength
	}
	if keep >= len(desc) {
		return desc
	}
	for keep > 0 && !utf8.RuneStart(desc[keep]) {
		keep--
	}
	return desc[:keep] + "..."
}

// schemaStructuralKeys are the schema members preserved verbatim.
var schemaStructuralKeys = []string{"type", "enum", "required"}

// simplifySchema strips a JSON Schema down to types, enums and required
// lists, recursing through the standard nesting members. Descriptions,
// examples, defaults and formats are dropped.
func simplifySchema(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(simplifyValue(v))
}

func simplifyValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any)
	for _, k := range schemaStructuralKeys {
		if val, ok := m[k]; ok {
			out[k] = val
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		np := make(map[string]any, len(props))
		for name, p := range props {
			np[name] = simplifyValue(p)
		}
		out["properties"] = np
	}
	for _, k := range []string{"items", "additionalProperties"} {
		if val, ok := m[k]; ok {
			out[k] = simplifyValue(val)
		}
	}
	for _, k := range []string{"anyOf", "oneOf", "allOf"} {
		if arr, ok := m[k].([]any); ok {
			ns := make([]any, len(arr))
			for i, e := range arr {
				ns[i] = simplifyValue(e)
			}
			out[k] = ns
		}
	}
	return out
}

// elevateDescriptions moves descriptions longer than elevateThreshold
// into a documentation section appended to the system prompt, replacing
// each with a pointer. No text is lost.
func elevateDescriptions(system string, tools []Tool) (string, []Tool) {
	out := make([]Tool, len(tools))
	copy(out, tools)

	var docParts []string
	for i := range out {
		if len(out[i].Description) <= elevateThreshold {
			continue
		}
		docParts = append(docParts, fmt.Sprintf("## Tool: %s\n\n%s", out[i].Name, out[i].Description))
		out[i].Description = fmt.Sprintf("[Full documentation in system prompt under '## Tool: %s']", out[i].Name)
	}
	if len(docParts) == 0 {
		return system, out
	}

	section := fmt.Sprintf(
		"\n\n---\n# Tool Documentation\nThe following tools have detailed documentation that couldn't fit in the tool definition.\n\n%s\n",
		strings.Join(docParts, "\n\n---\n\n"),
	)
	return system + section, out
}

func serializedSize(tools []Tool) (int, error) {
	data, err := json.Marshal(tools)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}
