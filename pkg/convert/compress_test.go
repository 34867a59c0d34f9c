package convert

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

// bulkyTools builds a tool set whose serialized size lands near the
// requested number of bytes, split across long descriptions and verbose
// schemas.
func bulkyTools(t *testing.T, targetBytes int) []Tool {
	t.Helper()
	schema := json.RawMessage(`{
		"type": "object",
		"description": "An elaborate schema description that adds weight",
		"properties": {
			"path": {"type": "string", "description": "The absolute path to operate on, with examples and caveats", "examples": ["/tmp/a"]},
			"mode": {"type": "string", "enum": ["fast", "safe"], "default": "safe", "description": "Execution mode"},
			"nested": {
				"type": "object",
				"properties": {
					"depth": {"type": "integer", "description": "How deep to recurse", "minimum": 0, "maximum": 10}
				},
				"required": ["depth"]
			}
		},
		"required": ["path"]
	}`)

	var tools []Tool
	for i := 0; ; i++ {
		tools = append(tools, Tool{
			Name:        fmt.Sprintf("tool_%d", i),
			Description: strings.Repeat("This tool does many interesting things. ", 30),
			InputSchema: schema,
		})
		size, err := serializedSize(tools)
		if err != nil {
			t.Fatalf("serializedSize() error = %v", err)
		}
		if size >= targetBytes {
			return tools
		}
	}
}

func TestCompressSchemaShrinksUnderTarget(t *testing.T) {
	tools := bulkyTools(t, 25*1024)

	_, out, err := CompressTools("", tools, ModeSchema)
	if err != nil {
		t.Fatalf("CompressTools() error = %v", err)
	}
	size, err := serializedSize(out)
	if err != nil {
		t.Fatalf("serializedSize() error = %v", err)
	}
	if size > compressionTargetSize {
		t.Errorf("compressed size = %d, want <= %d", size, compressionTargetSize)
	}
	if len(out) != len(tools) {
		t.Errorf("tool count changed: %d -> %d", len(tools), len(out))
	}
	// Originals untouched.
	if tools[0].Description == out[0].Description && strings.HasSuffix(out[0].Description, "...") {
		t.Error("input slice was mutated")
	}
}

func TestCompressSchemaNoopUnderTarget(t *testing.T) {
	tools := []Tool{{Name: "small", Description: "tiny", InputSchema: json.RawMessage(`{"type":"object"}`)}}
	_, out, err := CompressTools("", tools, ModeSchema)
	if err != nil {
		t.Fatalf("CompressTools() error = %v", err)
	}
	if out[0].Description != "tiny" {
		t.Errorf("description changed on a small tool set: %q", out[0].Description)
	}
}

func TestSimplifySchema(t *testing.T) {
	in := json.RawMessage(`{
		"type": "object",
		"description": "dropped",
		"default": "dropped",
		"properties": {
			"a": {"type": "string", "description": "dropped", "format": "uri"},
			"b": {"type": "array", "items": {"type": "integer", "examples": [1]}}
		},
		"required": ["a"],
		"anyOf": [{"type": "object", "title": "dropped"}]
	}`)

	out, err := simplifySchema(in)
	if err != nil {
		t.Fatalf("simplifySchema() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, dropped := range []string{"description", "default"} {
		if _, ok := m[dropped]; ok {
			t.Errorf("key %q survived simplification", dropped)
		}
	}
	props := m["properties"].(map[string]any)
	a := props["a"].(map[string]any)
	if _, ok := a["format"]; ok {
		t.Error("nested format survived simplification")
	}
	if a["type"] != "string" {
		t.Errorf("nested type lost: %v", a)
	}
	b := props["b"].(map[string]any)
	items := b["items"].(map[string]any)
	if _, ok := items["examples"]; ok {
		t.Error("items examples survived simplification")
	}
	if _, ok := m["anyOf"]; !ok {
		t.Error("anyOf branch dropped entirely")
	}
}

func TestElevatePreservesEveryCharacter(t *testing.T) {
	longDesc := strings.Repeat("d", 12000)
	tools := []Tool{
		{Name: "documented", Description: longDesc},
		{Name: "short", Description: "stays inline"},
	}
	systemBefore := "Base prompt."

	system, out, err := CompressTools(systemBefore, tools, ModeElevate)
	if err != nil {
		t.Fatalf("CompressTools() error = %v", err)
	}

	if !strings.Contains(system, longDesc) {
		t.Error("elevated description not present in system prompt")
	}
	if !strings.Contains(system, "## Tool: documented") {
		t.Error("documentation heading missing")
	}
	if want := "[Full documentation in system prompt under '## Tool: documented']"; out[0].Description != want {
		t.Errorf("pointer description = %q", out[0].Description)
	}
	if out[1].Description != "stays inline" {
		t.Errorf("short description changed: %q", out[1].Description)
	}

	// Zero net character loss: everything that left the tool shows up in
	// the system prompt.
	lostFromTools := len(longDesc) - len(out[0].Description)
	gainedInSystem := len(system) - len(systemBefore)
	if gainedInSystem < lostFromTools {
		t.Errorf("system grew by %d, tools shrank by %d", gainedInSystem, lostFromTools)
	}
}

func TestElevateNoopBelowThreshold(t *testing.T) {
	tools := []Tool{{Name: "t", Description: strings.Repeat("x", elevateThreshold)}}
	system, out, err := CompressTools("base", tools, ModeElevate)
	if err != nil {
		t.Fatalf("CompressTools() error = %v", err)
	}
	if system != "base" {
		t.Errorf("system changed: %q", system)
	}
	if out[0].Description != tools[0].Description {
		t.Error("description changed below threshold")
	}
}

func TestHybridElevatesThenCompresses(t *testing.T) {
	tools := bulkyTools(t, 25*1024)
	tools = append(tools, Tool{Name: "documented", Description: strings.Repeat("d", 12000)})

	system, out, err := CompressTools("", tools, ModeHybrid)
	if err != nil {
		t.Fatalf("CompressTools() error = %v", err)
	}
	if !strings.Contains(system, "## Tool: documented") {
		t.Error("hybrid mode skipped elevation")
	}
	size, err := serializedSize(out)
	if err != nil {
		t.Fatalf("serializedSize() error = %v", err)
	}
	if size > compressionTargetSize {
		t.Errorf("hybrid compressed size = %d, want <= %d", size, compressionTargetSize)
	}
}

func TestTruncateDescriptionRuneBoundary(t *testing.T) {
	desc := strings.Repeat("héllo wörld ", 20)
	got := truncateDescription(desc, 0.3)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatal("truncation split a multi-byte rune")
		}
	}
}

func TestTruncateDescriptionMinimumLength(t *testing.T) {
	desc := strings.Repeat("a", 200)
	got := truncateDescription(desc, 0)
	if len(got) != minDescriptionLength+3 {
		t.Errorf("len = %d, want %d plus ellipsis", len(got), minDescriptionLength)
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"", "none", "schema", "elevate", "hybrid"} {
		if _, err := ParseMode(valid); err != nil {
			t.Errorf("ParseMode(%q) error = %v", valid, err)
		}
	}
	if _, err := ParseMode("zip"); err == nil {
		t.Error("ParseMode(zip) did not fail")
	}
}
