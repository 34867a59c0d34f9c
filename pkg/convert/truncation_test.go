package convert

import (
	"strings"
	"testing"
)

func TestDetectTruncation(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		input    string
		wantKind TruncationKind
	}{
		{
			name:     "empty input",
			tool:     "Write",
			input:    "   ",
			wantKind: TruncationEmptyInput,
		},
		{
			name:     "cut mid value",
			tool:     "Write",
			input:    `{"file_path":"/tmp/a","content":"partial te`,
			wantKind: TruncationInvalidJSON,
		},
		{
			name:     "trailing comma",
			tool:     "edit_file",
			input:    `{"path":"/tmp/a",`,
			wantKind: TruncationInvalidJSON,
		},
		{
			name:     "unbalanced braces",
			tool:     "apply_diff",
			input:    `{"path":"/tmp/a","diff":{"hunks":[]}`,
			wantKind: TruncationInvalidJSON,
		},
		{
			name:     "missing required fields",
			tool:     "Write",
			input:    `{"file_path":"/tmp/a"}`,
			wantKind: TruncationMissingFields,
		},
		{
			name:     "bash missing command",
			tool:     "Bash",
			input:    `{"timeout":30}`,
			wantKind: TruncationMissingFields,
		},
		{
			name:     "unclosed code fence",
			tool:     "write_to_file",
			input:    `{"path":"/tmp/a","content":"Here:\n` + "```" + `go\nfunc main() {}"}`,
			wantKind: TruncationIncompleteString,
		},
		{
			name:     "intact write call",
			tool:     "Write",
			input:    `{"file_path":"/tmp/a","content":"short and sweet"}`,
			wantKind: TruncationNone,
		},
		{
			name:     "intact call with balanced fences",
			tool:     "Write",
			input:    `{"file_path":"/tmp/a","content":"` + "```go\\ncode\\n```" + `"}`,
			wantKind: TruncationNone,
		},
		{
			name:     "unknown tool parses fine",
			tool:     "mystery",
			input:    `{"anything":true}`,
			wantKind: TruncationNone,
		},
		{
			name:     "non object input is not flagged",
			tool:     "mystery",
			input:    `"just a string"`,
			wantKind: TruncationNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectTruncation(tt.tool, tt.input)
			if tt.wantKind == TruncationNone {
				if got != nil {
					t.Fatalf("DetectTruncation() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("DetectTruncation() = nil, want a detection")
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Message == "" {
				t.Error("detection carries no message")
			}
		})
	}
}

func TestDetectTruncationShortContentHeuristic(t *testing.T) {
	// A large raw input whose parsed content is tiny suggests the string
	// value lost its tail.
	input := `{"path":"/tmp/a","content":"tiny","filler":"` + strings.Repeat("x", 1200) + `"}`
	got := DetectTruncation("write_to_file", input)
	if got == nil || got.Kind != TruncationIncompleteString {
		t.Fatalf("DetectTruncation() = %+v, want incomplete_string", got)
	}
}
