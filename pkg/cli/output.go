package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormat identifies how command results are rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Formatter renders a command result for display.
type Formatter interface {
	Format(v any) (string, error)
	FormatTo(w io.Writer, v any) error
}

// NewFormatter returns the formatter for the given format name.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatText, "":
		return &TextFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// TextFormatter renders values using their default string representation.
type TextFormatter struct{}

func (f *TextFormatter) Format(v any) (string, error) {
	return fmt.Sprintf("%v", v), nil
}

func (f *TextFormatter) FormatTo(w io.Writer, v any) error {
	_, err := fmt.Fprintf(w, "%v\n", v)
	return err
}

// JSONFormatter renders values as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(data), nil
}

func (f *JSONFormatter) FormatTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
