package convert

import "fmt"

// SchemaError indicates a request that is missing or malforms a required
// field. It is never retried.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid request: field %q %s", e.Field, e.Reason)
}

// UnsupportedContentError indicates a content block type with no backend
// mapping. It is never retried.
type UnsupportedContentError struct {
	ContentType string
}

func (e *UnsupportedContentError) Error() string {
	return fmt.Sprintf("unsupported content block type %q", e.ContentType)
}
