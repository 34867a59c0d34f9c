package eventstream

// Header value types as defined by the wire format. Only string headers
// carry information Portico cares about; the rest are skipped by size.
const (
	typeBoolTrue  = 0
	typeBoolFalse = 1
	typeByte      = 2
	typeShort     = 3
	typeInteger   = 4
	typeLong      = 5
	typeByteArray = 6
	typeString    = 7
	typeTimestamp = 8
	typeUUID      = 9
)

// Well-known header names.
const (
	headerEventType   = ":event-type"
	headerMessageType = ":message-type"
	headerContentType = ":content-type"
	headerErrorCode   = ":error-code"
)

// Message is a single decoded frame.
type Message struct {
	// EventType is the value of the ":event-type" header, or the
	// ":error-code" header for error-typed messages. Empty when neither
	// header is present.
	EventType string

	// MessageType is the value of the ":message-type" header
	// ("event", "error" or "exception"). Empty when absent.
	MessageType string

	// Headers holds every string-typed header on the frame.
	Headers map[string]string

	// Payload is the raw frame payload, normally a JSON document.
	Payload []byte
}

// IsError reports whether the frame announces an error condition rather
// than a content event.
func (m *Message) IsError() bool {
	return m.MessageType == "error" || m.MessageType == "exception"
}
