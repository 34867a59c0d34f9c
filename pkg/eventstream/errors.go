package eventstream

import "fmt"

// FrameCorruptionError indicates that a frame failed structural or CRC
// validation. The stream cannot be resynchronized after corruption, so
// this error is terminal for the enclosing stream.
type FrameCorruptionError struct {
	Reason string
	Offset int64
}

func (e *FrameCorruptionError) Error() string {
	return fmt.Sprintf("event stream corrupted at offset %d: %s", e.Offset, e.Reason)
}

// TruncatedError indicates that the stream ended partway through a frame.
// It is only produced by Decoder.Close; mid-stream a partial frame simply
// waits for more bytes.
type TruncatedError struct {
	// Have is the number of buffered bytes belonging to the incomplete frame.
	Have int
	// Want is the number of bytes the frame declared, or 0 when the stream
	// ended before a full prelude arrived.
	Want int
}

func (e *TruncatedError) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("event stream truncated: %d bytes of incomplete prelude", e.Have)
	}
	return fmt.Sprintf("event stream truncated: have %d of %d frame bytes", e.Have, e.Want)
}

// PayloadDecodeError indicates that a structurally valid frame carried a
// payload that could not be decoded as the expected JSON document.
type PayloadDecodeError struct {
	EventType string
	Err       error
}

func (e *PayloadDecodeError) Error() string {
	return fmt.Sprintf("failed to decode %q payload: %v", e.EventType, e.Err)
}

func (e *PayloadDecodeError) Unwrap() error {
	return e.Err
}
