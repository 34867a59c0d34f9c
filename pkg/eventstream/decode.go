package eventstream

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	preludeSize = 12
	// minFrameSize is a prelude plus a message CRC with no headers or payload.
	minFrameSize = 16
	// maxFrameSize bounds a single frame; anything larger is treated as
	// corruption rather than buffered indefinitely.
	maxFrameSize = 10 * 1024 * 1024
)

// Decoder incrementally parses event stream frames from arbitrary byte
// chunks. It is not safe for concurrent use.
type Decoder struct {
	buf    []byte
	offset int64
	failed bool
}

// NewDecoder returns a Decoder ready to accept bytes.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Write appends a chunk of stream bytes and returns every message that
// became complete. A validation failure poisons the decoder: subsequent
// writes return the same corruption error.
func (d *Decoder) Write(p []byte) ([]*Message, error) {
	if d.failed {
		return nil, &FrameCorruptionError{Reason: "decoder poisoned by earlier corruption", Offset: d.offset}
	}
	d.buf = append(d.buf, p...)

	var msgs []*Message
	for {
		msg, consumed, err := d.next()
		if err != nil {
			d.failed = true
			return msgs, err
		}
		if msg == nil {
			return msgs, nil
		}
		d.buf = d.buf[consumed:]
		d.offset += int64(consumed)
		msgs = append(msgs, msg)
	}
}

// Close signals end of input. A non-empty buffer means the stream stopped
// mid-frame and yields a TruncatedError.
func (d *Decoder) Close() error {
	if d.failed {
		return &FrameCorruptionError{Reason: "decoder poisoned by earlier corruption", Offset: d.offset}
	}
	if len(d.buf) == 0 {
		return nil
	}
	want := 0
	if len(d.buf) >= 4 {
		want = int(binary.BigEndian.Uint32(d.buf[:4]))
	}
	return &TruncatedError{Have: len(d.buf), Want: want}
}

// next attempts to parse one complete frame from the front of the buffer.
// It returns (nil, 0, nil) when more bytes are needed.
func (d *Decoder) next() (*Message, int, error) {
	if len(d.buf) < preludeSize {
		return nil, 0, nil
	}

	totalLen := int(binary.BigEndian.Uint32(d.buf[0:4]))
	headersLen := int(binary.BigEndian.Uint32(d.buf[4:8]))
	preludeCRC := binary.BigEndian.Uint32(d.buf[8:12])

	if got := crc32.ChecksumIEEE(d.buf[0:8]); got != preludeCRC {
		return nil, 0, &FrameCorruptionError{
			Reason: fmt.Sprintf("prelude CRC mismatch: got %08x want %08x", got, preludeCRC),
			Offset: d.offset,
		}
	}
	if totalLen < minFrameSize {
		return nil, 0, &FrameCorruptionError{
			Reason: fmt.Sprintf("declared frame length %d below minimum %d", totalLen, minFrameSize),
			Offset: d.offset,
		}
	}
	if totalLen > maxFrameSize {
		return nil, 0, &FrameCorruptionError{
			Reason: fmt.Sprintf("declared frame length %d exceeds maximum %d", totalLen, maxFrameSize),
			Offset: d.offset,
		}
	}
	if headersLen > totalLen-minFrameSize {
		return nil, 0, &FrameCorruptionError{
			Reason: fmt.Sprintf("headers length %d does not fit in frame of %d bytes", headersLen, totalLen),
			Offset: d.offset,
		}
	}
	if len(d.buf) < totalLen {
		return nil, 0, nil
	}

	frame := d.buf[:totalLen]
	wantCRC := binary.BigEndian.Uint32(frame[totalLen-4:])
	if got := crc32.ChecksumIEEE(frame[:totalLen-4]); got != wantCRC {
		return nil, 0, &FrameCorruptionError{
			Reason: fmt.Sprintf("message CRC mismatch: got %08x want %08x", got, wantCRC),
			Offset: d.offset,
		}
	}

	headers, err := parseHeaders(frame[preludeSize : preludeSize+headersLen])
	if err != nil {
		return nil, 0, &FrameCorruptionError{Reason: err.Error(), Offset: d.offset}
	}

	payload := frame[preludeSize+headersLen : totalLen-4]
	msg := &Message{
		EventType:   headers[headerEventType],
		MessageType: headers[headerMessageType],
		Headers:     headers,
		Payload:     append([]byte(nil), payload...),
	}
	if msg.EventType == "" && headers[headerErrorCode] != "" {
		msg.EventType = headers[headerErrorCode]
	}
	return msg, totalLen, nil
}

// parseHeaders walks the header block collecting string-typed headers.
// Non-string values are skipped by their declared size.
func parseHeaders(b []byte) (map[string]string, error) {
	headers := make(map[string]string)
	for len(b) > 0 {
		nameLen := int(b[0])
		b = b[1:]
		if len(b) < nameLen+1 {
			return nil, fmt.Errorf("header name overruns header block")
		}
		name := string(b[:nameLen])
		valueType := b[nameLen]
		b = b[nameLen+1:]

		switch valueType {
		case typeBoolTrue, typeBoolFalse:
			// no value bytes
		case typeByte:
			if len(b) < 1 {
				return nil, fmt.Errorf("header %q value overruns header block", name)
			}
			b = b[1:]
		case typeShort:
			if len(b) < 2 {
				return nil, fmt.Errorf("header %q value overruns header block", name)
			}
			b = b[2:]
		case typeInteger:
			if len(b) < 4 {
				return nil, fmt.Errorf("header %q value overruns header block", name)
			}
			b = b[4:]
		case typeLong, typeTimestamp:
			if len(b) < 8 {
				return nil, fmt.Errorf("header %q value overruns header block", name)
			}
			b = b[8:]
		case typeByteArray, typeString:
			if len(b) < 2 {
				return nil, fmt.Errorf("header %q length overruns header block", name)
			}
			valueLen := int(binary.BigEndian.Uint16(b[:2]))
			b = b[2:]
			if len(b) < valueLen {
				return nil, fmt.Errorf("header %q value overruns header block", name)
			}
			if valueType == typeString {
				headers[name] = string(b[:valueLen])
			}
			b = b[valueLen:]
		case typeUUID:
			if len(b) < 16 {
				return nil, fmt.Errorf("header %q value overruns header block", name)
			}
			b = b[16:]
		default:
			return nil, fmt.Errorf("header %q has unknown value type %d", name, valueType)
		}
	}
	return headers, nil
}
