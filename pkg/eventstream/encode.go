package eventstream

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Encode builds a single well-formed frame carrying a JSON payload under
// the given event type. A non-empty messageType adds a ":message-type"
// header ("event" for content frames, "error"/"exception" for failures).
func Encode(eventType, messageType string, payload []byte) ([]byte, error) {
	var headers []byte
	var err error
	if headers, err = appendStringHeader(headers, headerEventType, eventType); err != nil {
		return nil, err
	}
	if messageType != "" {
		if headers, err = appendStringHeader(headers, headerMessageType, messageType); err != nil {
			return nil, err
		}
	}
	if headers, err = appendStringHeader(headers, headerContentType, "application/json"); err != nil {
		return nil, err
	}

	totalLen := preludeSize + len(headers) + len(payload) + 4
	if totalLen > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds maximum %d", totalLen, maxFrameSize)
	}

	frame := make([]byte, 0, totalLen)
	frame = binary.BigEndian.AppendUint32(frame, uint32(totalLen))
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(headers)))
	frame = binary.BigEndian.AppendUint32(frame, crc32.ChecksumIEEE(frame))
	frame = append(frame, headers...)
	frame = append(frame, payload...)
	frame = binary.BigEndian.AppendUint32(frame, crc32.ChecksumIEEE(frame))
	return frame, nil
}

func appendStringHeader(b []byte, name, value string) ([]byte, error) {
	if len(name) > 255 {
		return nil, fmt.Errorf("header name %q exceeds 255 bytes", name)
	}
	if len(value) > 65535 {
		return nil, fmt.Errorf("header %q value exceeds 65535 bytes", name)
	}
	b = append(b, byte(len(name)))
	b = append(b, name...)
	b = append(b, typeString)
	b = binary.BigEndian.AppendUint16(b, uint16(len(value)))
	b = append(b, value...)
	return b, nil
}
