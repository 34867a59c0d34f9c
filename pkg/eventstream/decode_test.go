package eventstream

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"testing"
)

func mustEncode(t *testing.T, eventType, messageType string, payload []byte) []byte {
	t.Helper()
	frame, err := Encode(eventType, messageType, payload)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return frame
}

func TestDecoderRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		eventType   string
		messageType string
		payload     string
	}{
		{"assistant event", "assistantResponseEvent", "event", `{"content":"hello"}`},
		{"empty payload", "messageMetadataEvent", "event", ""},
		{"error frame", "throttlingException", "exception", `{"message":"slow down"}`},
		{"unicode payload", "assistantResponseEvent", "event", `{"content":"héllo 世界"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := mustEncode(t, tt.eventType, tt.messageType, []byte(tt.payload))

			dec := NewDecoder()
			msgs, err := dec.Write(frame)
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if len(msgs) != 1 {
				t.Fatalf("Write() yielded %d messages, want 1", len(msgs))
			}
			m := msgs[0]
			if m.EventType != tt.eventType {
				t.Errorf("EventType = %q, want %q", m.EventType, tt.eventType)
			}
			if m.MessageType != tt.messageType {
				t.Errorf("MessageType = %q, want %q", m.MessageType, tt.messageType)
			}
			if string(m.Payload) != tt.payload {
				t.Errorf("Payload = %q, want %q", m.Payload, tt.payload)
			}
			if err := dec.Close(); err != nil {
				t.Errorf("Close() error = %v, want nil", err)
			}
		})
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	frames := [][]byte{
		mustEncode(t, "assistantResponseEvent", "event", []byte(`{"content":"a"}`)),
		mustEncode(t, "toolUseEvent", "event", []byte(`{"toolUseId":"t1","name":"read","input":"{}"}`)),
		mustEncode(t, "messageMetadataEvent", "event", []byte(`{"tokenUsage":{"outputTokens":5}}`)),
	}
	var stream []byte
	for _, f := range frames {
		stream = append(stream, f...)
	}

	dec := NewDecoder()
	var got []*Message
	for i := range stream {
		msgs, err := dec.Write(stream[i : i+1])
		if err != nil {
			t.Fatalf("Write(byte %d) error = %v", i, err)
		}
		got = append(got, msgs...)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("decoded %d messages, want %d", len(got), len(frames))
	}
	wantTypes := []string{"assistantResponseEvent", "toolUseEvent", "messageMetadataEvent"}
	for i, m := range got {
		if m.EventType != wantTypes[i] {
			t.Errorf("message %d EventType = %q, want %q", i, m.EventType, wantTypes[i])
		}
	}
}

func TestDecoderCorruption(t *testing.T) {
	base := mustEncode(t, "assistantResponseEvent", "event", []byte(`{"content":"x"}`))

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{
			name: "flipped payload bit breaks message CRC",
			mutate: func(f []byte) []byte {
				f[len(f)-6] ^= 0x01
				return f
			},
		},
		{
			name: "flipped length bit breaks prelude CRC",
			mutate: func(f []byte) []byte {
				f[3] ^= 0x01
				return f
			},
		},
		{
			name: "flipped CRC byte breaks message CRC",
			mutate: func(f []byte) []byte {
				f[len(f)-1] ^= 0xFF
				return f
			},
		},
		{
			name: "headers length overrunning the frame",
			mutate: func(f []byte) []byte {
				binary.BigEndian.PutUint32(f[4:8], uint32(len(f)))
				binary.BigEndian.PutUint32(f[8:12], crc32.ChecksumIEEE(f[0:8]))
				return f
			},
		},
		{
			name: "declared length below minimum",
			mutate: func(f []byte) []byte {
				binary.BigEndian.PutUint32(f[0:4], 8)
				binary.BigEndian.PutUint32(f[8:12], crc32.ChecksumIEEE(f[0:8]))
				return f
			},
		},
		{
			name: "declared length above maximum",
			mutate: func(f []byte) []byte {
				binary.BigEndian.PutUint32(f[0:4], maxFrameSize+1)
				binary.BigEndian.PutUint32(f[8:12], crc32.ChecksumIEEE(f[0:8]))
				return f
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.mutate(append([]byte(nil), base...))

			dec := NewDecoder()
			_, err := dec.Write(frame)
			var corrupt *FrameCorruptionError
			if !errors.As(err, &corrupt) {
				t.Fatalf("Write() error = %v, want FrameCorruptionError", err)
			}

			// The decoder stays poisoned.
			_, err = dec.Write(base)
			if !errors.As(err, &corrupt) {
				t.Errorf("Write() after corruption error = %v, want FrameCorruptionError", err)
			}
		})
	}
}

func TestDecoderTruncation(t *testing.T) {
	frame := mustEncode(t, "assistantResponseEvent", "event", []byte(`{"content":"hello world"}`))

	// Every possible cut point short of the full frame must end in Truncated.
	for cut := 1; cut < len(frame); cut++ {
		dec := NewDecoder()
		msgs, err := dec.Write(frame[:cut])
		if err != nil {
			t.Fatalf("Write(%d bytes) error = %v", cut, err)
		}
		if len(msgs) != 0 {
			t.Fatalf("Write(%d bytes) yielded %d messages, want 0", cut, len(msgs))
		}
		var trunc *TruncatedError
		if err := dec.Close(); !errors.As(err, &trunc) {
			t.Fatalf("Close() after %d bytes error = %v, want TruncatedError", cut, err)
		}
		if trunc.Have != cut {
			t.Errorf("TruncatedError.Have = %d, want %d", trunc.Have, cut)
		}
	}
}

func TestDecoderCompleteFrameThenPartial(t *testing.T) {
	full := mustEncode(t, "assistantResponseEvent", "event", []byte(`{"content":"a"}`))
	partial := mustEncode(t, "toolUseEvent", "event", []byte(`{"toolUseId":"t"}`))

	dec := NewDecoder()
	msgs, err := dec.Write(append(append([]byte(nil), full...), partial[:10]...))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Write() yielded %d messages, want 1", len(msgs))
	}

	var trunc *TruncatedError
	if err := dec.Close(); !errors.As(err, &trunc) {
		t.Fatalf("Close() error = %v, want TruncatedError", err)
	}
}

func TestParseHeadersSkipsNonStringTypes(t *testing.T) {
	var hdr []byte
	// bool-true header
	hdr = append(hdr, 4)
	hdr = append(hdr, "flag"...)
	hdr = append(hdr, typeBoolTrue)
	// 8-byte timestamp header
	hdr = append(hdr, 5)
	hdr = append(hdr, "stamp"...)
	hdr = append(hdr, typeTimestamp)
	hdr = append(hdr, make([]byte, 8)...)
	// string header
	hdr = append(hdr, byte(len(headerEventType)))
	hdr = append(hdr, headerEventType...)
	hdr = append(hdr, typeString)
	hdr = binary.BigEndian.AppendUint16(hdr, 4)
	hdr = append(hdr, "ping"...)

	headers, err := parseHeaders(hdr)
	if err != nil {
		t.Fatalf("parseHeaders() error = %v", err)
	}
	if got := headers[headerEventType]; got != "ping" {
		t.Errorf("headers[%q] = %q, want %q", headerEventType, got, "ping")
	}
	if _, ok := headers["flag"]; ok {
		t.Error("non-string header should not be collected")
	}
}

func TestMessageIsError(t *testing.T) {
	for _, mt := range []string{"error", "exception"} {
		if !(&Message{MessageType: mt}).IsError() {
			t.Errorf("IsError() = false for message type %q", mt)
		}
	}
	if (&Message{MessageType: "event"}).IsError() {
		t.Error("IsError() = true for message type event")
	}
}
