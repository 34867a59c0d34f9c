// Package eventstream implements the vnd.amazon.eventstream binary framing
// used by the backend's streaming responses.
//
// # Frame Layout
//
// Each frame consists of:
//
//	+------------------+------------------+--------------+
//	| total length (4) | headers len (4)  | prelude CRC  |  12-byte prelude
//	+------------------+------------------+--------------+
//	| headers (variable)                                 |
//	+----------------------------------------------------+
//	| payload (variable)                                 |
//	+----------------------------------------------------+
//	| message CRC (4)                                    |
//	+----------------------------------------------------+
//
// All integers are big-endian. The prelude CRC covers the first 8 bytes;
// the message CRC covers everything before it. Headers are triples of
// (1-byte name length, name, 1-byte value type, value); the event type
// travels in the ":event-type" string header.
//
// # Usage
//
// The Decoder is incremental: feed it byte chunks as they arrive from the
// network and drain complete messages after each write.
//
//	dec := eventstream.NewDecoder()
//	for {
//	    n, err := body.Read(buf)
//	    if n > 0 {
//	        msgs, derr := dec.Write(buf[:n])
//	        ...
//	    }
//	    if err == io.EOF {
//	        if err := dec.Close(); err != nil {
//	            // stream ended mid-frame
//	        }
//	        break
//	    }
//	}
//
// Encode builds well-formed frames and exists primarily for tests and
// stub backends.
package eventstream
