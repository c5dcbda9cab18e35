// Package transport implements the daemon's local wire protocol:
// length-prefixed JSON messages over a unix-domain socket (TCP
// loopback fallback), one request per message. A Server type owns a
// net.Listener with a context-cancellable ListenAndServe and socket
// cleanup on exit; it uses length-prefixed JSON framing rather than
// HTTP, since a daemon driven entirely by one local CLI has no use for
// HTTP's routing or content negotiation.
package transport

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxMessageBytes bounds a single frame to guard against a malformed
// or hostile length prefix exhausting memory.
const maxMessageBytes = 16 * 1024 * 1024

// Request is one client call: {method, params, id}.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     json.RawMessage `json:"id"`
}

// Response is {id, result|error}.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  *WireError      `json:"error,omitempty"`
}

// WireError is the on-the-wire shape of an apperr.Error.
type WireError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Category   string `json:"category"`
	Retryable  bool   `json:"retryable"`
	Suggestion string `json:"suggestion,omitempty"`
}

// writeFrame writes a 4-byte big-endian length prefix followed by the
// JSON-encoded value.
func writeFrame(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if len(body) > maxMessageBytes {
		return fmt.Errorf("transport: outgoing frame of %d bytes exceeds limit", len(body))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// readFrame reads one length-prefixed frame and unmarshals it into v.
func readFrame(r io.Reader, v any) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxMessageBytes {
		return fmt.Errorf("transport: incoming frame of %d bytes exceeds limit", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
