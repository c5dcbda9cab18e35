package transport

import (
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/agent-tui/agent-tui/internal/apperr"
)

// Client is a single-connection client for the daemon's JSON
// transport, used by the CLI subcommands.
type Client struct {
	conn    net.Conn
	nextID  atomic.Uint64
}

// Dial connects to a unix-domain socket at socketPath.
func Dial(socketPath string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s: %w", socketPath, err)
	}
	return &Client{conn: conn}, nil
}

// DialTCP connects over TCP loopback, the fallback transport.
func DialTCP(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Call sends method/params and decodes the result into out (which may
// be nil if the caller doesn't need the payload). Returns the
// server's structured error, if any, as an *apperr.Error.
func (c *Client) Call(method string, params any, out any) error {
	id := c.nextID.Add(1)
	idJSON, _ := json.Marshal(id)

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return err
	}

	req := Request{Method: method, Params: paramsJSON, ID: idJSON}
	if err := writeFrame(c.conn, req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := readFrame(c.conn, &resp); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.Error != nil {
		return &apperr.Error{
			Code:       apperr.Code(resp.Error.Code),
			Message:    resp.Error.Message,
			Category:   apperr.Category(resp.Error.Category),
			Retryable:  resp.Error.Retryable,
			Suggestion: resp.Error.Suggestion,
		}
	}
	if out == nil || resp.Result == nil {
		return nil
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
