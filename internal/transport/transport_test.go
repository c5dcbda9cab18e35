package transport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agent-tui/agent-tui/internal/apperr"
)

func startTestServer(t *testing.T, handler Handler) (*Client, context.CancelFunc) {
	t.Helper()

	sock := filepath.Join(t.TempDir(), "agent-tui.sock")
	srv := NewUnixServer(sock, 4, handler)

	ctx, cancel := context.WithCancel(context.Background())
	go srv.ListenAndServe(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(sock); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("socket never appeared at %s", sock)
		}
		time.Sleep(5 * time.Millisecond)
	}

	client, err := Dial(sock, time.Second)
	if err != nil {
		cancel()
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, cancel
}

func TestCallRoundTrip(t *testing.T) {
	client, cancel := startTestServer(t, func(ctx context.Context, method string, params json.RawMessage) (any, *apperr.Error) {
		if method != "echo" {
			return nil, apperr.Protocol("unexpected method " + method)
		}
		var p struct {
			Value string `json:"value"`
		}
		json.Unmarshal(params, &p)
		return map[string]string{"echoed": p.Value}, nil
	})
	defer cancel()

	var out struct {
		Echoed string `json:"echoed"`
	}
	if err := client.Call("echo", map[string]string{"value": "hello"}, &out); err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.Echoed != "hello" {
		t.Errorf("echoed = %q, want hello", out.Echoed)
	}
}

func TestCallSurfacesStructuredError(t *testing.T) {
	client, cancel := startTestServer(t, func(ctx context.Context, method string, params json.RawMessage) (any, *apperr.Error) {
		return nil, apperr.NoSuchSession("deadbeef")
	})
	defer cancel()

	err := client.Call("session.snapshot", map[string]string{"id": "deadbeef"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := err.(*apperr.Error)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if appErr.Code != apperr.CodeNoSuchSession {
		t.Errorf("code = %q, want NoSuchSession", appErr.Code)
	}
	if appErr.Suggestion == "" {
		t.Error("expected a suggestion on NoSuchSession")
	}
}

func TestMultipleRequestsOverOneConnection(t *testing.T) {
	count := 0
	client, cancel := startTestServer(t, func(ctx context.Context, method string, params json.RawMessage) (any, *apperr.Error) {
		count++
		return map[string]int{"n": count}, nil
	})
	defer cancel()

	for i := 1; i <= 3; i++ {
		var out struct {
			N int `json:"n"`
		}
		if err := client.Call("daemon.status", nil, &out); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if out.N != i {
			t.Errorf("call %d: n = %d, want %d", i, out.N, i)
		}
	}
}
