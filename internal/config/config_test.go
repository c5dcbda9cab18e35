package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsUnlessOverridden(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	cfg := m.Get()
	if cfg.MaxSessions != 32 {
		t.Errorf("MaxSessions = %d, want 32", cfg.MaxSessions)
	}
	if cfg.DefaultSize.Cols != 80 || cfg.DefaultSize.Rows != 24 {
		t.Errorf("DefaultSize = %+v, want 80x24", cfg.DefaultSize)
	}
}

func TestSizeUnmarshalScalar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("default_size: \"120x40\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	got := m.Get().DefaultSize
	if got.Cols != 120 || got.Rows != 40 {
		t.Errorf("DefaultSize = %+v, want 120x40", got)
	}
}

func TestEnvOverridesSocketPath(t *testing.T) {
	t.Setenv("AGENT_TUI_SOCKET", "/tmp/custom.sock")
	dir := t.TempDir()
	m, err := NewManager(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if got := m.Get().SocketPath; got != "/tmp/custom.sock" {
		t.Errorf("SocketPath = %q, want /tmp/custom.sock", got)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("max_sessions: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	changed := make(chan Config, 1)
	if err := m.Watch(func(c Config) { changed <- c }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("max_sessions: 8\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changed:
		if c.MaxSessions != 8 {
			t.Errorf("reloaded MaxSessions = %d, want 8", c.MaxSessions)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
