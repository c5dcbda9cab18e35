// Package config loads and hot-reloads the agent-tui daemon's configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Size holds a terminal size. It unmarshals from YAML either as a scalar
// "80x24" string or as an explicit { cols: 80, rows: 24 } mapping.
type Size struct {
	Cols int `yaml:"cols,omitempty"`
	Rows int `yaml:"rows,omitempty"`
}

func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var cols, rows int
		if _, err := fmt.Sscanf(value.Value, "%dx%d", &cols, &rows); err != nil {
			return fmt.Errorf("invalid size %q, want \"COLSxROWS\"", value.Value)
		}
		s.Cols, s.Rows = cols, rows
		return nil
	}
	type plain Size
	return value.Decode((*plain)(s))
}

// Config is the daemon's tunable configuration. Every field has a sane
// default; config.yaml and environment variables only override.
type Config struct {
	SocketPath      string `yaml:"socket_path,omitempty"`
	Transport       string `yaml:"transport,omitempty"` // "unix" | "tcp"
	TCPPort         int    `yaml:"tcp_port,omitempty"`
	DefaultSize     Size   `yaml:"default_size,omitempty"`
	MaxSessions     int    `yaml:"max_sessions,omitempty"`
	RingBufferBytes int    `yaml:"ring_buffer_bytes,omitempty"`
	KillGraceMillis int    `yaml:"kill_grace_ms,omitempty"`
	WaitTickMillis  int    `yaml:"wait_tick_ms,omitempty"`
	Workers         int    `yaml:"workers,omitempty"`
	LogLevel        string `yaml:"log_level,omitempty"`
}

// Defaults returns the daemon's built-in configuration.
func Defaults() Config {
	return Config{
		SocketPath:      DefaultSocketPath(),
		Transport:       "unix",
		TCPPort:         19847,
		DefaultSize:     Size{Cols: 80, Rows: 24},
		MaxSessions:     32,
		RingBufferBytes: 1 << 20, // 1 MiB
		KillGraceMillis: 500,
		WaitTickMillis:  50,
		Workers:         6,
		LogLevel:        "info",
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AGENT_TUI_SOCKET"); v != "" {
		c.SocketPath = v
	}
	if v := os.Getenv("AGENT_TUI_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("AGENT_TUI_TCP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TCPPort = n
		}
	}
}

func load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Manager owns the live Config and reloads it when config.yaml changes,
// using fsnotify to watch the file for hot-reload.
type Manager struct {
	path string
	cur  atomic.Pointer[Config]

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	onChange func(Config)
}

// NewManager loads path once (falling back to Defaults if absent) and
// returns a Manager that can optionally watch it for changes.
func NewManager(path string) (*Manager, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cur.Store(&cfg)
	return m, nil
}

// Get returns the currently active configuration.
func (m *Manager) Get() Config {
	return *m.cur.Load()
}

// Watch starts watching the config file for changes, invoking onChange
// with the newly loaded config on every write. Watch is a no-op if the
// config file does not exist yet (nothing to watch).
func (m *Manager) Watch(onChange func(Config)) error {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	if err := w.Add(m.path); err != nil {
		w.Close()
		return fmt.Errorf("watch config %s: %w", m.path, err)
	}

	m.mu.Lock()
	m.watcher = w
	m.onChange = onChange
	m.mu.Unlock()

	go m.watchLoop(w)
	return nil
}

func (m *Manager) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := load(m.path)
			if err != nil {
				continue
			}
			m.cur.Store(&cfg)
			if m.onChange != nil {
				m.onChange(cfg)
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}
