package session

import (
	"sync"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/logger"
)

// Manager is the daemon-global session registry. Its lock protects
// only insert/remove/lookup — never held while performing I/O or
// calling into a Session, so the lock order is always registry then
// session, never the reverse.
type Manager struct {
	cfg Config
	cap int

	regMu    sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a registry with the given per-session defaults
// and a cap on concurrently live sessions.
func NewManager(cfg Config, maxSessions int) *Manager {
	return &Manager{
		cfg:      cfg,
		cap:      maxSessions,
		sessions: make(map[string]*Session),
	}
}

// Spawn creates a new session and registers it, rejecting the request
// with TooManySessions once the cap is reached.
func (m *Manager) Spawn(cmd string, args []string, env []string, size Size) (*Session, error) {
	m.regMu.Lock()
	if len(m.sessions) >= m.cap {
		m.regMu.Unlock()
		return nil, apperr.TooManySessions(m.cap)
	}
	m.regMu.Unlock()

	s, err := Spawn(cmd, args, env, size, m.cfg)
	if err != nil {
		return nil, err
	}

	m.regMu.Lock()
	m.sessions[s.ID] = s
	m.regMu.Unlock()

	go m.reapOnExit(s)
	return s, nil
}

func (m *Manager) reapOnExit(s *Session) {
	<-s.Done()
	status, code := s.Status()
	logger.WithSession(s.ID).Info("session ended", "status", status, "exit_code", code, "rev", s.Revision())
}

// Get looks up a session by id, returning NoSuchSession if absent.
func (m *Manager) Get(id string) (*Session, error) {
	m.regMu.RLock()
	s, ok := m.sessions[id]
	m.regMu.RUnlock()
	if !ok {
		return nil, apperr.NoSuchSession(id)
	}
	return s, nil
}

// List returns all currently registered sessions, including ones
// whose child has already exited but has not been explicitly removed.
func (m *Manager) List() []*Session {
	m.regMu.RLock()
	defer m.regMu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Kill kills and unregisters a session. force skips the graceful
// SIGTERM-then-wait step and sends SIGKILL immediately.
func (m *Manager) Kill(id string, force bool) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if force {
		s.KillNow()
	} else {
		s.Kill()
	}

	m.regMu.Lock()
	delete(m.sessions, id)
	m.regMu.Unlock()
	return nil
}

// Remove drops a session from the registry without sending it a
// signal, whether or not its child is still running.
func (m *Manager) Remove(id string) {
	m.regMu.Lock()
	delete(m.sessions, id)
	m.regMu.Unlock()
}

// Count returns the number of currently registered sessions.
func (m *Manager) Count() int {
	m.regMu.RLock()
	defer m.regMu.RUnlock()
	return len(m.sessions)
}
