// Package session owns the per-session (PTY, terminal emulator, VOM)
// tuple and its lifecycle: one child process per Session, with a
// Manager generalizing that to a daemon that hosts many sessions
// behind one registry.
package session

import (
	"encoding/hex"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/logger"
	"github.com/agent-tui/agent-tui/internal/ptyhost"
	"github.com/agent-tui/agent-tui/internal/screen"
	"github.com/agent-tui/agent-tui/internal/vom"
	"github.com/agent-tui/agent-tui/internal/vterm"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusRunning Status = "Running"
	StatusExited  Status = "Exited"
	StatusKilled  Status = "Killed"
)

// Size is the session's current terminal dimensions.
type Size = ptyhost.Size

// Session owns exclusive write access to one PTY-backed terminal.
// Router-issued input, resize and snapshot requests are serialized
// through opMu (Lock/Unlock); mu guards only status, exit code and the
// last RefMap. Snapshot clones the ScreenBuffer through the emulator's
// own lock and runs the VOM pipeline outside any session lock.
type Session struct {
	ID        string
	Cmd       string
	Args      []string
	CreatedAt time.Time

	host *ptyhost.Host
	term *vterm.VTerm
	size atomic.Value // Size

	// opMu serializes input, fill, click, resize and snapshot requests
	// on this session; the router acquires it for the duration of those
	// requests. Kill (via Manager.Kill) does not acquire it.
	opMu sync.Mutex

	mu        sync.Mutex
	status    Status
	exitCode  int
	lastRefs  vom.RefMap
	killGrace time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// Config carries the per-session parameters a Manager threads through
// from the daemon's configuration.
type Config struct {
	RingBufferBytes int
	KillGraceMillis int
}

// Spawn starts cmd under a PTY, wires up the emulator, and returns a
// running Session. The returned Session's background PTY reader
// starts immediately.
func Spawn(cmd string, args []string, env []string, size Size, cfg Config) (*Session, error) {
	host, err := ptyhost.Spawn(cmd, args, env, size)
	if err != nil {
		return nil, err
	}

	scrollbackLines := cfg.RingBufferBytes / 64
	if scrollbackLines <= 0 {
		scrollbackLines = 16384
	}
	term := vterm.New(size.Cols, size.Rows, scrollbackLines)

	grace := time.Duration(cfg.KillGraceMillis) * time.Millisecond
	if grace <= 0 {
		grace = 500 * time.Millisecond
	}

	s := &Session{
		ID:        newSessionID(),
		Cmd:       cmd,
		Args:      args,
		CreatedAt: time.Now(),
		host:      host,
		term:      term,
		status:    StatusRunning,
		killGrace: grace,
		done:      make(chan struct{}),
	}
	s.size.Store(size)

	go s.readLoop()
	go s.watchExit()
	return s, nil
}

func newSessionID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}

func (s *Session) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := s.host.Read(buf)
		if n > 0 {
			s.term.Write(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				logger.WithSession(s.ID).Debug("session pty read ended", "err", err)
			}
			return
		}
	}
}

func (s *Session) watchExit() {
	<-s.host.WaitExit()
	s.mu.Lock()
	if s.status == StatusRunning {
		s.status = StatusExited
	}
	s.exitCode = s.host.ExitCode()
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.done) })
}

// Done returns a channel closed when the child has exited (by itself
// or by Kill).
func (s *Session) Done() <-chan struct{} { return s.done }

// Lock and Unlock serialize session-scoped requests; the router holds
// this for the duration of input/fill/click/snapshot/resize handling so
// two clients can never interleave writes to the same child. Kill
// requests do not take it.
func (s *Session) Lock()   { s.opMu.Lock() }
func (s *Session) Unlock() { s.opMu.Unlock() }

// Status returns the session's current lifecycle status and, if
// exited, its exit code.
func (s *Session) Status() (Status, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.exitCode
}

// Revision returns the emulator's monotonic revision counter, used by
// the wait engine to detect change cheaply without locking the
// session.
func (s *Session) Revision() uint64 {
	return s.term.Revision()
}

// Snapshot clones the current ScreenBuffer and runs the VOM pipeline
// over the clone, never holding the session lock during VOM work.
func (s *Session) Snapshot(interactiveOnly bool) vom.Snapshot {
	buf := s.term.Snapshot()
	snap := vom.Build(buf, interactiveOnly)

	s.mu.Lock()
	s.lastRefs = snap.Refs
	s.mu.Unlock()
	return snap
}

// ScreenBuffer exposes the raw buffer clone for wait-condition
// evaluation that needs row text rather than classified components.
func (s *Session) ScreenBuffer() *screen.Buffer {
	return s.term.Snapshot()
}

// ScrollbackLines returns up to n of the most recently scrolled-off
// lines, oldest first, for wait conditions matching text that has
// already left the live ScreenBuffer.
func (s *Session) ScrollbackLines(n int) []string {
	return s.term.ScrollbackLines(n)
}

// Resize propagates a new size to both the PTY and the emulator.
func (s *Session) Resize(size Size) error {
	if err := s.host.Resize(size); err != nil {
		logger.WithSession(s.ID).Warn("session resize ioctl failed", "err", err)
	}
	s.term.Resize(size.Cols, size.Rows)
	s.size.Store(size)
	return nil
}

// Size returns the session's current terminal dimensions.
func (s *Session) Size() Size {
	return s.size.Load().(Size)
}

// Kill terminates the child: SIGTERM, then SIGKILL after the
// configured grace period.
func (s *Session) Kill() {
	if !s.markKilled() {
		return
	}
	s.host.Kill(s.killGrace)
	s.host.Close()
	s.term.Close()
}

// KillNow sends SIGKILL immediately, for a caller that explicitly
// requested the non-graceful signal rather than the default
// TERM-then-KILL escalation.
func (s *Session) KillNow() {
	if !s.markKilled() {
		return
	}
	s.host.KillNow()
	s.host.Close()
	s.term.Close()
}

func (s *Session) markKilled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return false
	}
	s.status = StatusKilled
	return true
}

// LastRefMap returns the RefMap from the most recently issued
// snapshot, used to validate refs passed to fill/click.
func (s *Session) LastRefMap() vom.RefMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefs
}

// ResolveRef looks up ref in the last issued snapshot, returning
// InvalidRef if it is absent.
func (s *Session) ResolveRef(ref string) (vom.Component, error) {
	refs := s.LastRefMap()
	c, ok := refs[ref]
	if !ok {
		return vom.Component{}, apperr.InvalidRef(ref)
	}
	return c, nil
}
