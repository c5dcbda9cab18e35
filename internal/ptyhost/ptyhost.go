// Package ptyhost spawns a target program under a pseudo-terminal and
// bridges bytes and signals between the child and a terminal emulator,
// using creack/pty for the PTY itself, including its ioctl-level
// resize support.
package ptyhost

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/agent-tui/agent-tui/internal/apperr"
)

// Size is a terminal window size in character cells.
type Size struct {
	Cols, Rows int
}

// Host owns one spawned child process and its PTY file descriptor.
type Host struct {
	mu      sync.Mutex
	file    *os.File
	cmd     *exec.Cmd
	exited  chan struct{}
	exitErr error
}

// Spawn starts cmd under a new PTY at the given initial size, with
// TERM=xterm-256color layered onto the caller-supplied environment.
func Spawn(name string, args []string, env []string, size Size) (*Host, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = append(append([]string{}, env...), "TERM=xterm-256color")

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
	})
	if err != nil {
		return nil, apperr.SpawnFailed(err)
	}

	h := &Host{
		file:   f,
		cmd:    cmd,
		exited: make(chan struct{}),
	}
	go h.reapOnExit()
	return h, nil
}

func (h *Host) reapOnExit() {
	err := h.cmd.Wait()
	h.mu.Lock()
	h.exitErr = err
	h.mu.Unlock()
	close(h.exited)
}

// Read streams raw child output. It blocks until data is available,
// the child exits, or the PTY is closed; callers run this on a
// dedicated goroutine per session. The
// caller maps a returned error against WaitExit to tell "child gone"
// from an unexpected I/O failure.
func (h *Host) Read(p []byte) (int, error) {
	return h.file.Read(p)
}

// Write forwards already-encoded bytes to the child atomically — the
// caller is responsible for translating named keys to escape
// sequences before calling Write, so a single logical keystroke is
// never split across two writes.
func (h *Host) Write(p []byte) error {
	_, err := h.file.Write(p)
	return err
}

// Resize propagates a new window size to the child via the PTY ioctl.
// A resize failure is logged by the caller, not fatal.
func (h *Host) Resize(size Size) error {
	return pty.Setsize(h.file, &pty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
	})
}

// Signal delivers an OS signal to the child process itself (not to its
// process group).
func (h *Host) Signal(sig os.Signal) error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Signal(sig)
}

// WaitExit returns a channel that is closed once the child process has
// terminated; ExitErr then reports its wait error.
func (h *Host) WaitExit() <-chan struct{} {
	return h.exited
}

// ExitErr returns the error from the child's Wait call, valid only
// after the channel from WaitExit has been closed.
func (h *Host) ExitErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}

// ExitCode returns the child's exit code, or -1 if it has not exited
// or was killed by a signal.
func (h *Host) ExitCode() int {
	if h.cmd.ProcessState == nil {
		return -1
	}
	return h.cmd.ProcessState.ExitCode()
}

// Kill sends SIGTERM, waits up to grace for the child to exit, and
// escalates to SIGKILL if it hasn't.
func (h *Host) Kill(grace time.Duration) {
	h.Signal(syscall.SIGTERM)
	select {
	case <-h.exited:
		return
	case <-time.After(grace):
	}
	h.Signal(syscall.SIGKILL)
	<-h.exited
}

// KillNow sends SIGKILL directly, skipping the SIGTERM grace period —
// for a caller that already knows graceful shutdown isn't wanted.
func (h *Host) KillNow() {
	h.Signal(syscall.SIGKILL)
	<-h.exited
}

// Close releases the PTY file descriptor.
func (h *Host) Close() error {
	return h.file.Close()
}
