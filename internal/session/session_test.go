package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/ptyhost"
	"github.com/agent-tui/agent-tui/internal/vom"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestSpawnAndSnapshotCapturesOutput(t *testing.T) {
	s, err := Spawn("/bin/sh", []string{"-c", "printf 'hello world'"}, nil, ptyhost.Size{Cols: 40, Rows: 10}, Config{})
	require.NoError(t, err)
	defer s.Kill()

	waitFor(t, 2*time.Second, func() bool {
		buf := s.ScreenBuffer()
		var sb strings.Builder
		for col := 0; col < buf.Cols; col++ {
			sb.WriteRune(buf.At(0, col).Char)
		}
		return strings.Contains(sb.String(), "hello world")
	})

	waitFor(t, 2*time.Second, func() bool {
		status, _ := s.Status()
		return status == StatusExited
	})
}

func TestResizePropagatesSize(t *testing.T) {
	s, err := Spawn("/bin/sh", []string{"-c", "sleep 2"}, nil, ptyhost.Size{Cols: 40, Rows: 10}, Config{})
	require.NoError(t, err)
	defer s.Kill()

	require.NoError(t, s.Resize(ptyhost.Size{Cols: 80, Rows: 24}))
	assert.Equal(t, ptyhost.Size{Cols: 80, Rows: 24}, s.Size())
}

func TestKillTransitionsStatusAndClosesDone(t *testing.T) {
	s, err := Spawn("/bin/sh", []string{"-c", "sleep 30"}, nil, ptyhost.Size{Cols: 40, Rows: 10}, Config{})
	require.NoError(t, err)

	s.Kill()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not close Done() after Kill")
	}
	status, _ := s.Status()
	assert.Equal(t, StatusKilled, status)

	// Killing twice is a no-op, not a panic.
	s.Kill()
}

func TestResolveRefMissingIsInvalidRef(t *testing.T) {
	s := &Session{}
	_, err := s.ResolveRef("e1")
	require.Error(t, err)
	appErr, ok := err.(*apperr.Error)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidRef, appErr.Code)
}

func TestFillRejectsWrongRoleAndUnfocused(t *testing.T) {
	s := &Session{lastRefs: vom.RefMap{
		"e1": {Role: vom.RoleButton, Name: "OK"},
		"e2": {Role: vom.RoleInput, Name: "", Attributes: vom.Attributes{Focused: false}},
	}}

	err := s.Fill("e1", "text")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeElementNotInteractable, err.(*apperr.Error).Code)

	err = s.Fill("e2", "text")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeElementNotInteractable, err.(*apperr.Error).Code)

	err = s.Fill("missing", "text")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidRef, err.(*apperr.Error).Code)
}

func TestClickRejectsNonInteractiveRole(t *testing.T) {
	s := &Session{lastRefs: vom.RefMap{
		"e1": {Role: vom.RoleStaticText, Name: "just a label"},
	}}

	err := s.Click("e1")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeElementNotInteractable, err.(*apperr.Error).Code)
}
