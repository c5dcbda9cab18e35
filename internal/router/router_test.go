package router

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/ptyhost"
	"github.com/agent-tui/agent-tui/internal/session"
)

func spawnSession(t *testing.T, r *Router) string {
	t.Helper()
	s, err := r.sessions.Spawn("/bin/sh", []string{"-c", "sleep 5"}, nil, ptyhost.Size{Cols: 40, Rows: 10})
	require.NoError(t, err)
	return s.ID
}

func TestHandleKillRejectsUnknownSignal(t *testing.T) {
	r := New(session.NewManager(session.Config{}, 4))
	id := spawnSession(t, r)
	defer r.sessions.Kill(id, true)

	params, err := json.Marshal(killParams{ID: id, Signal: "HUP"})
	require.NoError(t, err)

	_, appErr := r.Handle(context.Background(), "session.kill", params)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.CodeBadArgs, appErr.Code)
}

func TestHandleKillDefaultsToGraceful(t *testing.T) {
	r := New(session.NewManager(session.Config{}, 4))
	id := spawnSession(t, r)

	params, err := json.Marshal(killParams{ID: id})
	require.NoError(t, err)

	_, appErr := r.Handle(context.Background(), "session.kill", params)
	require.Nil(t, appErr)
}

func TestHandleKillWithSignalKillIsImmediate(t *testing.T) {
	r := New(session.NewManager(session.Config{}, 4))
	s, err := r.sessions.Spawn("/bin/sh", []string{"-c", "trap '' TERM; sleep 30"}, nil, ptyhost.Size{Cols: 40, Rows: 10})
	require.NoError(t, err)

	params, err := json.Marshal(killParams{ID: s.ID, Signal: "KILL"})
	require.NoError(t, err)

	start := time.Now()
	_, appErr := r.Handle(context.Background(), "session.kill", params)
	require.Nil(t, appErr)
	assert.Less(t, time.Since(start), 2*time.Second)
}
