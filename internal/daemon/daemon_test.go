package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-tui/agent-tui/internal/ptyhost"
	"github.com/agent-tui/agent-tui/internal/session"
)

func TestKillAllKillsEveryRegisteredSession(t *testing.T) {
	m := session.NewManager(session.Config{}, 4)
	s, err := m.Spawn("/bin/sh", []string{"-c", "sleep 5"}, nil, ptyhost.Size{Cols: 40, Rows: 10})
	require.NoError(t, err)

	killAll(m)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session was not killed by killAll")
	}
	status, _ := s.Status()
	assert.Equal(t, session.StatusKilled, status)
}
