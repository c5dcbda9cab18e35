package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/ptyhost"
)

func spawnSleeper(t *testing.T, m *Manager) *Session {
	t.Helper()
	s, err := m.Spawn("/bin/sh", []string{"-c", "sleep 5"}, nil, ptyhost.Size{Cols: 40, Rows: 10})
	require.NoError(t, err)
	return s
}

func TestManagerSpawnGetListCount(t *testing.T) {
	m := NewManager(Config{}, 4)
	s := spawnSleeper(t, m)
	defer m.Kill(s.ID, false)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	assert.Equal(t, 1, m.Count())
	assert.Len(t, m.List(), 1)
}

func TestManagerGetMissingIsNoSuchSession(t *testing.T) {
	m := NewManager(Config{}, 4)
	_, err := m.Get("nope")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNoSuchSession, err.(*apperr.Error).Code)
}

func TestManagerEnforcesSessionCap(t *testing.T) {
	m := NewManager(Config{}, 1)
	s := spawnSleeper(t, m)
	defer m.Kill(s.ID, false)

	_, err := m.Spawn("/bin/sh", []string{"-c", "sleep 5"}, nil, ptyhost.Size{Cols: 40, Rows: 10})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTooManySessions, err.(*apperr.Error).Code)
}

func TestManagerKillUnregisters(t *testing.T) {
	m := NewManager(Config{}, 4)
	s := spawnSleeper(t, m)

	require.NoError(t, m.Kill(s.ID, false))
	assert.Equal(t, 0, m.Count())

	_, err := m.Get(s.ID)
	require.Error(t, err)
}

func TestManagerRemoveDropsWithoutSignaling(t *testing.T) {
	m := NewManager(Config{}, 4)
	s := spawnSleeper(t, m)
	defer s.Kill()

	m.Remove(s.ID)
	assert.Equal(t, 0, m.Count())

	status, _ := s.Status()
	assert.Equal(t, StatusRunning, status)
}
