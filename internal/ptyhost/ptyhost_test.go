package ptyhost

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnReadCapturesChildOutput(t *testing.T) {
	h, err := Spawn("/bin/sh", []string{"-c", "printf 'hi there'"}, nil, Size{Cols: 40, Rows: 10})
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 4096)
	var got strings.Builder
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(got.String(), "hi there") {
		n, err := h.Read(buf)
		if n > 0 {
			got.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	assert.Contains(t, got.String(), "hi there")
}

func TestSpawnWriteEchoesThroughCat(t *testing.T) {
	h, err := Spawn("/bin/cat", nil, nil, Size{Cols: 40, Rows: 10})
	require.NoError(t, err)
	defer func() {
		h.Kill(100 * time.Millisecond)
		h.Close()
	}()

	require.NoError(t, h.Write([]byte("ping\n")))

	buf := make([]byte, 4096)
	var got strings.Builder
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(got.String(), "ping") {
		n, err := h.Read(buf)
		if n > 0 {
			got.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	assert.Contains(t, got.String(), "ping")
}

func TestResizeSucceeds(t *testing.T) {
	h, err := Spawn("/bin/sh", []string{"-c", "sleep 2"}, nil, Size{Cols: 40, Rows: 10})
	require.NoError(t, err)
	defer h.Kill(100 * time.Millisecond)

	assert.NoError(t, h.Resize(Size{Cols: 80, Rows: 24}))
}

func TestKillEscalatesAndWaitExitCloses(t *testing.T) {
	h, err := Spawn("/bin/sh", []string{"-c", "trap '' TERM; sleep 30"}, nil, Size{Cols: 40, Rows: 10})
	require.NoError(t, err)

	start := time.Now()
	h.Kill(200 * time.Millisecond)
	elapsed := time.Since(start)

	select {
	case <-h.WaitExit():
	default:
		t.Fatal("expected child to have exited after Kill")
	}
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	h.Close()
}

func TestExitCodeAfterCleanExit(t *testing.T) {
	h, err := Spawn("/bin/sh", []string{"-c", "exit 0"}, nil, Size{Cols: 40, Rows: 10})
	require.NoError(t, err)
	defer h.Close()

	<-h.WaitExit()
	assert.Equal(t, 0, h.ExitCode())
}
