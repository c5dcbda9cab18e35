package vterm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndSnapshotRendersText(t *testing.T) {
	v := New(20, 5, 100)
	n, err := v.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := v.Snapshot()
	var sb strings.Builder
	for col := 0; col < buf.Cols; col++ {
		sb.WriteRune(buf.At(0, col).Char)
	}
	assert.True(t, strings.HasPrefix(sb.String(), "hello"))
}

func TestWriteAdvancesRevision(t *testing.T) {
	v := New(20, 5, 100)
	before := v.Revision()
	_, err := v.Write([]byte("x"))
	require.NoError(t, err)
	assert.Greater(t, v.Revision(), before)
}

func TestResizeChangesSnapshotDimensions(t *testing.T) {
	v := New(20, 5, 100)
	v.Resize(40, 10)
	buf := v.Snapshot()
	assert.Equal(t, 40, buf.Cols)
	assert.Equal(t, 10, buf.Rows)
}

func TestCursorPositionTracksWrites(t *testing.T) {
	v := New(20, 5, 100)
	_, err := v.Write([]byte("ab"))
	require.NoError(t, err)
	row, col, visible := v.CursorPosition()
	assert.Equal(t, 0, row)
	assert.Equal(t, 2, col)
	assert.True(t, visible)
}

func TestScrollbackLinesReturnsScrolledOffText(t *testing.T) {
	v := New(10, 2, 100)
	for i := 0; i < 5; i++ {
		_, err := v.Write([]byte("line\r\n"))
		require.NoError(t, err)
	}
	lines := v.ScrollbackLines(3)
	assert.LessOrEqual(t, len(lines), 3)
}
