package ptyhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-tui/agent-tui/internal/apperr"
)

func TestEncodeKeyNamed(t *testing.T) {
	b, err := EncodeKey("Enter")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0D}, b)

	b, err = EncodeKey("Up")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x1b[A"), b)
}

func TestEncodeKeyControl(t *testing.T) {
	b, err := EncodeKey("Ctrl+C")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03}, b)

	b, err = EncodeKey("Ctrl+a")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, b)
}

func TestEncodeKeyUnknown(t *testing.T) {
	_, err := EncodeKey("Nonsense")
	require.Error(t, err)
	appErr, ok := err.(*apperr.Error)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeBadArgs, appErr.Code)
}
