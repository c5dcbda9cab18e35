package waitengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agent-tui/agent-tui/internal/screen"
	"github.com/agent-tui/agent-tui/internal/vom"
)

func TestBufferContainsCaseSensitivity(t *testing.T) {
	buf := screen.NewBuffer(10, 1)
	for i, r := range []rune("Hello") {
		buf.Set(0, i, screen.Cell{Char: r})
	}

	assert.True(t, bufferContains(buf, "Hello", true))
	assert.False(t, bufferContains(buf, "hello", true))
	assert.True(t, bufferContains(buf, "hello", false))
}

func TestBufferContainsScansAllRows(t *testing.T) {
	buf := screen.NewBuffer(10, 3)
	for i, r := range []rune("done") {
		buf.Set(2, i, screen.Cell{Char: r})
	}
	assert.True(t, bufferContains(buf, "done", false))
	assert.False(t, bufferContains(buf, "error", false))
}

func TestScrollbackContainsCaseSensitivity(t *testing.T) {
	lines := []string{"first line", "Build Succeeded", "last line"}
	assert.True(t, scrollbackContains(lines, "Build Succeeded", true))
	assert.False(t, scrollbackContains(lines, "build succeeded", true))
	assert.True(t, scrollbackContains(lines, "build succeeded", false))
	assert.False(t, scrollbackContains(lines, "nope", false))
}

func TestFindComponentByRef(t *testing.T) {
	snap := vom.Snapshot{
		Refs: vom.RefMap{"e1": {Role: vom.RoleButton, Name: "OK"}},
	}
	c, ok := findComponent(snap, Condition{Ref: "e1"})
	assert.True(t, ok)
	assert.Equal(t, "OK", c.Name)

	_, ok = findComponent(snap, Condition{Ref: "e2"})
	assert.False(t, ok)
}

func TestFindComponentByRoleAndName(t *testing.T) {
	snap := vom.Snapshot{
		Components: []vom.Component{
			{Role: vom.RoleButton, Name: "Cancel"},
			{Role: vom.RoleButton, Name: "OK"},
		},
	}
	c, ok := findComponent(snap, Condition{Role: vom.RoleButton, Name: "OK"})
	assert.True(t, ok)
	assert.Equal(t, "OK", c.Name)

	_, ok = findComponent(snap, Condition{Role: vom.RoleInput})
	assert.False(t, ok)
}

func TestDiagnosticFor(t *testing.T) {
	assert.Equal(t, "found: hi", diagnosticFor(true, "hi"))
	assert.Equal(t, "not found: hi", diagnosticFor(false, "hi"))
}

func TestElementDiagnostic(t *testing.T) {
	assert.Equal(t, "matched", elementDiagnostic(true, Condition{Ref: "e1"}))
	assert.Equal(t, "no component for ref e1", elementDiagnostic(false, Condition{Ref: "e1"}))
	assert.Equal(t, "no component matching role/name", elementDiagnostic(false, Condition{Role: vom.RoleButton}))
}
