package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agent-tui/agent-tui/internal/vom"
)

func TestRenderTreeFormatsComponents(t *testing.T) {
	snap := vom.Snapshot{
		Components: []vom.Component{
			{Role: vom.RoleButton, Name: "OK", Attributes: vom.Attributes{Selected: true}},
			{Role: vom.RoleInput, Name: "", Attributes: vom.Attributes{Focused: true, CursorHere: true}},
		},
	}

	out := RenderTree(snap)
	assert.Contains(t, out, `- Button "OK" [ref=e1] selected`)
	assert.Contains(t, out, `- Input "" [ref=e2] cursor_here focused`)
}

func TestActiveAttrsSortedAndEmpty(t *testing.T) {
	assert.Empty(t, activeAttrs(vom.Attributes{}))
	assert.Equal(t, []string{"checked", "focused"}, activeAttrs(vom.Attributes{Focused: true, Checked: true}))
}
