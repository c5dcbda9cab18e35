package router

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agent-tui/agent-tui/internal/vom"
)

// RenderTree formats a Snapshot in the flat tree text format:
//
//	- <role> "<name>" [ref=eN] [<attr>...]
//
// v1's tree has no nesting, so every line is at indent level 0. Refs
// are assigned in the same raster order Build used, "e1".."eN".
func RenderTree(snap vom.Snapshot) string {
	var b strings.Builder
	for i, c := range snap.Components {
		ref := "e" + strconv.Itoa(i+1)
		fmt.Fprintf(&b, "- %s %q [ref=%s]", c.Role, c.Name, ref)
		for _, attr := range activeAttrs(c.Attributes) {
			b.WriteByte(' ')
			b.WriteString(attr)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func activeAttrs(a vom.Attributes) []string {
	var out []string
	if a.Focused {
		out = append(out, "focused")
	}
	if a.Selected {
		out = append(out, "selected")
	}
	if a.Checked {
		out = append(out, "checked")
	}
	if a.CursorHere {
		out = append(out, "cursor_here")
	}
	sort.Strings(out)
	return out
}
