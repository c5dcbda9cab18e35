// Package vom implements the Visual Object Model pipeline:
// segmentation, connected-component merge, and classification of a
// ScreenBuffer into a flat, raster-ordered list of Components.
package vom

import (
	"hash/fnv"

	"github.com/agent-tui/agent-tui/internal/screen"
)

// Bounds is a Component's bounding rectangle in cell coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Attributes are the small set of boolean flags a Component carries.
type Attributes struct {
	Focused    bool `json:"focused,omitempty"`
	Selected   bool `json:"selected,omitempty"`
	Checked    bool `json:"checked,omitempty"`
	CursorHere bool `json:"cursor_here,omitempty"`
}

// Component is a classified UI element.
type Component struct {
	Role       Role       `json:"role"`
	Name       string     `json:"name,omitempty"`
	Bounds     Bounds     `json:"bounds"`
	VisualHash uint64     `json:"visual_hash"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// RefMap assigns sequential "eN" refs to components in raster order,
// valid only for the snapshot that produced it.
type RefMap map[string]Component

// Stats summarizes a snapshot.
type Stats struct {
	Total       int `json:"total"`
	Interactive int `json:"interactive"`
	Cols        int `json:"cols"`
	Rows        int `json:"rows"`
}

// Snapshot is the full VOM output for one ScreenBuffer.
type Snapshot struct {
	Components []Component
	Refs       RefMap
	Stats      Stats
}

// Build runs the three-stage pipeline over buf and returns the flat,
// raster-ordered component list plus its RefMap and Stats.
func Build(buf *screen.Buffer, interactiveOnly bool) Snapshot {
	rowRuns := segmentRows(buf)
	clusters := mergeClusters(rowRuns)

	ctx := classifyCtx{
		buf:           buf,
		cursorRow:     buf.CursorRow,
		cursorCol:     buf.CursorCol,
		cursorVisible: !buf.CursorHidden,
	}

	components := make([]Component, 0, len(clusters))
	for _, cl := range clusters {
		role, name, attrs := classify(ctx, cl)
		if role == RoleUnknown {
			continue
		}
		if interactiveOnly && !Interactive[role] {
			continue
		}
		bounds := Bounds{X: cl.X, Y: cl.Y, Width: cl.Width, Height: cl.Height}
		c := Component{
			Role:       role,
			Name:       name,
			Bounds:     bounds,
			Attributes: attrs,
		}
		c.VisualHash = visualHash(c, cl.Style)
		components = append(components, c)
	}

	refs := make(RefMap, len(components))
	interactive := 0
	for i, c := range components {
		refs[refName(i+1)] = c
		if Interactive[c.Role] {
			interactive++
		}
	}

	return Snapshot{
		Components: components,
		Refs:       refs,
		Stats: Stats{
			Total:       len(components),
			Interactive: interactive,
			Cols:        buf.Cols,
			Rows:        buf.Rows,
		},
	}
}

func refName(n int) string {
	// "e1", "e2", ... — contiguous starting at e1.
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return "e" + string(digits)
}

// visualHash is stable over (role, normalized_name, width, height,
// style_digest) and deliberately excludes absolute position, so the
// same widget rendered at a different screen position but the same
// size hashes identically, while resizing it changes the hash.
func visualHash(c Component, style screen.CellStyle) uint64 {
	h := fnv.New64a()
	h.Write([]byte(c.Role))
	h.Write([]byte{0})
	h.Write([]byte(c.Name))
	h.Write([]byte{0})
	writeInt(h, c.Bounds.Width)
	writeInt(h, c.Bounds.Height)
	writeStyleDigest(h, style)
	return h.Sum64()
}

// writeStyleDigest folds a cluster's style into the hash so two
// same-size, same-name components that differ only in color or
// typeface attributes never collide.
func writeStyleDigest(h interface{ Write([]byte) (int, error) }, style screen.CellStyle) {
	writeInt(h, int(style.FG))
	writeInt(h, int(style.BG))
	writeInt(h, boolInt(style.Bold))
	writeInt(h, boolInt(style.Italic))
	writeInt(h, boolInt(style.Underline))
	writeInt(h, boolInt(style.Inverse))
	writeInt(h, boolInt(style.Blink))
}

func writeInt(h interface{ Write([]byte) (int, error) }, n int) {
	h.Write([]byte{
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
