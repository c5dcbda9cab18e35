// Package vterm wraps a headless VT220-compatible terminal emulator
// (github.com/danielgatis/go-headless-term) to implement the Terminal
// Emulator layer: byte-stream parsing into a styled cell grid,
// cursor tracking, and a monotonic revision counter higher layers use to
// detect change cheaply.
package vterm

import (
	"strconv"
	"sync"
	"sync/atomic"

	ht "github.com/danielgatis/go-headless-term"

	"github.com/agent-tui/agent-tui/internal/screen"
)

// VTerm is a thread-safe wrapper around headlessterm.Terminal that also
// tracks a revision counter, giving callers cell-level style data
// directly instead of only re-renderable ANSI text.
type VTerm struct {
	mu   sync.Mutex
	term *ht.Terminal
	rev  atomic.Uint64
}

// New creates a VTerm with the given dimensions and scrollback cap
// (in lines — the daemon config's ring_buffer_bytes is converted to an
// approximate line budget by the caller, assuming ~64 bytes/line).
func New(cols, rows, scrollbackLines int) *VTerm {
	storage := ht.NewMemoryScrollback(scrollbackLines)
	t := ht.New(ht.WithSize(rows, cols), ht.WithScrollback(storage))
	return &VTerm{term: t}
}

// Write feeds PTY output to the emulator and advances the revision
// counter so the wait engine can cheaply detect that something changed.
func (v *VTerm) Write(p []byte) (int, error) {
	v.mu.Lock()
	n, err := v.term.Write(p)
	v.mu.Unlock()
	v.rev.Add(1)
	return n, err
}

// Revision returns the current monotonic revision counter.
func (v *VTerm) Revision() uint64 {
	return v.rev.Load()
}

// Resize changes terminal dimensions, reflowing per the buffer's resize
// invariant (clip or pad, never leaving cells.len() != cols*rows).
func (v *VTerm) Resize(cols, rows int) {
	v.mu.Lock()
	v.term.Resize(rows, cols)
	v.mu.Unlock()
	v.rev.Add(1)
}

// Snapshot copies the current grid into a screen.Buffer. Safe to call
// concurrently with Write; VTerm's mutex serializes access and this
// method holds it only while taking the emulator snapshot (readers
// clone then release, never blocking other clients for long).
func (v *VTerm) Snapshot() *screen.Buffer {
	v.mu.Lock()
	snap := v.term.Snapshot(ht.SnapshotDetailFull)
	rev := v.rev.Load()
	v.mu.Unlock()

	buf := screen.NewBuffer(snap.Size.Cols, snap.Size.Rows)
	buf.CursorRow = snap.Cursor.Row
	buf.CursorCol = snap.Cursor.Col
	buf.CursorHidden = !snap.Cursor.Visible
	buf.Revision = rev

	for row, line := range snap.Lines {
		for col, cell := range line.Cells {
			if col >= buf.Cols {
				break
			}
			buf.Set(row, col, convertCell(cell))
		}
	}
	if err := buf.Validate(); err != nil {
		// Cursor clamp covers the rare case a resize lands mid-scroll;
		// never propagate an out-of-bounds cursor to the VOM pipeline.
		if buf.CursorRow >= buf.Rows {
			buf.CursorRow = buf.Rows - 1
		}
		if buf.CursorCol >= buf.Cols {
			buf.CursorCol = buf.Cols - 1
		}
	}
	return buf
}

func convertCell(c ht.SnapshotCell) screen.Cell {
	r := ' '
	if len(c.Char) > 0 {
		for _, rr := range c.Char {
			r = rr
			break
		}
	}
	return screen.Cell{
		Char: r,
		Style: screen.CellStyle{
			FG:               parseHex(c.Fg),
			BG:               parseHex(c.Bg),
			Bold:             c.Attributes.Bold,
			Italic:           c.Attributes.Italic,
			Underline:        c.Attributes.Underline,
			Inverse:          c.Attributes.Reverse,
			Blink:            c.Attributes.Blink,
			WideContinuation: c.WideSpacer,
		},
	}
}

// parseHex turns "#rrggbb" into a packed 0xRRGGBBFF, or 0 (terminal
// default) for an empty string.
func parseHex(s string) uint32 {
	if len(s) != 7 || s[0] != '#' {
		return 0
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0
	}
	return uint32(n)<<8 | 0xff
}

// CursorPosition returns the 0-based cursor row/col and visibility.
func (v *VTerm) CursorPosition() (row, col int, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, c := v.term.CursorPos()
	return r, c, v.term.CursorVisible()
}

// ScrollbackLines returns up to n of the most recent scrolled-off lines,
// oldest first, used by the Wait Engine to match text that is no longer
// in the visible grid (supplements TextAppears/TextGone matching).
func (v *VTerm) ScrollbackLines(n int) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	total := v.term.ScrollbackLen()
	if n <= 0 || n > total {
		n = total
	}
	start := total - n
	lines := make([]string, 0, n)
	for i := start; i < total; i++ {
		cells := v.term.ScrollbackLine(i)
		runes := make([]rune, 0, len(cells))
		for _, c := range cells {
			if c.IsWideSpacer() {
				continue
			}
			ch := c.Char
			if ch == 0 {
				ch = ' '
			}
			runes = append(runes, ch)
		}
		lines = append(lines, string(runes))
	}
	return lines
}

// Close releases emulator resources.
func (v *VTerm) Close() error {
	return nil
}
