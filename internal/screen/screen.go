// Package screen defines the Cell/ScreenBuffer data model shared by
// the terminal emulator and the VOM pipeline.
package screen

import "fmt"

// CellStyle captures the rendering attributes of a Cell. Two styles
// compare equal with ==, which Stage 1 segmentation relies on.
type CellStyle struct {
	FG, BG               uint32 // packed 0xRRGGBBAA; 0 means "use terminal default"
	Bold                 bool
	Italic               bool
	Underline            bool
	Inverse              bool
	Blink                bool
	WideContinuation     bool
}

// Cell is one grid position: a scalar plus its style.
type Cell struct {
	Char  rune
	Style CellStyle
}

// Blank reports whether the cell holds nothing but a space on the
// terminal's default background — the definition Stage 1 uses to decide
// whether a blank cell ends a run.
func (c Cell) Blank() bool {
	return (c.Char == ' ' || c.Char == 0) && c.Style.BG == 0 && !c.Style.Inverse
}

// Buffer is the dense (cols, rows) grid of styled cells.
type Buffer struct {
	Cols, Rows   int
	Cells        []Cell
	CursorRow    int
	CursorCol    int
	CursorHidden bool
	Revision     uint64
}

// NewBuffer allocates a blank cols×rows buffer.
func NewBuffer(cols, rows int) *Buffer {
	b := &Buffer{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
	for i := range b.Cells {
		b.Cells[i].Char = ' '
	}
	return b
}

// At returns the cell at (row, col). There is no per-axis bounds check:
// an index past the end of Cells panics, and a col past Cols reads a
// cell of a later row. Every caller in this codebase stays within
// Cols/Rows by construction.
func (b *Buffer) At(row, col int) Cell {
	return b.Cells[row*b.Cols+col]
}

// Set writes the cell at (row, col).
func (b *Buffer) Set(row, col int, c Cell) {
	b.Cells[row*b.Cols+col] = c
}

// Clone returns a deep copy, safe to hand to the VOM pipeline after the
// emulator's lock has been released.
func (b *Buffer) Clone() *Buffer {
	cp := &Buffer{
		Cols: b.Cols, Rows: b.Rows,
		CursorRow: b.CursorRow, CursorCol: b.CursorCol,
		CursorHidden: b.CursorHidden, Revision: b.Revision,
		Cells: make([]Cell, len(b.Cells)),
	}
	copy(cp.Cells, b.Cells)
	return cp
}

// Validate checks that len(cells) == cols*rows and the
// cursor stays in bounds. Used by tests and defensively after resize.
func (b *Buffer) Validate() error {
	if len(b.Cells) != b.Cols*b.Rows {
		return fmt.Errorf("screen: cells len %d != cols*rows %d", len(b.Cells), b.Cols*b.Rows)
	}
	if b.CursorRow < 0 || b.CursorRow >= b.Rows || b.CursorCol < 0 || b.CursorCol >= b.Cols {
		return fmt.Errorf("screen: cursor (%d,%d) out of bounds for %dx%d", b.CursorRow, b.CursorCol, b.Cols, b.Rows)
	}
	return nil
}

// RowText returns the concatenated runes of a row, excluding wide-char
// continuation sentinels, used by TextAppears/TextGone wait conditions.
func (b *Buffer) RowText(row int) string {
	runes := make([]rune, 0, b.Cols)
	for col := 0; col < b.Cols; col++ {
		c := b.At(row, col)
		if c.Style.WideContinuation {
			continue
		}
		if c.Char == 0 {
			runes = append(runes, ' ')
			continue
		}
		runes = append(runes, c.Char)
	}
	return string(runes)
}
