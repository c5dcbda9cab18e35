package vom

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/agent-tui/agent-tui/internal/screen"
)

// rowRun is the Stage 1 segmentation unit: a maximal contiguous run of
// cells on one row that share a style.
type rowRun struct {
	Row      int
	StartCol int
	EndCol   int // exclusive
	Style    screen.CellStyle
	Text     string
}

// segmentRows runs Stage 1 over the whole buffer: a single raster-scan
// pass, O(cols*rows).
func segmentRows(buf *screen.Buffer) [][]rowRun {
	rows := make([][]rowRun, buf.Rows)
	for row := 0; row < buf.Rows; row++ {
		rows[row] = segmentRow(buf, row)
	}
	return rows
}

func segmentRow(buf *screen.Buffer, row int) []rowRun {
	var runs []rowRun
	var cur *rowRun
	var text strings.Builder

	flush := func() {
		if cur == nil {
			return
		}
		// NFC-normalize before it's used for role classification or
		// visual_hash — a run built from combining-mark sequences must
		// hash the same as its precomposed equivalent.
		cur.Text = norm.NFC.String(text.String())
		runs = append(runs, *cur)
		cur = nil
		text.Reset()
	}

	for col := 0; col < buf.Cols; col++ {
		cell := buf.At(row, col)

		if cell.Style.WideContinuation {
			// Trailing half of a wide glyph: inherits the leading
			// cell's style, contributes no text, never breaks a run.
			if cur != nil {
				cur.EndCol = col + 1
			}
			continue
		}

		if cell.Blank() {
			// Default-background blank cell ends the current run
			// outright.
			flush()
			continue
		}

		sameStyle := cur != nil && cur.Style == cell.Style
		if cur == nil || !sameStyle {
			flush()
			cur = &rowRun{Row: row, StartCol: col, EndCol: col + 1, Style: cell.Style}
		} else {
			cur.EndCol = col + 1
		}
		text.WriteRune(cell.Char)
	}
	flush()
	return runs
}
