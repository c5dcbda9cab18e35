package vom

import (
	"sort"
	"strings"

	"github.com/agent-tui/agent-tui/internal/screen"
)

// cluster is a Stage 2 connected-component output: a maximal run of
// row-runs stitched across rows by shared style and overlapping column
// extent.
type cluster struct {
	X, Y, Width, Height int
	Text                string
	Style               screen.CellStyle
	IsBoxFrame          bool
}

// union-find over a flat run index.
type unionFind struct{ parent []int }

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// indexedRun pairs a row-run with its flat index for union-find.
type indexedRun struct {
	run rowRun
	idx int
}

// mergeClusters runs Stage 2 over the per-row runs produced by Stage 1,
// returning clusters in raster order of their top-left cell.
func mergeClusters(rowRuns [][]rowRun) []cluster {
	var flat []indexedRun
	for _, runs := range rowRuns {
		for _, r := range runs {
			flat = append(flat, indexedRun{run: r, idx: len(flat)})
		}
	}
	if len(flat) == 0 {
		return nil
	}

	uf := newUnionFind(len(flat))

	// Connect 4-connectivity over rows: for every run, find runs in the
	// row immediately above with equal style and overlapping columns.
	byRow := map[int][]indexedRun{}
	for _, f := range flat {
		byRow[f.run.Row] = append(byRow[f.run.Row], f)
	}
	for _, f := range flat {
		for _, above := range byRow[f.run.Row-1] {
			if above.run.Style == f.run.Style &&
				overlaps(above.run.StartCol, above.run.EndCol, f.run.StartCol, f.run.EndCol) {
				uf.union(f.idx, above.idx)
			}
		}
	}

	groups := map[int][]indexedRun{}
	for _, f := range flat {
		root := uf.find(f.idx)
		groups[root] = append(groups[root], f)
	}

	clusters := make([]cluster, 0, len(groups))
	for _, members := range groups {
		clusters = append(clusters, buildCluster(members))
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Y != clusters[j].Y {
			return clusters[i].Y < clusters[j].Y
		}
		return clusters[i].X < clusters[j].X
	})

	// Drop empty/whitespace-only clusters.
	out := clusters[:0]
	for _, c := range clusters {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func buildCluster(members []indexedRun) cluster {
	minX, minY := members[0].run.StartCol, members[0].run.Row
	maxX, maxY := members[0].run.EndCol, members[0].run.Row
	byRow := map[int][]rowRun{}
	for _, m := range members {
		if m.run.StartCol < minX {
			minX = m.run.StartCol
		}
		if m.run.EndCol > maxX {
			maxX = m.run.EndCol
		}
		if m.run.Row < minY {
			minY = m.run.Row
		}
		if m.run.Row > maxY {
			maxY = m.run.Row
		}
		byRow[m.run.Row] = append(byRow[m.run.Row], m.run)
	}

	rows := make([]int, 0, len(byRow))
	for r := range byRow {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	var lines []string
	for _, r := range rows {
		runs := byRow[r]
		sort.Slice(runs, func(i, j int) bool { return runs[i].StartCol < runs[j].StartCol })
		parts := make([]string, len(runs))
		for i, run := range runs {
			parts[i] = run.Text
		}
		lines = append(lines, strings.Join(parts, " "))
	}

	return cluster{
		X: minX, Y: minY,
		Width:      maxX - minX,
		Height:     maxY - minY + 1,
		Text:       strings.Join(lines, "\n"),
		Style:      members[0].run.Style,
		IsBoxFrame: isBoxDrawingOnly(strings.Join(lines, "")),
	}
}

const boxDrawingChars = "─│┌┐└┘├┤┬┴┼╭╮╰╯═║╔╗╚╝╠╣╦╩╬"

func isBoxDrawingOnly(s string) bool {
	hasAny := false
	for _, r := range s {
		if r == ' ' || r == '\n' {
			continue
		}
		if !strings.ContainsRune(boxDrawingChars, r) {
			return false
		}
		hasAny = true
	}
	return hasAny
}
