package vom

import (
	"regexp"
	"strings"

	"github.com/agent-tui/agent-tui/internal/screen"
)

// Role is the closed-set classification of a Component.
type Role string

const (
	RoleButton       Role = "Button"
	RoleInput        Role = "Input"
	RoleCheckbox     Role = "Checkbox"
	RoleTab          Role = "Tab"
	RoleMenuItem     Role = "MenuItem"
	RolePanel        Role = "Panel"
	RoleStaticText   Role = "StaticText"
	RoleStatus       Role = "Status"
	RoleToolBlock    Role = "ToolBlock"
	RolePromptMarker Role = "PromptMarker"
	RoleSpinner      Role = "Spinner"
	RoleProgressBar  Role = "ProgressBar"
	RoleUnknown      Role = "Unknown"
)

// Interactive is the subset of roles a client can send input to.
var Interactive = map[Role]bool{
	RoleButton: true, RoleInput: true, RoleCheckbox: true,
	RoleTab: true, RoleMenuItem: true, RolePromptMarker: true,
}

const (
	spinnerAlphabet = "◐◑◒◓⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏"
	barAlphabet     = "█▓▒░─━"
	menuMarkers     = "❯›▶→>"
	toolBlockCorner = "╭╮╰╯"
	panelCorner     = "┌┐└┘╔╗╚╝"
	checkboxMarkers = "☐☑☒"
)

var (
	buttonRe   = regexp.MustCompile(`^\s*[\[\(]\s*(Y|N|Yes|No|OK|Cancel|Submit|[A-Za-z][A-Za-z0-9 _-]{0,20})\s*[\]\)]\s*$`)
	checkboxRe = regexp.MustCompile(`^\s*\[[ xX*]\]`)
	statusKeywordRe = regexp.MustCompile(`(?i)\b(Thinking|Loading|Processing|Running|Working)\b`)
)

// classifyCtx carries the per-snapshot context the classification
// cascade needs beyond a single cluster's own text.
type classifyCtx struct {
	buf             *screen.Buffer
	cursorRow       int
	cursorCol       int
	cursorVisible   bool
}

// classify runs the fixed-priority cascade and returns the matched role
// plus derived name/attributes. First match in priority order wins.
func classify(ctx classifyCtx, cl cluster) (Role, string, Attributes) {
	attrs := Attributes{}
	cursorInBounds := ctx.cursorVisible &&
		ctx.cursorRow >= cl.Y && ctx.cursorRow < cl.Y+cl.Height &&
		ctx.cursorCol >= cl.X && ctx.cursorCol < cl.X+cl.Width
	if cursorInBounds {
		attrs.Focused = true
		attrs.CursorHere = true
	}

	firstLine := firstLineOf(cl.Text)
	trimmedFirst := strings.TrimRight(firstLine, " ")

	// Only the "begins with >" disjunct requires the cursor inside the
	// cluster's own bounds. The other disjunct — the line ends right at
	// the cursor, no trailing glyph — holds even when the cursor sits
	// one cell past a cluster whose trailing blanks were trimmed off
	// its bounds (e.g. "> " with the cursor after the space).
	end := cl.X + len([]rune(trimmedFirst))
	cursorAtLineEnd := ctx.cursorVisible && cl.Height == 1 && ctx.cursorRow == cl.Y &&
		ctx.cursorCol >= end
	for col := end; cursorAtLineEnd && col < ctx.cursorCol; col++ {
		if ch := ctx.buf.At(cl.Y, col).Char; ch != ' ' && ch != 0 {
			cursorAtLineEnd = false
		}
	}

	switch {
	// Priority 1: Input.
	case (cursorInBounds && strings.HasPrefix(strings.TrimLeft(firstLine, " "), ">")) || cursorAtLineEnd:
		attrs.Focused = true
		attrs.CursorHere = true
		return RoleInput, normalizeName(cl.Text), attrs

	// Priority 2: PromptMarker.
	case cl.Width == 1 && cl.Height == 1 && cl.X == 0 && cl.Text == ">":
		return RolePromptMarker, ">", attrs

	// Priority 3: Spinner.
	case cl.Width == 1 && cl.Height == 1 && strings.ContainsRune(spinnerAlphabet, firstRune(cl.Text)):
		return RoleSpinner, cl.Text, attrs

	// Priority 4: Status.
	case isStatusLine(firstLine):
		return RoleStatus, normalizeName(firstLine), attrs

	// Priority 5: ProgressBar.
	case isMostlyBarAlphabet(cl.Text):
		return RoleProgressBar, normalizeName(cl.Text), attrs

	// Priority 6: Button.
	case buttonRe.MatchString(cl.Text):
		return RoleButton, normalizeName(cl.Text), attrs

	// Priority 7: Checkbox.
	case checkboxRe.MatchString(cl.Text) || strings.ContainsAny(string(firstRune(strings.TrimSpace(cl.Text))), checkboxMarkers):
		attrs.Checked = isChecked(cl.Text)
		return RoleCheckbox, normalizeName(cl.Text), attrs

	// Priority 8: MenuItem.
	case beginsWithMarker(firstLine, menuMarkers):
		if cl.Style.Inverse {
			attrs.Selected = true
		}
		return RoleMenuItem, normalizeName(cl.Text), attrs

	// Priority 9: Tab.
	case cl.Height == 1 && cl.Style.Inverse && cl.Y <= 1 && cl.Width >= 3:
		if cl.Style.Inverse {
			attrs.Selected = true
		}
		return RoleTab, normalizeName(cl.Text), attrs

	// Priority 10: ToolBlock.
	case cl.IsBoxFrame && isFrame(ctx.buf, cl, toolBlockCorner):
		return RoleToolBlock, normalizeName(cl.Text), attrs

	// Priority 11: Panel.
	case cl.IsBoxFrame && isFrame(ctx.buf, cl, panelCorner):
		return RolePanel, normalizeName(cl.Text), attrs

	// Priority 12: StaticText.
	case strings.TrimSpace(cl.Text) != "":
		return RoleStaticText, normalizeName(cl.Text), attrs

	// Priority 13: Unknown.
	default:
		return RoleUnknown, "", attrs
	}
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func isStatusLine(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if trimmed == "" {
		return false
	}
	r := firstRune(trimmed)
	if !strings.ContainsRune(spinnerAlphabet, r) {
		return false
	}
	rest := strings.TrimPrefix(trimmed, string(r))
	if !strings.HasPrefix(rest, " ") {
		return false
	}
	return statusKeywordRe.MatchString(rest)
}

func isMostlyBarAlphabet(s string) bool {
	total, barCount := 0, 0
	for _, r := range s {
		if r == ' ' || r == '\n' {
			continue
		}
		total++
		if strings.ContainsRune(barAlphabet, r) {
			barCount++
		}
	}
	return total > 0 && barCount*2 > total
}

func beginsWithMarker(line string, markers string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if trimmed == "" {
		return false
	}
	r := firstRune(trimmed)
	if !strings.ContainsRune(markers, r) {
		return false
	}
	rest := strings.TrimPrefix(trimmed, string(r))
	return strings.HasPrefix(rest, " ")
}

func isChecked(text string) bool {
	i := strings.IndexByte(text, '[')
	j := strings.IndexByte(text, ']')
	if i < 0 || j < 0 || j <= i {
		return false
	}
	inner := strings.TrimSpace(text[i+1 : j])
	return inner == "x" || inner == "X" || inner == "*"
}

// isFrame checks whether cl's four corners (read directly from the
// buffer, not the joined text) are drawn with glyphs from the given
// corner set.
func isFrame(buf *screen.Buffer, cl cluster, corners string) bool {
	if cl.Width < 2 || cl.Height < 2 {
		return false
	}
	tl := buf.At(cl.Y, cl.X).Char
	tr := buf.At(cl.Y, cl.X+cl.Width-1).Char
	bl := buf.At(cl.Y+cl.Height-1, cl.X).Char
	br := buf.At(cl.Y+cl.Height-1, cl.X+cl.Width-1).Char
	return strings.ContainsRune(corners, tl) && strings.ContainsRune(corners, tr) &&
		strings.ContainsRune(corners, bl) && strings.ContainsRune(corners, br)
}

// normalizeName collapses internal whitespace and strips surrounding
// brackets/markers used as name decoration.
func normalizeName(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	joined = strings.Trim(joined, " ")
	joined = strings.TrimFunc(joined, func(r rune) bool {
		return strings.ContainsRune("[]()❯›▶→>☐☑☒", r)
	})
	return strings.TrimSpace(joined)
}
