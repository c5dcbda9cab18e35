// Package waitengine evaluates a WaitCondition against a session until
// it holds or a timeout expires, using a low-frequency ticker to
// re-check the condition rather than condition variables — bounding
// resolution latency the same way a revision-signaled wakeup would.
package waitengine

import (
	"context"
	"strings"
	"time"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/screen"
	"github.com/agent-tui/agent-tui/internal/session"
	"github.com/agent-tui/agent-tui/internal/vom"
)

// Kind is the closed set of condition kinds.
type Kind string

const (
	KindTextAppears Kind = "TextAppears"
	KindTextGone    Kind = "TextGone"
	KindElement     Kind = "Element"
	KindElementGone Kind = "ElementGone"
	KindFocused     Kind = "Focused"
	KindValueEquals Kind = "ValueEquals"
	KindStable      Kind = "Stable"
)

// Condition is the parameters of one wait call. Only the fields
// relevant to Kind are consulted.
type Condition struct {
	Kind Kind `json:"kind"`

	Substring     string `json:"substring,omitempty"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`

	Ref  string   `json:"ref,omitempty"`
	Role vom.Role `json:"role,omitempty"`
	Name string   `json:"name,omitempty"`

	Expected string `json:"expected,omitempty"`

	WindowMs int `json:"window_ms,omitempty"`
}

// Result is what a wait call returns to the client (session.wait
// response).
type Result struct {
	Satisfied  bool
	Diagnostic string
}

// tickInterval is the engine's poll period. The required resolution
// latency is 50ms; ticking well inside that bound keeps bursts of
// emulator revisions from adding visible extra delay.
const tickInterval = 12 * time.Millisecond

// Evaluate blocks until cond holds, the session exits, ctx is
// cancelled, or timeout elapses. On success, timeout or cancellation
// it returns the last-observed result; if the session exits first it
// returns an unsatisfied result and a SessionGone error. The caller (the `--assert` flag's handler) decides what
// a non-satisfied result at timeout means for the process exit code.
func Evaluate(ctx context.Context, s *session.Session, cond Condition, timeout time.Duration) (Result, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var stableSince time.Time
	var lastRev uint64

	for {
		res, rev := check(s, cond, &stableSince, lastRev)
		lastRev = rev
		if res.Satisfied || time.Now().After(deadline) {
			return res, nil
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-s.Done():
			return Result{Satisfied: false, Diagnostic: "session exited during wait"}, apperr.SessionGone(s.ID)
		case <-ticker.C:
		}
	}
}

// check evaluates cond once against the session's current state.
// stableSince is updated in place to track how long the revision
// counter has been unchanged, needed by the Stable condition.
func check(s *session.Session, cond Condition, stableSince *time.Time, lastRev uint64) (Result, uint64) {
	rev := s.Revision()
	if rev != lastRev || stableSince.IsZero() {
		*stableSince = time.Now()
	}

	switch cond.Kind {
	case KindTextAppears, KindTextGone:
		found := bufferContains(s.ScreenBuffer(), cond.Substring, cond.CaseSensitive) ||
			scrollbackContains(s.ScrollbackLines(scrollbackSearchLines), cond.Substring, cond.CaseSensitive)
		if cond.Kind == KindTextAppears {
			return Result{Satisfied: found, Diagnostic: diagnosticFor(found, cond.Substring)}, rev
		}
		return Result{Satisfied: !found, Diagnostic: diagnosticFor(!found, cond.Substring)}, rev

	case KindElement, KindElementGone:
		snap := s.Snapshot(false)
		_, found := findComponent(snap, cond)
		if cond.Kind == KindElement {
			return Result{Satisfied: found, Diagnostic: elementDiagnostic(found, cond)}, rev
		}
		return Result{Satisfied: !found, Diagnostic: elementDiagnostic(!found, cond)}, rev

	case KindFocused:
		snap := s.Snapshot(false)
		c, found := findComponent(snap, cond)
		satisfied := found && c.Attributes.Focused
		return Result{Satisfied: satisfied, Diagnostic: elementDiagnostic(satisfied, cond)}, rev

	case KindValueEquals:
		snap := s.Snapshot(false)
		c, found := snap.Refs[cond.Ref]
		if !found {
			return Result{Satisfied: false, Diagnostic: "ref not found in latest snapshot"}, rev
		}
		satisfied := c.Name == cond.Expected
		return Result{Satisfied: satisfied, Diagnostic: "value=" + c.Name}, rev

	case KindStable:
		window := time.Duration(cond.WindowMs) * time.Millisecond
		elapsed := time.Since(*stableSince)
		satisfied := elapsed >= window
		return Result{Satisfied: satisfied, Diagnostic: "stable_for=" + elapsed.Round(time.Millisecond).String()}, rev

	default:
		return Result{Satisfied: false, Diagnostic: "unknown condition kind"}, rev
	}
}

// scrollbackSearchLines bounds how far back TextAppears/TextGone look
// into history that has already scrolled off the live grid.
const scrollbackSearchLines = 1000

func scrollbackContains(lines []string, substring string, caseSensitive bool) bool {
	needle := substring
	if !caseSensitive {
		needle = strings.ToLower(needle)
	}
	for _, line := range lines {
		if !caseSensitive {
			line = strings.ToLower(line)
		}
		if strings.Contains(line, needle) {
			return true
		}
	}
	return false
}

func bufferContains(buf *screen.Buffer, substring string, caseSensitive bool) bool {
	needle := substring
	if !caseSensitive {
		needle = strings.ToLower(needle)
	}
	for row := 0; row < buf.Rows; row++ {
		text := buf.RowText(row)
		if !caseSensitive {
			text = strings.ToLower(text)
		}
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func diagnosticFor(satisfied bool, substring string) string {
	if satisfied {
		return "found: " + substring
	}
	return "not found: " + substring
}

func findComponent(snap vom.Snapshot, cond Condition) (vom.Component, bool) {
	if cond.Ref != "" {
		c, ok := snap.Refs[cond.Ref]
		return c, ok
	}
	for _, c := range snap.Components {
		if cond.Role != "" && c.Role != cond.Role {
			continue
		}
		if cond.Name != "" && c.Name != cond.Name {
			continue
		}
		return c, true
	}
	return vom.Component{}, false
}

func elementDiagnostic(satisfied bool, cond Condition) string {
	if satisfied {
		return "matched"
	}
	if cond.Ref != "" {
		return "no component for ref " + cond.Ref
	}
	return "no component matching role/name"
}
