package session

import (
	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/ptyhost"
	"github.com/agent-tui/agent-tui/internal/vom"
)

// SendText writes raw UTF-8 text to the child, one atomic write.
func (s *Session) SendText(text string) error {
	return s.host.Write([]byte(text))
}

// SendKey translates a named key to its escape encoding and writes it
// atomically — a logical keystroke is never split across writes
// (writes are never half-sent escape sequences).
func (s *Session) SendKey(name string) error {
	enc, err := ptyhost.EncodeKey(name)
	if err != nil {
		return err
	}
	return s.host.Write(enc)
}

// Fill fails unless ref is already the focused input, then types value
// into it; see DESIGN.md for why this takes the stricter of the two
// plausible behaviors here.
func (s *Session) Fill(ref, value string) error {
	c, err := s.ResolveRef(ref)
	if err != nil {
		return err
	}
	if c.Role != vom.RoleInput {
		return apperr.ElementNotInteractable(ref)
	}
	if !c.Attributes.Focused {
		return apperr.ElementNotInteractable(ref)
	}
	return s.SendText(value)
}

// Click sends Enter to ref if it names an interactive component;
// Button/Checkbox/MenuItem/Tab/PromptMarker clicks are all modeled as
// Enter because a PTY has no pointer protocol for the TUI frameworks
// this drives.
func (s *Session) Click(ref string) error {
	c, err := s.ResolveRef(ref)
	if err != nil {
		return err
	}
	if !vom.Interactive[c.Role] {
		return apperr.ElementNotInteractable(ref)
	}
	return s.SendKey("Enter")
}
