package ptyhost

import (
	"fmt"
	"strings"

	"github.com/agent-tui/agent-tui/internal/apperr"
)

// namedKeys maps the key names the input API accepts to their
// escape-sequence encoding.
var namedKeys = map[string][]byte{
	"Enter":     {0x0D},
	"Return":    {0x0D},
	"Tab":       {0x09},
	"Escape":    {0x1B},
	"Backspace": {0x7F},
	"Space":     {0x20},
	"Up":        []byte("\x1b[A"),
	"Down":      []byte("\x1b[B"),
	"Right":     []byte("\x1b[C"),
	"Left":      []byte("\x1b[D"),
	"Home":      []byte("\x1b[H"),
	"End":       []byte("\x1b[F"),
	"PageUp":    []byte("\x1b[5~"),
	"PageDown":  []byte("\x1b[6~"),
	"Delete":    []byte("\x1b[3~"),
	"Insert":    []byte("\x1b[2~"),
	"F1":        []byte("\x1bOP"),
	"F2":        []byte("\x1bOQ"),
	"F3":        []byte("\x1bOR"),
	"F4":        []byte("\x1bOS"),
	"F5":        []byte("\x1b[15~"),
	"F6":        []byte("\x1b[17~"),
	"F7":        []byte("\x1b[18~"),
	"F8":        []byte("\x1b[19~"),
	"F9":        []byte("\x1b[20~"),
	"F10":       []byte("\x1b[21~"),
	"F11":       []byte("\x1b[23~"),
	"F12":       []byte("\x1b[24~"),
}

// EncodeKey turns a named key (e.g. "Enter", "Ctrl+C") into the exact
// byte sequence to write to the child. Unknown names are rejected
// with a BadArgs error rather than silently dropped.
func EncodeKey(name string) ([]byte, error) {
	if b, ok := namedKeys[name]; ok {
		return b, nil
	}
	if rest, ok := strings.CutPrefix(name, "Ctrl+"); ok && len(rest) == 1 {
		c := rest[0]
		upper := c &^ 0x20
		if upper >= 'A' && upper <= '_' {
			return []byte{upper - 'A' + 1}, nil
		}
	}
	return nil, apperr.BadArgs(fmt.Sprintf("unrecognized key name %q", name))
}
