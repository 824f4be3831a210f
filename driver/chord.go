package driver

import (
	"fmt"
	"strings"
)

// Chord is a parsed keyboard shortcut: modifiers held while Key is typed.
type Chord struct {
	Modifiers []string
	Key       string
}

var modifierAliases = map[string]string{
	"control": "Control",
	"ctrl":    "Control",
	"shift":   "Shift",
	"alt":     "Alt",
	"option":  "Alt",
	"meta":    "Meta",
	"cmd":     "Meta",
	"command": "Meta",
}

var namedKeys = map[string]string{
	"enter":     "Enter",
	"return":    "Enter",
	"escape":    "Escape",
	"esc":       "Escape",
	"tab":       "Tab",
	"backspace": "Backspace",
	"space":     "Space",
}

// ParseChord parses "Control+Enter", "Escape", "ctrl+a" and similar.
// Single letters are returned lower-cased.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(s, "+")
	var c Chord
	for i, raw := range parts {
		p := strings.TrimSpace(raw)
		if p == "" {
			return Chord{}, fmt.Errorf("chord %q: empty key", s)
		}
		lower := strings.ToLower(p)
		if i < len(parts)-1 {
			mod, ok := modifierAliases[lower]
			if !ok {
				return Chord{}, fmt.Errorf("chord %q: unknown modifier %q", s, p)
			}
			c.Modifiers = append(c.Modifiers, mod)
			continue
		}
		if named, ok := namedKeys[lower]; ok {
			c.Key = named
			continue
		}
		if len([]rune(lower)) == 1 {
			c.Key = lower
			continue
		}
		return Chord{}, fmt.Errorf("chord %q: unknown key %q", s, p)
	}
	return c, nil
}

// String renders the chord in canonical form.
func (c Chord) String() string {
	return strings.Join(append(append([]string{}, c.Modifiers...), c.Key), "+")
}
