package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
)

// keyChord is a parsed "Modifier+Key" expression in playwright notation
type keyChord struct {
	key       string
	modifiers []input.Modifier
}

var namedKeys = map[string]string{
	"enter":      kb.Enter,
	"end":        kb.End,
	"home":       kb.Home,
	"tab":        kb.Tab,
	"escape":     kb.Escape,
	"backspace":  kb.Backspace,
	"delete":     kb.Delete,
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"pageup":     kb.PageUp,
	"pagedown":   kb.PageDown,
	"space":      " ",
}

var namedModifiers = map[string]input.Modifier{
	"control": input.ModifierCtrl,
	"ctrl":    input.ModifierCtrl,
	"shift":   input.ModifierShift,
	"alt":     input.ModifierAlt,
	"meta":    input.ModifierMeta,
	"command": input.ModifierMeta,
}

// parseKeyChord - parses "Control+End", "Enter" or "a"
func parseKeyChord(s string) (keyChord, error) {
	if s == "" {
		return keyChord{}, fmt.Errorf("empty key chord")
	}

	var parts []string
	switch {
	case s == "+":
		parts = []string{"+"}
	case strings.HasSuffix(s, "++"):
		parts = append(strings.Split(strings.TrimSuffix(s, "++"), "+"), "+")
	default:
		parts = strings.Split(s, "+")
	}

	var chord keyChord
	for i, part := range parts {
		last := i == len(parts)-1
		if !last {
			mod, ok := namedModifiers[strings.ToLower(part)]
			if !ok {
				return keyChord{}, fmt.Errorf("unknown modifier %q in %q", part, s)
			}
			chord.modifiers = append(chord.modifiers, mod)
			continue
		}
		if part == "" {
			return keyChord{}, fmt.Errorf("missing key in %q", s)
		}
		if named, ok := namedKeys[strings.ToLower(part)]; ok {
			chord.key = named
		} else if len([]rune(part)) == 1 {
			chord.key = part
		} else {
			return keyChord{}, fmt.Errorf("unknown key %q in %q", part, s)
		}
	}
	return chord, nil
}
