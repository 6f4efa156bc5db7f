package matchmaker

import (
	"fmt"
	"strings"
)

// TriggerKind orders trigger variants: keys sort before mouse events, mouse
// events before semantic events.
type TriggerKind int

const (
	KeyTrigger TriggerKind = iota
	MouseTrigger
	EventTrigger
)

// Trigger is a bindable input: a normalized key combination, a simple mouse
// event (kind plus modifiers, no position), or a semantic event.
type Trigger struct {
	Kind  TriggerKind
	Key   string // normalized "ctrl-c", "enter", "A"
	Mouse string // normalized "ctrl-scrollup", "left"
	Event Event
}

// KeyOf builds a key trigger from a raw key string.
func KeyOf(s string) Trigger {
	return Trigger{Kind: KeyTrigger, Key: normalizeKey(s)}
}

// MouseOf builds a mouse trigger.
func MouseOf(s string) Trigger {
	return Trigger{Kind: MouseTrigger, Mouse: strings.ToLower(s)}
}

// EventOf builds a semantic-event trigger.
func EventOf(e Event) Trigger {
	return Trigger{Kind: EventTrigger, Event: e}
}

// String renders the config-file form.
func (t Trigger) String() string {
	switch t.Kind {
	case KeyTrigger:
		return t.Key
	case MouseTrigger:
		return t.Mouse
	default:
		return t.Event.String()
	}
}

// Less is the total order over triggers: variant first, then the
// stringified form (keys), kind+modifier text (mouse), or bit order
// (events).
func (t Trigger) Less(o Trigger) bool {
	if t.Kind != o.Kind {
		return t.Kind < o.Kind
	}
	switch t.Kind {
	case KeyTrigger:
		return t.Key < o.Key
	case MouseTrigger:
		return t.Mouse < o.Mouse
	default:
		return t.Event < o.Event
	}
}

// mouseKinds are the recognized mouse trigger tails.
var mouseKinds = map[string]bool{
	"left":        true,
	"middle":      true,
	"right":       true,
	"scrollup":    true,
	"scrolldown":  true,
	"scrollleft":  true,
	"scrollright": true,
}

var modifierNames = map[string]bool{
	"shift": true, "ctrl": true, "alt": true,
	"super": true, "hyper": true, "meta": true, "none": true,
}

// mouseOnlyNames are bindable bare, with no separator. "left" and "right"
// are NOT among them: bare they mean the arrow keys; clicks take the
// '+'-separated form ("none+left", "ctrl+left").
var mouseOnlyNames = map[string]bool{
	"middle":      true,
	"scrollup":    true,
	"scrolldown":  true,
	"scrollleft":  true,
	"scrollright": true,
}

// ParseTrigger parses a config-file trigger string: a '+'-separated mouse
// form ("[mods+]button"), a bare mouse-only name, a semantic event name, or
// otherwise a key combination.
func ParseTrigger(s string) (Trigger, error) {
	if s == "" {
		return Trigger{}, fmt.Errorf("empty trigger")
	}

	lower := strings.ToLower(s)
	if mouseOnlyNames[lower] {
		return Trigger{Kind: MouseTrigger, Mouse: lower}, nil
	}

	// Mouse: modifiers split by '+', the last part names the button/wheel.
	// '-'-separated combinations stay keys, so "ctrl-left" is the arrow.
	if parts := strings.Split(lower, "+"); len(parts) > 1 && mouseKinds[parts[len(parts)-1]] {
		for _, m := range parts[:len(parts)-1] {
			if !modifierNames[m] {
				return Trigger{}, fmt.Errorf("unknown mouse modifier %q", m)
			}
		}
		mods := parts[:len(parts)-1]
		name := parts[len(parts)-1]
		if len(mods) > 0 && mods[0] != "none" {
			name = strings.Join(mods, "-") + "-" + name
		}
		return Trigger{Kind: MouseTrigger, Mouse: name}, nil
	}

	if ev, err := ParseEvent(s); err == nil {
		return Trigger{Kind: EventTrigger, Event: ev}, nil
	}

	return KeyOf(s), nil
}

// normalizeKey maps both config-file ("ctrl-c") and terminal-driver
// ("ctrl+c") spellings onto one canonical form: modifiers joined by '-',
// lowercase, in ctrl-alt-shift order; named keys lowercase; a bare letter
// keeps its case (shift-letter arrives uppercased).
func normalizeKey(s string) string {
	if s == "" {
		return s
	}
	norm := strings.ReplaceAll(s, "+", "-")

	parts := strings.Split(norm, "-")
	if len(parts) == 1 {
		return normalizeKeyName(parts[0])
	}
	// A trailing '-' means the key itself is '-'.
	key := parts[len(parts)-1]
	mods := parts[:len(parts)-1]
	if key == "" && len(mods) > 0 {
		key = "-"
	}

	var ctrl, alt, shift bool
	for _, m := range mods {
		switch strings.ToLower(m) {
		case "ctrl", "control":
			ctrl = true
		case "alt", "opt", "option":
			alt = true
		case "shift":
			shift = true
		}
	}

	var b strings.Builder
	if ctrl {
		b.WriteString("ctrl-")
	}
	if alt {
		b.WriteString("alt-")
	}
	if shift {
		b.WriteString("shift-")
	}
	b.WriteString(normalizeKeyName(key))
	return b.String()
}

// normalizeKeyName lowercases named keys but keeps single-character keys
// as-is (so shift-letter uppercase survives).
func normalizeKeyName(k string) string {
	if len([]rune(k)) == 1 {
		return k
	}
	k = strings.ToLower(k)
	switch k {
	case "return":
		return "enter"
	case "escape":
		return "esc"
	case "space":
		return " "
	}
	return k
}

// isPlainChar reports whether the normalized key is a single printable
// character with no modifiers; such keys forward to the input editor as
// Char actions when unbound.
func isPlainChar(key string) (rune, bool) {
	rs := []rune(key)
	if len(rs) != 1 {
		return 0, false
	}
	r := rs[0]
	if r < 0x20 || r == 0x7f {
		return 0, false
	}
	return r, true
}
