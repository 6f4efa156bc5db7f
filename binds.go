package matchmaker

import (
	"fmt"
	"sort"
	"strings"
)

// BindMap is the ordered trigger-to-actions table. Iteration order follows
// the trigger total order; lookups are by exact trigger.
type BindMap struct {
	m map[Trigger]Actions
}

// NewBindMap returns an empty table.
func NewBindMap() *BindMap {
	return &BindMap{m: make(map[Trigger]Actions)}
}

// DefaultBinds is the fallback mini-bindset that keeps the picker usable
// without configuration.
func DefaultBinds() *BindMap {
	b := NewBindMap()
	bind := func(key string, actions ...Action) {
		b.Bind(KeyOf(key), actions)
	}
	bind("ctrl-c", Action{Kind: ActQuit, N: 1})
	bind("esc", Action{Kind: ActQuit, N: 1})
	bind("up", Action{Kind: ActUp, N: 1})
	bind("down", Action{Kind: ActDown, N: 1})
	bind("enter", Action{Kind: ActAccept})
	bind("right", Action{Kind: ActForwardChar})
	bind("left", Action{Kind: ActBackwardChar})
	bind("ctrl-right", Action{Kind: ActForwardWord})
	bind("ctrl-left", Action{Kind: ActBackwardWord})
	bind("backspace", Action{Kind: ActDeleteChar})
	bind("ctrl-h", Action{Kind: ActDeleteWord})
	bind("ctrl-u", Action{Kind: ActCancel})
	bind("alt-h", Action{Kind: ActHelp})
	bind("tab", Action{Kind: ActToggle}, Action{Kind: ActDown, N: 1})
	b.Bind(MouseOf("scrollup"), Actions{{Kind: ActUp, N: 1}})
	b.Bind(MouseOf("scrolldown"), Actions{{Kind: ActDown, N: 1}})
	return b
}

// Lookup returns the sequence bound to a trigger.
func (b *BindMap) Lookup(t Trigger) (Actions, bool) {
	a, ok := b.m[t]
	return a, ok
}

// Bind replaces the sequence for a trigger.
func (b *BindMap) Bind(t Trigger, actions Actions) {
	b.m[t] = actions
}

// Unbind removes a trigger.
func (b *BindMap) Unbind(t Trigger) {
	delete(b.m, t)
}

// PushBind appends actions to a trigger's sequence, creating it if absent.
func (b *BindMap) PushBind(t Trigger, actions Actions) {
	b.m[t] = append(b.m[t], actions...)
}

// PopBind drops the last action of a trigger's sequence, removing the
// trigger when it empties.
func (b *BindMap) PopBind(t Trigger) {
	seq, ok := b.m[t]
	if !ok {
		return
	}
	if len(seq) <= 1 {
		delete(b.m, t)
		return
	}
	b.m[t] = seq[:len(seq)-1]
}

// Len returns the number of bound triggers.
func (b *BindMap) Len() int {
	return len(b.m)
}

// Entry is one bound trigger with its sequence.
type Entry struct {
	Trigger Trigger
	Actions Actions
}

// Ordered returns entries in trigger order.
func (b *BindMap) Ordered() []Entry {
	out := make([]Entry, 0, len(b.m))
	for t, a := range b.m {
		out = append(out, Entry{Trigger: t, Actions: a})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Trigger.Less(out[j].Trigger)
	})
	return out
}

// Markdown renders the table as a markdown list for the help overlay.
func (b *BindMap) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Keybindings\n\n")
	for _, e := range b.Ordered() {
		parts := make([]string, len(e.Actions))
		for i, a := range e.Actions {
			parts[i] = a.String()
		}
		fmt.Fprintf(&sb, "- `%s`: %s\n", e.Trigger, strings.Join(parts, ", "))
	}
	return sb.String()
}

// ParseBinds builds a table from config-file bind strings, merged over the
// defaults.
func ParseBinds(raw map[string][]string) (*BindMap, error) {
	b := DefaultBinds()
	for trig, acts := range raw {
		t, err := ParseTrigger(trig)
		if err != nil {
			return nil, fmt.Errorf("bind %q: %w", trig, err)
		}
		seq, err := ParseActions(acts)
		if err != nil {
			return nil, fmt.Errorf("bind %q: %w", trig, err)
		}
		b.Bind(t, seq)
	}
	return b, nil
}

// RebindOp selects a rebind directive.
type RebindOp int

const (
	RebindBind RebindOp = iota
	RebindUnbind
	RebindPush
	RebindPop
)

// Rebind is a runtime directive mutating the bindings table.
type Rebind struct {
	Op      RebindOp
	Trigger Trigger
	Actions Actions
}

// Apply mutates the table.
func (b *BindMap) Apply(r Rebind) {
	switch r.Op {
	case RebindBind:
		b.Bind(r.Trigger, r.Actions)
	case RebindUnbind:
		b.Unbind(r.Trigger)
	case RebindPush:
		b.PushBind(r.Trigger, r.Actions)
	case RebindPop:
		b.PopBind(r.Trigger)
	}
}
