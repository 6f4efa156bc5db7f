package matchmaker

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind enumerates everything a trigger can be bound to.
type ActionKind int

const (
	// Selection
	ActSelect ActionKind = iota
	ActDeselect
	ActToggle
	ActCycleAll
	ActAccept
	ActQuit
	ActQuitEmpty

	// UI
	ActCyclePreview
	ActPreview
	ActHelp
	ActSwitchPreview
	ActSetPreview
	ActToggleWrap
	ActToggleWrapPreview

	// Programmable
	ActExecute
	ActBecome
	ActReload
	ActPrint

	ActSetInput
	ActSetHeader
	ActSetFooter
	ActSetPrompt
	ActColumn
	ActCycleColumn

	// Edit
	ActForwardChar
	ActBackwardChar
	ActForwardWord
	ActBackwardWord
	ActDeleteChar
	ActDeleteWord
	ActDeleteLineStart
	ActDeleteLineEnd
	ActCancel
	ActChar // synthesized for unbound printable keys

	// Navigation
	ActUp
	ActDown
	ActPreviewUp
	ActPreviewDown
	ActPreviewHalfPageUp
	ActPreviewHalfPageDown
	ActPos

	ActRedraw
)

// argKind describes how a variant's payload parses.
type argKind int

const (
	argNone argKind = iota
	argString
	argStringOpt
	argIntDefault1
	argIntRequired
)

type actionSpec struct {
	name string
	arg  argKind
}

var actionSpecs = map[ActionKind]actionSpec{
	ActSelect:              {"Select", argNone},
	ActDeselect:            {"Deselect", argNone},
	ActToggle:              {"Toggle", argNone},
	ActCycleAll:            {"CycleAll", argNone},
	ActAccept:              {"Accept", argNone},
	ActQuit:                {"Quit", argIntDefault1},
	ActQuitEmpty:           {"QuitEmpty", argNone},
	ActCyclePreview:        {"CyclePreview", argNone},
	ActPreview:             {"Preview", argString},
	ActHelp:                {"Help", argStringOpt},
	ActSwitchPreview:       {"SwitchPreview", argIntDefault1},
	ActSetPreview:          {"SetPreview", argIntDefault1},
	ActToggleWrap:          {"ToggleWrap", argNone},
	ActToggleWrapPreview:   {"ToggleWrapPreview", argNone},
	ActExecute:             {"Execute", argString},
	ActBecome:              {"Become", argString},
	ActReload:              {"Reload", argString},
	ActPrint:               {"Print", argString},
	ActSetInput:            {"SetInput", argString},
	ActSetHeader:           {"SetHeader", argStringOpt},
	ActSetFooter:           {"SetFooter", argStringOpt},
	ActSetPrompt:           {"SetPrompt", argStringOpt},
	ActColumn:              {"Column", argIntRequired},
	ActCycleColumn:         {"CycleColumn", argNone},
	ActForwardChar:         {"ForwardChar", argNone},
	ActBackwardChar:        {"BackwardChar", argNone},
	ActForwardWord:         {"ForwardWord", argNone},
	ActBackwardWord:        {"BackwardWord", argNone},
	ActDeleteChar:          {"DeleteChar", argNone},
	ActDeleteWord:          {"DeleteWord", argNone},
	ActDeleteLineStart:     {"DeleteLineStart", argNone},
	ActDeleteLineEnd:       {"DeleteLineEnd", argNone},
	ActCancel:              {"Cancel", argNone},
	ActChar:                {"Char", argString},
	ActUp:                  {"Up", argIntDefault1},
	ActDown:                {"Down", argIntDefault1},
	ActPreviewUp:           {"PreviewUp", argIntDefault1},
	ActPreviewDown:         {"PreviewDown", argIntDefault1},
	ActPreviewHalfPageUp:   {"PreviewHalfPageUp", argNone},
	ActPreviewHalfPageDown: {"PreviewHalfPageDown", argNone},
	ActPos:                 {"Pos", argIntRequired},
	ActRedraw:              {"Redraw", argNone},
}

var actionsByName = func() map[string]ActionKind {
	m := make(map[string]ActionKind, len(actionSpecs))
	for k, s := range actionSpecs {
		m[s.name] = k
	}
	return m
}()

// Action is one bindable operation, with its payload where the variant
// takes one.
type Action struct {
	Kind ActionKind
	Arg  string
	N    int
}

// String renders the canonical bind-file form.
func (a Action) String() string {
	spec := actionSpecs[a.Kind]
	switch spec.arg {
	case argNone:
		return spec.name
	case argString:
		return fmt.Sprintf("%s(%s)", spec.name, a.Arg)
	case argStringOpt:
		if a.Arg == "" {
			return spec.name
		}
		return fmt.Sprintf("%s(%s)", spec.name, a.Arg)
	case argIntRequired:
		return fmt.Sprintf("%s(%d)", spec.name, a.N)
	case argIntDefault1:
		if a.N == 1 {
			return spec.name
		}
		return fmt.Sprintf("%s(%d)", spec.name, a.N)
	}
	return spec.name
}

// ParseAction parses "Name" or "Name(arg)" into an action.
func ParseAction(s string) (Action, error) {
	name, data, hasData := s, "", false
	if pos := strings.IndexByte(s, '('); pos >= 0 && strings.HasSuffix(s, ")") {
		name = s[:pos]
		data = s[pos+1 : len(s)-1]
		hasData = true
	}

	kind, ok := actionsByName[name]
	if !ok {
		return Action{}, fmt.Errorf("unknown action %q", name)
	}
	spec := actionSpecs[kind]
	a := Action{Kind: kind}

	switch spec.arg {
	case argNone:
		if hasData && data != "" {
			return Action{}, fmt.Errorf("action %s takes no argument", name)
		}
	case argString:
		if !hasData {
			return Action{}, fmt.Errorf("action %s requires an argument", name)
		}
		a.Arg = data
	case argStringOpt:
		a.Arg = data
	case argIntRequired:
		if !hasData {
			return Action{}, fmt.Errorf("action %s requires an integer argument", name)
		}
		n, err := strconv.Atoi(data)
		if err != nil {
			return Action{}, fmt.Errorf("action %s: bad integer %q", name, data)
		}
		a.N = n
	case argIntDefault1:
		a.N = 1
		if hasData && data != "" {
			n, err := strconv.Atoi(data)
			if err != nil {
				return Action{}, fmt.Errorf("action %s: bad integer %q", name, data)
			}
			a.N = n
		}
	}
	return a, nil
}

// Actions is an ordered sequence bound to one trigger.
type Actions []Action

// ParseActions parses a bind value (one or more action strings).
func ParseActions(strs []string) (Actions, error) {
	out := make(Actions, 0, len(strs))
	for _, s := range strs {
		a, err := ParseAction(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Aliaser expands one action into a sequence before dispatch. Returning nil
// keeps the action unchanged.
type Aliaser func(Action) []Action

// expandAliases applies the aliaser over a batch in order.
func expandAliases(aliaser Aliaser, batch []Action) []Action {
	if aliaser == nil {
		return batch
	}
	out := make([]Action, 0, len(batch))
	for _, a := range batch {
		if exp := aliaser(a); exp != nil {
			out = append(out, exp...)
		} else {
			out = append(out, a)
		}
	}
	return out
}
