package matchmaker

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/squirreljetpack/matchmaker/previewer"
	"github.com/squirreljetpack/matchmaker/ui"
)

// previewerRun builds the Run message for the preview child, adding the
// pane's COLUMNS/LINES to the session environment.
func previewerRun(cmd string, env []string, pane ui.Rect) previewer.RunMsg {
	env = append(env,
		"COLUMNS="+fmt.Sprint(pane.W),
		"LINES="+fmt.Sprint(pane.H),
	)
	return previewer.RunMsg{Command: cmd, Env: env}
}

func (p *picker[T, S]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.relayout()
		p.emitEvent(EventResize)
		return p, nil

	case tickMsg:
		cmds := p.iterate()
		cmds = append(cmds, tickCmd(p.mm.tickRate()))
		return p, tea.Batch(cmds...)

	case matchNotifyMsg:
		cmds := p.iterate()
		cmds = append(cmds, waitForNotify(p.mm.notifyCh))
		return p, tea.Batch(cmds...)

	case rebindMsg:
		for _, r := range msg {
			p.mm.binds.Apply(r)
		}
		var cmds []tea.Cmd
		if p.mm.confWatcher != nil {
			cmds = append(cmds, waitForRebinds(p.mm.confWatcher.sub))
		}
		return p, tea.Batch(cmds...)

	case previewRefreshMsg:
		p.emitEvent(EventRefresh)
		return p, nil

	case execDoneMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("execute child failed")
		}
		p.emitEvent(EventResume)
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)

	case tea.MouseMsg:
		return p.handleMouse(msg)
	}
	return p, nil
}

// iterate is the per-tick tail of the render iteration: refilter against
// the current input, pull fresh status, reconcile cursor bounds, derive
// outbound events, and keep the preview current.
func (p *picker[T, S]) iterate() []tea.Cmd {
	var cmds []tea.Cmd
	if len(p.pendingCmds) > 0 {
		cmds = append(cmds, p.pendingCmds...)
		p.pendingCmds = nil
	}

	if !p.started {
		p.started = true
		p.emitEvent(EventStart)
	}

	// Refilter.
	query := p.effectiveQuery()
	if query != p.lastQuery {
		p.mm.Worker.Find(query)
		p.lastQuery = query
		p.emitEvent(EventQueryChange)
	}

	// Status and cursor bounds.
	matched, _ := p.mm.Worker.Counts()
	p.results.SetMatched(int(matched))

	if pos := p.cursorPos(); pos != p.lastPos {
		p.lastPos = pos
		p.emitEvent(EventCursorChange)
	}

	// Settling edge: the matcher finished a pass under the current query.
	running := p.mm.Worker.Running()
	if p.wasRunning && !running {
		p.emitEvent(EventComplete)
		if cmd := p.checkSelect1(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	p.wasRunning = running

	// Preview visibility diff.
	if on := p.pane.Visible(); on != p.lastPreviewOn {
		p.lastPreviewOn = on
		p.emitEvent(EventPreviewChange)
	}

	// Process a pending mouse click converted to an absolute index.
	if p.pendingPos >= 0 {
		p.results.Jump(p.pendingPos)
		p.pendingPos = -1
	}

	p.refreshPreview()
	return cmds
}

// cursorPos returns the current absolute position, -1 when disabled.
func (p *picker[T, S]) cursorPos() int {
	if !p.results.Enabled() {
		return -1
	}
	return p.results.Pos()
}

// checkSelect1 short-circuits the session whenever a settling pass leaves
// exactly one match.
func (p *picker[T, S]) checkSelect1() tea.Cmd {
	if !p.mm.cfg.Exit.Select1 {
		return nil
	}
	if matched, _ := p.mm.Worker.Counts(); matched == 1 {
		return p.accept()
	}
	return nil
}

// handleKey routes one key press: overlay first, then the bindings table,
// then the plain-character fallthrough into the editor.
func (p *picker[T, S]) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := normalizeKey(msg.String())

	if p.overlay != nil {
		absorbed, done := p.overlay.HandleKey(key)
		if done {
			p.overlay = nil
			p.emitEvent(EventOverlayChange)
		}
		if absorbed {
			return p, nil
		}
	}

	trigger := KeyOf(key)
	p.persistTrigger(trigger)

	if seq, ok := p.mm.binds.Lookup(trigger); ok {
		return p, p.dispatchActions(seq)
	}

	// Unbound single printable characters (shift-letter included as its
	// uppercase form) forward to the input editor.
	if r, ok := isPlainChar(key); ok {
		return p, p.dispatchActions(Actions{{Kind: ActChar, Arg: string(r)}})
	}
	return p, nil
}

// handleMouse maps a mouse event to its trigger, with a click-to-index
// special case for the results area.
func (p *picker[T, S]) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	name := mouseTriggerName(msg)
	if name == "" {
		return p, nil
	}
	trigger := MouseOf(name)
	p.persistTrigger(trigger)

	if seq, ok := p.mm.binds.Lookup(trigger); ok {
		return p, p.dispatchActions(seq)
	}

	// Unbound left click: position the cursor.
	if name == "left" {
		if msg.Y == p.inputRowY {
			p.input.SetAtVisualOffset(msg.X - len(p.prompt))
			return p, nil
		}
		for _, cr := range p.clickRows {
			if cr.y == msg.Y {
				p.pendingPos = cr.index
				break
			}
		}
	}
	return p, nil
}

// mouseTriggerName normalizes a bubbletea mouse event to the config
// trigger form, or "" for kinds that are not bindable.
func mouseTriggerName(m tea.MouseMsg) string {
	var base string
	switch m.Button {
	case tea.MouseButtonWheelUp:
		base = "scrollup"
	case tea.MouseButtonWheelDown:
		base = "scrolldown"
	case tea.MouseButtonWheelLeft:
		base = "scrollleft"
	case tea.MouseButtonWheelRight:
		base = "scrollright"
	case tea.MouseButtonLeft:
		base = "left"
	case tea.MouseButtonMiddle:
		base = "middle"
	case tea.MouseButtonRight:
		base = "right"
	default:
		return ""
	}
	if m.Action == tea.MouseActionRelease {
		return ""
	}
	prefix := ""
	if m.Shift {
		prefix += "shift-"
	}
	if m.Ctrl {
		prefix += "ctrl-"
	}
	if m.Alt {
		prefix += "alt-"
	}
	return prefix + base
}

// persistTrigger records the last trigger to the configured path.
func (p *picker[T, S]) persistTrigger(t Trigger) {
	path := p.mm.cfg.LastTriggerPath
	if path == "" {
		return
	}
	if err := PersistTrigger(path, t); err != nil {
		log.Debug().Err(err).Msg("persist trigger")
	}
}

// dispatchActions expands aliases and applies the sequence in order. An
// interrupt raised by one action runs its handlers before the following
// actions.
func (p *picker[T, S]) dispatchActions(seq Actions) tea.Cmd {
	expanded := expandAliases(p.mm.aliaser, []Action(seq))
	var cmds []tea.Cmd
	for _, a := range expanded {
		if cmd := p.applyAction(a); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if p.resultErr != nil || p.result.Become != "" {
			break
		}
	}
	// Follow-up state reconciliation happens on the same iteration.
	cmds = append(cmds, tea.Batch(p.iterate()...))
	return tea.Batch(cmds...)
}

// applyAction mutates one piece of UI state or raises an interrupt.
func (p *picker[T, S]) applyAction(a Action) tea.Cmd {
	switch a.Kind {
	// --- Edit ---
	case ActChar:
		for _, r := range a.Arg {
			p.input.InsertChar(r)
		}
	case ActForwardChar:
		p.input.ForwardChar()
	case ActBackwardChar:
		p.input.BackwardChar()
	case ActForwardWord:
		p.input.ForwardWord()
	case ActBackwardWord:
		p.input.BackwardWord()
	case ActDeleteChar:
		p.input.DeleteChar()
	case ActDeleteWord:
		p.input.DeleteWord()
	case ActDeleteLineStart:
		p.input.DeleteLineStart()
	case ActDeleteLineEnd:
		p.input.DeleteLineEnd()
	case ActCancel:
		p.input.Cancel()
	case ActSetInput:
		p.input.Set(a.Arg, len(a.Arg))

	// --- Navigation ---
	case ActUp:
		p.results.Move(-a.N)
	case ActDown:
		p.results.Move(a.N)
	case ActPos:
		n := a.N
		if n < 0 {
			n = p.results.Matched() + n
		}
		p.results.Jump(n)

	// --- Selection ---
	case ActSelect:
		if item, ok := p.currentItem(); ok {
			p.mm.Selection.Select(item)
		}
	case ActDeselect:
		if item, ok := p.currentItem(); ok {
			p.mm.Selection.Deselect(item)
		}
	case ActToggle:
		if item, ok := p.currentItem(); ok {
			p.mm.Selection.Toggle(item)
		}
	case ActCycleAll:
		p.mm.Selection.CycleAll(p.mm.Worker.MatchedItems())

	// --- Session ---
	case ActAccept:
		return p.accept()
	case ActQuit:
		p.resultErr = AbortError{Code: a.N}
		return tea.Quit
	case ActQuitEmpty:
		p.result.Query = p.input.Value()
		return tea.Quit

	// --- Preview ---
	case ActCyclePreview:
		p.pane.Cycle()
		p.lastPreviewRun = ""
	case ActSwitchPreview:
		p.pane.Switch(a.N)
		p.lastPreviewRun = ""
	case ActSetPreview:
		if a.N > 0 {
			p.pane.Switch(a.N)
			p.lastPreviewRun = ""
		}
	case ActPreview:
		if p.previewCmdOver == a.Arg && p.pane.Visible() {
			p.pane.SetVisible(false)
		} else {
			// With no configured layouts the override gets a default pane.
			if len(p.pane.Layouts) == 0 {
				p.pane.Layouts = append(p.pane.Layouts, ui.PreviewLayout{Position: ui.PreviewRight, Size: 50})
			}
			p.previewCmdOver = a.Arg
			p.pane.SetVisible(true)
			p.lastPreviewRun = ""
		}
	case ActPreviewUp:
		p.pane.Scroll(-a.N)
	case ActPreviewDown:
		p.pane.Scroll(a.N)
	case ActPreviewHalfPageUp:
		p.pane.Scroll(-p.pane.HalfPage())
	case ActPreviewHalfPageDown:
		p.pane.Scroll(p.pane.HalfPage())
	case ActToggleWrap:
		p.wrapResults = !p.wrapResults
	case ActToggleWrapPreview:
		p.pane.ToggleWrap()

	// --- Chrome ---
	case ActSetHeader:
		p.header = a.Arg
	case ActSetFooter:
		p.footer = a.Arg
	case ActSetPrompt:
		p.prompt = a.Arg
	case ActHelp:
		p.openHelp(a.Arg)
	case ActColumn:
		names := p.filterColumnNames()
		if a.N >= 0 && a.N < len(names) {
			p.columnPrefix = names[a.N]
		}
	case ActCycleColumn:
		names := append([]string{""}, p.filterColumnNames()...)
		for i, n := range names {
			if n == p.columnPrefix {
				p.columnPrefix = names[(i+1)%len(names)]
				break
			}
		}

	// --- Interrupts ---
	case ActExecute:
		return p.runInterrupt(Interrupt{Kind: InterruptExecute, Payload: a.Arg})
	case ActBecome:
		return p.runInterrupt(Interrupt{Kind: InterruptBecome, Payload: a.Arg})
	case ActReload:
		return p.runInterrupt(Interrupt{Kind: InterruptReload, Payload: a.Arg})
	case ActPrint:
		return p.runInterrupt(Interrupt{Kind: InterruptPrint, Payload: a.Arg})

	case ActRedraw:
		return tea.ClearScreen
	}
	return nil
}

// runInterrupt applies the built-in effect of a one-shot interrupt, then
// runs registered handlers.
func (p *picker[T, S]) runInterrupt(in Interrupt) tea.Cmd {
	var cmd tea.Cmd
	switch in.Kind {
	case InterruptExecute:
		cmd = p.execute(in.Payload)
	case InterruptBecome:
		p.result.Become = p.expandTemplate(in.Payload)
		p.result.Query = p.input.Value()
		cmd = tea.Quit
	case InterruptReload:
		p.reload(in.Payload)
	case InterruptPrint:
		p.result.Prints = append(p.result.Prints, in.Payload)
	}
	p.mm.interrupts.emit(p.dispatch(), in)
	return cmd
}

// execute suspends the TUI (terminal released, buffered events dropped),
// runs the expanded command with the terminal, and resumes on completion.
func (p *picker[T, S]) execute(command string) tea.Cmd {
	expanded := p.expandTemplate(command)
	cmd := exec.Command("sh", "-c", expanded)
	cmd.Env = append(os.Environ(), p.childEnv(expanded)...)
	p.emitEvent(EventPause)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return execDoneMsg{err: err}
	})
}

// reload restarts the worker and re-ingests from the payload command.
func (p *picker[T, S]) reload(command string) {
	if p.mm.reloader == nil {
		log.Warn().Msg("reload requested without a reloader")
		return
	}
	if err := p.mm.reloader(command); err != nil {
		log.Error().Err(err).Str("cmd", command).Msg("reload failed")
		return
	}
	p.mm.Selection.Revalidate()
	p.lastPreviewRun = ""
}

// expandTemplate substitutes the current item into a command template.
// Without a column-aware format function, only the bare `{}` placeholder
// expands, through the item's default render.
func (p *picker[T, S]) expandTemplate(template string) string {
	if p.mm.formatFn == nil {
		if item, ok := p.currentItem(); ok && p.mm.renderItem != nil {
			return strings.ReplaceAll(template, "{}", "'"+p.mm.renderItem(item)+"'")
		}
		return template
	}
	item, ok := p.currentItem()
	if !ok {
		var zero T
		item = zero
	}
	return p.mm.formatFn(item, template)
}

// accept resolves the session: the selection set when non-empty, otherwise
// the current item; empty output succeeds only under accept_empty.
func (p *picker[T, S]) accept() tea.Cmd {
	if p.mm.Selection.Enabled() && p.mm.Selection.Len() > 0 {
		p.result.Selected = p.mm.Selection.Output()
	} else if item, ok := p.currentItem(); ok {
		p.result.Selected = p.mm.Selection.Identify([]T{item})
	}
	p.result.Query = p.input.Value()
	if len(p.result.Selected) == 0 && !p.mm.cfg.Exit.AcceptEmpty {
		p.resultErr = ErrNoMatch
	}
	return tea.Quit
}

// openHelp shows the help overlay: the active binds table, or caller-
// provided content.
func (p *picker[T, S]) openHelp(content string) {
	var lines []string
	if content == "" {
		lines = renderHelp(p.mm.binds, p.width)
	} else {
		lines = renderHelpText(content, p.width)
	}
	p.overlay = ui.NewHelpOverlay("Keys", lines)
	p.emitEvent(EventOverlayChange)
}

// emitEvent notifies registered handlers and then dispatches any actions
// bound to the event as a trigger.
func (p *picker[T, S]) emitEvent(ev Event) {
	p.mm.events.emit(p.dispatch(), ev)

	if p.dispatching {
		return
	}
	if seq, ok := p.mm.binds.Lookup(EventOf(ev)); ok {
		p.dispatching = true
		for _, a := range expandAliases(p.mm.aliaser, []Action(seq)) {
			if cmd := p.applyAction(a); cmd != nil {
				p.pendingCmds = append(p.pendingCmds, cmd)
			}
		}
		p.dispatching = false
	}
}

// refreshPreview re-runs the preview command when the pane is visible and
// the current item or command changed since the last run.
func (p *picker[T, S]) refreshPreview() {
	if p.mm.preview == nil || !p.pane.Visible() {
		return
	}
	command := p.previewCmdOver
	if command == "" {
		command = p.pane.Active().Command
	}
	if command == "" {
		return
	}

	expanded := p.expandTemplate(command)
	if expanded == p.lastPreviewRun {
		return
	}
	p.lastPreviewRun = expanded
	p.pane.ResetScroll()
	p.mm.preview.Send(previewerRun(expanded, p.childEnv(command), p.layout.Preview))
}

// childEnv assembles the environment exposed to spawned children.
func (p *picker[T, S]) childEnv(previewCommand string) []string {
	matched, total := p.mm.Worker.Counts()
	pos := ""
	if p.results.Enabled() {
		pos = fmt.Sprint(p.results.Pos())
	}
	return []string{
		"FZF_LINES=" + fmt.Sprint(p.layout.List.H),
		"FZF_COLUMNS=" + fmt.Sprint(p.layout.List.W),
		"FZF_TOTAL_COUNT=" + fmt.Sprint(total),
		"FZF_MATCH_COUNT=" + fmt.Sprint(matched),
		"FZF_SELECT_COUNT=" + fmt.Sprint(p.mm.Selection.Len()),
		"FZF_POS=" + pos,
		"FZF_QUERY=" + p.input.Value(),
		"FZF_PREVIEW_COMMAND=" + previewCommand,
	}
}
