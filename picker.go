package matchmaker

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/squirreljetpack/matchmaker/matcher"
	"github.com/squirreljetpack/matchmaker/ui"
)

// tickMsg drives the render tick.
type tickMsg time.Time

// matchNotifyMsg arrives when the matcher commits a pass.
type matchNotifyMsg struct{}

// rebindMsg carries hot-reloaded bind directives.
type rebindMsg []Rebind

// execDoneMsg arrives when an Execute child finishes and the terminal is
// back.
type execDoneMsg struct {
	err error
}

// previewRefreshMsg forces a repaint after a stale preview feeder died
// mid-write.
type previewRefreshMsg struct{}

func tickCmd(rate time.Duration) tea.Cmd {
	return tea.Tick(rate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForNotify blocks on the matcher's notify channel and wraps the
// wake-up for the runtime.
func waitForNotify(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return matchNotifyMsg{}
	}
}

// waitForRebinds blocks on the config watcher's subscription channel.
// Returns nil when the channel closes, unblocking the goroutine.
func waitForRebinds(sub chan []Rebind) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-sub
		if !ok {
			return nil
		}
		return rebindMsg(r)
	}
}

// clickRow maps one painted results line back to its match index.
type clickRow struct {
	y     int
	index int
}

// Dispatch aggregates the mutable picker state handed to event and
// interrupt handlers for the duration of one call. Handlers must not
// retain it.
type Dispatch[T, S any] struct {
	Input     *ui.Input
	Results   *ui.Results
	Pane      *ui.PreviewPane
	Worker    *matcher.Worker[T]
	Selection *Selector[T, S]

	// SetInterrupt schedules a one-shot side effect from inside a handler.
	SetInterrupt func(Interrupt)
}

// picker is the render-loop model: it owns the UI sub-state, drains
// commands, dispatches actions and interrupts, and repaints every tick.
type picker[T, S any] struct {
	mm *Matchmaker[T, S]

	input   *ui.Input
	results *ui.Results
	pane    *ui.PreviewPane
	overlay ui.Overlay

	theme  Theme
	prompt string
	header string
	footer string

	width  int
	height int
	layout ui.Layout

	status      matcher.Status
	colWidths   []int
	wrapResults bool

	// Column(n)/CycleColumn steer which column bare query tokens feed by
	// rewriting the effective query with a %name prefix.
	columnPrefix string

	// Derived-event bookkeeping: previous values diffed each iteration.
	started        bool
	lastQuery      string
	lastPos        int
	lastPreviewOn  bool
	wasRunning     bool
	previewCmdOver string // Preview(cmd) override
	lastPreviewRun string

	clickRows  []clickRow
	inputRowY  int
	pendingPos int // mouse click converted to an absolute index, -1 when none

	dispatching bool // recursion guard for event-bound actions
	pendingCmds []tea.Cmd

	result    Result[S]
	resultErr error
}

func newPicker[T, S any](m *Matchmaker[T, S]) *picker[T, S] {
	layouts := make([]ui.PreviewLayout, 0, len(m.cfg.Preview.Layouts))
	for _, lc := range m.cfg.Preview.Layouts {
		layouts = append(layouts, ui.PreviewLayout{
			Command:  lc.Command,
			Position: ui.ParsePreviewPosition(lc.Position),
			Size:     lc.Size,
			Wrap:     lc.Wrap,
		})
	}

	return &picker[T, S]{
		mm:          m,
		input:       ui.NewInput(0, 2),
		results:     ui.NewResults(0, m.cfg.Results.ScrollPadding, m.cfg.Results.WrapScroll),
		pane:        ui.NewPreviewPane(layouts),
		theme:       m.theme,
		prompt:      m.cfg.Input.Prompt,
		header:      m.cfg.Input.Header,
		footer:      m.cfg.Input.Footer,
		wrapResults: m.cfg.Results.Wrap,
		pendingPos:  -1,
	}
}

// dispatch builds the handler-facing state aggregate.
func (p *picker[T, S]) dispatch() *Dispatch[T, S] {
	return &Dispatch[T, S]{
		Input:     p.input,
		Results:   p.results,
		Pane:      p.pane,
		Worker:    p.mm.Worker,
		Selection: p.mm.Selection,
		SetInterrupt: func(in Interrupt) {
			p.runInterrupt(in)
		},
	}
}

func (p *picker[T, S]) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(p.mm.tickRate()),
		waitForNotify(p.mm.notifyCh),
	}
	if p.mm.cfg.WatchConfig && p.mm.confWatcher != nil {
		cmds = append(cmds, waitForRebinds(p.mm.confWatcher.sub))
	}
	return tea.Batch(cmds...)
}

// currentItem returns the item under the cursor.
func (p *picker[T, S]) currentItem() (T, bool) {
	var zero T
	if !p.results.Enabled() {
		return zero, false
	}
	return p.mm.Worker.GetNth(uint32(p.results.Pos()))
}

// effectiveQuery applies the column-prefix override to the typed input.
func (p *picker[T, S]) effectiveQuery() string {
	if p.columnPrefix == "" {
		return p.input.Value()
	}
	return "%" + p.columnPrefix + " " + p.input.Value()
}

// shutdown tears down session resources after the program exits.
func (p *picker[T, S]) shutdown() {
	if p.mm.confWatcher != nil {
		p.mm.confWatcher.stop()
	}
	if p.mm.preview != nil {
		p.mm.preview.Stop()
	}
}

// filterColumnNames lists every column name, in column order, for Column
// and CycleColumn.
func (p *picker[T, S]) filterColumnNames() []string {
	var names []string
	for _, c := range p.mm.Worker.Columns() {
		names = append(names, c.Name)
	}
	return names
}
