package matchmaker

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/squirreljetpack/matchmaker/config"
	"github.com/squirreljetpack/matchmaker/matcher"
	"github.com/squirreljetpack/matchmaker/previewer"
	"github.com/squirreljetpack/matchmaker/text"
)

// Result is a finished session. Become is the command the caller should
// replace the process image with; Prints are queued Print payloads, written
// ahead of the accepted output.
type Result[S any] struct {
	Selected []S
	Prints   []string
	Query    string
	Become   string
}

// Reloader restarts the input source after a worker restart. The engine
// calls it with the Reload payload; it must attach a fresh injector chain.
type Reloader func(command string) error

// Matchmaker binds a worker, a selection set, bindings, and a previewer
// into a pickable session.
//
// To use: build your worker and identifier, call New (or NewFromConfig for
// the string pipeline), register handlers, then call Pick.
type Matchmaker[T, S any] struct {
	Worker    *matcher.Worker[T]
	Selection *Selector[T, S]

	cfg     config.Config
	binds   *BindMap
	aliaser Aliaser
	theme   Theme

	renderItem   func(T) string
	renderOutput func(S) string
	formatFn     matcher.FormatFunc[T]

	events     EventHandlers[T, S]
	interrupts InterruptHandlers[T, S]

	preview     *previewer.Previewer
	previewView *previewer.View

	reloader Reloader

	confWatcher *configWatcher

	// notifyCh wakes the render loop when the matcher commits a pass.
	notifyCh chan struct{}
}

// WatchConfig starts hot-reloading the [binds] table from the config file
// at path. Directives land in the running picker's rebind mailbox.
func (m *Matchmaker[T, S]) WatchConfig(path string) {
	m.confWatcher = newConfigWatcher(path)
	go m.confWatcher.run()
}

// New builds a matchmaker over an existing worker. renderItem produces the
// default output form of an item; identifier keys selections.
func New[T, S any](w *matcher.Worker[T], identifier Identifier[T, S], renderItem func(T) string) *Matchmaker[T, S] {
	return &Matchmaker[T, S]{
		Worker:     w,
		Selection:  NewSelector(identifier),
		cfg:        config.Default(),
		binds:      DefaultBinds(),
		theme:      NewTheme(config.Default().Style),
		renderItem: renderItem,
		notifyCh:   make(chan struct{}, 1),
	}
}

// Notify returns the function to hand the worker as its notify callback.
func (m *Matchmaker[T, S]) Notify() func() {
	return func() {
		select {
		case m.notifyCh <- struct{}{}:
		default:
		}
	}
}

// ConfigBinds replaces the bindings table.
func (m *Matchmaker[T, S]) ConfigBinds(b *BindMap) *Matchmaker[T, S] {
	m.binds = b
	return m
}

// Config applies a full configuration.
func (m *Matchmaker[T, S]) Config(cfg config.Config) *Matchmaker[T, S] {
	m.cfg = cfg
	m.theme = NewTheme(cfg.Style)
	return m
}

// SetAliaser installs the action aliaser.
func (m *Matchmaker[T, S]) SetAliaser(a Aliaser) *Matchmaker[T, S] {
	m.aliaser = a
	return m
}

// SetOutputRender installs the S-to-string form used when writing results.
func (m *Matchmaker[T, S]) SetOutputRender(f func(S) string) *Matchmaker[T, S] {
	m.renderOutput = f
	return m
}

// SetFormatFn installs the template function used by preview and execute
// command expansion.
func (m *Matchmaker[T, S]) SetFormatFn(f matcher.FormatFunc[T]) *Matchmaker[T, S] {
	m.formatFn = f
	return m
}

// SetReloader installs the Reload(cmd) implementation.
func (m *Matchmaker[T, S]) SetReloader(r Reloader) *Matchmaker[T, S] {
	m.reloader = r
	return m
}

// ConnectPreview attaches a started previewer.
func (m *Matchmaker[T, S]) ConnectPreview(p *previewer.Previewer) *Matchmaker[T, S] {
	m.preview = p
	m.previewView = p.View()
	return m
}

// OnEvent registers a handler for every event bit in mask.
func (m *Matchmaker[T, S]) OnEvent(mask Event, fn func(*Dispatch[T, S], Event)) {
	m.events.On(mask, fn)
}

// OnInterrupt registers a handler for an interrupt kind.
func (m *Matchmaker[T, S]) OnInterrupt(kind InterruptKind, fn func(*Dispatch[T, S], Interrupt)) {
	m.interrupts.On(kind, fn)
}

// tickRate returns the configured render tick.
func (m *Matchmaker[T, S]) tickRate() time.Duration {
	ms := m.cfg.Terminal.TickRate
	if ms <= 0 {
		ms = 50
	}
	return time.Duration(ms) * time.Millisecond
}

// Pick runs the interactive session and returns the retained selections.
// A user quit surfaces as AbortError; an empty accept under the abort-empty
// policy as ErrNoMatch. A Become fills Result.Become with a nil error.
func (m *Matchmaker[T, S]) Pick() (Result[S], error) {
	// select_1 short-circuit at session start.
	if m.cfg.Exit.Select1 {
		if matched, _ := m.Worker.Counts(); matched == 1 {
			if item, ok := m.Worker.GetNth(0); ok {
				return Result[S]{Selected: m.Selection.Identify([]T{item})}, nil
			}
		}
	}

	if m.cfg.LastTriggerPath != "" {
		GCPersistTmp(m.cfg.LastTriggerPath)
	}

	p := newPicker(m)

	var opts []tea.ProgramOption
	if m.cfg.Terminal.Fullscreen {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, tea.WithMouseCellMotion())

	prog := tea.NewProgram(p, opts...)
	if m.preview != nil {
		m.preview.SetRefresh(func() {
			prog.Send(previewRefreshMsg{})
		})
		go m.preview.Run()
	}

	final, err := prog.Run()
	if err != nil {
		return Result[S]{}, TUIError{Msg: err.Error()}
	}
	fp, ok := final.(*picker[T, S])
	if !ok {
		return Result[S]{}, TUIError{Msg: "unexpected final model"}
	}
	fp.shutdown()
	return fp.result, fp.resultErr
}

// Filter runs the query non-interactively: every already-pushed item is
// matched once and all matches return in order. No terminal is touched.
func (m *Matchmaker[T, S]) Filter(query string) ([]S, error) {
	m.Worker.Find(query)
	deadline := time.Now().Add(10 * time.Second)
	for m.Worker.Running() {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("matcher did not settle")
		}
		time.Sleep(time.Millisecond)
	}
	return m.Selection.Identify(m.Worker.MatchedItems()), nil
}

// WriteOutput renders the result to w: prints first, then each selection
// followed by the output separator.
func (m *Matchmaker[T, S]) WriteOutput(w io.Writer, res Result[S]) error {
	for _, p := range res.Prints {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	sep := m.cfg.OutputSeparator
	if sep == "" {
		sep = "\n"
	}
	if m.cfg.Exit.PrintQuery {
		if _, err := io.WriteString(w, res.Query+sep); err != nil {
			return err
		}
	}
	render := m.renderOutput
	if render == nil {
		render = func(s S) string { return fmt.Sprint(s) }
	}
	for _, sel := range res.Selected {
		if _, err := io.WriteString(w, render(sel)+sep); err != nil {
			return err
		}
	}
	return nil
}

// SetupLogging points zerolog at the configured file sink, or disables
// logging entirely; a TUI must not write to stderr under the alt screen.
func SetupLogging(cfg config.Config) {
	path := cfg.LogFile
	if path == "" {
		path = os.Getenv("MM_LOG")
	}
	if path == "" {
		log.Logger = zerolog.Nop()
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Logger = zerolog.Nop()
		return
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
}

// StdMatchmaker is the ready-made instantiation over the string pipeline.
type StdMatchmaker = Matchmaker[matcher.StdItem, matcher.Segmented[matcher.Chunk]]

// NewFromConfig assembles the config-driven picker: a std worker with the
// configured splitter, the standard injector chain, binds, and output
// templating. The returned injector is the ingest head.
func NewFromConfig(cfg config.Config) (*StdMatchmaker, matcher.StdInjector, error) {
	splitter, names, err := cfg.Columns.Splitter()
	if err != nil {
		return nil, matcher.StdInjector{}, ConfigError{Err: err}
	}

	// The worker wants its notify callback at construction; wire it through
	// a channel created up front.
	notifyCh := make(chan struct{}, 1)
	w := matcher.NewStdWorker(names, cfg.Columns.Primary, func() {
		select {
		case notifyCh <- struct{}{}:
		default:
		}
	})

	m := New(w, matcher.StdIdentifier,
		func(it matcher.StdItem) string { return it.Inner.Inner.Raw })
	m.notifyCh = notifyCh
	m.Config(cfg)

	binds, err := ParseBinds(bindStrings(cfg.Binds))
	if err != nil {
		return nil, matcher.StdInjector{}, ConfigError{Err: err}
	}
	// The configured quit code flows into the default quit binds; explicit
	// Quit(n) binds keep their own code.
	if code := cfg.Exit.QuitCode; code != 0 && code != 1 {
		for _, key := range []string{"ctrl-c", "esc"} {
			if seq, ok := binds.Lookup(KeyOf(key)); ok && len(seq) == 1 && seq[0].Kind == ActQuit && seq[0].N == 1 {
				binds.Bind(KeyOf(key), Actions{{Kind: ActQuit, N: code}})
			}
		}
	}
	m.ConfigBinds(binds)

	m.SetFormatFn(matcher.DefaultFormatFn(m.Worker,
		func(it matcher.StdItem) string { return it.Inner.Inner.Raw }, true))
	m.SetOutputRender(func(s matcher.Segmented[matcher.Chunk]) string {
		if tpl := cfg.OutputTemplate; tpl != "" {
			unquoted := matcher.DefaultFormatFn(m.Worker,
				func(it matcher.StdItem) string { return it.Inner.Inner.Raw }, false)
			return unquoted(matcher.StdItem{Inner: s}, tpl)
		}
		return s.Inner.Raw
	})

	chain := matcher.NewStdChain(m.Worker, splitter, cfg.Columns.ParseANSI, text.AllowAll)

	m.SetReloader(func(command string) error {
		m.Worker.Restart(true)
		fresh := matcher.NewStdChain(m.Worker, splitter, cfg.Columns.ParseANSI, text.AllowAll)
		_, err := ReadCommand(command, nil, fresh, nil)
		return err
	})

	return m, chain, nil
}

func bindStrings(raw map[string]config.BindValue) map[string][]string {
	out := make(map[string][]string, len(raw))
	for k, v := range raw {
		out[k] = []string(v)
	}
	return out
}
