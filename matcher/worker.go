package matcher

import (
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/squirreljetpack/matchmaker/text"
)

// NoWidthLimit in a width-limits slice means the column is unconstrained;
// 0 hides the column.
const NoWidthLimit = math.MaxUint16

// Column is a named logical field over items. Format produces the cell's
// styled text; filterable columns additionally feed the matcher.
type Column[T any] struct {
	Name   string
	format func(T) text.Text
	filter bool
}

// NewColumn builds a filterable column.
func NewColumn[T any](name string, format func(T) text.Text) Column[T] {
	return Column[T]{Name: name, format: format, filter: true}
}

// WithoutFiltering marks the column display-only: shown but never matched
// against.
func (c Column[T]) WithoutFiltering() Column[T] {
	c.filter = false
	return c
}

// Format renders the cell for an item.
func (c Column[T]) Format(item T) text.Text {
	return c.format(item)
}

// FormatPlain renders the cell without styling. The characters must match
// Format's output; matching and highlighting both depend on it.
func (c Column[T]) FormatPlain(item T) string {
	return c.format(item).Plain()
}

// Status is the per-tick read view of the match state.
type Status struct {
	ItemCount    uint32
	MatchedCount uint32
	Running      bool
	Changed      bool
}

// Row is one paged result: a styled cell per column, the item, and the
// row's height after wrapping.
type Row[T any] struct {
	Cells  []text.Text
	Item   T
	Height int
}

type entry[T any] struct {
	item T
	cols []string // plain text per filterable column, cached at push
}

type matchRow struct {
	idx   int
	score int
}

// snapshotView is what readers page through. It survives a restart until
// the next completed pass so the visible table never dangles.
type snapshotView[T any] struct {
	entries []entry[T]
	rows    []matchRow
}

// Worker owns the corpus, the parsed query, and the match pass. Pushes come
// in through injectors; the match pass runs on its own goroutine and calls
// notify when fresh results land.
type Worker[T any] struct {
	columns    []Column[T]
	filterCols []int // indices into columns, filterable only
	notify     func()

	version atomic.Uint32

	mu             sync.Mutex
	query          *Query
	corpus         []entry[T]
	patterns       []string // per filter column
	generation     uint64
	running        bool
	matched        snapshotView[T]
	matchedGen     uint64
	seenGen        uint64
	matchedThrough int      // corpus length the current rows cover
	committed      []string // patterns the current rows were computed under
	lastAppend     bool     // exposed for tests via lastFindAppend

	wake chan struct{}
	done chan struct{}
}

// NewWorker builds a worker over the given columns. Column names must be
// distinct. primary selects the column unprefixed query tokens feed.
// notify is called (from the match goroutine) whenever fresh results are
// available; it must be cheap and non-blocking.
func NewWorker[T any](columns []Column[T], primary int, notify func()) *Worker[T] {
	var filterCols []int
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
		if c.filter {
			filterCols = append(filterCols, i)
		}
	}
	w := &Worker[T]{
		columns:    columns,
		filterCols: filterCols,
		notify:     notify,
		query:      NewQuery(names, primary),
		patterns:   make([]string, len(filterCols)),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go w.matchLoop()
	return w
}

// NewSingleColumn builds a worker over items rendered as themselves.
func NewSingleColumn[T Render](notify func()) *Worker[T] {
	return NewWorker([]Column[T]{
		NewColumn("_", func(item T) text.Text { return item.RenderText() }),
	}, 0, notify)
}

// Columns exposes the immutable column slice. Shared by the worker and
// every outstanding injector; no writes after construction.
func (w *Worker[T]) Columns() []Column[T] {
	return w.columns
}

// Close stops the match goroutine. Outstanding injectors fail afterwards.
func (w *Worker[T]) Close() {
	w.version.Add(1)
	close(w.done)
}

// push adds one item to the corpus, caching each filterable column's plain
// text for matching. Called through injectors.
func (w *Worker[T]) push(item T) {
	cols := make([]string, len(w.filterCols))
	for i, ci := range w.filterCols {
		cols[i] = w.columns[ci].FormatPlain(item)
	}
	w.mu.Lock()
	w.corpus = append(w.corpus, entry[T]{item: item, cols: cols})
	w.generation++
	w.running = true
	w.mu.Unlock()
	w.signal()
}

// Extend pushes a batch through the worker's own injector.
func (w *Worker[T]) Extend(items []T) error {
	inj := w.Injector()
	for _, it := range items {
		if err := inj.Push(it); err != nil {
			return err
		}
	}
	return nil
}

// Find parses line into the per-column query and schedules a re-match of
// only the columns whose sub-pattern changed. Calling it twice with the
// same line is a no-op. Bad queries never fail; they match nothing.
func (w *Worker[T]) Find(line string) {
	w.mu.Lock()
	old := w.query.Parse(line)
	if w.query.Equal(old) {
		w.mu.Unlock()
		return
	}

	isAppend := true
	anyChange := false
	for i, ci := range w.filterCols {
		name := w.columns[ci].Name
		pattern, _ := w.query.Get(name)
		oldPattern := old[name]

		// Fastlane: most columns are unchanged after each edit.
		if pattern == oldPattern {
			continue
		}
		anyChange = true
		if !strings.HasPrefix(pattern, oldPattern) {
			isAppend = false
		}
		w.patterns[i] = pattern
	}
	if !anyChange {
		w.mu.Unlock()
		return
	}
	w.lastAppend = isAppend
	w.generation++
	w.running = true
	w.mu.Unlock()
	w.signal()
}

// lastFindAppend reports whether the previous Find was a pure append.
func (w *Worker[T]) lastFindAppend() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastAppend
}

// ActiveColumn reports which column the prompt cursor is editing.
func (w *Worker[T]) ActiveColumn(cursor int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.query.ActiveColumn(cursor)
}

// Restart bumps the worker version, invalidating every outstanding
// injector, and drops the corpus. When clearSnapshot is set the visible
// match view empties immediately; otherwise it lingers until the next
// completed pass.
func (w *Worker[T]) Restart(clearSnapshot bool) {
	w.version.Add(1)
	w.mu.Lock()
	w.corpus = nil
	w.matchedThrough = 0
	w.committed = nil // the old rows index a dropped corpus; no fastlane
	w.generation++
	w.running = true
	if clearSnapshot {
		w.matched = snapshotView[T]{}
		w.matchedGen++
	}
	w.mu.Unlock()
	w.signal()
}

// Counts returns (matched, total).
func (w *Worker[T]) Counts() (uint32, uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return uint32(len(w.matched.rows)), uint32(len(w.matched.entries))
}

// Running reports whether a match pass is in flight.
func (w *Worker[T]) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// GetNth returns the item at position n of the current match order.
func (w *Worker[T]) GetNth(n uint32) (T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var zero T
	if int(n) >= len(w.matched.rows) {
		return zero, false
	}
	return w.matched.entries[w.matched.rows[n].idx].item, true
}

// MatchedItems copies the items of the current match order. Used by
// cycle-all and the non-interactive filter path.
func (w *Worker[T]) MatchedItems() []T {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]T, len(w.matched.rows))
	for i, r := range w.matched.rows {
		out[i] = w.matched.entries[r.idx].item
	}
	return out
}

// FormatWith renders the named column for an item as plain text.
func (w *Worker[T]) FormatWith(item T, col string) (string, bool) {
	for _, c := range w.columns {
		if c.Name == col {
			return c.FormatPlain(item), true
		}
	}
	return "", false
}

func (w *Worker[T]) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// matchLoop is the worker's background pass. One pass per wake signal; a
// pass that observes a stale generation at commit time re-runs.
func (w *Worker[T]) matchLoop() {
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
		}
		for {
			if w.runPass() {
				break
			}
			select {
			case <-w.done:
				return
			default:
			}
		}
	}
}

// runPass computes the match set for the current generation. Returns false
// when the state changed underneath it and the pass must re-run.
func (w *Worker[T]) runPass() bool {
	w.mu.Lock()
	gen := w.generation
	entries := w.corpus
	patterns := make([]string, len(w.patterns))
	copy(patterns, w.patterns)

	// A pure pattern append can only shrink the match set, so the previous
	// rows plus any items pushed since are a complete candidate list. Valid
	// only when every pattern extends the one the rows were computed under.
	fastlane := len(w.matched.rows) > 0 && len(w.patterns) > 0 &&
		len(w.committed) == len(w.patterns)
	for i := range w.committed {
		if fastlane && !strings.HasPrefix(w.patterns[i], w.committed[i]) {
			fastlane = false
		}
	}
	var base []int
	if fastlane && w.matchedThrough <= len(entries) {
		base = make([]int, 0, len(w.matched.rows)+len(entries)-w.matchedThrough)
		for _, r := range w.matched.rows {
			if r.idx < len(entries) {
				base = append(base, r.idx)
			}
		}
		for i := w.matchedThrough; i < len(entries); i++ {
			base = append(base, i)
		}
		sort.Ints(base)
	} else {
		base = make([]int, len(entries))
		for i := range entries {
			base[i] = i
		}
	}
	isAppend := fastlane
	w.mu.Unlock()

	rows := w.computeRows(entries, base, patterns, isAppend, gen)
	if rows == nil && !w.generationIs(gen) {
		return false
	}

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		return false
	}
	w.matched = snapshotView[T]{entries: entries, rows: rows}
	w.matchedThrough = len(entries)
	w.committed = append(w.committed[:0], patterns...)
	w.matchedGen++
	w.running = false
	notify := w.notify
	w.mu.Unlock()

	if notify != nil {
		notify()
	}
	return true
}

func (w *Worker[T]) generationIs(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return gen == w.generation
}

// computeRows intersects the per-column matches over the candidate list.
// Returns nil early when the generation moves on mid-pass.
func (w *Worker[T]) computeRows(entries []entry[T], base []int, patterns []string, isAppend bool, gen uint64) []matchRow {
	cands := base
	scores := make(map[int]int)
	anyPattern := false

	for ci, pattern := range patterns {
		if pattern == "" {
			continue
		}
		anyPattern = true

		texts := make([]string, len(cands))
		for i, idx := range cands {
			texts[i] = entries[idx].cols[ci]
		}
		survivors := matchColumn(pattern, texts, isAppend)

		next := make([]int, 0, len(survivors))
		for _, s := range survivors {
			orig := cands[s.pos]
			scores[orig] += s.score
			next = append(next, orig)
		}
		sort.Ints(next)
		cands = next

		if !w.generationIs(gen) {
			return nil
		}
	}

	rows := make([]matchRow, len(cands))
	for i, idx := range cands {
		rows[i] = matchRow{idx: idx, score: scores[idx]}
	}
	if anyPattern {
		sort.SliceStable(rows, func(a, b int) bool {
			if rows[a].score != rows[b].score {
				return rows[a].score > rows[b].score
			}
			return rows[a].idx < rows[b].idx
		})
	}
	return rows
}

// Results pages through the matched items in order [start, end), one styled
// cell per column. widthLimits follows the column order; missing entries
// mean no limit. Returned widths carry the per-column maximum observed
// width, at least the header width for non-empty columns.
func (w *Worker[T]) Results(start, end uint32, widthLimits []int, highlight text.Style) ([]Row[T], []int, Status) {
	w.mu.Lock()
	view := w.matched
	status := Status{
		ItemCount:    uint32(len(view.entries)),
		MatchedCount: uint32(len(view.rows)),
		Running:      w.running,
		Changed:      w.matchedGen != w.seenGen,
	}
	w.seenGen = w.matchedGen
	patterns := make([]string, len(w.patterns))
	copy(patterns, w.patterns)
	w.mu.Unlock()

	widths := make([]int, len(w.columns))

	if start > status.MatchedCount {
		start = status.MatchedCount
	}
	if end > status.MatchedCount {
		end = status.MatchedCount
	}

	rows := make([]Row[T], 0, end-start)
	for n := start; n < end; n++ {
		item := view.entries[view.rows[n].idx].item
		cells := make([]text.Text, len(w.columns))
		height := 1
		fi := 0

		for i, col := range w.columns {
			limit := NoWidthLimit
			if i < len(widthLimits) {
				limit = widthLimits[i]
			}

			// 0 hides the column.
			if limit == 0 {
				cells[i] = text.Text{{}}
				if col.filter {
					fi++
				}
				continue
			}

			cell := col.Format(item)
			var width int
			switch {
			case col.filter:
				pattern := patterns[fi]
				fi++
				cell = highlightCell(cell, pattern, highlight)
				if limit < NoWidthLimit {
					var wrapped bool
					cell, wrapped = text.Wrap(cell, limit)
					if wrapped {
						width = limit
					} else {
						width = cell.Width()
					}
				} else {
					width = cell.Width()
				}
			case limit < NoWidthLimit:
				var wrapped bool
				cell, wrapped = text.Wrap(cell, limit)
				if wrapped {
					width = limit
				} else {
					width = cell.Width()
				}
			default:
				width = cell.Width()
			}

			if width > widths[i] {
				widths[i] = width
			}
			if h := cell.Height(); h > height {
				height = h
			}
			cells[i] = cell
		}

		rows = append(rows, Row[T]{Cells: cells, Item: item, Height: height})
	}

	// Non-empty columns are at least as wide as their header.
	for i, col := range w.columns {
		if widths[i] != 0 {
			if hw := runewidth.StringWidth(col.Name); hw > widths[i] {
				widths[i] = hw
			}
		}
	}

	return rows, widths, status
}

// highlightCell patches the highlight style onto the matched graphemes of a
// cell, coalescing adjacent graphemes with identical resulting style.
func highlightCell(cell text.Text, pattern string, highlight text.Style) text.Text {
	if pattern == "" {
		return cell
	}
	indices := highlightIndices(pattern, cell.Plain())
	if len(indices) == 0 {
		return cell
	}

	next := 0
	nextIdx := indices[0]
	gi := 0

	out := make(text.Text, 0, len(cell))
	for _, line := range cell {
		var spans text.Line
		var cur text.Span
		started := false

		for _, sp := range line {
			g := uniseg.NewGraphemes(sp.Content)
			for g.Next() {
				st := sp.Style
				if gi == nextIdx {
					st = sp.Style.Patch(highlight)
					next++
					if next < len(indices) {
						nextIdx = indices[next]
					} else {
						nextIdx = -1
					}
				}
				if !started || st != cur.Style {
					if started && cur.Content != "" {
						spans = append(spans, cur)
					}
					cur = text.Span{Style: st}
					started = true
				}
				cur.Content += g.Str()
				gi++
			}
		}
		if started && cur.Content != "" {
			spans = append(spans, cur)
		}
		out = append(out, spans)
		gi++ // line break counts one position
	}
	return out
}
