package matcher

import (
	"errors"
	"sync/atomic"

	"github.com/squirreljetpack/matchmaker/text"
)

// ErrInjectorShutdown is returned when a push arrives through an injector
// issued before a worker restart. Callers log and drop.
var ErrInjectorShutdown = errors.New("matcher: injector has been shut down")

// Injector is the write side of the corpus. Decorator layers compose by
// wrapping an inner injector of the wrapped item type.
type Injector[T any] interface {
	Push(item T) error
}

// WorkerInjector pushes directly into a worker. It is cheaply copyable and
// tagged with the worker version it was issued under; pushes from a stale
// handle fail with ErrInjectorShutdown.
type WorkerInjector[T any] struct {
	w       *Worker[T]
	version uint32
}

// Injector issues a handle tagged with the current worker version.
func (w *Worker[T]) Injector() WorkerInjector[T] {
	return WorkerInjector[T]{w: w, version: w.version.Load()}
}

// Push adds the item to the corpus.
func (i WorkerInjector[T]) Push(item T) error {
	if i.version != i.w.version.Load() {
		return ErrInjectorShutdown
	}
	i.w.push(item)
	return nil
}

// IndexedInjector atomically allocates a monotonic index per pushed item.
type IndexedInjector[T any] struct {
	inner   Injector[Indexed[T]]
	counter *atomic.Uint32
}

// NewIndexedInjector wraps inner with the given counter.
func NewIndexedInjector[T any](inner Injector[Indexed[T]], counter *atomic.Uint32) IndexedInjector[T] {
	return IndexedInjector[T]{inner: inner, counter: counter}
}

// globalCounter backs NewGloballyIndexedInjector. One picker session runs
// at a time; embedders needing concurrent sessions pass their own counter.
var globalCounter atomic.Uint32

// NewGloballyIndexedInjector resets the process-global index counter and
// wraps inner with it.
func NewGloballyIndexedInjector[T any](inner Injector[Indexed[T]]) IndexedInjector[T] {
	globalCounter.Store(0)
	return IndexedInjector[T]{inner: inner, counter: &globalCounter}
}

// Push allocates the next index and forwards.
func (i IndexedInjector[T]) Push(item T) error {
	index := i.counter.Add(1) - 1
	return i.inner.Push(Indexed[T]{Index: index, Inner: item})
}

// SegmentedInjector splits each item into column byte ranges via a
// user-supplied splitter.
type SegmentedInjector[T any] struct {
	inner    Injector[Segmented[T]]
	splitter func(T) []Range
}

// NewSegmentedInjector wraps inner with a splitter over the item type.
func NewSegmentedInjector[T any](inner Injector[Segmented[T]], splitter func(T) []Range) SegmentedInjector[T] {
	return SegmentedInjector[T]{inner: inner, splitter: splitter}
}

// Push computes the item's ranges and forwards. Splitters producing more
// than MaxSplits ranges are truncated.
func (i SegmentedInjector[T]) Push(item T) error {
	ranges := i.splitter(item)
	if len(ranges) > MaxSplits {
		ranges = ranges[:MaxSplits]
	}
	return i.inner.Push(Segmented[T]{Inner: item, Ranges: ranges})
}

// AnsiInjector turns raw records into chunks, optionally parsing ANSI
// escape sequences into styled text and scrubbing disallowed styles.
type AnsiInjector struct {
	inner Injector[Chunk]
	parse bool
	allow text.Allow
}

// NewAnsiInjector wraps inner. When parse is false records pass through
// verbatim.
func NewAnsiInjector(inner Injector[Chunk], parse bool, allow text.Allow) AnsiInjector {
	return AnsiInjector{inner: inner, parse: parse, allow: allow}
}

// Push forwards the record, parsed when configured.
func (i AnsiInjector) Push(raw string) error {
	if !i.parse {
		return i.inner.Push(Chunk{Raw: raw})
	}
	styled := text.ParseANSI(raw, i.allow)
	return i.inner.Push(Chunk{Raw: styled.Plain(), Styled: styled})
}

// StdInjector is the standard decorator stack over a StdItem worker:
// ANSI parse -> segment -> index -> worker.
type StdInjector = AnsiInjector

// NewStdChain assembles the standard stack. The splitter runs over the
// chunk's raw (ANSI-stripped) form.
func NewStdChain(w *Worker[StdItem], splitter SplitterFunc, parseANSI bool, allow text.Allow) StdInjector {
	wi := w.Injector()
	ii := NewGloballyIndexedInjector[Segmented[Chunk]](wi)
	si := NewSegmentedInjector[Chunk](ii, func(c Chunk) []Range {
		return splitter(c.Raw)
	})
	return NewAnsiInjector(si, parseANSI, allow)
}
