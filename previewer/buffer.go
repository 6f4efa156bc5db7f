// Package previewer supervises the preview sub-process: at most one child
// runs at a time, its stdout streamed into a versioned append-only line
// buffer that the render side consumes. The supervisor runs as a long-lived
// goroutine fed by a message channel, in the same shape as a session
// watcher: construct, `go p.Run()`, send messages, `p.Stop()`.
package previewer

import (
	"sync"

	"github.com/squirreljetpack/matchmaker/text"
)

// Buffer is the append-only, versioned line store shared by the feeder
// (writer) and the render task (reader). Every append is gated on the
// feeder's captured version: a stale feeder's writes are refused, so lines
// from different preview commands never interleave.
type Buffer struct {
	mu      sync.RWMutex
	version uint64
	lines   []text.Line
}

// NewBuffer returns an empty buffer at version 0.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Clear empties the buffer, bumps the version, and returns it. The caller
// hands the returned version to the feeder it spawns.
func (b *Buffer) Clear() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.version++
	b.lines = b.lines[:0]
	return b.version
}

// Append adds lines when version is still current. Returns false when the
// writer is stale; the writer must stop after a false return.
func (b *Buffer) Append(version uint64, lines []text.Line) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if version != b.version {
		return false
	}
	b.lines = append(b.lines, lines...)
	return true
}

// Snapshot copies the current lines.
func (b *Buffer) Snapshot() []text.Line {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]text.Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the current line count.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Version returns the current version.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}
