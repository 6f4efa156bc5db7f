package previewer

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/squirreljetpack/matchmaker/text"
)

// feederChunk is the read size for child stdout. Splitting happens at the
// last newline before the last valid UTF-8 boundary so multi-byte runes
// never tear across appends. A chunk with no newline is flushed up to that
// boundary, so an escape sequence can still be split there.
const feederChunk = 8 * 1024

// Shutdown reaping: total budget and poll interval.
const (
	reapTimeout = time.Second
	reapPoll    = 10 * time.Millisecond
)

// RunMsg starts a new preview command, killing the current one.
type RunMsg struct {
	Command string
	Env     []string // KEY=VALUE pairs appended to the child environment
}

// SetMsg installs a static text override without killing the running child.
type SetMsg struct {
	Text text.Text
}

// UnsetMsg drops the override.
type UnsetMsg struct{}

// StopMsg kills the current child.
type StopMsg struct{}

// reapEntry is a killed-but-not-yet-waited child. A goroutine closes done
// when the wait completes.
type reapEntry struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// Previewer owns the single preview slot. All process state lives on the
// Run goroutine; the buffer and override are the only shared surfaces.
type Previewer struct {
	msgs chan any
	done chan struct{}

	buf      *Buffer
	override sync.Mutex
	textOver text.Text
	hasOver  bool
	changed  atomic.Bool

	lossy   bool
	refresh func() // invoked when a stale feeder died before clean EOF

	current *exec.Cmd
	reap    []reapEntry
}

// New builds a previewer. lossy controls whether undecodable output is
// rendered via replacement runes instead of aborting the feed. refresh is
// forwarded to the outer event loop as a redraw request; nil is allowed.
func New(lossy bool, refresh func()) *Previewer {
	return &Previewer{
		msgs:    make(chan any, 8),
		done:    make(chan struct{}),
		buf:     NewBuffer(),
		lossy:   lossy,
		refresh: refresh,
	}
}

// SetRefresh installs the redraw hook. Must be called before the first Run
// message is processed.
func (p *Previewer) SetRefresh(refresh func()) {
	p.refresh = refresh
}

// View returns the consumer-side handle.
func (p *Previewer) View() *View {
	return &View{p: p}
}

// Send enqueues a message for the supervisor. Messages sent after Stop are
// dropped.
func (p *Previewer) Send(msg any) {
	select {
	case p.msgs <- msg:
	case <-p.done:
	}
}

// Stop terminates the supervisor. Safe to call once.
func (p *Previewer) Stop() {
	close(p.done)
}

// Run is the supervisor loop. Intended to be called as a goroutine. On
// shutdown, waits up to a second for killed children, then leak-logs any
// stragglers.
func (p *Previewer) Run() {
	for {
		select {
		case <-p.done:
			p.dispatchKill()
			p.cleanupProcs()
			return
		case msg := <-p.msgs:
			switch m := msg.(type) {
			case SetMsg:
				// Keep the child running; the override sits on top.
				p.setOverride(m.Text)
			case UnsetMsg:
				p.clearOverride()
			case RunMsg:
				p.dispatchKill()
				p.clearOverride()
				p.start(m)
			case StopMsg:
				p.dispatchKill()
			}
			p.pruneProcs()
		}
	}
}

func (p *Previewer) setOverride(t text.Text) {
	p.override.Lock()
	p.textOver = t
	p.hasOver = true
	p.override.Unlock()
	p.changed.Store(true)
}

func (p *Previewer) clearOverride() {
	p.override.Lock()
	p.textOver = nil
	p.hasOver = false
	p.override.Unlock()
	p.changed.Store(true)
}

// start clears the buffer (bumping the version) and spawns the child plus
// its feeder.
func (p *Previewer) start(m RunMsg) {
	version := p.buf.Clear()
	p.changed.Store(true)

	cmd := exec.Command("sh", "-c", m.Command)
	cmd.Env = append(os.Environ(), m.Env...)
	cmd.Stdin = nil
	cmd.Stderr = nil
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error().Err(err).Str("cmd", m.Command).Msg("preview stdout pipe")
		return
	}
	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Str("cmd", m.Command).Msg("preview spawn")
		return
	}

	eof := &atomic.Bool{}
	p.current = cmd
	go p.feed(stdout, version, eof, m.Command)
}

// feed streams child stdout into the buffer. Every append is gated on the
// captured version; on a version mismatch before clean end-of-stream, the
// outer loop is asked to refresh (the killed child may have left partial
// output on screen).
func (p *Previewer) feed(r io.Reader, version uint64, eof *atomic.Bool, cmdStr string) {
	var leftover []byte
	buf := make([]byte, feederChunk)

	appendBytes := func(b []byte) bool {
		if len(b) == 0 {
			return true
		}
		s := string(b)
		if !utf8.ValidString(s) {
			if !p.lossy {
				log.Error().Str("cmd", cmdStr).Msg("preview output is not valid UTF-8")
				if p.refresh != nil {
					p.refresh()
				}
				return false
			}
			s = string([]rune(s)) // replacement runes
		}
		parsed := text.ParseANSI(s, text.AllowAll)
		lines := make([]text.Line, 0, len(parsed))
		for _, l := range parsed {
			lines = append(lines, l)
		}
		// A trailing newline parses to a final empty line; drop it so the
		// buffer holds exactly the produced lines.
		if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
			lines = lines[:n-1]
		}
		if !p.buf.Append(version, lines) {
			if !eof.Load() && p.refresh != nil {
				p.refresh()
			}
			return false
		}
		p.changed.Store(true)
		return true
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			leftover = append(leftover, buf[:n]...)

			validUpTo := len(leftover)
			for validUpTo > 0 {
				r, size := utf8.DecodeLastRune(leftover[:validUpTo])
				if r != utf8.RuneError || size > 1 {
					break
				}
				validUpTo--
			}

			// Split at the last line break before the last valid UTF-8
			// boundary; with no break in sight the valid prefix flushes
			// whole, an artificial break being better than an unbounded
			// leftover.
			splitAt := validUpTo
			for i := validUpTo - 1; i >= 0; i-- {
				if leftover[i] == '\n' || leftover[i] == '\r' {
					splitAt = i + 1
					break
				}
			}

			if splitAt > 0 {
				if !appendBytes(leftover[:splitAt]) {
					return
				}
				leftover = append([]byte(nil), leftover[splitAt:]...)
			}
		}
		if err != nil {
			break
		}
	}

	eof.Store(true)
	appendBytes(leftover)
}

// dispatchKill kills the current child without waiting and moves it onto
// the reap queue. The feeder is not torn down; its next append fails the
// version gate and it exits on its own.
func (p *Previewer) dispatchKill() {
	if p.current == nil {
		return
	}
	cmd := p.current
	p.current = nil

	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	entry := reapEntry{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(entry.done)
	}()
	p.reap = append(p.reap, entry)
}

// pruneProcs drops reaped children. Non-blocking.
func (p *Previewer) pruneProcs() {
	kept := p.reap[:0]
	for _, e := range p.reap {
		select {
		case <-e.done:
		default:
			kept = append(kept, e)
		}
	}
	p.reap = kept
}

// cleanupProcs waits out the reap queue within the shutdown budget and
// leak-logs whatever is left.
func (p *Previewer) cleanupProcs() {
	deadline := time.Now().Add(reapTimeout)
	for len(p.reap) > 0 && time.Now().Before(deadline) {
		p.pruneProcs()
		if len(p.reap) == 0 {
			return
		}
		time.Sleep(reapPoll)
	}
	for _, e := range p.reap {
		log.Error().Int("pid", e.cmd.Process.Pid).Msg("preview child failed to exit in time")
	}
}
