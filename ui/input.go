// Package ui holds the picker's pure view-models: the input editor, the
// results cursor/scroll state machine, the preview pane, overlays, and the
// layout arithmetic. Nothing here touches the terminal; the render loop
// stack-borrows these per iteration and paints them through the screen
// surface.
package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// grapheme records one cluster's byte offset and display width.
type grapheme struct {
	byteIndex int
	width     int
}

// Input is a grapheme-aware single-line editor. The cursor and all offsets
// are grapheme indices; a "before" index marks the first visible grapheme
// so the line scrolls horizontally to keep the cursor in view.
type Input struct {
	value     string
	graphemes []grapheme
	cursor    int
	before    int
	width     int // visible width in cells
	padding   int // horizontal scroll padding
}

// NewInput returns an empty editor with the given visible width.
func NewInput(width, padding int) *Input {
	return &Input{width: width, padding: padding}
}

// reindex rebuilds the grapheme table after any content change.
func (in *Input) reindex() {
	in.graphemes = in.graphemes[:0]
	g := uniseg.NewGraphemes(in.value)
	off := 0
	for g.Next() {
		s := g.Str()
		in.graphemes = append(in.graphemes, grapheme{byteIndex: off, width: runewidth.StringWidth(s)})
		off += len(s)
	}
}

// Value returns the current input line.
func (in *Input) Value() string {
	return in.value
}

// Cursor returns the cursor's grapheme index.
func (in *Input) Cursor() int {
	return in.cursor
}

// CursorByte returns the byte offset the cursor sits at.
func (in *Input) CursorByte() int {
	return in.byteIndex(in.cursor)
}

// Len returns the grapheme count.
func (in *Input) Len() int {
	return len(in.graphemes)
}

// byteIndex maps a grapheme index to a byte offset; the one-past-the-end
// index maps to len(value).
func (in *Input) byteIndex(g int) int {
	if g >= len(in.graphemes) {
		return len(in.value)
	}
	if g < 0 {
		return 0
	}
	return in.graphemes[g].byteIndex
}

// SetWidth updates the visible width; the visible window is recomputed
// lazily on the next ScrollToCursor.
func (in *Input) SetWidth(width int) {
	in.width = width
}

// Set replaces the value and clamps the cursor.
func (in *Input) Set(value string, cursor int) {
	in.value = value
	in.reindex()
	if cursor > len(in.graphemes) {
		cursor = len(in.graphemes)
	}
	if cursor < 0 {
		cursor = 0
	}
	in.cursor = cursor
}

// InsertChar inserts one rune at the cursor.
func (in *Input) InsertChar(c rune) {
	in.InsertString(string(c))
}

// InsertString inserts s at the cursor, advancing by the grapheme growth.
func (in *Input) InsertString(s string) {
	old := len(in.graphemes)
	b := in.byteIndex(in.cursor)
	in.value = in.value[:b] + s + in.value[b:]
	in.reindex()
	in.cursor += len(in.graphemes) - old
}

// ForwardChar moves right one grapheme.
func (in *Input) ForwardChar() {
	if in.cursor < len(in.graphemes) {
		in.cursor++
	}
}

// BackwardChar moves left one grapheme.
func (in *Input) BackwardChar() {
	if in.cursor > 0 {
		in.cursor--
	}
}

// wordBoundary helpers treat a word as a maximal non-whitespace run.
func (in *Input) graphemeAt(i int) string {
	start := in.byteIndex(i)
	end := in.byteIndex(i + 1)
	return in.value[start:end]
}

func isSpace(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ForwardWord moves past the end of the current or next word and the one
// whitespace grapheme that ends it.
func (in *Input) ForwardWord() {
	inWord := false
	for in.cursor < len(in.graphemes) {
		g := in.graphemeAt(in.cursor)
		in.cursor++
		if isSpace(g) {
			if inWord {
				return
			}
		} else {
			inWord = true
		}
	}
}

// BackwardWord moves to the start of the current or previous word.
func (in *Input) BackwardWord() {
	inWord := false
	for in.cursor > 0 {
		g := in.graphemeAt(in.cursor - 1)
		if isSpace(g) {
			if inWord {
				return
			}
		} else {
			inWord = true
		}
		in.cursor--
	}
}

// DeleteChar removes the grapheme before the cursor.
func (in *Input) DeleteChar() {
	if in.cursor == 0 {
		return
	}
	start := in.byteIndex(in.cursor - 1)
	end := in.byteIndex(in.cursor)
	in.value = in.value[:start] + in.value[end:]
	in.reindex()
	in.cursor--
}

// DeleteWord removes from the previous word start to the cursor.
func (in *Input) DeleteWord() {
	old := in.cursor
	in.BackwardWord()
	start := in.byteIndex(in.cursor)
	end := in.byteIndex(old)
	in.value = in.value[:start] + in.value[end:]
	in.reindex()
}

// DeleteLineStart removes everything before the cursor.
func (in *Input) DeleteLineStart() {
	end := in.byteIndex(in.cursor)
	in.value = in.value[end:]
	in.reindex()
	in.cursor = 0
}

// DeleteLineEnd removes everything from the cursor on.
func (in *Input) DeleteLineEnd() {
	in.value = in.value[:in.byteIndex(in.cursor)]
	in.reindex()
}

// Cancel clears the line.
func (in *Input) Cancel() {
	in.value = ""
	in.reindex()
	in.cursor = 0
	in.before = 0
}

// SetAtVisualOffset places the cursor at the grapheme nearest the given
// cell offset within the visible window. Used for mouse clicks.
func (in *Input) SetAtVisualOffset(x int) {
	w := 0
	for i := in.before; i < len(in.graphemes); i++ {
		if w+in.graphemes[i].width > x {
			in.cursor = i
			return
		}
		w += in.graphemes[i].width
	}
	in.cursor = len(in.graphemes)
}

// ScrollToCursor recomputes the first visible grapheme so the cursor plus
// padding stays inside the window.
func (in *Input) ScrollToCursor() {
	if in.width <= 0 {
		in.before = 0
		return
	}
	if in.before > in.cursor {
		in.before = max(in.cursor-in.padding, 0)
	}
	// Widen the window until cursor (+padding) fits from before.
	for in.visibleWidthTo(in.cursor+in.padding) >= in.width && in.before < in.cursor {
		in.before++
	}
}

// visibleWidthTo sums cell widths from before up to grapheme g (clamped).
func (in *Input) visibleWidthTo(g int) int {
	if g > len(in.graphemes) {
		g = len(in.graphemes)
	}
	w := 0
	for i := in.before; i < g; i++ {
		w += in.graphemes[i].width
	}
	return w
}

// View returns the visible slice of the line and the cursor's cell column
// within it.
func (in *Input) View() (string, int) {
	in.ScrollToCursor()
	start := in.byteIndex(in.before)
	visible := in.value[start:]
	if in.width > 0 {
		visible = runewidth.Truncate(visible, in.width, "")
	}
	return visible, in.visibleWidthTo(in.cursor)
}
