// Package text provides the styled-text model shared by the matcher, the
// previewer, and the UI: spans of content with a comparable style, grouped
// into lines. Styles are kept as plain value structs so adjacent spans can
// be coalesced by equality; rendering to ANSI happens once, at paint time,
// through lipgloss.
package text

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Style is a comparable subset of terminal styling. The zero value renders
// text unstyled. Colors are lipgloss color strings ("1", "252", "#ff00ff").
type Style struct {
	Fg        string
	Bg        string
	Bold      bool
	Dim       bool
	Italic    bool
	Underline bool
	Reverse   bool
	Strike    bool
}

// IsZero reports whether the style carries no attributes.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Patch overlays o onto s: attributes set in o win, unset ones fall through.
func (s Style) Patch(o Style) Style {
	if o.Fg != "" {
		s.Fg = o.Fg
	}
	if o.Bg != "" {
		s.Bg = o.Bg
	}
	s.Bold = s.Bold || o.Bold
	s.Dim = s.Dim || o.Dim
	s.Italic = s.Italic || o.Italic
	s.Underline = s.Underline || o.Underline
	s.Reverse = s.Reverse || o.Reverse
	s.Strike = s.Strike || o.Strike
	return s
}

// Lipgloss converts the style for rendering.
func (s Style) Lipgloss() lipgloss.Style {
	st := lipgloss.NewStyle()
	if s.Fg != "" {
		st = st.Foreground(lipgloss.Color(s.Fg))
	}
	if s.Bg != "" {
		st = st.Background(lipgloss.Color(s.Bg))
	}
	if s.Bold {
		st = st.Bold(true)
	}
	if s.Dim {
		st = st.Faint(true)
	}
	if s.Italic {
		st = st.Italic(true)
	}
	if s.Underline {
		st = st.Underline(true)
	}
	if s.Reverse {
		st = st.Reverse(true)
	}
	if s.Strike {
		st = st.Strikethrough(true)
	}
	return st
}

// Render applies the style to str as an ANSI string.
func (s Style) Render(str string) string {
	if s.IsZero() {
		return str
	}
	return s.Lipgloss().Render(str)
}

// Span is a run of content under one style.
type Span struct {
	Content string
	Style   Style
}

// Styled builds a span.
func Styled(content string, style Style) Span {
	return Span{Content: content, Style: style}
}

// Width returns the display width of the span.
func (s Span) Width() int {
	return runewidth.StringWidth(s.Content)
}

// Line is a sequence of spans with no newlines.
type Line []Span

// LineFrom builds a single-span unstyled line.
func LineFrom(s string) Line {
	if s == "" {
		return Line{}
	}
	return Line{Span{Content: s}}
}

// Width returns the display width of the line.
func (l Line) Width() int {
	w := 0
	for _, sp := range l {
		w += sp.Width()
	}
	return w
}

// Plain returns the line's content without styling.
func (l Line) Plain() string {
	var b strings.Builder
	for _, sp := range l {
		b.WriteString(sp.Content)
	}
	return b.String()
}

// Render paints the line as an ANSI string.
func (l Line) Render() string {
	var b strings.Builder
	for _, sp := range l {
		b.WriteString(sp.Style.Render(sp.Content))
	}
	return b.String()
}

// Text is a block of lines. The zero value is empty.
type Text []Line

// FromString splits s on newlines into unstyled lines.
func FromString(s string) Text {
	if s == "" {
		return Text{Line{}}
	}
	raw := strings.Split(s, "\n")
	t := make(Text, len(raw))
	for i, r := range raw {
		t[i] = LineFrom(r)
	}
	return t
}

// Plain flattens the text to its unstyled contents, joined by newlines.
func (t Text) Plain() string {
	parts := make([]string, len(t))
	for i, l := range t {
		parts[i] = l.Plain()
	}
	return strings.Join(parts, "\n")
}

// Render paints the text as an ANSI string, lines joined by newlines.
func (t Text) Render() string {
	parts := make([]string, len(t))
	for i, l := range t {
		parts[i] = l.Render()
	}
	return strings.Join(parts, "\n")
}

// Width returns the widest line's display width.
func (t Text) Width() int {
	w := 0
	for _, l := range t {
		if lw := l.Width(); lw > w {
			w = lw
		}
	}
	return w
}

// Height returns the number of lines.
func (t Text) Height() int {
	return len(t)
}

// ContinuationMarker is appended where a wrapped line breaks.
const ContinuationMarker = "↵"

var continuationStyle = Style{Dim: true}

// Wrap breaks lines at grapheme boundaries so no line exceeds limit,
// appending a dimmed continuation marker at each break. Returns the wrapped
// text and whether any wrapping occurred. The marker occupies one cell, so
// content wraps at limit-1.
func Wrap(t Text, limit int) (Text, bool) {
	if limit <= 1 {
		return t, false
	}
	var out Text
	wrapped := false

	for _, line := range t {
		var cur Line
		var curSpan Span
		curWidth := 0

		flushSpan := func() {
			if curSpan.Content != "" {
				cur = append(cur, curSpan)
				curSpan.Content = ""
			}
		}

		rest := 0
		for _, sp := range line {
			rest += graphemeCount(sp.Content)
		}

		for _, sp := range line {
			if curSpan.Style != sp.Style {
				flushSpan()
				curSpan.Style = sp.Style
			}
			g := uniseg.NewGraphemes(sp.Content)
			for g.Next() {
				cluster := g.Str()
				gw := runewidth.StringWidth(cluster)
				rest--
				// Break before the grapheme would cross the marker column,
				// unless it is the final narrow grapheme of the line.
				if curWidth+gw > limit-1 && (gw > 1 || rest > 0) {
					flushSpan()
					cur = append(cur, Span{Content: ContinuationMarker, Style: continuationStyle})
					out = append(out, cur)
					cur = nil
					curWidth = 0
					wrapped = true
				}
				curSpan.Content += cluster
				curWidth += gw
			}
		}
		flushSpan()
		out = append(out, cur)
	}
	return out, wrapped
}

// graphemeCount returns the number of grapheme clusters in s.
func graphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// GraphemeCount is the exported form used by editor bookkeeping.
func GraphemeCount(s string) int {
	return graphemeCount(s)
}

// Truncate cuts the text's lines to at most limit cells, no marker.
func Truncate(t Text, limit int) Text {
	out := make(Text, len(t))
	for i, line := range t {
		var cur Line
		w := 0
		for _, sp := range line {
			if w >= limit {
				break
			}
			trimmed := runewidth.Truncate(sp.Content, limit-w, "")
			if trimmed != "" {
				cur = append(cur, Span{Content: trimmed, Style: sp.Style})
				w += runewidth.StringWidth(trimmed)
			}
		}
		out[i] = cur
	}
	return out
}
