// Package matcher owns the matchable corpus: columns, the parsed per-column
// query, the incremental match pass, and paged highlighted results. Pushes
// arrive through a decorator chain of injectors; readers page through a
// consistent snapshot of the current match order.
package matcher

import (
	"regexp"

	"github.com/squirreljetpack/matchmaker/text"
)

// MaxSplits caps the number of byte ranges a splitter may produce per item.
const MaxSplits = 16

// Range is a half-open byte range into an item's raw form.
type Range struct {
	Start int
	End   int
}

// Indexed tags an item with its monotonic insertion index.
type Indexed[T any] struct {
	Index uint32
	Inner T
}

// Segmented carries an item together with its column byte ranges.
type Segmented[T any] struct {
	Inner  T
	Ranges []Range
}

// Render is implemented by item payloads that know their display form.
type Render interface {
	RenderText() text.Text
}

// Chunk is the standard item payload: a raw record plus its parsed styling
// when the input carried ANSI sequences. Styled is nil for plain records.
type Chunk struct {
	Raw    string
	Styled text.Text
}

// RenderText returns the styled form when present, the raw record otherwise.
func (c Chunk) RenderText() text.Text {
	if c.Styled != nil {
		return c.Styled
	}
	return text.FromString(c.Raw)
}

// Slice returns the chunk's display text for a byte range of Raw,
// preserving styling when present.
func (c Chunk) Slice(r Range) text.Text {
	if c.Styled == nil {
		return text.FromString(sliceString(c.Raw, r))
	}
	return sliceStyled(c.Styled, r)
}

func sliceString(s string, r Range) string {
	start, end := clampRange(r, len(s))
	return s[start:end]
}

func clampRange(r Range, n int) (int, int) {
	start := min(max(r.Start, 0), n)
	end := min(max(r.End, start), n)
	return start, end
}

// sliceStyled extracts the spans covering a byte range of the first line's
// plain content. Multi-line styled chunks slice only the first line; records
// are one line by construction.
func sliceStyled(t text.Text, r Range) text.Text {
	if len(t) == 0 {
		return text.Text{{}}
	}
	line := t[0]
	var out text.Line
	off := 0
	for _, sp := range line {
		spStart, spEnd := off, off+len(sp.Content)
		off = spEnd
		if spEnd <= r.Start || spStart >= r.End {
			continue
		}
		from := max(r.Start-spStart, 0)
		to := min(r.End-spStart, len(sp.Content))
		out = append(out, text.Styled(sp.Content[from:to], sp.Style))
	}
	return text.Text{out}
}

// StdItem is the ready-made instantiation used by the config-driven picker:
// an indexed, segmented chunk.
type StdItem = Indexed[Segmented[Chunk]]

// StdIdentifier keys a StdItem by its insertion index and yields the
// segmented payload as the selection value.
func StdIdentifier(it StdItem) (uint32, Segmented[Chunk]) {
	return it.Index, it.Inner
}

// SplitterFunc derives column byte ranges from an item's raw form.
type SplitterFunc func(string) []Range

// SingleSplitter maps the whole record to one column.
func SingleSplitter() SplitterFunc {
	return func(s string) []Range {
		return []Range{{Start: 0, End: len(s)}}
	}
}

// DelimiterSplitter splits at matches of re, producing up to maxCols ranges.
// The final range runs to the end of the record.
func DelimiterSplitter(re *regexp.Regexp, maxCols int) SplitterFunc {
	if maxCols <= 0 || maxCols > MaxSplits {
		maxCols = MaxSplits
	}
	return func(s string) []Range {
		var ranges []Range
		lastEnd := 0
		for _, m := range re.FindAllStringIndex(s, -1) {
			if len(ranges) >= maxCols-1 {
				break
			}
			ranges = append(ranges, Range{Start: lastEnd, End: m[0]})
			lastEnd = m[1]
		}
		ranges = append(ranges, Range{Start: lastEnd, End: len(s)})
		return ranges
	}
}

// RegexesSplitter selects one span per regex; a non-matching regex yields an
// empty span.
func RegexesSplitter(res []*regexp.Regexp) SplitterFunc {
	if len(res) > MaxSplits {
		res = res[:MaxSplits]
	}
	return func(s string) []Range {
		ranges := make([]Range, 0, len(res))
		for _, re := range res {
			if m := re.FindStringIndex(s); m != nil {
				ranges = append(ranges, Range{Start: m[0], End: m[1]})
			} else {
				ranges = append(ranges, Range{})
			}
		}
		return ranges
	}
}
