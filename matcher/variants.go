package matcher

import (
	"strings"

	"github.com/squirreljetpack/matchmaker/text"
)

// StdColumns builds columns over the standard item type: column i displays
// the item's i-th segment, styled when the record carried ANSI.
func StdColumns(names []string) []Column[StdItem] {
	cols := make([]Column[StdItem], len(names))
	for i, name := range names {
		i := i
		cols[i] = NewColumn(name, func(item StdItem) text.Text {
			seg := item.Inner
			if i >= len(seg.Ranges) {
				return text.Text{{}}
			}
			return seg.Inner.Slice(seg.Ranges[i])
		})
	}
	return cols
}

// NewStdWorker builds the config-driven worker: named columns over
// segmented chunks. With no names, one unnamed column spans the record,
// which also makes the query's %-syntax treat the whole tail as its
// pattern.
func NewStdWorker(names []string, primary int, notify func()) *Worker[StdItem] {
	if len(names) == 0 {
		names = []string{""}
	}
	return NewWorker(StdColumns(names), primary, notify)
}

// FormatFunc templates a string for an item: `{}` expands to the blank
// render, `{name}` to that column's text, `\x` escapes x.
type FormatFunc[T any] func(item T, template string) string

// DefaultFormatFn returns a template function over the worker's columns.
// When quote is set, substitutions are single-quoted for use as shell
// arguments; preview templates pass quote=false.
func DefaultFormatFn[T any](w *Worker[T], blank func(T) string, quote bool) FormatFunc[T] {
	columns := w.Columns()
	return func(item T, template string) string {
		var result strings.Builder
		result.Grow(len(template))
		var key strings.Builder

		const (
			stNormal = iota
			stKey
			stEscape
		)
		state := stNormal

		for _, c := range template {
			switch state {
			case stNormal:
				switch c {
				case '\\':
					state = stEscape
				case '{':
					state = stKey
				default:
					result.WriteRune(c)
				}
			case stEscape:
				// Only the template's own metacharacters are escapable;
				// anything else keeps its backslash.
				if c != '{' && c != '}' && c != '\\' {
					result.WriteByte('\\')
				}
				result.WriteRune(c)
				state = stNormal
			case stKey:
				if c != '}' {
					key.WriteRune(c)
					continue
				}
				var replacement string
				if key.Len() == 0 {
					replacement = blank(item)
				} else {
					for _, col := range columns {
						if col.Name == key.String() {
							replacement = col.FormatPlain(item)
							break
						}
					}
				}
				if quote {
					result.WriteByte('\'')
					result.WriteString(shellEscape(replacement))
					result.WriteByte('\'')
				} else {
					result.WriteString(replacement)
				}
				key.Reset()
				state = stNormal
			}
		}

		// An unterminated key is emitted literally.
		if key.Len() > 0 {
			result.WriteByte('{')
			result.WriteString(key.String())
		}
		if state == stEscape {
			result.WriteByte('\\')
		}
		return result.String()
	}
}

// shellEscape closes and reopens the single-quote context around embedded
// quotes so the substitution stays one shell word.
func shellEscape(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}
