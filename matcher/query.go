package matcher

import (
	"maps"
	"sort"
	"strings"
)

// columnRange records which column a byte range of the input feeds.
// End of -1 means "open" (runs to the end of the input).
type columnRange struct {
	start int
	end   int
	name  string // "" when the %prefix matched no column
	named bool
}

// Query is the parsed per-column form of the prompt line. `%name` switches
// subsequent tokens to that column; `\` escapes; a token is terminated by an
// ASCII space unless one of the column names is empty, in which case the
// whole tail belongs to the column.
type Query struct {
	columnNames []string
	primary     int
	fields      map[string]string
	ranges      []columnRange
	emptyColumn bool
}

// NewQuery builds an empty query over the given column names. Column names
// must be distinct.
func NewQuery(columnNames []string, primary int) *Query {
	if primary < 0 || primary >= len(columnNames) {
		primary = 0
	}
	q := &Query{
		columnNames: columnNames,
		primary:     primary,
		fields:      make(map[string]string, len(columnNames)),
	}
	for _, n := range columnNames {
		if n == "" {
			q.emptyColumn = true
			break
		}
	}
	q.ranges = []columnRange{{start: 0, end: -1, name: columnNames[primary], named: true}}
	return q
}

// Get returns the pattern for a column and whether one is set.
func (q *Query) Get(column string) (string, bool) {
	p, ok := q.fields[column]
	return p, ok
}

// PrimaryColumn returns the primary column's name.
func (q *Query) PrimaryColumn() string {
	return q.columnNames[q.primary]
}

// PrimaryQuery returns the primary column's pattern, if set.
func (q *Query) PrimaryQuery() (string, bool) {
	return q.Get(q.PrimaryColumn())
}

// Equal reports whether the parsed fields match another field map.
func (q *Query) Equal(other map[string]string) bool {
	return maps.Equal(q.fields, other)
}

// Parse replaces the query with the parse of input and returns the previous
// field map so callers can diff per-column changes.
func (q *Query) Parse(input string) map[string]string {
	fields := make(map[string]string)
	primaryField := q.columnNames[q.primary]
	escaped := false
	inField := false
	var field string
	fieldSet := false
	var textBuf strings.Builder

	q.ranges = q.ranges[:0]
	q.ranges = append(q.ranges, columnRange{start: 0, end: -1, name: primaryField, named: true})

	finishField := func() {
		key := primaryField
		if fieldSet {
			key = field
		}
		field, fieldSet = "", false

		// Trim one trailing space: keeps spaces usable as separators between
		// column filters while still allowing deliberate trailing spaces.
		pat := strings.TrimSuffix(textBuf.String(), " ")

		if prev, ok := fields[key]; ok {
			fields[key] = prev + " " + pat
		} else {
			fields[key] = pat
		}
		textBuf.Reset()
	}

	for idx, ch := range input {
		switch {
		case escaped:
			// '%' is the only special-cased character; escaping it prevents
			// the tail from parsing as a field name.
			if ch != '%' {
				textBuf.WriteByte('\\')
			}
			textBuf.WriteRune(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '%':
			if textBuf.Len() > 0 {
				finishField()
			}
			q.ranges[len(q.ranges)-1].end = idx
			inField = true
			textBuf.Reset()
		case ch == ' ' && inField && !q.emptyColumn:
			textBuf.Reset()
			inField = false
		case inField:
			textBuf.WriteRune(ch)
			// Longest-prefix disambiguation: of the columns the typed prefix
			// could name, the shortest name fits it best.
			name, ok := q.bestColumn(textBuf.String())
			field, fieldSet = name, ok

			last := &q.ranges[len(q.ranges)-1]
			if last.end == -1 {
				last.name, last.named = field, fieldSet
			} else {
				q.ranges = append(q.ranges, columnRange{start: idx, end: -1, name: field, named: fieldSet})
			}
		default:
			textBuf.WriteRune(ch)
		}
	}

	if !inField && textBuf.Len() > 0 {
		finishField()
	}

	old := q.fields
	q.fields = fields
	return old
}

// bestColumn finds the shortest column name having the given prefix.
func (q *Query) bestColumn(prefix string) (string, bool) {
	best := ""
	found := false
	for _, name := range q.columnNames {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if !found || len(name) < len(best) {
			best, found = name, true
		}
	}
	return best, found
}

// ActiveColumn returns the column the prompt cursor (a byte index) is
// editing, or "" when the cursor sits outside every column's text.
func (q *Query) ActiveColumn(cursor int) string {
	point := sort.Search(len(q.ranges), func(i int) bool {
		end := q.ranges[i].end
		return end == -1 || cursor <= end
	})
	if point >= len(q.ranges) {
		return ""
	}
	r := q.ranges[point]
	if cursor < r.start {
		return ""
	}
	if r.end != -1 && cursor > r.end {
		return ""
	}
	if !r.named {
		return ""
	}
	return r.name
}
