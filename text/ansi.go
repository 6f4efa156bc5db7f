package text

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Allow flags select which style attributes survive ParseANSI. Disallowed
// attributes are scrubbed rather than failing the parse.
type Allow uint8

const (
	AllowFg Allow = 1 << iota
	AllowBg
	AllowAttrs

	AllowAll = AllowFg | AllowBg | AllowAttrs
)

// ParseANSI decodes a string containing SGR escape sequences into styled
// text. Non-SGR escape sequences (cursor movement, OSC, ...) are dropped.
// Newlines split lines; carriage returns are ignored.
func ParseANSI(s string, allow Allow) Text {
	var (
		out  Text
		cur  Line
		span Span
		st   Style
	)

	flush := func() {
		if span.Content != "" {
			cur = append(cur, span)
			span.Content = ""
		}
	}
	newline := func() {
		flush()
		out = append(out, cur)
		cur = nil
	}

	var state byte
	for len(s) > 0 {
		seq, _, n, newState := ansi.DecodeSequence(s, state, nil)
		if n == 0 {
			break
		}
		switch {
		case strings.HasPrefix(seq, "\x1b[") && strings.HasSuffix(seq, "m"):
			st = applySGR(st, seq[2:len(seq)-1], allow)
		case strings.HasPrefix(seq, "\x1b"):
			// Non-SGR escape sequence: scrubbed.
		case seq == "\n":
			newline()
		case seq == "\r":
			// ignore
		default:
			if span.Style != st {
				flush()
				span.Style = st
			}
			span.Content += seq
		}
		s = s[n:]
		state = newState
	}
	newline()
	return out
}

// StripANSI removes all escape sequences, returning plain text.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// applySGR folds one SGR parameter list into the style.
func applySGR(st Style, params string, allow Allow) Style {
	if params == "" {
		params = "0"
	}
	fields := strings.Split(params, ";")
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "0", "":
			st = Style{}
		case "1":
			if allow&AllowAttrs != 0 {
				st.Bold = true
			}
		case "2":
			if allow&AllowAttrs != 0 {
				st.Dim = true
			}
		case "3":
			if allow&AllowAttrs != 0 {
				st.Italic = true
			}
		case "4":
			if allow&AllowAttrs != 0 {
				st.Underline = true
			}
		case "7":
			if allow&AllowAttrs != 0 {
				st.Reverse = true
			}
		case "9":
			if allow&AllowAttrs != 0 {
				st.Strike = true
			}
		case "22":
			st.Bold, st.Dim = false, false
		case "23":
			st.Italic = false
		case "24":
			st.Underline = false
		case "27":
			st.Reverse = false
		case "29":
			st.Strike = false
		case "39":
			st.Fg = ""
		case "49":
			st.Bg = ""
		case "38", "48":
			color, consumed := extendedColor(fields[i+1:])
			if fields[i] == "38" {
				if allow&AllowFg != 0 {
					st.Fg = color
				}
			} else {
				if allow&AllowBg != 0 {
					st.Bg = color
				}
			}
			i += consumed
		default:
			if c, ok := basicColor(fields[i]); ok {
				if c.bg {
					if allow&AllowBg != 0 {
						st.Bg = c.value
					}
				} else if allow&AllowFg != 0 {
					st.Fg = c.value
				}
			}
		}
	}
	return st
}

// extendedColor decodes the tail of a 38/48 sequence: "5;n" or "2;r;g;b".
// Returns the lipgloss color string and how many fields were consumed.
func extendedColor(fields []string) (string, int) {
	if len(fields) == 0 {
		return "", 0
	}
	switch fields[0] {
	case "5":
		if len(fields) >= 2 {
			return fields[1], 2
		}
		return "", 1
	case "2":
		if len(fields) >= 4 {
			var r, g, b int
			fmt.Sscanf(fields[1], "%d", &r)
			fmt.Sscanf(fields[2], "%d", &g)
			fmt.Sscanf(fields[3], "%d", &b)
			return fmt.Sprintf("#%02x%02x%02x", r, g, b), 4
		}
		return "", len(fields)
	}
	return "", 0
}

type colorCode struct {
	value string
	bg    bool
}

// basicColor maps 30-37/90-97 foreground and 40-47/100-107 background codes.
func basicColor(field string) (colorCode, bool) {
	var n int
	if _, err := fmt.Sscanf(field, "%d", &n); err != nil {
		return colorCode{}, false
	}
	switch {
	case n >= 30 && n <= 37:
		return colorCode{value: fmt.Sprint(n - 30)}, true
	case n >= 90 && n <= 97:
		return colorCode{value: fmt.Sprint(n - 90 + 8)}, true
	case n >= 40 && n <= 47:
		return colorCode{value: fmt.Sprint(n - 40), bg: true}, true
	case n >= 100 && n <= 107:
		return colorCode{value: fmt.Sprint(n - 100 + 8), bg: true}, true
	}
	return colorCode{}, false
}
