package matchmaker

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/squirreljetpack/matchmaker/config"
	"github.com/squirreljetpack/matchmaker/text"
)

// -- Colors ---------------------------------------------------------------
// Fallbacks use AdaptiveColor for dark/light terminal support; config
// colors override them per element.

var (
	ColorTextPrimary = lipgloss.AdaptiveColor{Light: "0", Dark: "252"}
	ColorTextDim     = lipgloss.AdaptiveColor{Light: "8", Dark: "243"}
	ColorTextMuted   = lipgloss.AdaptiveColor{Light: "7", Dark: "240"}
	ColorAccent      = lipgloss.AdaptiveColor{Light: "4", Dark: "75"}
	ColorBorder      = lipgloss.AdaptiveColor{Light: "7", Dark: "60"}
)

// Theme is the resolved style set for one session.
type Theme struct {
	Prompt    lipgloss.Style
	Header    lipgloss.Style
	Status    lipgloss.Style
	Marker    lipgloss.Style
	CursorRow lipgloss.Style
	Border    lipgloss.Style
	Dim       lipgloss.Style

	// Highlight is applied to matched graphemes in result cells; it lives
	// in the text package's style model because the matcher patches it
	// span by span.
	Highlight text.Style

	// CursorRowBg is the raw color patched into the cursor row's spans;
	// baking it into the spans keeps inner ANSI resets from stripping the
	// band mid-line.
	CursorRowBg string
}

// NewTheme resolves the configured styles over the adaptive fallbacks.
func NewTheme(s config.StyleConfig) Theme {
	color := func(v string, fallback lipgloss.TerminalColor) lipgloss.TerminalColor {
		if v == "" {
			return fallback
		}
		return lipgloss.Color(v)
	}

	return Theme{
		Prompt:    lipgloss.NewStyle().Foreground(color(s.PromptFg, ColorAccent)).Bold(true),
		Header:    lipgloss.NewStyle().Foreground(color(s.HeaderFg, ColorTextDim)),
		Status:    lipgloss.NewStyle().Foreground(color(s.StatusFg, ColorTextMuted)),
		Marker:    lipgloss.NewStyle().Foreground(color(s.MarkerFg, ColorAccent)),
		CursorRow: lipgloss.NewStyle().Background(color(s.CursorBg, lipgloss.AdaptiveColor{Light: "254", Dark: "236"})),
		Border:    lipgloss.NewStyle().Foreground(color(s.BorderFg, ColorBorder)),
		Dim:       lipgloss.NewStyle().Faint(true),
		Highlight: text.Style{Fg: s.MatchFg, Bold: s.MatchBold},
		CursorRowBg: func() string {
			if s.CursorBg != "" {
				return s.CursorBg
			}
			return "236"
		}(),
	}
}
