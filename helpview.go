package matchmaker

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// helpStyle picks the glamour style for the help overlay with the
// document margin zeroed out, since the overlay box handles its own
// padding.
func helpStyle() ansi.StyleConfig {
	var style ansi.StyleConfig
	if termenv.HasDarkBackground() {
		style = styles.DarkStyleConfig
	} else {
		style = styles.LightStyleConfig
	}
	style.Document.Margin = uintPtr(0)
	return style
}

func uintPtr(v uint) *uint { return &v }

// renderHelp renders the active binds table as markdown for the help
// overlay. Falls back to the raw table text when glamour fails.
func renderHelp(binds *BindMap, width int) []string {
	return renderHelpText(binds.Markdown(), width)
}

// renderHelpText renders arbitrary markdown help content into overlay
// lines.
func renderHelpText(content string, width int) []string {
	wrap := min(max(width-8, 20), 68)
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(helpStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return strings.Split(content, "\n")
	}
	out, err := r.Render(content)
	if err != nil {
		return strings.Split(content, "\n")
	}
	return strings.Split(strings.TrimRight(out, "\n"), "\n")
}
