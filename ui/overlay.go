package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Overlay is a modal widget drawn above the picker. While active it sees
// every action first; absorbed actions never reach the picker.
type Overlay interface {
	// HandleKey consumes a key string. Returns absorbed=false only for
	// input the overlay wants forwarded, and done=true when the overlay
	// should close.
	HandleKey(key string) (absorbed, done bool)
	// Render draws the overlay box for the given outer dimensions.
	Render(width, height int) string
}

// HelpOverlay shows prerendered help content (the active binds table) in a
// scrollable box. Any key dismisses it except plain navigation.
type HelpOverlay struct {
	content []string
	scroll  int
	title   string
}

// NewHelpOverlay builds the overlay from prerendered lines.
func NewHelpOverlay(title string, lines []string) *HelpOverlay {
	return &HelpOverlay{title: title, content: lines}
}

// HandleKey scrolls on j/k/up/down and closes on anything else.
func (h *HelpOverlay) HandleKey(key string) (bool, bool) {
	switch key {
	case "j", "down":
		h.scroll++
		return true, false
	case "k", "up":
		if h.scroll > 0 {
			h.scroll--
		}
		return true, false
	default:
		return true, true
	}
}

var (
	overlayBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	overlayTitle  = lipgloss.NewStyle().Bold(true)
)

// Render draws the centered box.
func (h *HelpOverlay) Render(width, height int) string {
	boxW := min(width-4, 72)
	boxH := min(height-2, len(h.content)+3)
	if boxW < 10 || boxH < 3 {
		return ""
	}
	innerH := boxH - 3 // border rows + title

	maxScroll := max(len(h.content)-innerH, 0)
	if h.scroll > maxScroll {
		h.scroll = maxScroll
	}
	visible := h.content[h.scroll:min(h.scroll+innerH, len(h.content))]

	body := overlayTitle.Render(h.title) + "\n" + strings.Join(visible, "\n")
	return overlayBorder.Width(boxW - 2).Render(body)
}

// DimStyle dims the rows surrounding an overlay; all four rects get the
// same treatment.
var DimStyle = lipgloss.NewStyle().Faint(true)
