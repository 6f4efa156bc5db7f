package ui

import (
	"github.com/squirreljetpack/matchmaker/text"
)

// PreviewPosition places the preview pane relative to the results.
type PreviewPosition int

const (
	PreviewRight PreviewPosition = iota
	PreviewLeft
	PreviewTop
	PreviewBottom
)

// ParsePreviewPosition maps a config string; unknown strings fall back to
// right.
func ParsePreviewPosition(s string) PreviewPosition {
	switch s {
	case "left":
		return PreviewLeft
	case "top":
		return PreviewTop
	case "bottom":
		return PreviewBottom
	default:
		return PreviewRight
	}
}

// PreviewLayout is one configured preview arrangement.
type PreviewLayout struct {
	Command  string
	Position PreviewPosition
	Size     int // percent of the split axis
	Wrap     bool
}

// PreviewPane is the view-model for the preview area: which layout is
// active, whether the pane shows, and the scroll state over the previewer's
// line buffer.
type PreviewPane struct {
	Layouts []PreviewLayout
	active  int
	visible bool
	wrap    bool

	scroll int
	width  int
	height int
	total  int // line count of the current content, after wrap
}

// NewPreviewPane builds the pane over the configured layouts. With no
// layouts the pane stays hidden.
func NewPreviewPane(layouts []PreviewLayout) *PreviewPane {
	p := &PreviewPane{Layouts: layouts}
	if len(layouts) > 0 {
		p.visible = true
		p.wrap = layouts[0].Wrap
	}
	return p
}

// Visible reports whether the pane should be laid out.
func (p *PreviewPane) Visible() bool {
	return p.visible && len(p.Layouts) > 0
}

// Toggle flips visibility.
func (p *PreviewPane) Toggle() {
	p.visible = !p.visible
}

// SetVisible sets visibility.
func (p *PreviewPane) SetVisible(v bool) {
	p.visible = v
}

// Active returns the current layout. Calling it with no layouts configured
// returns a zero layout.
func (p *PreviewPane) Active() PreviewLayout {
	if len(p.Layouts) == 0 {
		return PreviewLayout{}
	}
	return p.Layouts[p.active]
}

// Cycle advances to the next layout, wrapping.
func (p *PreviewPane) Cycle() {
	if len(p.Layouts) == 0 {
		return
	}
	p.active = (p.active + 1) % len(p.Layouts)
	p.wrap = p.Layouts[p.active].Wrap
	p.scroll = 0
}

// Switch selects layout n (1-based); 0 toggles visibility.
func (p *PreviewPane) Switch(n int) {
	if n == 0 {
		p.Toggle()
		return
	}
	if n-1 >= 0 && n-1 < len(p.Layouts) {
		p.active = n - 1
		p.wrap = p.Layouts[p.active].Wrap
		p.scroll = 0
		p.visible = true
	}
}

// ToggleWrap flips line wrapping for the pane.
func (p *PreviewPane) ToggleWrap() {
	p.wrap = !p.wrap
}

// Wrap reports the wrap setting.
func (p *PreviewPane) Wrap() bool {
	return p.wrap
}

// Resize sets the pane's inner dimensions.
func (p *PreviewPane) Resize(width, height int) {
	p.width = width
	p.height = height
	p.clampScroll()
}

// Scroll moves by delta lines.
func (p *PreviewPane) Scroll(delta int) {
	p.scroll += delta
	p.clampScroll()
}

// HalfPage returns half the pane height, at least one line.
func (p *PreviewPane) HalfPage() int {
	return max(p.height/2, 1)
}

// ResetScroll returns to the top. Called when the preview command changes.
func (p *PreviewPane) ResetScroll() {
	p.scroll = 0
}

func (p *PreviewPane) clampScroll() {
	maxScroll := p.total - p.height
	if maxScroll < 0 {
		maxScroll = 0
	}
	if p.scroll > maxScroll {
		p.scroll = maxScroll
	}
	if p.scroll < 0 {
		p.scroll = 0
	}
}

// Render lays the preview content into the pane: wrap or truncate to
// width, then window by the scroll offset. Updates the cached total for
// scroll clamping.
func (p *PreviewPane) Render(content text.Text) []string {
	shaped := content
	if p.width > 0 {
		if p.wrap {
			shaped, _ = text.Wrap(content, p.width)
		} else {
			shaped = text.Truncate(content, p.width)
		}
	}
	p.total = shaped.Height()
	p.clampScroll()

	start := min(p.scroll, p.total)
	end := min(start+p.height, p.total)
	lines := make([]string, 0, end-start)
	for _, l := range shaped[start:end] {
		lines = append(lines, l.Render())
	}
	return lines
}
