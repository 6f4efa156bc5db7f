package matchmaker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/squirreljetpack/matchmaker/matcher"
	"github.com/squirreljetpack/matchmaker/text"
	"github.com/squirreljetpack/matchmaker/ui"
)

// spinnerFrames animates the status line while the matcher is running.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧"}

// relayout recomputes the screen split and propagates fresh dimensions to
// every view-model.
func (p *picker[T, S]) relayout() {
	headerLines := 0
	if p.header != "" {
		headerLines = strings.Count(p.header, "\n") + 1
	}
	footerLines := 0
	if p.footer != "" {
		footerLines = strings.Count(p.footer, "\n") + 1
	}

	// Inline (non-fullscreen) sessions may take only a fraction of the
	// terminal height.
	height := p.height
	if !p.mm.cfg.Terminal.Fullscreen {
		if pct := p.mm.cfg.Terminal.Height; pct > 0 && pct < 100 {
			height = max(p.height*pct/100, 3)
		}
	}

	p.layout = ui.Compute(ui.Rect{W: p.width, H: height}, ui.LayoutParams{
		Reverse:     p.mm.cfg.Results.Reverse,
		HeaderLines: headerLines,
		FooterLines: footerLines,
		ShowStatus:  true,
		PreviewOn:   p.pane.Visible(),
		PreviewPos:  p.pane.Active().Position,
		PreviewSize: p.pane.Active().Size,
	})

	p.input.SetWidth(max(p.layout.Input.W-runewidth.StringWidth(p.prompt), 1))
	p.results.SetHeight(p.layout.Results.H)
	p.pane.Resize(max(p.layout.Preview.W-1, 0), p.layout.Preview.H)
}

func (p *picker[T, S]) View() string {
	if p.width == 0 || p.height == 0 {
		return "Loading..."
	}
	p.relayout()

	list := p.viewList()

	var base []string
	if p.layout.Preview.W > 0 {
		base = p.joinPreview(list)
	} else {
		base = list
	}

	// Pad to the laid-out height.
	for len(base) < p.layout.Total.H {
		base = append(base, "")
	}
	base = base[:p.layout.Total.H]

	if p.overlay != nil {
		base = p.paintOverlay(base)
	}
	return strings.Join(base, "\n")
}

// viewList renders the non-preview side: input, status, header, results,
// footer, in the layout's orientation.
func (p *picker[T, S]) viewList() []string {
	sections := map[string][]string{
		"input":   {p.renderInput()},
		"status":  {p.renderStatus()},
		"header":  p.renderChrome(p.header, p.layout.Header),
		"results": p.renderResults(),
		"footer":  p.renderChrome(p.footer, p.layout.Footer),
	}

	order := []string{"input", "status", "header", "results", "footer"}
	if p.mm.cfg.Results.Reverse {
		order = []string{"footer", "results", "header", "status", "input"}
	}

	heights := map[string]int{
		"input":   p.layout.Input.H,
		"status":  p.layout.Status.H,
		"header":  p.layout.Header.H,
		"results": p.layout.Results.H,
		"footer":  p.layout.Footer.H,
	}

	lines := make([]string, 0, p.layout.List.H)
	for _, name := range order {
		sec := sections[name]
		h := heights[name]
		for i := 0; i < h; i++ {
			if i < len(sec) {
				lines = append(lines, sec[i])
			} else {
				lines = append(lines, "")
			}
		}
	}
	return lines
}

// renderInput paints the prompt and the visible slice of the editor, with
// a reverse-video cell marking the cursor.
func (p *picker[T, S]) renderInput() string {
	visible, col := p.input.View()
	p.inputRowY = p.layout.Input.Y

	// Split the visible text at the cursor column to invert the cell
	// under it.
	before := ansi.Truncate(visible, col, "")
	under := " "
	rest := ""
	if tail := ansi.TruncateLeft(visible, col, ""); tail != "" {
		g := firstGrapheme(tail)
		under = g
		rest = tail[len(g):]
	}
	cursor := text.Style{Reverse: true}.Render(under)

	return p.theme.Prompt.Render(p.prompt) + before + cursor + rest
}

func firstGrapheme(s string) string {
	for i := 1; i <= len(s); i++ {
		if i == len(s) || (s[i]&0xC0) != 0x80 {
			return s[:i]
		}
	}
	return s
}

// renderStatus paints the counts line.
func (p *picker[T, S]) renderStatus() string {
	matched, total := p.mm.Worker.Counts()
	parts := fmt.Sprintf("%d/%d", matched, total)
	if n := p.mm.Selection.Len(); n > 0 {
		parts += fmt.Sprintf(" (%d)", n)
	}
	if p.mm.Worker.Running() {
		frame := spinnerFrames[int(matched)%len(spinnerFrames)]
		parts = frame + " " + parts
	}
	if col := p.mm.Worker.ActiveColumn(p.input.CursorByte()); col != "" && col != "_" {
		parts += "  %" + col
	}
	return "  " + p.theme.Status.Render(parts)
}

// renderChrome wraps static header/footer text to the area width.
func (p *picker[T, S]) renderChrome(content string, area ui.Rect) []string {
	if content == "" || area.H == 0 {
		return nil
	}
	wrapped, _ := text.Wrap(text.FromString(content), max(area.W, 2))
	lines := make([]string, 0, len(wrapped))
	for _, l := range wrapped {
		lines = append(lines, p.theme.Header.Render(l.Plain()))
	}
	return lines
}

// renderResults pages the visible window out of the worker and paints each
// row: marker, cursor band, highlighted cells sized per the column policy.
// It also records the line-to-index map for mouse clicks and the bottom
// clip residual.
func (p *picker[T, S]) renderResults() []string {
	area := p.layout.Results
	p.clickRows = p.clickRows[:0]
	if area.H <= 0 {
		return nil
	}

	start, end := p.results.Window()
	markerWidth := 2
	contentWidth := max(area.W-markerWidth, 1)

	// First pass with natural widths to learn per-column maxima.
	limits := p.columnLimits(contentWidth)
	rows, widths, status := p.mm.Worker.Results(uint32(start), uint32(end), limits, p.theme.Highlight)
	p.status = status

	// Fit the observed widths into the available space and re-page only
	// when the fit actually shrank a column.
	if !p.mm.cfg.Results.Stacked && len(widths) > 1 {
		fitted := ui.SizeColumns(widths, contentWidth-gapWidth(len(widths)), p.mm.cfg.Results.MinWrapWidth)
		if !equalInts(fitted, widths) && p.wrapResults {
			rows, _, status = p.mm.Worker.Results(uint32(start), uint32(end), fitted, p.theme.Highlight)
			p.status = status
			widths = fitted
		}
	}
	p.colWidths = widths

	lines := make([]string, 0, area.H)
	cursorRow := -1
	if p.results.Enabled() {
		cursorRow = p.results.Pos() - start
	}

	for i, row := range rows {
		if len(lines) >= area.H {
			// The previous row filled the view; everything below clips.
			break
		}
		isCursor := i == cursorRow
		rowLines := p.renderRow(row, widths, isCursor)

		// Clip a too-tall final row, keeping its top portion, and record
		// the residual so scrolling back in feels continuous.
		if len(lines)+len(rowLines) > area.H {
			clip := len(lines) + len(rowLines) - area.H
			rowLines = rowLines[:len(rowLines)-clip]
			p.results.SetBottomClip(clip)
		}

		for _, rl := range rowLines {
			p.clickRows = append(p.clickRows, clickRow{y: area.Y + len(lines), index: start + i})
			lines = append(lines, rl)
		}
	}
	return lines
}

// columnLimits returns the width limits for the first paging pass.
func (p *picker[T, S]) columnLimits(contentWidth int) []int {
	n := len(p.mm.Worker.Columns())
	limits := make([]int, n)
	for i := range limits {
		if p.mm.cfg.Results.Stacked || n == 1 {
			if p.wrapResults {
				limits[i] = contentWidth
			} else {
				limits[i] = matcher.NoWidthLimit
			}
			continue
		}
		limits[i] = matcher.NoWidthLimit
	}
	return limits
}

func gapWidth(cols int) int {
	if cols <= 1 {
		return 0
	}
	return cols - 1
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// renderRow paints one result row: selection marker, then the cells either
// stacked (one sub-row each) or side by side padded to their widths.
func (p *picker[T, S]) renderRow(row matcher.Row[T], widths []int, isCursor bool) []string {
	marker := "  "
	if p.mm.Selection.Enabled() && p.mm.Selection.Contains(row.Item) {
		m := p.mm.cfg.Results.Marker
		if m == "" {
			m = "▌"
		}
		marker = p.theme.Marker.Render(m) + " "
	}

	cells := row.Cells
	if isCursor {
		patched := make([]text.Text, len(cells))
		for i, c := range cells {
			patched[i] = patchBg(c, p.theme.CursorRowBg)
		}
		cells = patched
	}

	var lines []string
	if p.mm.cfg.Results.Stacked && len(cells) > 1 {
		for _, cell := range cells {
			for _, l := range cell {
				lines = append(lines, marker+l.Render())
				marker = "  "
			}
		}
		return lines
	}

	height := row.Height
	for j := 0; j < height; j++ {
		var sb strings.Builder
		if j == 0 {
			sb.WriteString(marker)
		} else {
			sb.WriteString("  ")
		}
		for ci, cell := range cells {
			var line text.Line
			if j < len(cell) {
				line = cell[j]
			}
			rendered := line.Render()
			sb.WriteString(rendered)
			if ci < len(cells)-1 {
				pad := 0
				if ci < len(widths) {
					pad = widths[ci] - line.Width()
				}
				if pad > 0 {
					sb.WriteString(strings.Repeat(" ", pad))
				}
				sb.WriteString(" ")
			}
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// patchBg bakes a background color into spans that have none.
func patchBg(t text.Text, bg string) text.Text {
	out := make(text.Text, len(t))
	for i, line := range t {
		nl := make(text.Line, len(line))
		for j, sp := range line {
			if sp.Style.Bg == "" {
				sp.Style.Bg = bg
			}
			nl[j] = sp
		}
		out[i] = nl
	}
	return out
}

// joinPreview composes the list side with the preview pane per the layout.
func (p *picker[T, S]) joinPreview(list []string) []string {
	var content text.Text
	if p.mm.previewView != nil {
		content = p.mm.previewView.Results()
	}
	paneLines := p.pane.Render(content)

	prev := p.layout.Preview
	lst := p.layout.List
	border := p.theme.Border.Render("│")

	switch p.pane.Active().Position {
	case ui.PreviewTop, ui.PreviewBottom:
		out := make([]string, 0, p.height)
		pad := func(lines []string, h int) []string {
			for len(lines) < h {
				lines = append(lines, "")
			}
			return lines[:h]
		}
		if prev.Y < lst.Y {
			out = append(out, pad(paneLines, prev.H)...)
			out = append(out, pad(list, lst.H)...)
		} else {
			out = append(out, pad(list, lst.H)...)
			out = append(out, pad(paneLines, prev.H)...)
		}
		return out
	default:
		out := make([]string, 0, p.height)
		h := max(lst.H, prev.H)
		leftFirst := lst.X <= prev.X
		for i := 0; i < h; i++ {
			var left, right string
			if leftFirst {
				left = lineAt(list, i)
				right = lineAt(paneLines, i)
			} else {
				left = lineAt(paneLines, i)
				right = lineAt(list, i)
			}
			leftW := lst.W
			if !leftFirst {
				leftW = prev.W - 1
			}
			left = padLine(left, leftW)
			out = append(out, left+border+right)
		}
		return out
	}
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

// padLine pads the rendered line to width cells, truncating when over.
func padLine(s string, width int) string {
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

// paintOverlay dims the whole base uniformly and splices the overlay box
// over its center.
func (p *picker[T, S]) paintOverlay(base []string) []string {
	box := p.overlay.Render(p.width, p.height)
	if box == "" {
		return base
	}
	boxLines := strings.Split(box, "\n")
	boxW := 0
	for _, l := range boxLines {
		if w := ansi.StringWidth(l); w > boxW {
			boxW = w
		}
	}
	x := max((p.width-boxW)/2, 0)
	y := max((len(base)-len(boxLines))/2, 0)

	out := make([]string, len(base))
	for i, line := range base {
		dimmed := p.theme.Dim.Render(line)
		if i >= y && i < y+len(boxLines) {
			bl := boxLines[i-y]
			left := ansi.Truncate(dimmed, x, "")
			left = padLine(left, x)
			right := ansi.TruncateLeft(dimmed, x+ansi.StringWidth(bl), "")
			out[i] = left + bl + right
			continue
		}
		out[i] = dimmed
	}
	return out
}
