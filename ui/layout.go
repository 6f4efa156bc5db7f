package ui

// Rect is a screen region in cells.
type Rect struct {
	X, Y, W, H int
}

// Layout is the computed screen arrangement for one paint: the preview
// split (when visible and wide enough) and the vertical stack of input,
// status, header, results, and footer, optionally reversed so the input
// sits at the bottom.
type Layout struct {
	Total   Rect
	List    Rect // the non-preview side
	Preview Rect // zero when hidden

	Input   Rect
	Status  Rect
	Header  Rect
	Results Rect
	Footer  Rect
}

// minPreviewCells is the smallest width the preview pane and the list may
// each keep in a left/right split; top/bottom splits use half of it as the
// minimum height. Below it the pane is dropped for the paint.
const minPreviewCells = 8

// LayoutParams carries the knobs the engine derives from config.
type LayoutParams struct {
	Reverse     bool // input at the bottom, results growing upward
	HeaderLines int
	FooterLines int
	ShowStatus  bool
	PreviewOn   bool
	PreviewPos  PreviewPosition
	PreviewSize int // percent
}

// Compute splits the total area. Zero-height leftovers collapse cleanly.
func Compute(total Rect, p LayoutParams) Layout {
	l := Layout{Total: total}

	list := total
	if p.PreviewOn {
		size := p.PreviewSize
		if size <= 0 || size >= 100 {
			size = 50
		}
		switch p.PreviewPos {
		case PreviewLeft, PreviewRight:
			pw := total.W * size / 100
			if pw >= minPreviewCells && total.W-pw >= minPreviewCells {
				if p.PreviewPos == PreviewRight {
					list = Rect{X: total.X, Y: total.Y, W: total.W - pw, H: total.H}
					l.Preview = Rect{X: total.X + total.W - pw, Y: total.Y, W: pw, H: total.H}
				} else {
					l.Preview = Rect{X: total.X, Y: total.Y, W: pw, H: total.H}
					list = Rect{X: total.X + pw, Y: total.Y, W: total.W - pw, H: total.H}
				}
			}
		case PreviewTop, PreviewBottom:
			ph := total.H * size / 100
			if ph >= minPreviewCells/2 && total.H-ph >= minPreviewCells/2 {
				if p.PreviewPos == PreviewBottom {
					list = Rect{X: total.X, Y: total.Y, W: total.W, H: total.H - ph}
					l.Preview = Rect{X: total.X, Y: total.Y + total.H - ph, W: total.W, H: ph}
				} else {
					l.Preview = Rect{X: total.X, Y: total.Y, W: total.W, H: ph}
					list = Rect{X: total.X, Y: total.Y + ph, W: total.W, H: total.H - ph}
				}
			}
		}
	}
	l.List = list

	inputH := 1
	statusH := 0
	if p.ShowStatus {
		statusH = 1
	}
	headerH := min(p.HeaderLines, max(list.H-inputH-statusH, 0))
	footerH := min(p.FooterLines, max(list.H-inputH-statusH-headerH, 0))
	resultsH := max(list.H-inputH-statusH-headerH-footerH, 0)

	y := list.Y
	place := func(h int) Rect {
		r := Rect{X: list.X, Y: y, W: list.W, H: h}
		y += h
		return r
	}

	if p.Reverse {
		// Mirrored stack: the input sits at the bottom.
		l.Footer = place(footerH)
		l.Results = place(resultsH)
		l.Header = place(headerH)
		l.Status = place(statusH)
		l.Input = place(inputH)
	} else {
		l.Input = place(inputH)
		l.Status = place(statusH)
		l.Header = place(headerH)
		l.Results = place(resultsH)
		l.Footer = place(footerH)
	}
	return l
}
