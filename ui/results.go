package ui

// Results is the cursor/scroll state machine over the match order. `top` is
// the match index of the first visible row, `cursor` the row offset within
// the visible page; rows may be taller than one line when wrapping, which
// the paint pass resolves by clipping and recording a residual so scrolling
// back in feels continuous.
type Results struct {
	height  int // visible height H, in screen lines
	padding int // scroll padding p
	matched int // current matched count

	top        int
	cursor     int
	wrapScroll bool // wrap past the ends
	disabled   bool // no current item (empty match set)

	// bottomClip is the number of trailing lines of the last visible row
	// that were clipped at the previous paint.
	bottomClip int
}

// NewResults builds the state machine.
func NewResults(height, padding int, wrapScroll bool) *Results {
	return &Results{height: height, padding: padding, wrapScroll: wrapScroll, disabled: true}
}

// SetHeight updates the view height and re-clamps.
func (r *Results) SetHeight(h int) {
	r.height = h
	r.clamp()
}

// Height returns the view height.
func (r *Results) Height() int {
	return r.height
}

// SetMatched updates the matched count. On shrink the cursor clamps; on the
// first nonzero count the cursor enables at 0.
func (r *Results) SetMatched(n int) {
	r.matched = n
	if n == 0 {
		r.disabled = true
		r.top, r.cursor = 0, 0
		return
	}
	if r.disabled {
		r.disabled = false
		r.top, r.cursor = 0, 0
	}
	r.clamp()
}

// Matched returns the current matched count.
func (r *Results) Matched() int {
	return r.matched
}

// Enabled reports whether a current item exists.
func (r *Results) Enabled() bool {
	return !r.disabled && r.matched > 0
}

// Pos returns the cursor's absolute match index. Callers must check
// Enabled first.
func (r *Results) Pos() int {
	return r.top + r.cursor
}

// Top returns the first visible match index.
func (r *Results) Top() int {
	return r.top
}

// BottomClip returns the residual recorded at the previous paint.
func (r *Results) BottomClip() int {
	return r.bottomClip
}

// SetBottomClip records how many lines of the last visible row were
// clipped.
func (r *Results) SetBottomClip(n int) {
	r.bottomClip = n
}

// clamp forces the absolute position into [0, matched) and the window into
// range.
func (r *Results) clamp() {
	if r.matched == 0 {
		r.top, r.cursor = 0, 0
		return
	}
	if pos := r.Pos(); pos >= r.matched {
		r.jumpTo(r.matched - 1)
	}
	if r.top > 0 && r.top+r.height > r.matched {
		r.top = max(r.matched-r.height, 0)
		if r.top+r.cursor >= r.matched {
			r.cursor = r.matched - 1 - r.top
		}
	}
}

// Next advances the cursor one row. With the cursor inside the bottom
// padding band and more items below, the window slides instead; at the very
// end, wrap-scroll returns to the top.
func (r *Results) Next() {
	if !r.Enabled() {
		return
	}
	switch {
	case r.cursor+1+r.padding >= r.height && r.top+r.height < r.matched:
		r.top++
	case r.Pos()+1 < r.matched:
		r.cursor++
	case r.wrapScroll:
		r.top, r.cursor = 0, 0
	}
	r.bottomClip = 0
}

// Prev mirrors Next.
func (r *Results) Prev() {
	if !r.Enabled() {
		return
	}
	switch {
	case r.cursor-r.padding <= 0 && r.top > 0:
		r.top--
	case r.cursor > 0:
		r.cursor--
	case r.top > 0:
		r.top--
	case r.wrapScroll && r.matched > 0:
		r.jumpTo(r.matched - 1)
	}
	r.bottomClip = 0
}

// Jump moves to match index i, clamped to [0, matched-1], scrolling only
// when i is out of view.
func (r *Results) Jump(i int) {
	if !r.Enabled() {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= r.matched {
		i = r.matched - 1
	}
	if i >= r.top && i < r.top+r.height {
		r.cursor = i - r.top
		return
	}
	r.jumpTo(i)
	r.bottomClip = 0
}

func (r *Results) jumpTo(i int) {
	top := i
	if m := r.matched - r.height; top > m {
		top = max(m, 0)
	}
	r.top = top
	r.cursor = i - top
}

// Move applies a signed row delta.
func (r *Results) Move(delta int) {
	for ; delta > 0; delta-- {
		r.Next()
	}
	for ; delta < 0; delta++ {
		r.Prev()
	}
}

// Window returns the match index range [start, end) worth paging for the
// current view: from top through at most height rows.
func (r *Results) Window() (int, int) {
	start := r.top
	end := min(r.top+r.height, r.matched)
	return start, end
}

// SizeColumns fits natural column widths into the available width.
// Columns at or below minWrap keep their width; hidden columns (natural 0)
// stay 0; the rest scale proportionally, never below minWrap; leftover
// cells go to the last scalable column. When everything fits, the natural
// widths come back unchanged.
func SizeColumns(natural []int, available, minWrap int) []int {
	total := 0
	for _, w := range natural {
		total += w
	}
	out := make([]int, len(natural))
	copy(out, natural)
	if total <= available {
		return out
	}

	fixed := 0
	scalableTotal := 0
	lastScalable := -1
	for i, w := range natural {
		if w == 0 {
			continue
		}
		if w <= minWrap {
			fixed += w
			continue
		}
		scalableTotal += w
		lastScalable = i
	}
	if lastScalable == -1 {
		return out
	}

	budget := available - fixed
	if budget < 0 {
		budget = 0
	}

	used := 0
	for i, w := range natural {
		if w == 0 || w <= minWrap {
			continue
		}
		scaled := w * budget / scalableTotal
		if scaled < minWrap {
			scaled = minWrap
		}
		out[i] = scaled
		used += scaled
	}
	if leftover := budget - used; leftover > 0 {
		out[lastScalable] += leftover
	}
	return out
}
