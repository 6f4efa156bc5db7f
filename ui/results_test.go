package ui

import "testing"

func TestResultsCursor(t *testing.T) {
	t.Run("disabled until matches arrive", func(t *testing.T) {
		r := NewResults(10, 2, false)
		if r.Enabled() {
			t.Error("enabled with no matches")
		}
		r.SetMatched(3)
		if !r.Enabled() || r.Pos() != 0 {
			t.Errorf("enabled=%v pos=%d, want true/0", r.Enabled(), r.Pos())
		}
	})

	t.Run("next and prev move within page", func(t *testing.T) {
		r := NewResults(10, 0, false)
		r.SetMatched(5)
		r.Next()
		r.Next()
		if r.Pos() != 2 || r.Top() != 0 {
			t.Errorf("pos=%d top=%d, want 2/0", r.Pos(), r.Top())
		}
		r.Prev()
		if r.Pos() != 1 {
			t.Errorf("pos=%d, want 1", r.Pos())
		}
	})

	t.Run("stops at the end without wrap", func(t *testing.T) {
		r := NewResults(10, 0, false)
		r.SetMatched(2)
		r.Next()
		r.Next()
		r.Next()
		if r.Pos() != 1 {
			t.Errorf("pos=%d, want 1", r.Pos())
		}
	})

	t.Run("wraps with wrap-scroll", func(t *testing.T) {
		r := NewResults(10, 0, true)
		r.SetMatched(2)
		r.Next()
		r.Next()
		if r.Pos() != 0 {
			t.Errorf("pos=%d, want wrapped to 0", r.Pos())
		}
	})

	t.Run("window slides inside padding band", func(t *testing.T) {
		r := NewResults(5, 2, false)
		r.SetMatched(20)
		// Advance: cursor climbs to H-p-1 = 2, then the window slides.
		r.Next()
		r.Next()
		if r.Top() != 0 {
			t.Fatalf("top=%d after 2 moves, want 0", r.Top())
		}
		r.Next()
		if r.Top() != 1 {
			t.Errorf("top=%d, want 1 (window slid)", r.Top())
		}
		if r.Pos() != 3 {
			t.Errorf("pos=%d, want 3", r.Pos())
		}
	})

	t.Run("padding released at the extremes", func(t *testing.T) {
		r := NewResults(5, 2, false)
		r.SetMatched(6)
		for i := 0; i < 10; i++ {
			r.Next()
		}
		// All items visible at the end; cursor may sit in the padding band.
		if r.Pos() != 5 {
			t.Errorf("pos=%d, want 5", r.Pos())
		}
		if r.Top() != 1 {
			t.Errorf("top=%d, want 1", r.Top())
		}
	})

	t.Run("scroll padding invariant mid-list", func(t *testing.T) {
		h, p := 7, 2
		r := NewResults(h, p, false)
		r.SetMatched(50)
		for i := 0; i < 20; i++ {
			r.Next()
			atTop := r.Top() == 0
			atBottom := r.Top()+h >= r.Matched()
			if !atTop && !atBottom {
				if r.cursor < p || r.cursor >= h-p {
					t.Fatalf("cursor row %d violates padding %d (h=%d)", r.cursor, p, h)
				}
			}
		}
	})
}

func TestResultsJump(t *testing.T) {
	t.Run("jump within view moves cursor only", func(t *testing.T) {
		r := NewResults(10, 0, false)
		r.SetMatched(8)
		r.Jump(4)
		if r.Top() != 0 || r.Pos() != 4 {
			t.Errorf("top=%d pos=%d, want 0/4", r.Top(), r.Pos())
		}
	})

	t.Run("jump out of view scrolls", func(t *testing.T) {
		r := NewResults(5, 0, false)
		r.SetMatched(100)
		r.Jump(50)
		if r.Pos() != 50 {
			t.Errorf("pos=%d, want 50", r.Pos())
		}
		if r.Top() > 50 || r.Top()+5 <= 50 {
			t.Errorf("top=%d leaves 50 outside the view", r.Top())
		}
	})

	t.Run("jump clamps to range", func(t *testing.T) {
		r := NewResults(5, 0, false)
		r.SetMatched(3)
		r.Jump(99)
		if r.Pos() != 2 {
			t.Errorf("pos=%d, want 2", r.Pos())
		}
		r.Jump(-5)
		if r.Pos() != 0 {
			t.Errorf("pos=%d, want 0", r.Pos())
		}
	})

	t.Run("near the end top clamps to show a full page", func(t *testing.T) {
		r := NewResults(5, 0, false)
		r.SetMatched(100)
		r.Jump(99)
		if r.Top() != 95 {
			t.Errorf("top=%d, want 95", r.Top())
		}
	})
}

func TestResultsShrink(t *testing.T) {
	t.Run("cursor clamps when count shrinks", func(t *testing.T) {
		r := NewResults(5, 0, false)
		r.SetMatched(100)
		r.Jump(80)
		r.SetMatched(10)
		if r.Pos() != 9 {
			t.Errorf("pos=%d, want 9", r.Pos())
		}
	})

	t.Run("zero matches disables", func(t *testing.T) {
		r := NewResults(5, 0, false)
		r.SetMatched(3)
		r.Next()
		r.SetMatched(0)
		if r.Enabled() {
			t.Error("enabled with zero matches")
		}
	})
}

func TestSizeColumns(t *testing.T) {
	t.Run("fits untouched", func(t *testing.T) {
		got := SizeColumns([]int{10, 20}, 40, 4)
		if got[0] != 10 || got[1] != 20 {
			t.Errorf("widths = %v, want natural", got)
		}
	})

	t.Run("scales proportionally over budget", func(t *testing.T) {
		got := SizeColumns([]int{30, 30}, 30, 4)
		if got[0]+got[1] != 30 {
			t.Errorf("sum = %d, want 30 (widths %v)", got[0]+got[1], got)
		}
	})

	t.Run("narrow columns keep their width", func(t *testing.T) {
		got := SizeColumns([]int{3, 60}, 30, 4)
		if got[0] != 3 {
			t.Errorf("narrow column = %d, want 3", got[0])
		}
		if got[1] != 27 {
			t.Errorf("wide column = %d, want 27", got[1])
		}
	})

	t.Run("hidden columns stay zero", func(t *testing.T) {
		got := SizeColumns([]int{0, 60}, 30, 4)
		if got[0] != 0 {
			t.Errorf("hidden = %d, want 0", got[0])
		}
	})

	t.Run("scaled columns respect the floor", func(t *testing.T) {
		got := SizeColumns([]int{100, 10}, 20, 8)
		for i, w := range got {
			if w != 0 && w < 8 {
				t.Errorf("column %d = %d, below floor", i, w)
			}
		}
	})

	t.Run("leftover goes to the last scalable column", func(t *testing.T) {
		got := SizeColumns([]int{50, 50}, 31, 4)
		if got[0]+got[1] != 31 {
			t.Errorf("sum = %d, want full budget 31 (widths %v)", got[0]+got[1], got)
		}
		if got[1] < got[0] {
			t.Errorf("leftover should land on the last column: %v", got)
		}
	})
}

func TestLayoutCompute(t *testing.T) {
	t.Run("vertical stack sums to the list height", func(t *testing.T) {
		l := Compute(Rect{W: 80, H: 24}, LayoutParams{ShowStatus: true, HeaderLines: 1, FooterLines: 1})
		sum := l.Input.H + l.Status.H + l.Header.H + l.Results.H + l.Footer.H
		if sum != 24 {
			t.Errorf("stack sum = %d, want 24", sum)
		}
		if l.Input.Y != 0 {
			t.Errorf("input y = %d, want 0 (top orientation)", l.Input.Y)
		}
	})

	t.Run("reverse puts input at the bottom", func(t *testing.T) {
		l := Compute(Rect{W: 80, H: 24}, LayoutParams{Reverse: true})
		if l.Input.Y != 23 {
			t.Errorf("input y = %d, want 23", l.Input.Y)
		}
	})

	t.Run("right preview splits the width", func(t *testing.T) {
		l := Compute(Rect{W: 80, H: 24}, LayoutParams{PreviewOn: true, PreviewPos: PreviewRight, PreviewSize: 50})
		if l.Preview.W != 40 || l.List.W != 40 {
			t.Errorf("split = %d/%d, want 40/40", l.List.W, l.Preview.W)
		}
		if l.Preview.X != 40 {
			t.Errorf("preview x = %d, want 40", l.Preview.X)
		}
	})

	t.Run("too-narrow preview is dropped", func(t *testing.T) {
		l := Compute(Rect{W: 10, H: 24}, LayoutParams{PreviewOn: true, PreviewPos: PreviewRight, PreviewSize: 50})
		if l.Preview.W != 0 {
			t.Errorf("preview w = %d, want 0 (dropped)", l.Preview.W)
		}
		if l.List.W != 10 {
			t.Errorf("list w = %d, want full width", l.List.W)
		}
	})

	t.Run("bottom preview splits the height", func(t *testing.T) {
		l := Compute(Rect{W: 80, H: 20}, LayoutParams{PreviewOn: true, PreviewPos: PreviewBottom, PreviewSize: 50})
		if l.Preview.H != 10 {
			t.Errorf("preview h = %d, want 10", l.Preview.H)
		}
		if l.Preview.Y != 10 {
			t.Errorf("preview y = %d, want 10", l.Preview.Y)
		}
	})
}
