package matcher

import (
	"regexp"
	"testing"

	"github.com/squirreljetpack/matchmaker/text"
)

func mustCompile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(pattern)
}

func TestDelimiterSplitter(t *testing.T) {
	t.Run("splits at matches", func(t *testing.T) {
		split := DelimiterSplitter(mustCompile(`\s+`), 3)
		got := split("a b c")
		want := []Range{{0, 1}, {2, 3}, {4, 5}}
		if len(got) != len(want) {
			t.Fatalf("ranges = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("range %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("last column takes the rest", func(t *testing.T) {
		split := DelimiterSplitter(mustCompile(" "), 2)
		got := split("a b c")
		if len(got) != 2 {
			t.Fatalf("ranges = %v, want 2", got)
		}
		if got[1] != (Range{2, 5}) {
			t.Errorf("tail range = %v, want {2 5}", got[1])
		}
	})

	t.Run("no delimiter yields one range", func(t *testing.T) {
		split := DelimiterSplitter(mustCompile(","), 3)
		got := split("abc")
		if len(got) != 1 || got[0] != (Range{0, 3}) {
			t.Errorf("ranges = %v, want [{0 3}]", got)
		}
	})
}

func TestRegexesSplitter(t *testing.T) {
	split := RegexesSplitter([]*regexp.Regexp{
		mustCompile(`^\w+`),
		mustCompile(`\d+$`),
		mustCompile(`zzz`),
	})
	got := split("alice 30")
	if len(got) != 3 {
		t.Fatalf("ranges = %v, want 3", got)
	}
	if got[0] != (Range{0, 5}) {
		t.Errorf("first = %v, want {0 5}", got[0])
	}
	if got[1] != (Range{6, 8}) {
		t.Errorf("second = %v, want {6 8}", got[1])
	}
	if got[2] != (Range{0, 0}) {
		t.Errorf("non-match = %v, want empty range", got[2])
	}
}

func TestChunkSlice(t *testing.T) {
	t.Run("plain chunk slices raw bytes", func(t *testing.T) {
		c := Chunk{Raw: "alice 30"}
		if got := c.Slice(Range{6, 8}).Plain(); got != "30" {
			t.Errorf("slice = %q, want %q", got, "30")
		}
	})

	t.Run("styled chunk keeps span styles", func(t *testing.T) {
		styled := text.ParseANSI("\x1b[31mred\x1b[0m plain", text.AllowAll)
		c := Chunk{Raw: styled.Plain(), Styled: styled}
		cell := c.Slice(Range{0, 3})
		if cell.Plain() != "red" {
			t.Fatalf("slice = %q, want %q", cell.Plain(), "red")
		}
		if cell[0][0].Style.Fg != "1" {
			t.Errorf("style = %+v, want fg 1", cell[0][0].Style)
		}
	})

	t.Run("out of bounds is clamped", func(t *testing.T) {
		c := Chunk{Raw: "ab"}
		if got := c.Slice(Range{1, 99}).Plain(); got != "b" {
			t.Errorf("slice = %q, want %q", got, "b")
		}
	})
}

func TestAnsiInjector(t *testing.T) {
	w := NewStdWorker(nil, 0, nil)
	t.Cleanup(w.Close)
	chain := NewStdChain(w, SingleSplitter(), true, text.AllowAll)

	if err := chain.Push("\x1b[32mgreen\x1b[0m line"); err != nil {
		t.Fatal(err)
	}
	settle(t, w.Running)

	item, ok := w.GetNth(0)
	if !ok {
		t.Fatal("item missing")
	}
	if item.Inner.Inner.Raw != "green line" {
		t.Errorf("raw = %q, want stripped text", item.Inner.Inner.Raw)
	}
	if item.Inner.Inner.Styled == nil {
		t.Fatal("styled text missing")
	}
}
