package matcher

import (
	"fmt"
	"testing"
	"time"

	"github.com/squirreljetpack/matchmaker/text"
)

// settle waits until the worker reports no pass in flight.
func settle(t *testing.T, running func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for running() {
		if time.Now().After(deadline) {
			t.Fatal("worker did not settle")
		}
		time.Sleep(time.Millisecond)
	}
}

func newStringWorker(t *testing.T) *Worker[StdItem] {
	t.Helper()
	w := NewStdWorker(nil, 0, nil)
	t.Cleanup(w.Close)
	return w
}

func pushAll(t *testing.T, w *Worker[StdItem], lines ...string) {
	t.Helper()
	chain := NewStdChain(w, SingleSplitter(), false, text.AllowAll)
	for _, l := range lines {
		if err := chain.Push(l); err != nil {
			t.Fatalf("push %q: %v", l, err)
		}
	}
}

func matchedRaw(w *Worker[StdItem]) []string {
	items := w.MatchedItems()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Inner.Inner.Raw
	}
	return out
}

func TestWorkerPushAndCounts(t *testing.T) {
	w := newStringWorker(t)
	pushAll(t, w, "apple", "banana", "cherry")
	settle(t, w.Running)

	matched, total := w.Counts()
	if total != 3 || matched != 3 {
		t.Errorf("counts = (%d, %d), want (3, 3)", matched, total)
	}
}

func TestWorkerIndicesAreGapless(t *testing.T) {
	w := newStringWorker(t)
	pushAll(t, w, "a", "b", "c", "d")
	settle(t, w.Running)

	items := w.MatchedItems()
	for i, it := range items {
		if it.Index != uint32(i) {
			t.Errorf("item %d has index %d", i, it.Index)
		}
	}
}

func TestWorkerFind(t *testing.T) {
	t.Run("narrows matches", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "apple", "banana", "cherry")
		w.Find("ban")
		settle(t, w.Running)

		got := matchedRaw(w)
		if len(got) != 1 || got[0] != "banana" {
			t.Errorf("matched = %v, want [banana]", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "apple")
		w.Find("app")
		settle(t, w.Running)
		matched1, _ := w.Counts()

		w.Find("app")
		settle(t, w.Running)
		matched2, _ := w.Counts()
		if matched1 != matched2 {
			t.Errorf("counts changed on reparse: %d -> %d", matched1, matched2)
		}
	})

	t.Run("append detection", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "apple", "banana")
		w.Find("a")
		settle(t, w.Running)
		if !w.lastFindAppend() {
			t.Error("initial pattern should count as append")
		}
		w.Find("ap")
		settle(t, w.Running)
		if !w.lastFindAppend() {
			t.Error("extending the pattern should count as append")
		}
		w.Find("x")
		settle(t, w.Running)
		if w.lastFindAppend() {
			t.Error("replacing the pattern should not count as append")
		}
	})

	t.Run("bad query matches nothing, does not fail", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "apple")
		w.Find("zzzzzz")
		settle(t, w.Running)
		matched, total := w.Counts()
		if matched != 0 || total != 1 {
			t.Errorf("counts = (%d, %d), want (0, 1)", matched, total)
		}
	})

	t.Run("clearing the pattern restores all matches", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "apple", "banana")
		w.Find("app")
		settle(t, w.Running)
		w.Find("")
		settle(t, w.Running)
		matched, _ := w.Counts()
		if matched != 2 {
			t.Errorf("matched = %d, want 2", matched)
		}
	})
}

func TestWorkerColumns(t *testing.T) {
	newPeopleWorker := func(t *testing.T) (*Worker[StdItem], StdInjector) {
		w := NewStdWorker([]string{"name", "age"}, 0, nil)
		t.Cleanup(w.Close)
		chain := NewStdChain(w, DelimiterSplitter(mustCompile(" "), 2), false, text.AllowAll)
		return w, chain
	}

	t.Run("column query filters one column", func(t *testing.T) {
		w, chain := newPeopleWorker(t)
		for _, l := range []string{"alice 30", "bob 25", "carol 30"} {
			if err := chain.Push(l); err != nil {
				t.Fatal(err)
			}
		}
		w.Find("%age 30")
		settle(t, w.Running)

		got := matchedRaw(w)
		if len(got) != 2 {
			t.Fatalf("matched = %v, want two rows", got)
		}
		if got[0] != "alice 30" {
			t.Errorf("first match = %q, want %q (insertion order for equal scores)", got[0], "alice 30")
		}
	})

	t.Run("format with named column", func(t *testing.T) {
		w, chain := newPeopleWorker(t)
		if err := chain.Push("alice 30"); err != nil {
			t.Fatal(err)
		}
		settle(t, w.Running)
		item, ok := w.GetNth(0)
		if !ok {
			t.Fatal("GetNth(0) missing")
		}
		if got, _ := w.FormatWith(item, "age"); got != "30" {
			t.Errorf("age cell = %q, want %q", got, "30")
		}
	})
}

func TestWorkerResults(t *testing.T) {
	t.Run("pages in match order with highlight", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "apple", "banana", "cherry")
		w.Find("an")
		settle(t, w.Running)

		hl := text.Style{Fg: "1"}
		rows, widths, status := w.Results(0, 10, nil, hl)
		if status.MatchedCount == 0 {
			t.Fatal("no matches")
		}
		if len(rows) != int(status.MatchedCount) {
			t.Fatalf("rows = %d, status = %d", len(rows), status.MatchedCount)
		}

		found := false
		for _, sp := range rows[0].Cells[0][0] {
			if sp.Style.Fg == "1" {
				found = true
			}
		}
		if !found {
			t.Error("no highlighted span in first cell")
		}
		if len(widths) != 1 || widths[0] == 0 {
			t.Errorf("widths = %v", widths)
		}
	})

	t.Run("hidden column renders empty", func(t *testing.T) {
		w := NewStdWorker([]string{"name", "age"}, 0, nil)
		t.Cleanup(w.Close)
		chain := NewStdChain(w, DelimiterSplitter(mustCompile(" "), 2), false, text.AllowAll)
		if err := chain.Push("alice 30"); err != nil {
			t.Fatal(err)
		}
		settle(t, w.Running)

		rows, widths, _ := w.Results(0, 1, []int{NoWidthLimit, 0}, text.Style{})
		if len(rows) != 1 {
			t.Fatalf("rows = %d, want 1", len(rows))
		}
		if got := rows[0].Cells[1].Plain(); got != "" {
			t.Errorf("hidden cell = %q, want empty", got)
		}
		if widths[1] != 0 {
			t.Errorf("hidden width = %d, want 0", widths[1])
		}
	})

	t.Run("width limit wraps and reports the limit", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "abcdefghij")
		settle(t, w.Running)

		rows, widths, _ := w.Results(0, 1, []int{5}, text.Style{})
		if rows[0].Height < 2 {
			t.Errorf("height = %d, want wrapped (>= 2)", rows[0].Height)
		}
		if widths[0] != 5 {
			t.Errorf("width = %d, want the limit 5", widths[0])
		}
	})

	t.Run("range is clamped to matched count", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "a")
		settle(t, w.Running)
		rows, _, _ := w.Results(5, 10, nil, text.Style{})
		if len(rows) != 0 {
			t.Errorf("rows = %d, want 0", len(rows))
		}
	})
}

func TestWorkerRestart(t *testing.T) {
	t.Run("stale injector fails", func(t *testing.T) {
		w := newStringWorker(t)
		inj := w.Injector()
		w.Restart(true)
		err := inj.Push(StdItem{})
		if err != ErrInjectorShutdown {
			t.Errorf("err = %v, want ErrInjectorShutdown", err)
		}
	})

	t.Run("clear snapshot empties counts", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "a", "b")
		settle(t, w.Running)
		w.Restart(true)
		matched, total := w.Counts()
		if matched != 0 || total != 0 {
			t.Errorf("counts = (%d, %d), want (0, 0)", matched, total)
		}
	})

	t.Run("fresh injector works after restart", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "old")
		w.Restart(true)
		pushAll(t, w, "new")
		settle(t, w.Running)
		got := matchedRaw(w)
		if len(got) != 1 || got[0] != "new" {
			t.Errorf("matched = %v, want [new]", got)
		}
	})

	t.Run("indices restart from zero", func(t *testing.T) {
		w := newStringWorker(t)
		pushAll(t, w, "a", "b")
		w.Restart(true)
		pushAll(t, w, "c")
		settle(t, w.Running)
		items := w.MatchedItems()
		if len(items) != 1 || items[0].Index != 0 {
			t.Errorf("items = %v, want single index-0 item", items)
		}
	})
}

func TestMatchedNeverExceedsTotal(t *testing.T) {
	w := newStringWorker(t)
	chain := NewStdChain(w, SingleSplitter(), false, text.AllowAll)
	w.Find("5")
	for i := 0; i < 100; i++ {
		if err := chain.Push(fmt.Sprintf("line %d", i)); err != nil {
			t.Fatal(err)
		}
		matched, total := w.Counts()
		if matched > total {
			t.Fatalf("matched %d > total %d", matched, total)
		}
	}
	settle(t, w.Running)
	matched, total := w.Counts()
	if matched > total {
		t.Fatalf("matched %d > total %d after settle", matched, total)
	}
}
