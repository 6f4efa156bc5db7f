package matchmaker

import (
	"sort"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ctrl+c", "ctrl-c"},
		{"ctrl-c", "ctrl-c"},
		{"alt+a", "alt-a"},
		{"A", "A"},
		{"a", "a"},
		{"enter", "enter"},
		{"return", "enter"},
		{"escape", "esc"},
		{"ctrl+alt+x", "ctrl-alt-x"},
		{"alt+ctrl+x", "ctrl-alt-x"},
	}
	for _, c := range cases {
		if got := normalizeKey(c.in); got != c.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseTrigger(t *testing.T) {
	t.Run("key", func(t *testing.T) {
		tr, err := ParseTrigger("ctrl-x")
		if err != nil {
			t.Fatal(err)
		}
		if tr.Kind != KeyTrigger || tr.Key != "ctrl-x" {
			t.Errorf("trigger = %+v", tr)
		}
	})

	t.Run("mouse", func(t *testing.T) {
		tr, err := ParseTrigger("scrollup")
		if err != nil {
			t.Fatal(err)
		}
		if tr.Kind != MouseTrigger || tr.Mouse != "scrollup" {
			t.Errorf("trigger = %+v", tr)
		}
	})

	t.Run("mouse with modifiers", func(t *testing.T) {
		tr, err := ParseTrigger("ctrl+left")
		if err != nil {
			t.Fatal(err)
		}
		if tr.Kind != MouseTrigger || tr.Mouse != "ctrl-left" {
			t.Errorf("trigger = %+v", tr)
		}
	})

	t.Run("bad mouse modifier", func(t *testing.T) {
		if _, err := ParseTrigger("bogus+left"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("event", func(t *testing.T) {
		tr, err := ParseTrigger("start")
		if err != nil {
			t.Fatal(err)
		}
		if tr.Kind != EventTrigger || tr.Event != EventStart {
			t.Errorf("trigger = %+v", tr)
		}
	})
}

func TestTriggerOrdering(t *testing.T) {
	ts := []Trigger{
		EventOf(EventStart),
		MouseOf("left"),
		KeyOf("b"),
		KeyOf("a"),
		MouseOf("scrollup"),
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Less(ts[j]) })

	// Keys first (sorted), then mouse, then events.
	want := []string{"a", "b", "left", "scrollup", "start"}
	for i, tr := range ts {
		if tr.String() != want[i] {
			t.Fatalf("order = %v, want %v at %d", tr.String(), want[i], i)
		}
	}
}

func TestIsPlainChar(t *testing.T) {
	if r, ok := isPlainChar("a"); !ok || r != 'a' {
		t.Errorf("a -> (%q, %v)", r, ok)
	}
	if r, ok := isPlainChar("A"); !ok || r != 'A' {
		t.Errorf("A -> (%q, %v)", r, ok)
	}
	if _, ok := isPlainChar("enter"); ok {
		t.Error("enter should not be a plain char")
	}
	if _, ok := isPlainChar("ctrl-a"); ok {
		t.Error("ctrl-a should not be a plain char")
	}
}
