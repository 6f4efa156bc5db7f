package matcher

import (
	"testing"

	"github.com/squirreljetpack/matchmaker/text"
)

func templateFixture(t *testing.T) (*Worker[StdItem], StdItem, FormatFunc[StdItem]) {
	t.Helper()
	w := NewStdWorker([]string{"name", "age"}, 0, nil)
	t.Cleanup(w.Close)
	chain := NewStdChain(w, DelimiterSplitter(mustCompile(" "), 2), false, text.AllowAll)
	if err := chain.Push("alice 30"); err != nil {
		t.Fatal(err)
	}
	settle(t, w.Running)
	item, ok := w.GetNth(0)
	if !ok {
		t.Fatal("item missing")
	}
	format := DefaultFormatFn(w, func(it StdItem) string { return it.Inner.Inner.Raw }, false)
	return w, item, format
}

func TestDefaultFormatFn(t *testing.T) {
	t.Run("blank braces expand the default render", func(t *testing.T) {
		_, item, format := templateFixture(t)
		if got := format(item, "echo {}"); got != "echo alice 30" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("named braces expand the column", func(t *testing.T) {
		_, item, format := templateFixture(t)
		if got := format(item, "{name} is {age}"); got != "alice is 30" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("unknown column expands empty", func(t *testing.T) {
		_, item, format := templateFixture(t)
		if got := format(item, "[{missing}]"); got != "[]" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("escaped brace is literal", func(t *testing.T) {
		_, item, format := templateFixture(t)
		if got := format(item, `\{name}`); got != "{name}" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("unknown escape keeps its backslash", func(t *testing.T) {
		_, item, format := templateFixture(t)
		if got := format(item, `a\Xb`); got != `a\Xb` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("unterminated key is emitted literally", func(t *testing.T) {
		_, item, format := templateFixture(t)
		if got := format(item, "x{nam"); got != "x{nam" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("quoted substitution wraps in single quotes", func(t *testing.T) {
		w, item, _ := templateFixture(t)
		quoted := DefaultFormatFn(w, func(it StdItem) string { return it.Inner.Inner.Raw }, true)
		if got := quoted(item, "grep {}"); got != "grep 'alice 30'" {
			t.Errorf("got %q", got)
		}
	})
}

func TestShellEscape(t *testing.T) {
	if got := shellEscape("it's"); got != `it'\''s` {
		t.Errorf("got %q", got)
	}
}
