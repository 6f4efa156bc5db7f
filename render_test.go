package matchmaker

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/squirreljetpack/matchmaker/config"
)

// keyMsgFor builds a rune key message.
func keyMsgFor(s string) tea.KeyMsg {
	return tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestViewRendersItems(t *testing.T) {
	mm, p := testSession(t, config.Default(), "apple", "banana", "cherry")
	_ = mm

	view := p.View()
	plain := ansi.Strip(view)

	for _, want := range []string{"apple", "banana", "cherry", "3/3"} {
		if !strings.Contains(plain, want) {
			t.Errorf("view missing %q:\n%s", want, plain)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != p.height {
		t.Errorf("view has %d lines, want %d", lines, p.height)
	}
}

func TestViewFiltersItems(t *testing.T) {
	mm, p := testSession(t, config.Default(), "apple", "banana")
	typeString(t, mm, p, "app")

	plain := ansi.Strip(p.View())
	if !strings.Contains(plain, "apple") {
		t.Error("matched item missing")
	}
	if strings.Contains(plain, "banana") {
		t.Error("filtered item still shown")
	}
	if !strings.Contains(plain, "1/2") {
		t.Errorf("status missing 1/2:\n%s", plain)
	}
}

func TestViewPrompt(t *testing.T) {
	cfg := config.Default()
	cfg.Input.Prompt = "pick> "
	_, p := testSession(t, cfg, "a")
	plain := ansi.Strip(p.View())
	if !strings.Contains(plain, "pick>") {
		t.Errorf("prompt missing:\n%s", plain)
	}
}

func TestViewHeaderFooter(t *testing.T) {
	cfg := config.Default()
	cfg.Input.Header = "the header"
	cfg.Input.Footer = "the footer"
	_, p := testSession(t, cfg, "a")
	plain := ansi.Strip(p.View())
	if !strings.Contains(plain, "the header") {
		t.Error("header missing")
	}
	if !strings.Contains(plain, "the footer") {
		t.Error("footer missing")
	}
}

func TestViewReverseOrientation(t *testing.T) {
	cfg := config.Default()
	cfg.Results.Reverse = true
	cfg.Input.Prompt = "PROMPT>"
	_, p := testSession(t, cfg, "itemx")

	plain := ansi.Strip(p.View())
	lines := strings.Split(plain, "\n")
	promptLine, itemLine := -1, -1
	for i, l := range lines {
		if strings.Contains(l, "PROMPT>") {
			promptLine = i
		}
		if strings.Contains(l, "itemx") {
			itemLine = i
		}
	}
	if promptLine == -1 || itemLine == -1 {
		t.Fatalf("prompt=%d item=%d:\n%s", promptLine, itemLine, plain)
	}
	if promptLine < itemLine {
		t.Errorf("reverse orientation: prompt at %d above item at %d", promptLine, itemLine)
	}
}

func TestViewClickRows(t *testing.T) {
	_, p := testSession(t, config.Default(), "a", "b", "c")
	p.View()
	if len(p.clickRows) != 3 {
		t.Fatalf("clickRows = %d, want 3", len(p.clickRows))
	}
	// Rows map to consecutive match indices.
	for i, cr := range p.clickRows {
		if cr.index != i {
			t.Errorf("clickRows[%d].index = %d", i, cr.index)
		}
	}
}

func TestViewOverlay(t *testing.T) {
	_, p := testSession(t, config.Default(), "a")
	p.applyAction(Action{Kind: ActHelp})
	if p.overlay == nil {
		t.Fatal("help overlay not installed")
	}
	view := p.View()
	if !strings.Contains(ansi.Strip(view), "Keys") {
		t.Error("overlay title missing")
	}

	// Any non-navigation key dismisses it.
	p.handleKey(keyMsgFor("q"))
	if p.overlay != nil {
		t.Error("overlay survived dismissal")
	}
}

func TestViewSelectionMarker(t *testing.T) {
	mm, p := testSession(t, config.Default(), "aa", "bb")
	seq, _ := mm.binds.Lookup(KeyOf("tab"))
	for _, a := range seq {
		p.applyAction(a)
	}
	plain := ansi.Strip(p.View())
	if !strings.Contains(plain, "▌") {
		t.Errorf("selection marker missing:\n%s", plain)
	}
	if !strings.Contains(plain, "(1)") {
		t.Errorf("selection count missing:\n%s", plain)
	}
}
