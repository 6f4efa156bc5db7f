package matchmaker

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/squirreljetpack/matchmaker/config"
	"github.com/squirreljetpack/matchmaker/matcher"
)

// testSession builds a config-driven picker, ingests lines, and waits for
// the matcher to settle.
func testSession(t *testing.T, cfg config.Config, lines ...string) (*StdMatchmaker, *picker[matcher.StdItem, matcher.Segmented[matcher.Chunk]]) {
	t.Helper()
	mm, chain, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mm.Worker.Close)
	for _, l := range lines {
		if err := chain.Push(l); err != nil {
			t.Fatal(err)
		}
	}
	settleWorker(t, mm)

	p := newPicker(mm)
	p.width, p.height = 80, 24
	p.relayout()
	p.iterate()
	return mm, p
}

func settleWorker(t *testing.T, mm *StdMatchmaker) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for mm.Worker.Running() {
		if time.Now().After(deadline) {
			t.Fatal("worker did not settle")
		}
		time.Sleep(time.Millisecond)
	}
}

// typeString feeds characters through the dispatch path.
func typeString(t *testing.T, mm *StdMatchmaker, p *picker[matcher.StdItem, matcher.Segmented[matcher.Chunk]], s string) {
	t.Helper()
	for _, r := range s {
		p.applyAction(Action{Kind: ActChar, Arg: string(r)})
	}
	p.iterate()
	settleWorker(t, mm)
	p.iterate()
}

func selectedRaw(res Result[matcher.Segmented[matcher.Chunk]]) []string {
	out := make([]string, len(res.Selected))
	for i, s := range res.Selected {
		out[i] = s.Inner.Raw
	}
	return out
}

func TestScenarioBasicAccept(t *testing.T) {
	mm, p := testSession(t, config.Default(), "apple", "banana", "cherry")
	typeString(t, mm, p, "b")

	p.applyAction(Action{Kind: ActAccept})
	if p.resultErr != nil {
		t.Fatalf("resultErr = %v", p.resultErr)
	}
	got := selectedRaw(p.result)
	if len(got) != 1 || got[0] != "banana" {
		t.Errorf("selected = %v, want [banana]", got)
	}

	var out strings.Builder
	if err := mm.WriteOutput(&out, p.result); err != nil {
		t.Fatal(err)
	}
	if out.String() != "banana\n" {
		t.Errorf("output = %q, want %q", out.String(), "banana\n")
	}
}

func TestScenarioMultiSelectToggle(t *testing.T) {
	mm, p := testSession(t, config.Default(), "foo", "bar", "baz")

	// Tab is bound to Toggle+Down by default.
	seq, _ := mm.binds.Lookup(KeyOf("tab"))
	for _, a := range seq {
		p.applyAction(a)
	}
	for _, a := range seq {
		p.applyAction(a)
	}
	p.applyAction(Action{Kind: ActAccept})

	got := selectedRaw(p.result)
	if len(got) != 2 || got[0] != "foo" || got[1] != "bar" {
		t.Errorf("selected = %v, want [foo bar]", got)
	}

	var out strings.Builder
	mm.WriteOutput(&out, p.result)
	if out.String() != "foo\nbar\n" {
		t.Errorf("output = %q, want %q", out.String(), "foo\nbar\n")
	}
}

func TestScenarioColumnQuery(t *testing.T) {
	cfg := config.Default()
	cfg.Columns = config.ColumnsConfig{
		Split:     "delimiter",
		Delimiter: " ",
		Names:     []string{"name", "age"},
	}
	mm, p := testSession(t, cfg, "alice 30", "bob 25", "carol 30")
	typeString(t, mm, p, "%age 30")

	matched, _ := mm.Worker.Counts()
	if matched != 2 {
		t.Fatalf("matched = %d, want 2", matched)
	}

	p.applyAction(Action{Kind: ActAccept})
	got := selectedRaw(p.result)
	if len(got) != 1 || got[0] != "alice 30" {
		t.Errorf("selected = %v, want [alice 30] (first match)", got)
	}
}

func TestScenarioBecome(t *testing.T) {
	_, p := testSession(t, config.Default(), "x")
	p.applyAction(Action{Kind: ActBecome, Arg: "echo hi"})
	if p.result.Become != "echo hi" {
		t.Errorf("become = %q, want %q", p.result.Become, "echo hi")
	}
	if p.resultErr != nil {
		t.Errorf("resultErr = %v, want nil (become is not an error)", p.resultErr)
	}
}

func TestScenarioReload(t *testing.T) {
	mm, p := testSession(t, config.Default())
	p.applyAction(Action{Kind: ActReload, Arg: "echo x; echo y"})

	deadline := time.Now().Add(3 * time.Second)
	for {
		settleWorker(t, mm)
		if _, total := mm.Worker.Counts(); total == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("reload items never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}

	p.iterate()
	p.applyAction(Action{Kind: ActAccept})
	got := selectedRaw(p.result)
	if len(got) != 1 || got[0] != "x" {
		t.Errorf("selected = %v, want [x]", got)
	}
}

func TestQuitActions(t *testing.T) {
	t.Run("quit carries its code", func(t *testing.T) {
		_, p := testSession(t, config.Default(), "a")
		p.applyAction(Action{Kind: ActQuit, N: 130})
		var abort AbortError
		if !errors.As(p.resultErr, &abort) || abort.Code != 130 {
			t.Errorf("resultErr = %v", p.resultErr)
		}
	})

	t.Run("quit empty succeeds with nothing", func(t *testing.T) {
		_, p := testSession(t, config.Default(), "a")
		p.applyAction(Action{Kind: ActQuitEmpty})
		if p.resultErr != nil || len(p.result.Selected) != 0 {
			t.Errorf("err=%v selected=%v", p.resultErr, p.result.Selected)
		}
	})

	t.Run("empty accept is NoMatch by default", func(t *testing.T) {
		mm, p := testSession(t, config.Default(), "apple")
		typeString(t, mm, p, "zzz")
		p.applyAction(Action{Kind: ActAccept})
		if !errors.Is(p.resultErr, ErrNoMatch) {
			t.Errorf("resultErr = %v, want ErrNoMatch", p.resultErr)
		}
	})

	t.Run("accept_empty allows empty success", func(t *testing.T) {
		cfg := config.Default()
		cfg.Exit.AcceptEmpty = true
		mm, p := testSession(t, cfg, "apple")
		typeString(t, mm, p, "zzz")
		p.applyAction(Action{Kind: ActAccept})
		if p.resultErr != nil {
			t.Errorf("resultErr = %v, want nil", p.resultErr)
		}
	})
}

func TestPrintInterrupt(t *testing.T) {
	mm, p := testSession(t, config.Default(), "item")
	p.applyAction(Action{Kind: ActPrint, Arg: "hello"})
	p.applyAction(Action{Kind: ActAccept})

	var out strings.Builder
	mm.WriteOutput(&out, p.result)
	if out.String() != "hello\nitem\n" {
		t.Errorf("output = %q, want prints ahead of selections", out.String())
	}
}

func TestEventBoundActions(t *testing.T) {
	mm, p := testSession(t, config.Default(), "a", "b", "c")
	mm.binds.Bind(EventOf(EventQueryChange), Actions{{Kind: ActPrint, Arg: "changed"}})
	typeString(t, mm, p, "b")
	if len(p.result.Prints) == 0 || p.result.Prints[0] != "changed" {
		t.Errorf("prints = %v, want [changed]", p.result.Prints)
	}
}

func TestInterruptHandlers(t *testing.T) {
	mm, p := testSession(t, config.Default(), "a")
	var saw []InterruptKind
	mm.OnInterrupt(InterruptPrint, func(d *Dispatch[matcher.StdItem, matcher.Segmented[matcher.Chunk]], in Interrupt) {
		saw = append(saw, in.Kind)
	})
	p.applyAction(Action{Kind: ActPrint, Arg: "x"})
	if len(saw) != 1 || saw[0] != InterruptPrint {
		t.Errorf("handler saw %v", saw)
	}
}

func TestEventHandlers(t *testing.T) {
	mm, p := testSession(t, config.Default(), "a", "b")
	var events []Event
	mm.OnEvent(EventQueryChange|EventCursorChange, func(d *Dispatch[matcher.StdItem, matcher.Segmented[matcher.Chunk]], ev Event) {
		events = append(events, ev)
	})
	typeString(t, mm, p, "b")
	found := false
	for _, ev := range events {
		if ev == EventQueryChange {
			found = true
		}
	}
	if !found {
		t.Errorf("events = %v, want a query change", events)
	}
}

func TestTemplateExpansion(t *testing.T) {
	cfg := config.Default()
	cfg.Columns = config.ColumnsConfig{
		Split:     "delimiter",
		Delimiter: " ",
		Names:     []string{"name", "age"},
	}
	_, p := testSession(t, cfg, "alice 30")

	got := p.expandTemplate("echo {} {age}")
	if got != "echo 'alice 30' '30'" {
		t.Errorf("expanded = %q", got)
	}
}

func TestChildEnv(t *testing.T) {
	mm, p := testSession(t, config.Default(), "a", "b")
	typeString(t, mm, p, "a")
	env := p.childEnv("cat {}")

	want := map[string]bool{
		"FZF_QUERY=a":                false,
		"FZF_MATCH_COUNT=1":          false,
		"FZF_TOTAL_COUNT=2":          false,
		"FZF_SELECT_COUNT=0":         false,
		"FZF_POS=0":                  false,
		"FZF_PREVIEW_COMMAND=cat {}": false,
	}
	for _, e := range env {
		if _, ok := want[e]; ok {
			want[e] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("env missing %q (got %v)", k, env)
		}
	}
}

func TestColumnCycle(t *testing.T) {
	cfg := config.Default()
	cfg.Columns = config.ColumnsConfig{
		Split:     "delimiter",
		Delimiter: " ",
		Names:     []string{"name", "age"},
	}
	mm, p := testSession(t, cfg, "alice 30", "bob 25")

	p.applyAction(Action{Kind: ActCycleColumn})
	if p.columnPrefix != "name" {
		t.Fatalf("prefix = %q, want name", p.columnPrefix)
	}
	typeString(t, mm, p, "bob")
	matched, _ := mm.Worker.Counts()
	if matched != 1 {
		t.Errorf("matched = %d, want 1", matched)
	}
}

func TestSelect1(t *testing.T) {
	cfg := config.Default()
	cfg.Exit.Select1 = true
	mm, chain, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mm.Worker.Close)
	if err := chain.Push("only"); err != nil {
		t.Fatal(err)
	}
	settleWorker(t, mm)

	res, err := mm.Pick()
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	got := selectedRaw(res)
	if len(got) != 1 || got[0] != "only" {
		t.Errorf("selected = %v, want [only]", got)
	}
}
