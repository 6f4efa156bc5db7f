package matchmaker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPersistTrigger(t *testing.T) {
	t.Run("writes the trigger atomically", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last")
		if err := PersistTrigger(path, KeyOf("ctrl-x")); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "ctrl-x\n" {
			t.Errorf("contents = %q", data)
		}
	})

	t.Run("overwrites previous trigger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last")
		PersistTrigger(path, KeyOf("a"))
		PersistTrigger(path, KeyOf("b"))
		data, _ := os.ReadFile(path)
		if string(data) != "b\n" {
			t.Errorf("contents = %q", data)
		}
	})

	t.Run("leaves no temp siblings", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "last")
		PersistTrigger(path, KeyOf("a"))
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Name()
			}
			t.Errorf("dir = %v, want only the target", names)
		}
	})
}

func TestGCPersistTmp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "last")

	stale := filepath.Join(dir, ".last.tmp-123456")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	unrelated := filepath.Join(dir, "other")
	if err := os.WriteFile(unrelated, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	GCPersistTmp(path)

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale tmp sibling survived gc")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("unrelated file was removed")
	}
}
