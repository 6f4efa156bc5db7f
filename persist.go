package matchmaker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// persistTmpPattern shapes the temp siblings of the last-trigger file.
const persistTmpPattern = ".%s.tmp-*"

// PersistTrigger atomically records the last trigger that produced an
// action: write to a temp sibling, then rename over the target.
func PersistTrigger(path string, t Trigger) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, fmt.Sprintf(persistTmpPattern, base))
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(t.String() + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// GCPersistTmp removes stale temp siblings of the last-trigger path left by
// crashed sessions. Called once at startup; failures are logged, not fatal.
func GCPersistTmp(path string) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	prefix := "." + base + ".tmp-"
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			log.Debug().Err(err).Str("file", e.Name()).Msg("persist tmp gc")
		}
	}
}
