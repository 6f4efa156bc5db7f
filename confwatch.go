package matchmaker

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/squirreljetpack/matchmaker/config"
)

// confWatchDebounce coalesces rapid editor writes (write + rename dances)
// into a single reload.
const confWatchDebounce = 500 * time.Millisecond

// configWatcher monitors the loaded config file and pushes fresh bind
// tables through a channel. Only the [binds] table is hot-applied; other
// settings need a restart.
//
// All reloading happens on the single run() goroutine; the debounce timer
// only sends signals, avoiding data races.
type configWatcher struct {
	path string
	sub  chan []Rebind
	done chan struct{}

	mu       sync.Mutex
	debounce *time.Timer
	signals  chan struct{}
}

func newConfigWatcher(path string) *configWatcher {
	return &configWatcher{
		path:    path,
		sub:     make(chan []Rebind, 1),
		done:    make(chan struct{}),
		signals: make(chan struct{}, 1),
	}
}

// stop signals the watcher goroutine to exit and cancels any pending
// debounce.
func (w *configWatcher) stop() {
	close(w.done)
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
}

func (w *configWatcher) sendSignal() {
	select {
	case w.signals <- struct{}{}:
	default:
	}
}

// run starts the fsnotify loop. Intended to be called as a goroutine.
// Closes sub on exit so a blocked waiter unblocks.
func (w *configWatcher) run() {
	defer close(w.sub)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debug().Err(err).Msg("config watcher unavailable")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		log.Debug().Err(err).Str("path", w.path).Msg("config watch failed")
		return
	}

	for {
		select {
		case <-w.done:
			return

		case <-w.signals:
			w.reload()

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.mu.Lock()
				if w.debounce != nil {
					w.debounce.Stop()
				}
				w.debounce = time.AfterFunc(confWatchDebounce, w.sendSignal)
				w.mu.Unlock()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Debug().Err(err).Msg("config watcher error")
		}
	}
}

// reload re-parses the file and emits one Bind directive per entry of the
// [binds] table. A parse failure leaves the live table untouched.
func (w *configWatcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		log.Warn().Err(err).Msg("config reload skipped")
		return
	}

	var directives []Rebind
	for trig, acts := range cfg.Binds {
		t, err := ParseTrigger(trig)
		if err != nil {
			log.Warn().Err(err).Str("trigger", trig).Msg("config reload: bad trigger")
			continue
		}
		seq, err := ParseActions(acts)
		if err != nil {
			log.Warn().Err(err).Str("trigger", trig).Msg("config reload: bad action")
			continue
		}
		directives = append(directives, Rebind{Op: RebindBind, Trigger: t, Actions: seq})
	}
	if len(directives) == 0 {
		return
	}

	// Drop a stale pending update and send the fresh one.
	select {
	case w.sub <- directives:
	default:
		select {
		case <-w.sub:
		default:
		}
		w.sub <- directives
	}
}
