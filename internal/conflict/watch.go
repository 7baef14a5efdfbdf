package conflict

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the bursts of filesystem events an editor
// save produces into a single callback.
const debounceWindow = 50 * time.Millisecond

// Watcher observes a single plan file for external modification. The
// parent directory is watched rather than the file itself so that
// atomic-save editors, which replace the file by rename, keep triggering
// events.
type Watcher struct {
	fsw    *fsnotify.Watcher
	path   string
	stopCh chan struct{}

	mu      sync.Mutex
	stopped bool
}

// Watch begins observing path and invokes onChange, debounced, whenever
// the file is written, created or renamed. onChange runs on the watcher
// goroutine.
func Watch(path string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	clean := filepath.Clean(path)
	if err := fsw.Add(filepath.Dir(clean)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(clean), err)
	}

	w := &Watcher{
		fsw:    fsw,
		path:   clean,
		stopCh: make(chan struct{}),
	}
	go w.loop(onChange)
	return w, nil
}

func (w *Watcher) loop(onChange func()) {
	var timer *time.Timer
	var timerCh <-chan time.Time
	pending := false

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerCh:
			if pending {
				pending = false
				onChange()
			}

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	return w.fsw.Close()
}
