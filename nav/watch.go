/*
NAME
  watch.go - watches the validated mapping artifact for updates from upstream.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package nav

import (
	"fmt"
	"os"
	"sync"

	"github.com/ausocean/utils/logging"
	"github.com/fsnotify/fsnotify"
)

// Watcher watches a mapping artifact on disk and re-validates it whenever
// the nav stage rewrites it, so that a long batch run picks up newly added
// menus without a restart. The zero value is not usable; use NewWatcher.
type Watcher struct {
	path string
	log  logging.Logger
	fsw  *fsnotify.Watcher

	mu      sync.Mutex
	current Mapping

	changed chan struct{}
}

// NewWatcher creates a Watcher for the mapping file at path, performing an
// initial load so that Current is immediately usable.
func NewWatcher(path string, log logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("nav: could not create fsnotify watcher: %w", err)
	}

	w := &Watcher{path: path, log: log, fsw: fsw, changed: make(chan struct{}, 1)}
	if err := w.reload(); err != nil {
		fsw.Close()
		return nil, err
	}

	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("nav: could not watch %s: %w", path, err)
	}

	return w, nil
}

// Current returns the most recently validated Mapping.
func (w *Watcher) Current() Mapping {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Changed returns a channel that receives a token after each
// successful reload. The channel has a one-slot buffer: a receiver
// that is slow to drain coalesces bursts of rewrites into one token
// rather than queueing them.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Run blocks, reloading the mapping on every write/create event, until
// stop is closed. Malformed updates are logged and ignored; the previous
// valid Mapping remains current, matching the "schema violations on
// inputs are fatal" rule only at initial load -- a later bad rewrite by
// a racing upstream process should not kill an in-flight batch.
func (w *Watcher) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				w.log.Log(logging.Warning, "nav: mapping reload failed, keeping previous mapping", "error", err.Error())
				continue
			}
			select {
			case w.changed <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Log(logging.Warning, "nav: watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) reload() error {
	f, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("nav: could not open mapping %s: %w", w.path, err)
	}
	defer f.Close()

	m, err := LoadMapping(f)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.current = m
	w.mu.Unlock()
	return nil
}
