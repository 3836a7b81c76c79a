/*
NAME
  watch_test.go - tests for watch.go.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package nav

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
)

func writeMapping(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	writeMapping(t, path, `[{"menu_id": "m1", "path": "/a", "expected_button_count": 2}]`)

	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	w, err := NewWatcher(path, log)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if got := w.Current(); len(got) != 1 || got["m1"].Expected != 2 {
		t.Errorf("Current() after initial load = %+v, want one entry m1", got)
	}
}

func TestWatcherInitialLoadFailsOnBadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	writeMapping(t, path, `[{"menu_id": "", "path": "/a", "expected_button_count": 2}]`)

	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	if _, err := NewWatcher(path, log); err == nil {
		t.Error("NewWatcher() on an invalid mapping: expected error, got nil")
	}
}

func TestWatcherPicksUpRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	writeMapping(t, path, `[{"menu_id": "m1", "path": "/a", "expected_button_count": 2}]`)

	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	w, err := NewWatcher(path, log)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	stop := make(chan struct{})
	go w.Run(stop)
	defer close(stop)

	writeMapping(t, path, `[
		{"menu_id": "m1", "path": "/a", "expected_button_count": 2},
		{"menu_id": "m2", "path": "/b", "expected_button_count": 3}
	]`)

	select {
	case <-w.Changed():
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification within 5s of rewriting the mapping")
	}
	if got := w.Current(); len(got) != 2 || got["m2"].Expected != 3 {
		t.Errorf("Current() after rewrite = %+v, want m1 and m2", got)
	}
}

func TestWatcherKeepsPreviousMappingOnBadRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	writeMapping(t, path, `[{"menu_id": "m1", "path": "/a", "expected_button_count": 2}]`)

	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	w, err := NewWatcher(path, log)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	stop := make(chan struct{})
	go w.Run(stop)
	defer close(stop)

	writeMapping(t, path, `{not json`)

	// The bad rewrite must not replace the previous mapping. There is
	// no notification for a failed reload, so give the watcher a
	// moment to see the event before asserting.
	time.Sleep(500 * time.Millisecond)
	if got := w.Current(); len(got) != 1 || got["m1"].Expected != 2 {
		t.Errorf("Current() after bad rewrite = %+v, want the original m1 mapping", got)
	}
}
