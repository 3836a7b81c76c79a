/*
NAME
  menuimages_test.go - end-to-end test of the per-menu state machine.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package menuimages

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/discvault/menuscan/align"
	"github.com/discvault/menuscan/emit"
	"github.com/discvault/menuscan/emit/fallback"
	"github.com/discvault/menuscan/frame"
	"github.com/discvault/menuscan/geom"
)

// fakeSource is a nav.Source over an in-memory menu, so the state
// machine can be driven without a real VOB file or ffmpeg. Opening the
// menu whose ID matches failID fails, standing in for an unreadable
// VOB.
type fakeSource struct {
	bytes    []byte
	expected int
	frames   []frame.SampledFrame
	failID   string
}

func (f *fakeSource) ListMenus(ctx context.Context) ([]string, error) { return []string{"menu1"}, nil }
func (f *fakeSource) OpenMenuBytes(ctx context.Context, menuID string) ([]byte, error) {
	if f.failID != "" && menuID == f.failID {
		return nil, errors.New("fake: menu bytes unavailable")
	}
	return f.bytes, nil
}
func (f *fakeSource) ExpectedButtonCount(menuID string) int { return f.expected }
func (f *fakeSource) FrameSample(ctx context.Context, menuID, outDir string, subSecond bool) ([]frame.SampledFrame, error) {
	return f.frames, nil
}

// fakeOCR reports no text lines, so align.Shift always leaves
// rectangles unmodified (fewer than minPairs confident pairs).
type fakeOCR struct{}

func (fakeOCR) Lines(ctx context.Context, framePath string) ([]align.OCRLine, error) { return nil, nil }

// fakeFallback never finds anything.
type fakeFallback struct{}

func (fakeFallback) BlockGrid(ctx context.Context, framePath string) (fallback.BlockGrid, error) {
	return fallback.BlockGrid{}, nil
}

// gridFallback returns a fixed pre-computed block grid, standing in
// for the gocv-backed source when driving the fallback path.
type gridFallback struct {
	grid fallback.BlockGrid
}

func (g gridFallback) BlockGrid(ctx context.Context, framePath string) (fallback.BlockGrid, error) {
	return g.grid, nil
}

// fakeCropper treats every frame as 720x576 and records crops instead
// of touching the filesystem, so the test can assert crop rectangles
// without gocv.
type fakeCropper struct {
	saved []geom.Rect
}

func (c *fakeCropper) FrameSize(framePath string) (int, int, error) { return 720, 576, nil }
func (c *fakeCropper) Save(framePath string, rect geom.Rect, outPath string) error {
	c.saved = append(c.saved, rect)
	return nil
}

// onePagePerFrame stands in for frame.Classify: every sampled frame is
// its own page.
func onePagePerFrame(frames []frame.SampledFrame, threshold float64) ([]frame.PageGroup, error) {
	groups := make([]frame.PageGroup, len(frames))
	for i, f := range frames {
		groups[i] = frame.PageGroup{PageIndex: i, Representative: f, Frames: []frame.SampledFrame{f}}
	}
	return groups, nil
}

func TestProcessMenuZeroPacketsIsNotAnError(t *testing.T) {
	src := &fakeSource{bytes: nil, expected: 2, frames: []frame.SampledFrame{{Index: 0, Path: "f0.png"}}}
	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	o := New(src, fakeOCR{}, fakeFallback{}, &fakeCropper{}, t.TempDir(), log, Config{})
	o.Classify = onePagePerFrame

	entries, err := o.ProcessMenu(context.Background(), "menu1")
	if err != nil {
		t.Fatalf("ProcessMenu() error = %v, want nil (zero packets is Done(no_buttons))", err)
	}
	if len(entries) != 0 {
		t.Errorf("ProcessMenu() with zero packets returned %d entries, want 0", len(entries))
	}
}

func TestProcessMenuActivatesFallbackWhenSPUYieldsNothing(t *testing.T) {
	// No SPU packets at all; the fallback's grid holds two interior
	// dark components on separate rows, so the menu's buttons must
	// come out of the dark-region detector, tagged source=fallback.
	grid := fallback.BlockGrid{Cols: 12, Rows: 10, Dark: make([]bool, 120)}
	for x := 2; x <= 7; x++ {
		grid.Dark[2*grid.Cols+x] = true
		grid.Dark[6*grid.Cols+x] = true
	}

	src := &fakeSource{bytes: nil, expected: 2, frames: []frame.SampledFrame{{Index: 0, Path: "f0.png"}}}
	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	o := New(src, fakeOCR{}, gridFallback{grid: grid}, &fakeCropper{}, t.TempDir(), log, Config{})
	o.Classify = onePagePerFrame

	entries, err := o.ProcessMenu(context.Background(), "menu1")
	if err != nil {
		t.Fatalf("ProcessMenu() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ProcessMenu() returned %d entries, want 2 from the fallback detector", len(entries))
	}
	for i, e := range entries {
		if e.Source != emit.SourceFallback {
			t.Errorf("entry %d Source = %q, want %q", i, e.Source, emit.SourceFallback)
		}
		if e.PageIndex != 0 {
			t.Errorf("entry %d PageIndex = %d, want 0", i, e.PageIndex)
		}
	}
}

func TestProcessAllIsolatesPerMenuToolFailure(t *testing.T) {
	// The "bad" menu's VOB is unreadable (a ToolFailure); the healthy
	// menu still produces its fallback entries and the run succeeds.
	grid := fallback.BlockGrid{Cols: 12, Rows: 10, Dark: make([]bool, 120)}
	for x := 2; x <= 7; x++ {
		grid.Dark[4*grid.Cols+x] = true
	}

	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	src := &fakeSource{
		bytes:    nil,
		expected: 1,
		frames:   []frame.SampledFrame{{Index: 0, Path: "f0.png"}},
		failID:   "menu-bad",
	}
	o := New(src, fakeOCR{}, gridFallback{grid: grid}, &fakeCropper{}, t.TempDir(), log, Config{Workers: 2})
	o.Classify = onePagePerFrame

	m, err := o.ProcessAll(context.Background(), []string{"menu-good", "menu-bad"})
	if err != nil {
		t.Fatalf("ProcessAll() error = %v, want nil (a ToolFailure must not fail the run)", err)
	}
	if len(m.EmptyMenu) != 1 || m.EmptyMenu[0] != "menu-bad" {
		t.Errorf("ProcessAll() EmptyMenu = %v, want only the failing menu", m.EmptyMenu)
	}
	if len(m.Entries) != 1 {
		t.Fatalf("ProcessAll() Entries = %d, want 1 from the healthy menu", len(m.Entries))
	}
	if m.Entries[0].MenuID != "menu-good" {
		t.Errorf("entry MenuID = %q, want menu-good", m.Entries[0].MenuID)
	}
}
