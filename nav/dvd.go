/*
NAME
  dvd.go - filesystem-backed Source for home-authored DVD menu VOBs.

DESCRIPTION
  DVDSource implements Source directly against a validated Mapping: menu
  bytes are read straight off disk (a DVD's menu VOB is already a plain
  MPEG-2 Program Stream file, no demultiplexing of a disc image is
  required at this layer) and frame sampling shells out to ffmpeg, the
  external media tool, via an argument list run with
  exec.CommandContext under a hard timeout.

  This is the only concrete Source in this tree. The architecture
  supports a VCD/SVCD adapter with the same interface; none is provided
  here for lack of a VCD fixture to ground it on.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package nav

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/discvault/menuscan/frame"
)

// DVDSource reads menu VOB bytes directly from the filesystem paths
// recorded in a validated Mapping, and samples frames from them via an
// ffmpeg subprocess.
type DVDSource struct {
	Mapping Mapping
	Log     logging.Logger

	// FFmpegPath overrides the ffmpeg binary name/path; defaults to
	// "ffmpeg" on the PATH if empty.
	FFmpegPath string
}

var _ Source = (*DVDSource)(nil)

// ListMenus returns every menu_id present in the underlying Mapping, in
// lexical order.
func (s *DVDSource) ListMenus(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(s.Mapping))
	for id := range s.Mapping {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// OpenMenuBytes reads the entire menu VOB for menuID into memory.
func (s *DVDSource) OpenMenuBytes(ctx context.Context, menuID string) ([]byte, error) {
	m, ok := s.Mapping[menuID]
	if !ok {
		return nil, fmt.Errorf("nav: unknown menu_id %q", menuID)
	}
	b, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("nav: could not read %s: %w", m.Path, err)
	}
	return b, nil
}

// ExpectedButtonCount returns the nav-stage-supplied expected button
// count for menuID, or 0 if menuID is unknown.
func (s *DVDSource) ExpectedButtonCount(menuID string) int {
	return s.Mapping[menuID].Expected
}

// ffmpegTimeout bounds a single frame-sampling subprocess invocation.
const ffmpegTimeout = 60 * time.Second

// sampleFPS is the timestamp-based sampling rate for menu VOBs of
// normal declared duration. Menu pages hold for seconds at a time, so
// a few frames per second is enough for the page classifier to see
// every page boundary.
const sampleFPS = 5

// sampleArgs builds the ffmpeg argument list for one frame-sampling
// invocation. Sub-second VOBs extract every decoded frame (declared
// durations are unreliable for menus, so timestamps cannot be
// trusted); normal-duration VOBs are sampled at sampleFPS by
// timestamp.
func sampleArgs(path, pattern string, subSecond bool) []string {
	if subSecond {
		return []string{"-y", "-i", path, "-vsync", "0", pattern}
	}
	return []string{"-y", "-i", path, "-vf", fmt.Sprintf("fps=%d", sampleFPS), pattern}
}

// FrameSample extracts frames from menuID's VOB with ffmpeg, writing
// them as sequentially numbered PNGs under outDir. When subSecond is
// true every decoded frame is extracted; otherwise frames are sampled
// at a fixed timestamp rate (see sampleArgs).
func (s *DVDSource) FrameSample(ctx context.Context, menuID string, outDir string, subSecond bool) ([]frame.SampledFrame, error) {
	m, ok := s.Mapping[menuID]
	if !ok {
		return nil, fmt.Errorf("nav: unknown menu_id %q", menuID)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("nav: could not create %s: %w", outDir, err)
	}

	ctx, cancel := context.WithTimeout(ctx, ffmpegTimeout)
	defer cancel()

	pattern := filepath.Join(outDir, "%06d.png")
	bin := s.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	args := sampleArgs(m.Path, pattern, subSecond)

	cmd := exec.CommandContext(ctx, bin, args...)
	if s.Log != nil {
		s.Log.Log(logging.Debug, "nav: sampling frames", "menu_id", menuID, "args", args)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("nav: ffmpeg frame sample failed for %s: %w: %s", menuID, err, out)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("nav: could not list %s: %w", outDir, err)
	}
	var frames []frame.SampledFrame
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		frames = append(frames, frame.SampledFrame{Path: filepath.Join(outDir, e.Name())})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].Path < frames[j].Path })
	for i := range frames {
		frames[i].Index = i
	}
	return frames, nil
}
