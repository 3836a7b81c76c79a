/*
NAME
  emit.go - crops each page's final button rectangles from its
  representative frame and emits ButtonEntry records.

DESCRIPTION
  Padding, clamping, output-path validation and entry_id assignment are
  pure Go and unit-testable without gocv; the actual pixel crop and PNG
  write are delegated to a Cropper, implemented with gocv behind the
  withcv build tag (crop_withcv.go / crop_stub.go), the same split the
  frame package uses.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package emit crops a page's final button rectangles from its
// representative frame, writes them as PNGs, and produces the
// ButtonEntry records that make up the menu_images.json manifest.
package emit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/discvault/menuscan/geom"
)

// Horizontal and vertical crop padding, as fractions of the
// rectangle's own width/height. The asymmetry is intentional: tall
// glyphs and descenders need more vertical room than the horizontal
// boundaries do.
const (
	padFracX = 0.05
	padFracY = 0.10
)

// Source identifies which algorithm produced a ButtonEntry's rectangle.
type Source string

const (
	SourceSPU      Source = "spu"
	SourceFallback Source = "fallback"
)

// ButtonEntry is one emitted button image and its page-relative
// geometry, matching the menu_images.json schema.
type ButtonEntry struct {
	EntryID   string    `json:"entry_id"`
	MenuID    string    `json:"menu_id"`
	PageIndex int       `json:"page_index"`
	Rect      geom.Rect `json:"rect"`
	ImagePath string    `json:"image_path"`
	Source    Source    `json:"source"`
}

// Cropper crops a rectangle from a frame image and writes it as a PNG.
// Implemented with gocv; see crop_withcv.go / crop_stub.go.
type Cropper interface {
	// FrameSize returns the pixel dimensions of the frame at framePath.
	FrameSize(framePath string) (width, height int, err error)
	// Save crops rect (already padded and clamped by the caller) from
	// the frame at framePath and writes it as a PNG to outPath.
	Save(framePath string, rect geom.Rect, outPath string) error
}

// Emitter crops and writes button images under OutputDir, validating
// that every written path stays under it (an escaping path is an
// invariant violation, surfaced as an error here so the caller can
// treat it as fatal).
type Emitter struct {
	OutputDir string
	Crop      Cropper
}

// Emit crops each of rects from the frame at framePath (of the given
// page), pads and clamps each to the frame bounds, writes it as a PNG
// under OutputDir/menuID/<entry_id>.png, and returns the resulting
// ButtonEntry records in the same order as rects. entryID is called
// once per rectangle to assign its entry_id, so that callers can
// control numbering (e.g. continuing a running counter across pages).
func (e *Emitter) Emit(menuID string, pageIndex int, framePath string, rects []geom.Rect, source Source, entryID func() string) ([]ButtonEntry, error) {
	width, height, err := e.Crop.FrameSize(framePath)
	if err != nil {
		return nil, fmt.Errorf("emit: could not determine frame size for %s: %w", framePath, err)
	}

	menuDir := filepath.Join(e.OutputDir, menuID)
	entries := make([]ButtonEntry, 0, len(rects))
	for _, r := range rects {
		cropRect := r.Padded(padFracX, padFracY).Clamped(width-1, height-1)

		id := entryID()
		outPath := filepath.Join(menuDir, id+".png")
		if err := validateUnderDir(e.OutputDir, outPath); err != nil {
			return nil, err
		}

		if err := e.Crop.Save(framePath, cropRect, outPath); err != nil {
			return nil, fmt.Errorf("emit: could not save %s: %w", outPath, err)
		}

		entries = append(entries, ButtonEntry{
			EntryID:   id,
			MenuID:    menuID,
			PageIndex: pageIndex,
			Rect:      cropRect,
			ImagePath: outPath,
			Source:    source,
		})
	}
	return entries, nil
}

// validateUnderDir returns an error if path, once cleaned, does not lie
// under dir: an output path must never escape the stage's output
// directory, regardless of what entry_id a caller supplies.
func validateUnderDir(dir, path string) error {
	cleanDir := filepath.Clean(dir)
	cleanPath := filepath.Clean(path)
	rel, err := filepath.Rel(cleanDir, cleanPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("emit: output path %q escapes stage output directory %q", path, dir)
	}
	return nil
}
