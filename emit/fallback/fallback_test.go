/*
NAME
  fallback_test.go - tests for fallback.go.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package fallback

import "testing"

// gridFromRows builds a BlockGrid from a slice of strings, one per
// row, where 'X' marks a dark block and '.' marks a light one. All
// rows must be the same length.
func gridFromRows(rows []string) BlockGrid {
	g := BlockGrid{Cols: len(rows[0]), Rows: len(rows), Dark: make([]bool, len(rows)*len(rows[0]))}
	for y, row := range rows {
		for x, ch := range row {
			g.Dark[y*g.Cols+x] = ch == 'X'
		}
	}
	return g
}

func TestDetectFindsInteriorComponent(t *testing.T) {
	grid := gridFromRows([]string{
		"..........",
		"...XX.....",
		"...XX.....",
		"..........",
	})
	rects := Detect(grid)
	if len(rects) != 1 {
		t.Fatalf("Detect() = %d rects, want 1", len(rects))
	}
	r := rects[0]
	if r.X1 != 3*BlockSize || r.X2 != 5*BlockSize-1 {
		t.Errorf("rect X span = [%d,%d], want [%d,%d]", r.X1, r.X2, 3*BlockSize, 5*BlockSize-1)
	}
	if r.Y1 != 1*BlockSize || r.Y2 != 3*BlockSize-1 {
		t.Errorf("rect Y span = [%d,%d], want [%d,%d]", r.Y1, r.Y2, 1*BlockSize, 3*BlockSize-1)
	}
}

func TestDetectRejectsEdgeTouchingComponent(t *testing.T) {
	grid := gridFromRows([]string{
		"X.........",
		"..........",
		"...XX.....",
		"...XX.....",
		"..........",
	})
	rects := Detect(grid)
	if len(rects) != 1 {
		t.Fatalf("Detect() = %d rects, want 1 (edge component rejected)", len(rects))
	}
}

func TestDetectDedupesVerticalOverlapKeepingLarger(t *testing.T) {
	// Two separate (non-4-connected) components: a wide one spanning
	// block-rows 2-4, and a single-block one at block-row 3 offset two
	// columns to the right with a light gap between them. Their
	// vertical spans overlap even though they never touch, which the
	// dedup step treats as the same row and collapses to the larger.
	grid := gridFromRows([]string{
		"............",
		"............",
		"...XXXXX....",
		"...XXXXX.X..",
		"...XXXXX....",
		"............",
		"............",
	})
	rects := Detect(grid)
	if len(rects) != 1 {
		t.Fatalf("Detect() = %d rects, want 1 after vertical-overlap dedup; got %+v", len(rects), rects)
	}
	if rects[0].Width() != 5*BlockSize {
		t.Errorf("kept rect width = %d, want the wider component's %d", rects[0].Width(), 5*BlockSize)
	}
}

func TestDetectNoDarkBlocksReturnsNoRects(t *testing.T) {
	grid := gridFromRows([]string{
		"..........",
		"..........",
	})
	if rects := Detect(grid); rects != nil {
		t.Errorf("Detect() = %+v, want nil", rects)
	}
}
