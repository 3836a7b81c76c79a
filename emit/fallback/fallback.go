/*
NAME
  fallback.go - block-wise dark-region detector used when the SPU path
  yields fewer rectangles than a page's expected button count.

DESCRIPTION
  Operates purely on a coarse block-level grid of "is this 8x8 block
  dark" booleans, so the connected-component grouping, edge-touch
  rejection, and vertical-overlap deduplication are all unit-testable
  without decoding an actual image. Computing the grid itself from a
  real frame (mean pixel value per block) is gocv-gated, since it
  requires reading pixel data; see block_grid_withcv.go.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package fallback implements the dark-region visual fallback:
// block-wise dark-region detection, connected-component grouping,
// edge-touch rejection, and deduplication of vertically overlapping
// regions, used when the SPU path under-produces rectangles for a
// page.
package fallback

import (
	"context"

	"github.com/discvault/menuscan/geom"
)

// BlockSize is the pixel width/height of one grid block.
const BlockSize = 8

// DarkMeanThreshold is the maximum mean pixel value (0-255) for a block
// to be considered dark.
const DarkMeanThreshold = 65.0

// BlockGrid is a row-major grid of "is this block dark" flags, one
// entry per BlockSize x BlockSize pixel block of a frame.
type BlockGrid struct {
	Cols, Rows int
	Dark       []bool // len == Cols*Rows
}

func (g BlockGrid) at(x, y int) bool {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return false
	}
	return g.Dark[y*g.Cols+x]
}

// Source computes a BlockGrid from a rendered frame image. It is
// implemented with gocv (see block_grid_withcv.go / block_grid_stub.go).
type Source interface {
	BlockGrid(ctx context.Context, framePath string) (BlockGrid, error)
}

// DetectFrame computes src's BlockGrid for framePath and runs Detect
// over it, returning candidate button rectangles in pixel coordinates.
func DetectFrame(ctx context.Context, src Source, framePath string) ([]geom.Rect, error) {
	grid, err := src.BlockGrid(ctx, framePath)
	if err != nil {
		return nil, err
	}
	return Detect(grid), nil
}

// Detect groups dark blocks of grid into maximal 4-connected
// components, rejects components touching any edge of the grid
// (background/letterboxing, not a button), scales surviving components
// to pixel-coordinate rectangles, and deduplicates rectangles whose
// vertical span overlaps another's, keeping the larger of each
// overlapping pair.
func Detect(grid BlockGrid) []geom.Rect {
	comps := connectedComponents(grid)

	var rects []geom.Rect
	for _, c := range comps {
		if touchesEdge(c, grid) {
			continue
		}
		rects = append(rects, c.pixelRect())
	}
	return dedupVerticalOverlap(rects)
}

// blockComponent is a connected component in block-grid coordinates.
type blockComponent struct {
	minX, minY, maxX, maxY int
}

func (c blockComponent) pixelRect() geom.Rect {
	return geom.Rect{
		X1: c.minX * BlockSize,
		Y1: c.minY * BlockSize,
		X2: (c.maxX+1)*BlockSize - 1,
		Y2: (c.maxY+1)*BlockSize - 1,
	}
}

// touchesEdge reports whether c's bounding box reaches column 0,
// row 0, the last column, or the last row of grid.
func touchesEdge(c blockComponent, grid BlockGrid) bool {
	return c.minX == 0 || c.minY == 0 || c.maxX == grid.Cols-1 || c.maxY == grid.Rows-1
}

// connectedComponents finds maximal 4-connected components of dark
// blocks in grid, in scanline order of each component's first block.
func connectedComponents(grid BlockGrid) []blockComponent {
	visited := make([]bool, grid.Cols*grid.Rows)
	var comps []blockComponent

	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			idx := y*grid.Cols + x
			if visited[idx] || !grid.at(x, y) {
				continue
			}
			comps = append(comps, floodFill(grid, visited, x, y))
		}
	}
	return comps
}

func floodFill(grid BlockGrid, visited []bool, sx, sy int) blockComponent {
	c := blockComponent{minX: sx, minY: sy, maxX: sx, maxY: sy}
	queue := [][2]int{{sx, sy}}
	visited[sy*grid.Cols+sx] = true

	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := p[0], p[1]

		if x < c.minX {
			c.minX = x
		}
		if x > c.maxX {
			c.maxX = x
		}
		if y < c.minY {
			c.minY = y
		}
		if y > c.maxY {
			c.maxY = y
		}

		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= grid.Cols || ny < 0 || ny >= grid.Rows {
				continue
			}
			nidx := ny*grid.Cols + nx
			if visited[nidx] || !grid.at(nx, ny) {
				continue
			}
			visited[nidx] = true
			queue = append(queue, [2]int{nx, ny})
		}
	}
	return c
}

// dedupVerticalOverlap removes rectangles whose vertical span overlaps
// an already-kept, larger rectangle's: authoring artefacts (e.g. a
// drop-shadow block row) sometimes yield a second, smaller dark
// component overlapping the same text row as a stronger detection.
func dedupVerticalOverlap(rects []geom.Rect) []geom.Rect {
	if len(rects) < 2 {
		return rects
	}
	ordered := append([]geom.Rect(nil), rects...)
	sortByAreaDesc(ordered)

	var kept []geom.Rect
	for _, r := range ordered {
		dup := false
		for _, k := range kept {
			if r.VOverlapFrac(k) > 0 || k.VOverlapFrac(r) > 0 {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, r)
		}
	}
	return kept
}

func sortByAreaDesc(rects []geom.Rect) {
	for i := 1; i < len(rects); i++ {
		for j := i; j > 0 && rects[j].Area() > rects[j-1].Area(); j-- {
			rects[j], rects[j-1] = rects[j-1], rects[j]
		}
	}
}
