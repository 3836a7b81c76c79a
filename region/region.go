/*
NAME
  region.go - extracts bounding rectangles of connected non-zero regions
  from a decoded SPU bitmap.

DESCRIPTION
  A region is a maximal 4-connected set of non-zero (non-transparent)
  pixels; all three non-zero colour indices are treated identically, since
  only rectangle geometry is required. Regions are returned in the
  deterministic order they are first encountered during a row-major scan
  of the bitmap, i.e. ordered by the scanline position of each region's
  top-left pixel.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package region extracts connected-component bounding rectangles from a
// decoded SPU bitmap.
package region

import (
	"github.com/discvault/menuscan/geom"
	"github.com/discvault/menuscan/spu"
)

// Region is a connected component: its bounding rectangle in the
// bitmap's display-rectangle coordinate system, plus the number of
// non-zero pixels it contains.
type Region struct {
	Rect       geom.Rect
	PixelCount int
}

// Extract returns the bounding rectangles of every maximal 4-connected
// region of non-zero pixels in bmp, translated into the bitmap's
// display-rectangle (origin-relative) coordinate system, in scanline
// order of each region's first (top-left) pixel.
func Extract(bmp *spu.Bitmap) []Region {
	w, h := bmp.Width, bmp.Height
	visited := make([]bool, w*h)

	var regions []Region
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || bmp.Pixels[idx] == 0 {
				continue
			}
			regions = append(regions, floodFill(bmp, visited, x, y))
		}
	}
	return regions
}

// floodFill performs a 4-connected, stack-based flood fill starting at (sx, sy),
// marking visited pixels and accumulating the bounding box and pixel
// count, then translates the box into display-rectangle coordinates.
func floodFill(bmp *spu.Bitmap, visited []bool, sx, sy int) Region {
	w, h := bmp.Width, bmp.Height
	minX, minY, maxX, maxY := sx, sy, sx, sy
	count := 0

	queue := []int{sy*w + sx}
	visited[sy*w+sx] = true

	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := idx%w, idx/w
		count++
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}

		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			nidx := ny*w + nx
			if visited[nidx] || bmp.Pixels[nidx] == 0 {
				continue
			}
			visited[nidx] = true
			queue = append(queue, nidx)
		}
	}

	return Region{
		Rect: geom.Rect{
			X1: bmp.OriginX + minX,
			Y1: bmp.OriginY + minY,
			X2: bmp.OriginX + maxX,
			Y2: bmp.OriginY + maxY,
		},
		PixelCount: count,
	}
}
