//go:build withcv
// +build withcv

/*
NAME
  block_grid_withcv.go - computes a dark-block grid from a real frame
  image using gocv.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package fallback

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GocvSource computes BlockGrids by reading the frame in grayscale and
// averaging pixel intensity within each BlockSize x BlockSize block.
type GocvSource struct{}

// BlockGrid reads the frame at framePath and returns the dark-block
// grid used by Detect.
func (GocvSource) BlockGrid(ctx context.Context, framePath string) (BlockGrid, error) {
	img := gocv.IMRead(framePath, gocv.IMReadGrayScale)
	defer img.Close()
	if img.Empty() {
		return BlockGrid{}, fmt.Errorf("fallback: could not read %s", framePath)
	}

	cols := img.Cols() / BlockSize
	rows := img.Rows() / BlockSize
	grid := BlockGrid{Cols: cols, Rows: rows, Dark: make([]bool, cols*rows)}

	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			x0, y0 := bx*BlockSize, by*BlockSize
			region := img.Region(image.Rect(x0, y0, x0+BlockSize, y0+BlockSize))
			mean := region.Mean().Val1
			region.Close()
			grid.Dark[by*cols+bx] = mean < DarkMeanThreshold
		}
	}
	return grid, nil
}
