//go:build !withcv
// +build !withcv

/*
NAME
  block_grid_stub.go - replaces the gocv-based block-grid source in
  builds without OpenCV available.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package fallback

import (
	"context"
	"fmt"
)

// GocvSource is replaced in a !withcv build: computing a block grid
// from pixel data has no pure-Go fallback.
type GocvSource struct{}

// BlockGrid always fails in a !withcv build.
func (GocvSource) BlockGrid(ctx context.Context, framePath string) (BlockGrid, error) {
	return BlockGrid{}, fmt.Errorf("fallback: block grid computation requires building with the withcv tag")
}
