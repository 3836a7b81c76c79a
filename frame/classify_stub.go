//go:build !withcv
// +build !withcv

/*
NAME
  classify_stub.go - replaces the gocv-based page classifier in builds
  without OpenCV available.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package frame

// Classify always fails in a !withcv build: page classification has
// no pure-Go fallback.
func Classify(frames []SampledFrame, threshold float64) ([]PageGroup, error) {
	return nil, ErrNoCV
}
