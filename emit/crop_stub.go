//go:build !withcv
// +build !withcv

/*
NAME
  crop_stub.go - replaces the gocv-based cropper in builds without
  OpenCV available.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package emit

import (
	"fmt"

	"github.com/discvault/menuscan/geom"
)

// GocvCropper is replaced in a !withcv build: cropping and PNG
// encoding have no pure-Go fallback.
type GocvCropper struct{}

func (GocvCropper) FrameSize(framePath string) (int, int, error) {
	return 0, 0, fmt.Errorf("emit: frame cropping requires building with the withcv tag")
}

func (GocvCropper) Save(framePath string, rect geom.Rect, outPath string) error {
	return fmt.Errorf("emit: frame cropping requires building with the withcv tag")
}
