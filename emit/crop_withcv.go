//go:build withcv
// +build withcv

/*
NAME
  crop_withcv.go - gocv-based frame cropping and PNG writing.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package emit

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/discvault/menuscan/geom"
)

// GocvCropper crops button images from representative frames using
// gocv's Mat.Region and IMWrite.
type GocvCropper struct{}

// FrameSize reads framePath and returns its pixel dimensions.
func (GocvCropper) FrameSize(framePath string) (int, int, error) {
	img := gocv.IMRead(framePath, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return 0, 0, fmt.Errorf("emit: could not read %s", framePath)
	}
	return img.Cols(), img.Rows(), nil
}

// Save crops rect from the frame at framePath and writes it to outPath
// as a PNG, creating outPath's parent directory if needed.
func (GocvCropper) Save(framePath string, rect geom.Rect, outPath string) error {
	img := gocv.IMRead(framePath, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("emit: could not read %s", framePath)
	}

	region := img.Region(image.Rect(rect.X1, rect.Y1, rect.X2+1, rect.Y2+1))
	defer region.Close()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("emit: could not create %s: %w", filepath.Dir(outPath), err)
	}
	if ok := gocv.IMWrite(outPath, region); !ok {
		return fmt.Errorf("emit: gocv.IMWrite failed for %s", outPath)
	}
	return nil
}
