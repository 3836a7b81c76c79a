//go:build withcv
// +build withcv

/*
NAME
  classify_withcv.go - gocv-based mean-pixel-difference page classifier.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package frame

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Classify groups frames, in file order, into PageGroups by computing
// the mean absolute pixel difference between each consecutive pair on
// an 8-bit grayscale comparison. A difference exceeding threshold
// starts a new group.
func Classify(frames []SampledFrame, threshold float64) ([]PageGroup, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	if threshold <= 0 {
		threshold = DefaultDiffThreshold
	}

	prev := gocv.NewMat()
	defer prev.Close()

	groups := []PageGroup{{PageIndex: 0, Representative: frames[0], Frames: []SampledFrame{frames[0]}}}

	for i := 1; i < len(frames); i++ {
		img := gocv.IMRead(frames[i].Path, gocv.IMReadGrayScale)
		if img.Empty() {
			img.Close()
			return nil, fmt.Errorf("frame: could not read %s", frames[i].Path)
		}

		if prev.Empty() {
			prevImg := gocv.IMRead(frames[i-1].Path, gocv.IMReadGrayScale)
			if prevImg.Empty() {
				img.Close()
				return nil, fmt.Errorf("frame: could not read %s", frames[i-1].Path)
			}
			prev = prevImg
		}

		delta := gocv.NewMat()
		gocv.AbsDiff(img, prev, &delta)
		mean := delta.Mean().Val1
		delta.Close()

		last := &groups[len(groups)-1]
		if mean > threshold {
			groups = append(groups, PageGroup{
				PageIndex:      len(groups),
				Representative: frames[i],
				Frames:         []SampledFrame{frames[i]},
			})
		} else {
			last.Frames = append(last.Frames, frames[i])
		}

		prev.Close()
		prev = img
	}

	return groups, nil
}
