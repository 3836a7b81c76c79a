/*
NAME
  frame.go - sampling and page-grouping types shared by both the gocv
  and stub frame classifiers.

DESCRIPTION
  A menu VOB is sampled into a sequence of frames (via the nav source's
  FrameSample capability, which wraps an external media tool) and those
  frames are grouped into PageGroups: runs of near-identical frames that represent
  one rendered menu page. The k-th complete menu-flagged SPU packet is
  associated with the PageGroup at index k.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package frame samples frames from a menu VOB and classifies them into
// the distinct rendered pages of a menu.
package frame

import (
	"fmt"

	"github.com/ausocean/utils/logging"
)

// DefaultDiffThreshold is the default mean absolute pixel difference,
// on an 8-bit grayscale comparison, above which two consecutive frames
// are considered to belong to different pages.
const DefaultDiffThreshold = 4

// SampledFrame is one frame extracted from a menu VOB, in file (i.e.
// decode) order.
type SampledFrame struct {
	Index int
	Path  string // path to the extracted frame image on disk
}

// PageGroup is a run of consecutive SampledFrames judged to render the
// same menu page. Representative is the first frame of the group.
type PageGroup struct {
	PageIndex      int
	Representative SampledFrame
	Frames         []SampledFrame
}

// MapPacketsToPages associates each of the nPackets complete
// menu-flagged SPU packets with the PageGroup at the same index. A
// mismatch between packet count and page count is not an error: the
// surplus packets or groups are logged as a warning and excluded from
// the returned mapping.
func MapPacketsToPages(groups []PageGroup, nPackets int, log logging.Logger) map[int]PageGroup {
	n := len(groups)
	if nPackets != n {
		log.Log(logging.Warning, "menu packet count does not match page group count", "packets", nPackets, "pages", n)
	}
	if nPackets < n {
		n = nPackets
	}
	out := make(map[int]PageGroup, n)
	for i := 0; i < n; i++ {
		out[i] = groups[i]
	}
	return out
}

// ErrNoCV is returned by Classify when menuscan was built without the
// withcv build tag and therefore has no image-comparison backend.
var ErrNoCV = fmt.Errorf("frame: classification requires building with the withcv tag")
