/*
NAME
  cluster.go - decides between large-highlight and character-glyph
  clustering modes and produces the page's button rectangles.

DESCRIPTION
  A packet's regions are either a handful of large highlight rectangles
  (one button each) or a field of small character-glyph boxes that must
  be grouped into text lines and, if the page has two columns, split
  across a detected gutter.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package cluster turns a set of extracted regions into the final
// ordered set of button rectangles for a page, choosing between
// large-highlight and character-glyph clustering and, in the latter
// case, detecting a two-column gutter.
package cluster

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/discvault/menuscan/geom"
	"github.com/discvault/menuscan/region"
)

// DebugPlotDir, when non-empty, makes every gutter search in this
// process render its smoothed horizontal projection as a numbered PNG
// under this directory (see gutter_debug.go). Intended for interactive
// threshold tuning (--debug-plots), not for a normal run.
var DebugPlotDir string

var debugPlotCounter int32

// Mode decision thresholds and glyph-grouping tolerances.
const (
	largeMinWidth  = 80
	largeMinHeight = 60
	minGlyphCount  = 20 // S must exceed this for character-glyph mode

	lineYCenterTolerance = 10 // px: consecutive glyphs in the same text line
	glyphMergeGapMax     = 30 // px: horizontal gap merged into one button box
	rightPad             = 30 // px: padding appended to the last glyph in a box

	minBoxWidth  = 80
	minBoxHeight = 10

	headerBandFrac = 0.15 // top fraction of the page's Y range
)

// Mode identifies which clustering strategy produced a page's button
// rectangles.
type Mode int

const (
	// ModeNone indicates neither mode's threshold was met; no buttons
	// were detected for this packet.
	ModeNone Mode = iota
	ModeLargeHighlight
	ModeCharacterGlyph
)

// Cluster decides the clustering mode for regions on a page of the
// given pixel width and returns the final ordered button rectangles
// along with the mode used. pageWidth is the frame width the glyph
// boxes and gutter search are measured against.
func Cluster(regions []region.Region, pageWidth int) ([]geom.Rect, Mode) {
	// A region large in one dimension only counts toward neither mode
	// threshold. In character-glyph mode it still clusters with the
	// glyphs: a wide-but-short region is typically an already-joined
	// text run, and the line grouping absorbs it.
	var large, small, mixed []geom.Rect
	for _, r := range regions {
		w, h := r.Rect.Width(), r.Rect.Height()
		switch {
		case w >= largeMinWidth && h >= largeMinHeight:
			large = append(large, r.Rect)
		case w < largeMinWidth && h < largeMinHeight:
			small = append(small, r.Rect)
		default:
			mixed = append(mixed, r.Rect)
		}
	}

	switch {
	case len(large) >= 1:
		return large, ModeLargeHighlight
	case len(small) > minGlyphCount:
		return clusterGlyphs(append(small, mixed...), pageWidth), ModeCharacterGlyph
	default:
		return nil, ModeNone
	}
}

// clusterGlyphs implements the character-glyph mode: gutter detection,
// grouping into header/left/right (or a single group), text-line
// grouping within each, and final header-then-left-then-right ordering.
func clusterGlyphs(glyphs []geom.Rect, pageWidth int) []geom.Rect {
	gutterX, hasGutter := detectGutterMaybePlot(glyphs, pageWidth)
	if !hasGutter {
		return boxesForGroup(glyphs)
	}

	minY, maxY := yRange(glyphs)
	headerCutoff := minY + int(float64(maxY-minY)*headerBandFrac)

	var header, left, right []geom.Rect
	for _, g := range glyphs {
		if int(g.CenterY()) <= headerCutoff {
			header = append(header, g)
			continue
		}
		if int(g.CenterX()) < gutterX {
			left = append(left, g)
		} else {
			right = append(right, g)
		}
	}

	var out []geom.Rect
	out = append(out, boxesForGroup(header)...)
	out = append(out, boxesForGroup(left)...)
	out = append(out, boxesForGroup(right)...)
	return out
}

// boxesForGroup groups a set of glyph boxes into text lines, merges
// each line's glyphs into button text boxes, and filters boxes too
// small to be a button label. Lines are returned top-to-bottom.
func boxesForGroup(glyphs []geom.Rect) []geom.Rect {
	if len(glyphs) == 0 {
		return nil
	}
	lines := groupIntoLines(glyphs)

	var out []geom.Rect
	for _, line := range lines {
		for _, box := range mergeLineIntoBoxes(line) {
			if box.Width() < minBoxWidth || box.Height() < minBoxHeight {
				continue
			}
			out = append(out, box)
		}
	}
	return out
}

// groupIntoLines sorts glyphs by Y-centre and splits them into text
// lines wherever consecutive glyphs' Y-centres differ by more than
// lineYCenterTolerance.
func groupIntoLines(glyphs []geom.Rect) [][]geom.Rect {
	sorted := append([]geom.Rect(nil), glyphs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CenterY() < sorted[j].CenterY() })

	var lines [][]geom.Rect
	var cur []geom.Rect
	for _, g := range sorted {
		if len(cur) > 0 && g.CenterY()-cur[len(cur)-1].CenterY() > lineYCenterTolerance {
			lines = append(lines, cur)
			cur = nil
		}
		cur = append(cur, g)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// mergeLineIntoBoxes sorts a text line's glyphs by X and merges
// consecutive glyphs whose horizontal gap is within glyphMergeGapMax
// into a single button text box, padding the final glyph of each box
// on the right to avoid truncation.
func mergeLineIntoBoxes(line []geom.Rect) []geom.Rect {
	sorted := append([]geom.Rect(nil), line...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X1 < sorted[j].X1 })

	var out []geom.Rect
	cur := sorted[0]
	for _, g := range sorted[1:] {
		gap := g.X1 - cur.X2
		if gap <= glyphMergeGapMax {
			cur = geom.NewRect(cur.X1, min(cur.Y1, g.Y1), g.X2, max(cur.Y2, g.Y2))
			continue
		}
		cur.X2 += rightPad
		out = append(out, cur)
		cur = g
	}
	cur.X2 += rightPad
	out = append(out, cur)
	return out
}

func yRange(rs []geom.Rect) (min, max int) {
	min, max = rs[0].Y1, rs[0].Y2
	for _, r := range rs[1:] {
		if r.Y1 < min {
			min = r.Y1
		}
		if r.Y2 > max {
			max = r.Y2
		}
	}
	return min, max
}

// detectGutterMaybePlot behaves exactly like DetectGutter, additionally
// rendering the search's smoothed projection to DebugPlotDir when set.
// A plot-rendering failure is not fatal to clustering: it is swallowed
// here since --debug-plots is a tuning aid, not a correctness
// requirement of a run.
func detectGutterMaybePlot(glyphs []geom.Rect, pageWidth int) (int, bool) {
	if DebugPlotDir == "" {
		return DetectGutter(glyphs, pageWidth)
	}
	n := atomic.AddInt32(&debugPlotCounter, 1)
	path := filepath.Join(DebugPlotDir, fmt.Sprintf("gutter-%04d.png", n))
	gutterX, ok, _ := DetectGutterWithPlot(glyphs, pageWidth, path)
	return gutterX, ok
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
