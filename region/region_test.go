/*
NAME
  region_test.go - tests for region.go.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package region

import (
	"testing"

	"github.com/discvault/menuscan/geom"
	"github.com/discvault/menuscan/spu"
)

func bitmapFromRows(rows []string) *spu.Bitmap {
	h := len(rows)
	w := len(rows[0])
	px := make([]byte, w*h)
	for y, row := range rows {
		for x, c := range row {
			if c != '.' {
				px[y*w+x] = 1
			}
		}
	}
	return &spu.Bitmap{Width: w, Height: h, Pixels: px}
}

func TestExtractTwoSeparateRegions(t *testing.T) {
	bmp := bitmapFromRows([]string{
		"XX......",
		"XX......",
		"........",
		"......XX",
		"......XX",
	})
	got := Extract(bmp)
	want := []Region{
		{Rect: geom.Rect{X1: 0, Y1: 0, X2: 1, Y2: 1}, PixelCount: 4},
		{Rect: geom.Rect{X1: 6, Y1: 3, X2: 7, Y2: 4}, PixelCount: 4},
	}
	if len(got) != len(want) {
		t.Fatalf("Extract() returned %d regions, want %d: %+v", len(got), len(want), got)
	}
	for i, r := range got {
		if r != want[i] {
			t.Errorf("region %d = %+v, want %+v", i, r, want[i])
		}
	}
}

func Test4ConnectivityDoesNotMergeDiagonalPixels(t *testing.T) {
	bmp := bitmapFromRows([]string{
		"X.",
		".X",
	})
	got := Extract(bmp)
	if len(got) != 2 {
		t.Fatalf("Extract() on diagonal pixels returned %d regions, want 2 (4-connectivity must not merge diagonals): %+v", len(got), got)
	}
}

func TestExtractOrderIsScanlineOfTopLeftPixel(t *testing.T) {
	bmp := bitmapFromRows([]string{
		"...X",
		"X...",
	})
	got := Extract(bmp)
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2", len(got))
	}
	// The region at (3,0) is encountered before the region at (0,1) in a
	// row-major scan.
	if got[0].Rect.X1 != 3 || got[0].Rect.Y1 != 0 {
		t.Errorf("first region = %+v, want top-left (3,0)", got[0])
	}
	if got[1].Rect.X1 != 0 || got[1].Rect.Y1 != 1 {
		t.Errorf("second region = %+v, want top-left (0,1)", got[1])
	}
}

func TestExtractOriginOffset(t *testing.T) {
	bmp := bitmapFromRows([]string{
		"X",
	})
	bmp.OriginX, bmp.OriginY = 100, 200
	got := Extract(bmp)
	want := geom.Rect{X1: 100, Y1: 200, X2: 100, Y2: 200}
	if got[0].Rect != want {
		t.Errorf("Extract() with origin offset = %+v, want %+v", got[0].Rect, want)
	}
}

func TestExtractEmptyBitmapReturnsNoRegions(t *testing.T) {
	bmp := bitmapFromRows([]string{
		"....",
		"....",
	})
	got := Extract(bmp)
	if len(got) != 0 {
		t.Errorf("Extract() on empty bitmap = %+v, want no regions", got)
	}
}
