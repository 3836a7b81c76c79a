/*
NAME
  dvd_test.go - tests for dvd.go.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package nav

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSampleArgsSubSecondExtractsAllFrames(t *testing.T) {
	got := sampleArgs("/discs/d1/VTS_01_0.VOB", "/out/%06d.png", true)
	want := []string{"-y", "-i", "/discs/d1/VTS_01_0.VOB", "-vsync", "0", "/out/%06d.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sampleArgs(subSecond=true) mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleArgsNormalDurationSamplesByTimestamp(t *testing.T) {
	got := sampleArgs("/discs/d1/VTS_01_0.VOB", "/out/%06d.png", false)
	want := []string{"-y", "-i", "/discs/d1/VTS_01_0.VOB", "-vf", fmt.Sprintf("fps=%d", sampleFPS), "/out/%06d.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sampleArgs(subSecond=false) mismatch (-want +got):\n%s", diff)
	}
}
