/*
NAME
  frame_test.go - tests for frame.go.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package frame

import (
	"bytes"
	"testing"

	"github.com/ausocean/utils/logging"
)

func TestMapPacketsToPagesExactMatch(t *testing.T) {
	groups := []PageGroup{
		{PageIndex: 0, Representative: SampledFrame{Index: 0, Path: "a.png"}},
		{PageIndex: 1, Representative: SampledFrame{Index: 5, Path: "b.png"}},
	}
	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	got := MapPacketsToPages(groups, 2, log)
	if len(got) != 2 {
		t.Fatalf("MapPacketsToPages() = %d entries, want 2", len(got))
	}
	if got[0].Representative.Path != "a.png" || got[1].Representative.Path != "b.png" {
		t.Errorf("MapPacketsToPages() mapping incorrect: %+v", got)
	}
}

func TestMapPacketsToPagesSurplusPackets(t *testing.T) {
	groups := []PageGroup{
		{PageIndex: 0, Representative: SampledFrame{Index: 0, Path: "a.png"}},
	}
	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	got := MapPacketsToPages(groups, 3, log)
	if len(got) != 1 {
		t.Fatalf("MapPacketsToPages() with surplus packets = %d entries, want 1", len(got))
	}
}

func TestMapPacketsToPagesSurplusGroups(t *testing.T) {
	groups := []PageGroup{
		{PageIndex: 0, Representative: SampledFrame{Index: 0, Path: "a.png"}},
		{PageIndex: 1, Representative: SampledFrame{Index: 5, Path: "b.png"}},
	}
	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	got := MapPacketsToPages(groups, 1, log)
	if len(got) != 1 {
		t.Fatalf("MapPacketsToPages() with surplus groups = %d entries, want 1", len(got))
	}
	if _, ok := got[1]; ok {
		t.Error("MapPacketsToPages() should not include surplus page group 1")
	}
}
