/*
NAME
  nav.go - the validated input artifact produced by the (external) nav stage.

DESCRIPTION
  nav.go defines the schema for the {menu_id -> (menu_vob_path,
  expected_button_count)} mapping that the menu-images stage consumes, and
  the capability-set interface that format adapters (DVD, VCD/SVCD)
  implement. The core never sees format-specific structures; it depends
  only on this interface.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package nav provides the validated disc-navigation artifact consumed by
// the menu-image pipeline, and the capability set format adapters
// implement to supply menu bytes and frame samples.
package nav

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/discvault/menuscan/frame"
)

// MenuVob describes one menu-carrying container as supplied by the nav
// stage. It is immutable for the duration of a run.
type MenuVob struct {
	MenuID   string `json:"menu_id"`
	Path     string `json:"path"`
	Expected int    `json:"expected_button_count"`
}

// Validate checks the field invariants the pipeline relies on: a non-empty
// menu ID and path, and a non-negative expected button count.
func (m MenuVob) Validate() error {
	if m.MenuID == "" {
		return fmt.Errorf("nav: menu_id must not be empty")
	}
	if m.Path == "" {
		return fmt.Errorf("nav: %s: path must not be empty", m.MenuID)
	}
	if m.Expected < 0 {
		return fmt.Errorf("nav: %s: expected_button_count must not be negative, got %d", m.MenuID, m.Expected)
	}
	return nil
}

// Mapping is the validated {menu_id -> MenuVob} artifact produced by the
// nav stage. It is keyed by MenuID for O(1) lookup during scheduling.
type Mapping map[string]MenuVob

// LoadMapping decodes and validates a Mapping from r. Unknown top-level
// fields on any entry are rejected: the schema is fixed, not freeform.
func LoadMapping(r io.Reader) (Mapping, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var entries []MenuVob
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("nav: could not decode mapping: %w", err)
	}

	m := make(Mapping, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m[e.MenuID]; dup {
			return nil, fmt.Errorf("nav: duplicate menu_id %q", e.MenuID)
		}
		m[e.MenuID] = e
	}
	return m, nil
}

// Source is the capability set a disc-format adapter (DVD, and
// architecturally VCD/SVCD) must implement. The menu-image pipeline
// depends only on this interface and never inspects format-specific
// structures directly: format variability is modelled as a capability
// set, not a type hierarchy.
type Source interface {
	// ListMenus returns the menu IDs available from this source.
	ListMenus(ctx context.Context) ([]string, error)

	// OpenMenuBytes returns the raw bytes of the menu-carrying container
	// for menuID, ready for PS demuxing.
	OpenMenuBytes(ctx context.Context, menuID string) ([]byte, error)

	// ExpectedButtonCount returns the nav-stage-supplied expected button
	// count for menuID.
	ExpectedButtonCount(menuID string) int

	// FrameSample extracts representative frames from menuID's
	// menu-carrying container via an external media tool, writing them
	// under outDir. subSecond indicates the container's declared
	// duration is below one second, in which case every decoded frame
	// must be extracted; otherwise frames are sampled by timestamp.
	FrameSample(ctx context.Context, menuID string, outDir string, subSecond bool) ([]frame.SampledFrame, error)
}
