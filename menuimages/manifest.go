/*
NAME
  manifest.go - the menu_images.json structured artifact.

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package menuimages

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/discvault/menuscan/emit"
)

// Manifest is the menu_images.json artifact: every ButtonEntry produced
// across every menu processed in a run, plus the menu_ids that yielded
// zero rectangles (Done(no_buttons), per the state machine's terminal
// alternative).
type Manifest struct {
	Entries   []emit.ButtonEntry `json:"entries"`
	EmptyMenu []string           `json:"empty_menus,omitempty"`
}

// WriteFile encodes m as indented JSON and writes it to path, creating
// path's parent directory if needed.
func (m Manifest) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("menuimages: could not create %s: %w", filepath.Dir(path), err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("menuimages: could not marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("menuimages: could not write %s: %w", path, err)
	}
	return nil
}
