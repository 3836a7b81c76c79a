/*
NAME
  menuimages.go - orchestrates the per-menu state machine that turns a
  menu VOB into a set of button images.

DESCRIPTION
  Implements the per-menu state machine: demux -> reassemble -> decode
  -> cluster -> sample frames -> match packets to pages -> align ->
  regularize -> emit, running the dark-region detector when the SPU
  path under-produces rectangles for a page (its rectangles are emitted
  only for a page with no SPU rectangles at all), and never failing the
  whole run over a single menu's tool failure.

  A menu is processed entirely on one goroutine; ProcessAll runs
  multiple menus concurrently with a fixed-size worker pool (a
  buffered token channel bounding in-flight goroutines).

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package menuimages wires the psdemux, spu, region, cluster, frame,
// align, regularize and emit packages into the menu-button-rectangle
// discovery stage ("menu_images").
package menuimages

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ausocean/utils/logging"

	"github.com/discvault/menuscan/align"
	"github.com/discvault/menuscan/cluster"
	"github.com/discvault/menuscan/emit"
	"github.com/discvault/menuscan/emit/fallback"
	"github.com/discvault/menuscan/frame"
	"github.com/discvault/menuscan/geom"
	"github.com/discvault/menuscan/nav"
	"github.com/discvault/menuscan/psdemux"
	"github.com/discvault/menuscan/region"
	"github.com/discvault/menuscan/regularize"
	"github.com/discvault/menuscan/spu"
)

// Config holds the tunables for a run. Zero values are replaced with
// the documented defaults by New.
type Config struct {
	// DiffThreshold is the page-classifier's inter-frame mean absolute
	// pixel difference threshold; see frame.DefaultDiffThreshold.
	DiffThreshold float64

	// Workers bounds the number of menus processed concurrently.
	Workers int

	// SubSecondVOB, when true, tells the frame sampler that every menu
	// VOB in this run has a sub-second declared duration and so every
	// decoded frame must be extracted. Callers that know per-menu
	// durations should prefer a Source whose FrameSample implements
	// this per-menu rather than setting this globally.
	SubSecondVOB bool
}

// defaultWorkers is used when Config.Workers is unset.
const defaultWorkers = 4

func (c Config) withDefaults() Config {
	if c.DiffThreshold <= 0 {
		c.DiffThreshold = frame.DefaultDiffThreshold
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	return c
}

// Orchestrator processes menus from a nav.Source into ButtonEntry
// records, using an OCR capability for alignment and a Cropper to
// write button images.
type Orchestrator struct {
	Source    nav.Source
	OCR       align.OCR
	Fallback  fallback.Source
	Crop      emit.Cropper
	OutputDir string
	Log       logging.Logger

	// Classify groups sampled frames into pages. Defaults to
	// frame.Classify; overridable so the pure-Go stages are testable
	// without an image backend.
	Classify func(frames []frame.SampledFrame, threshold float64) ([]frame.PageGroup, error)

	cfg Config
}

// New returns an Orchestrator with cfg's zero fields replaced by
// defaults.
func New(src nav.Source, ocr align.OCR, fb fallback.Source, crop emit.Cropper, outputDir string, log logging.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		Source:    src,
		OCR:       ocr,
		Fallback:  fb,
		Crop:      crop,
		OutputDir: outputDir,
		Log:       log,
		Classify:  frame.Classify,
		cfg:       cfg.withDefaults(),
	}
}

// pageResult accumulates one page's worth of rectangles as the state
// machine walks forward. rects and fallbackRects are kept separate so
// Emit can tag each entry with the algorithm that produced its
// rectangle.
type pageResult struct {
	representative string // frame path
	rects          []geom.Rect
	fallbackRects  []geom.Rect
}

// ProcessMenu runs the full state machine for one menu and returns its
// ButtonEntry records. A menu that yields zero rectangles is not an
// error: Done(no_buttons) is represented by a nil, nil return, and the
// caller is expected to record menuID in the manifest's empty-menu
// list. Only ToolFailure and InvariantViolation surface as *Error.
func (o *Orchestrator) ProcessMenu(ctx context.Context, menuID string) ([]emit.ButtonEntry, error) {
	expected := o.Source.ExpectedButtonCount(menuID)

	data, err := o.Source.OpenMenuBytes(ctx, menuID)
	if err != nil {
		return nil, &Error{Kind: KindToolFailure, MenuID: menuID, Err: err}
	}

	frags := psdemux.Scan(data, o.Log)
	packets := spu.ReassembleAll(frags, o.Log)

	pages := o.clusterPackets(menuID, packets)

	frames, err := o.Source.FrameSample(ctx, menuID, o.frameDir(menuID), o.cfg.SubSecondVOB)
	if err != nil {
		return nil, &Error{Kind: KindToolFailure, MenuID: menuID, Err: err}
	}
	groups, err := o.Classify(frames, o.cfg.DiffThreshold)
	if err != nil {
		return nil, &Error{Kind: KindToolFailure, MenuID: menuID, Err: err}
	}

	matched := frame.MapPacketsToPages(groups, len(pages), o.Log)
	if len(pages) > len(groups) {
		o.Log.Log(logging.Warning, "menuimages: SPU pages without a representative frame are skipped",
			"menu_id", menuID, "packets", len(pages), "pages", len(groups))
	}

	var entries []emit.ButtonEntry
	counter := 0
	entryID := func() string {
		counter++
		return fmt.Sprintf("%s-%03d", menuID, counter)
	}
	emitter := &emit.Emitter{OutputDir: o.OutputDir, Crop: o.Crop}

	// Iterate the frame-derived groups, not the SPU-derived pages: a
	// page whose packets all failed decode (or a menu with no usable
	// packets at all) still has a rendered frame for the fallback
	// detector to work on.
	for _, group := range groups {
		pageIdx := group.PageIndex
		var pr pageResult
		if _, ok := matched[pageIdx]; ok && pageIdx < len(pages) {
			pr = pages[pageIdx]
		}
		pr.representative = group.Representative.Path

		width, height, err := o.Crop.FrameSize(pr.representative)
		if err != nil {
			return nil, &Error{Kind: KindToolFailure, MenuID: menuID, Err: err}
		}
		if len(pr.rects) > 0 {
			shifted, err := align.Shift(ctx, o.OCR, pr.representative, height, pr.rects)
			if err != nil {
				return nil, &Error{Kind: KindToolFailure, MenuID: menuID, Err: err}
			}
			pr.rects = regularize.Regularize(shifted, expected)
		}

		if len(pr.rects) == 0 || (expected > 0 && len(pr.rects) < expected) {
			fb, ferr := fallback.DetectFrame(ctx, o.Fallback, pr.representative)
			if ferr != nil {
				o.Log.Log(logging.Warning, "menuimages: fallback detector failed", "menu_id", menuID, "page", pageIdx, "error", ferr.Error())
			} else if len(pr.rects) == 0 {
				pr.fallbackRects = fb
			} else {
				o.Log.Log(logging.Info, "menuimages: fallback result not substituted for a partial SPU shortfall",
					"menu_id", menuID, "page", pageIdx, "spu_rects", len(pr.rects), "fallback_rects", len(fb))
			}
		}

		spuEntries, err := emitter.Emit(menuID, pageIdx, pr.representative, clamp(pr.rects, width, height), emit.SourceSPU, entryID)
		if err != nil {
			return nil, &Error{Kind: KindInvariantViolation, MenuID: menuID, Err: err}
		}
		entries = append(entries, spuEntries...)

		if len(pr.fallbackRects) > 0 {
			fbEntries, err := emitter.Emit(menuID, pageIdx, pr.representative, clamp(pr.fallbackRects, width, height), emit.SourceFallback, entryID)
			if err != nil {
				return nil, &Error{Kind: KindInvariantViolation, MenuID: menuID, Err: err}
			}
			entries = append(entries, fbEntries...)
		}
	}

	if len(entries) == 0 {
		o.Log.Log(logging.Warning, "menuimages: menu produced zero button rectangles", "menu_id", menuID)
	}
	return entries, nil
}

// clusterPackets walks packets in disc order, parsing, decoding and
// clustering each menu-flagged one, and returns the per-page rectangle
// sets indexed the same way frame.MapPacketsToPages expects: the k-th
// menu-flagged packet is pages[k].
func (o *Orchestrator) clusterPackets(menuID string, packets []spu.Packet) []pageResult {
	var pages []pageResult
	for _, pkt := range packets {
		ctrl, ok := spu.ParseControl(pkt)
		if !ok {
			o.Log.Log(logging.Debug, "menuimages: packet lacks menu flag/rect/offsets, skipping", "menu_id", menuID)
			continue
		}

		var pr pageResult
		bmp, err := spu.DecodeBitmap(pkt, ctrl)
		if err != nil {
			o.Log.Log(logging.Debug, "menuimages: RLE decode failed, page has zero SPU rectangles", "menu_id", menuID, "error", err.Error())
			pages = append(pages, pr)
			continue
		}

		regions := region.Extract(bmp)
		rects, mode := cluster.Cluster(regions, spu.FrameWidth)
		if mode == cluster.ModeNone {
			o.Log.Log(logging.Debug, "menuimages: clustering produced no rectangles", "menu_id", menuID)
		}
		pr.rects = rects
		pages = append(pages, pr)
	}
	return pages
}

func (o *Orchestrator) frameDir(menuID string) string {
	return o.OutputDir + "/." + menuID + ".frames"
}

// clamp bounds each rect to a frame's pixel bounds before cropping, so
// a shifted or fallback rectangle can never land outside the image it
// is cropped from.
func clamp(rects []geom.Rect, width, height int) []geom.Rect {
	out := make([]geom.Rect, len(rects))
	for i, r := range rects {
		out[i] = r.Clamped(width-1, height-1)
	}
	return out
}

// ProcessAll processes every menu in menuIDs concurrently, bounded by
// o.cfg.Workers, and aggregates the results into a Manifest. A menu's
// ToolFailure is logged and the menu recorded as empty; other menus
// proceed. An InvariantViolation on any menu is returned after all
// in-flight menus finish, so the caller can fail the run.
func (o *Orchestrator) ProcessAll(ctx context.Context, menuIDs []string) (Manifest, error) {
	type result struct {
		menuID  string
		entries []emit.ButtonEntry
		err     error
	}

	results := make([]result, len(menuIDs))
	tokens := make(chan struct{}, o.cfg.Workers)
	var wg sync.WaitGroup

	for i, id := range menuIDs {
		wg.Add(1)
		tokens <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-tokens }()
			entries, err := o.ProcessMenu(ctx, id)
			results[i] = result{menuID: id, entries: entries, err: err}
		}(i, id)
	}
	wg.Wait()

	var m Manifest
	var fatal error
	for _, r := range results {
		if r.err != nil {
			var merr *Error
			if errors.As(r.err, &merr) && merr.Kind == KindInvariantViolation && fatal == nil {
				fatal = r.err
			}
			o.Log.Log(logging.Warning, "menuimages: menu failed", "menu_id", r.menuID, "error", r.err.Error())
			m.EmptyMenu = append(m.EmptyMenu, r.menuID)
			continue
		}
		if len(r.entries) == 0 {
			m.EmptyMenu = append(m.EmptyMenu, r.menuID)
			continue
		}
		m.Entries = append(m.Entries, r.entries...)
	}
	return m, fatal
}
