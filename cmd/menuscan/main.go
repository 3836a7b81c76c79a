/*
DESCRIPTION
  menuscan is the CLI entry point for the menu-image pipeline: it loads
  a validated nav mapping, processes every listed menu into cropped
  button images, and writes the menu_images.json manifest.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package main is the menuscan CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/discvault/menuscan/align"
	"github.com/discvault/menuscan/cluster"
	"github.com/discvault/menuscan/emit"
	"github.com/discvault/menuscan/emit/fallback"
	"github.com/discvault/menuscan/menuimages"
	"github.com/discvault/menuscan/nav"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

// watchdogInterval is how often sd_notify(WATCHDOG=1) is sent while a
// run is in progress, when --systemd-notify is set.
const watchdogInterval = 15 * time.Second

func main() {
	var (
		outDir        = flag.String("out", "", "output directory for button images and menu_images.json")
		stage         = flag.String("stage", "menu_images", "pipeline stage to run (only menu_images is implemented)")
		ffmpegPath    = flag.String("ffmpeg", "", "path to the ffmpeg binary (defaults to ffmpeg on PATH)")
		tesseractBin  = flag.String("tesseract", "", "path to the tesseract binary (defaults to tesseract on PATH)")
		workers       = flag.Int("workers", 0, "number of menus to process concurrently (0 = default)")
		diffThresh    = flag.Float64("diff-threshold", 0, "page-classifier mean pixel difference threshold (0 = default)")
		subSecond     = flag.Bool("sub-second", false, "treat every menu VOB as having a sub-second declared duration")
		watch         = flag.Bool("watch", false, "keep running and process menus added to the nav mapping by upstream rewrites")
		logPath       = flag.String("log", "", "log file path (stderr if unset)")
		notifySystemd = flag.Bool("systemd-notify", false, "send sd_notify readiness/watchdog messages")
		debugPlots    = flag.String("debug-plots", "", "write column-gutter projection plots to this directory")
		showVersion   = flag.Bool("version", false, "show version")
	)
	flag.Parse()
	// flag.Parse stops at the first positional argument; keep parsing
	// after it so flags may follow the mapping path, as in the usage line.
	var args []string
	for flag.NArg() > 0 {
		args = append(args, flag.Arg(0))
		flag.CommandLine.Parse(flag.Args()[1:])
	}

	if *debugPlots != "" {
		if err := os.MkdirAll(*debugPlots, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "menuscan: could not create --debug-plots directory: %v\n", err)
			os.Exit(1)
		}
		cluster.DebugPlotDir = *debugPlots
	}

	if *showVersion {
		fmt.Println(version)
		return
	}

	if *stage != "menu_images" {
		fmt.Fprintf(os.Stderr, "menuscan: unsupported --stage %q (only menu_images is implemented)\n", *stage)
		os.Exit(1)
	}

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: menuscan <nav_mapping.json> --out <dir>")
		os.Exit(1)
	}
	mappingPath := args[0]

	if *outDir == "" {
		fmt.Fprintln(os.Stderr, "menuscan: --out is required")
		os.Exit(1)
	}

	var logWriter io.Writer = os.Stderr
	if *logPath != "" {
		logWriter = &lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
	}
	log := logging.New(logVerbosity, logWriter, logSuppress)
	log.Info("starting menuscan", "version", version)

	ocr := &align.TesseractOCR{BinPath: *tesseractBin, Log: log}
	fb := fallback.GocvSource{}
	crop := emit.GocvCropper{}

	cfg := menuimages.Config{
		DiffThreshold: *diffThresh,
		Workers:       *workers,
		SubSecondVOB:  *subSecond,
	}

	ctx := context.Background()
	if *notifySystemd {
		stop := startWatchdog(log)
		defer stop()
	}

	newOrchestrator := func(mapping nav.Mapping) *menuimages.Orchestrator {
		src := &nav.DVDSource{Mapping: mapping, Log: log, FFmpegPath: *ffmpegPath}
		return menuimages.New(src, ocr, fb, crop, *outDir, log, cfg)
	}

	manifestPath := filepath.Join(*outDir, "menu_images.json")

	if *watch {
		runWatch(ctx, mappingPath, manifestPath, newOrchestrator, log)
		return
	}

	f, err := os.Open(mappingPath)
	if err != nil {
		log.Fatal("could not open nav mapping", "path", mappingPath, "error", err.Error())
	}
	mapping, err := nav.LoadMapping(f)
	f.Close()
	if err != nil {
		log.Fatal("could not load nav mapping", "error", err.Error())
	}

	orch := newOrchestrator(mapping)
	menuIDs, err := orch.Source.ListMenus(ctx)
	if err != nil {
		log.Fatal("could not list menus", "error", err.Error())
	}
	log.Info("processing menus", "count", len(menuIDs))

	manifest, err := orch.ProcessAll(ctx, menuIDs)
	if err != nil {
		log.Fatal("invariant violation", "error", err.Error())
	}
	if err := manifest.WriteFile(manifestPath); err != nil {
		log.Fatal("could not write manifest", "error", err.Error())
	}
	log.Info("wrote manifest", "path", manifestPath, "entries", len(manifest.Entries), "empty_menus", len(manifest.EmptyMenu))
}

// runWatch processes every menu currently in the mapping, then keeps
// running: each time the nav stage rewrites the mapping artifact, any
// newly added menus are processed and the manifest rewritten. It
// returns on SIGINT/SIGTERM.
func runWatch(ctx context.Context, mappingPath, manifestPath string, newOrchestrator func(nav.Mapping) *menuimages.Orchestrator, log logging.Logger) {
	w, err := nav.NewWatcher(mappingPath, log)
	if err != nil {
		log.Fatal("could not watch nav mapping", "path", mappingPath, "error", err.Error())
	}
	stop := make(chan struct{})
	go w.Run(stop)
	defer close(stop)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	processed := make(map[string]bool)
	var manifest menuimages.Manifest

	for {
		mapping := w.Current()
		todo := sortedMenuIDs(mapping, processed)
		if len(todo) > 0 {
			log.Info("processing menus", "count", len(todo))
			m, err := newOrchestrator(mapping).ProcessAll(ctx, todo)
			if err != nil {
				log.Fatal("invariant violation", "error", err.Error())
			}
			manifest.Entries = append(manifest.Entries, m.Entries...)
			manifest.EmptyMenu = append(manifest.EmptyMenu, m.EmptyMenu...)
			for _, id := range todo {
				processed[id] = true
			}
			if err := manifest.WriteFile(manifestPath); err != nil {
				log.Fatal("could not write manifest", "error", err.Error())
			}
			log.Info("wrote manifest", "path", manifestPath, "entries", len(manifest.Entries), "empty_menus", len(manifest.EmptyMenu))
		}

		select {
		case <-w.Changed():
		case <-sig:
			log.Info("stopping on signal")
			return
		}
	}
}

// sortedMenuIDs returns the mapping's menu IDs not yet in done, in
// lexical order so runs are deterministic.
func sortedMenuIDs(mapping nav.Mapping, done map[string]bool) []string {
	var out []string
	for id := range mapping {
		if !done[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// startWatchdog sends sd_notify(READY=1) once and then pings
// sd_notify(WATCHDOG=1) on watchdogInterval until the returned stop
// function is called. Both calls are no-ops when not running under
// systemd (daemon.SdNotify reports not-supported and the error is
// logged at debug level, not fatal, since --systemd-notify is opt-in
// rather than a hard requirement of the run).
func startWatchdog(log logging.Logger) func() {
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil || !sent {
		log.Log(logging.Debug, "menuscan: sd_notify READY not delivered", "sent", sent)
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(watchdogInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
					log.Log(logging.Debug, "menuscan: sd_notify WATCHDOG not delivered", "error", err.Error())
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
