/*
NAME
  ocr_tesseract.go - tesseract-based OCR capability.

DESCRIPTION
  TesseractOCR shells out to the tesseract binary's TSV output mode,
  the same external-tool-via-exec.CommandContext pattern nav/dvd.go
  uses for ffmpeg: no cgo binding is pulled in for a capability a CLI
  already provides on the host.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package align

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/discvault/menuscan/geom"
)

// tesseractTimeout bounds a single OCR subprocess invocation, the same
// hard timeout nav.DVDSource applies to its ffmpeg calls.
const tesseractTimeout = 60 * time.Second

// tsvLineFields is the column count of a tesseract --tsv data row
// (level, page_num, block_num, par_num, line_num, word_num, left,
// top, width, height, conf, text).
const tsvLineFields = 12

// lineLevel is the tesseract TSV "level" value for a text line (as
// opposed to page/block/paragraph/word levels).
const lineLevel = "4"

// TesseractOCR implements OCR by invoking the tesseract binary with
// TSV output and collecting its line-level bounding boxes.
type TesseractOCR struct {
	// BinPath overrides the tesseract binary name/path; defaults to
	// "tesseract" on the PATH if empty.
	BinPath string
	Log     logging.Logger
}

var _ OCR = (*TesseractOCR)(nil)

// Lines runs tesseract against framePath and returns one OCRLine per
// detected text line.
func (t *TesseractOCR) Lines(ctx context.Context, framePath string) ([]OCRLine, error) {
	ctx, cancel := context.WithTimeout(ctx, tesseractTimeout)
	defer cancel()

	bin := t.BinPath
	if bin == "" {
		bin = "tesseract"
	}
	args := []string{framePath, "stdout", "--psm", "11", "tsv"}
	cmd := exec.CommandContext(ctx, bin, args...)
	if t.Log != nil {
		t.Log.Log(logging.Debug, "align: running OCR", "frame", framePath, "args", args)
	}
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("align: tesseract failed for %s: %w", framePath, err)
	}
	return parseTSVLines(out)
}

// parseTSVLines extracts one OCRLine per TSV row at the line level.
// Tesseract's line-level row already carries the union bounding box of
// its words, so word-level and other rows are skipped, not merged.
func parseTSVLines(tsv []byte) ([]OCRLine, error) {
	scanner := bufio.NewScanner(strings.NewReader(string(tsv)))
	var lines []OCRLine
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue // header row
		}
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < tsvLineFields || fields[0] != lineLevel {
			continue
		}
		left, err1 := strconv.Atoi(fields[6])
		top, err2 := strconv.Atoi(fields[7])
		width, err3 := strconv.Atoi(fields[8])
		height, err4 := strconv.Atoi(fields[9])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || width <= 0 || height <= 0 {
			continue
		}
		lines = append(lines, OCRLine{Rect: geom.Rect{
			X1: left, Y1: top,
			X2: left + width - 1, Y2: top + height - 1,
		}})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("align: could not parse tesseract TSV output: %w", err)
	}
	return lines, nil
}
