/*
NAME
  gutter.go - detects a page-wide vertical gutter separating two columns
  of character-glyph boxes.

DESCRIPTION
  Builds a horizontal projection of glyph coverage, smooths it with a
  Gaussian kernel via FFT-based fast convolution, and searches the
  central band of the page for a valley deep and wide enough, with
  balanced glyph density on both sides, to be trusted as a column
  separator.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package cluster

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"github.com/discvault/menuscan/geom"
)

// Gutter acceptance thresholds.
const (
	gutterSearchLo     = 0.40 // fraction of page width: start of search band
	gutterSearchHi     = 0.60 // fraction of page width: end of search band
	gutterMaxRelDepth  = 0.40 // valley depth must be <= this fraction of mean projection
	gutterMinWidthPx   = 20   // contiguous near-minimum run length
	gutterMinBalance   = 0.25 // each side's density must be >= this fraction of the other's
	gaussianKernelSize = 21   // odd kernel width, in pixels
	gaussianSigma      = 6.0
)

// DetectGutter searches glyphs, a set of character-glyph boxes on a page
// of the given pixel width, for a vertical gutter separating two
// columns. It returns the gutter's centre X and true if one is accepted,
// or false if none was found or the candidate failed an acceptance
// check. The detector is deliberately conservative: a false gutter
// splits every line of a single-column page, which costs far more than
// treating a two-column page as one group.
func DetectGutter(glyphs []geom.Rect, pageWidth int) (int, bool) {
	r := detectGutter(glyphs, pageWidth)
	return r.valleyIdx, r.accepted
}

// gutterDetection is the full diagnostic result of a gutter search,
// kept internal to DetectGutter's normal two-value contract but
// exposed to gutter_debug.go for rendering the smoothed projection.
type gutterDetection struct {
	smoothed  []float64
	valleyIdx int
	accepted  bool
}

func detectGutter(glyphs []geom.Rect, pageWidth int) gutterDetection {
	if pageWidth <= 0 || len(glyphs) == 0 {
		return gutterDetection{}
	}

	projection := horizontalProjection(glyphs, pageWidth)
	smoothed := smoothProjection(projection)

	lo := int(float64(pageWidth) * gutterSearchLo)
	hi := int(float64(pageWidth) * gutterSearchHi)
	if hi <= lo {
		return gutterDetection{smoothed: smoothed}
	}
	band := smoothed[lo:hi]
	valleyIdx := lo + floats.MinIdx(band)
	valleyDepth := smoothed[valleyIdx]

	mean := floats.Sum(smoothed) / float64(len(smoothed))
	if mean <= 0 {
		return gutterDetection{smoothed: smoothed}
	}
	if valleyDepth > mean*gutterMaxRelDepth {
		return gutterDetection{smoothed: smoothed, valleyIdx: valleyIdx}
	}

	width := valleyRunWidth(smoothed, valleyIdx, mean*gutterMaxRelDepth)
	if width < gutterMinWidthPx {
		return gutterDetection{smoothed: smoothed, valleyIdx: valleyIdx}
	}

	leftDensity := floats.Sum(smoothed[:valleyIdx])
	rightDensity := floats.Sum(smoothed[valleyIdx:])
	if !densityBalanced(leftDensity, rightDensity) {
		return gutterDetection{smoothed: smoothed, valleyIdx: valleyIdx}
	}

	return gutterDetection{smoothed: smoothed, valleyIdx: valleyIdx, accepted: true}
}

// horizontalProjection returns, for each X in [0,width), the count of
// glyph boxes whose horizontal span covers that X.
func horizontalProjection(glyphs []geom.Rect, width int) []float64 {
	proj := make([]float64, width)
	for _, g := range glyphs {
		x1, x2 := g.X1, g.X2
		if x1 < 0 {
			x1 = 0
		}
		if x2 >= width {
			x2 = width - 1
		}
		for x := x1; x <= x2; x++ {
			proj[x]++
		}
	}
	return proj
}

// smoothProjection convolves proj with a normalized Gaussian kernel
// using FFT-based fast convolution, then trims the result back to
// len(proj), centring the kernel's contribution.
func smoothProjection(proj []float64) []float64 {
	kernel := gaussianKernel(gaussianKernelSize, gaussianSigma)
	full := fastConvolve(proj, kernel)
	// fastConvolve returns a linear convolution of length
	// len(proj)+len(kernel)-1; take the centred window of length
	// len(proj) so index i in the output still corresponds to pixel i.
	offset := (len(kernel) - 1) / 2
	out := make([]float64, len(proj))
	copy(out, full[offset:offset+len(proj)])
	return out
}

// gaussianKernel returns a normalized (sums to 1) Gaussian kernel of
// the given odd size and standard deviation.
func gaussianKernel(size int, sigma float64) []float64 {
	if size%2 == 0 {
		size++
	}
	half := size / 2
	k := make([]float64, size)
	var sum float64
	for i := -half; i <= half; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+half] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// fastConvolve computes the linear convolution of x and h in O(n log n)
// time via zero-padded FFTs.
func fastConvolve(x, h []float64) []float64 {
	convLen := len(x) + len(h) - 1
	padLen := int(math.Pow(2, math.Ceil(math.Log2(float64(convLen)))))

	xp := make([]float64, padLen)
	copy(xp, x)
	hp := make([]float64, padLen)
	copy(hp, h)

	xFFT, hFFT := fft.FFTReal(xp), fft.FFTReal(hp)
	yFFT := make([]complex128, padLen)
	for i := range xFFT {
		yFFT[i] = xFFT[i] * hFFT[i]
	}

	iy := fft.IFFT(yFFT)
	y := make([]float64, convLen)
	for i := range y {
		y[i] = real(iy[i])
	}
	return y
}

// valleyRunWidth returns the length of the contiguous run of
// near-minimum samples (at or below threshold) containing idx.
func valleyRunWidth(s []float64, idx int, threshold float64) int {
	lo := idx
	for lo > 0 && s[lo-1] <= threshold {
		lo--
	}
	hi := idx
	for hi < len(s)-1 && s[hi+1] <= threshold {
		hi++
	}
	return hi - lo + 1
}

// densityBalanced reports whether each side's density is at least
// gutterMinBalance of the other's, i.e. neither side is starved of
// glyphs relative to the other.
func densityBalanced(left, right float64) bool {
	if left <= 0 || right <= 0 {
		return false
	}
	ratio := left / right
	if ratio > 1 {
		ratio = 1 / ratio
	}
	return ratio >= gutterMinBalance
}
