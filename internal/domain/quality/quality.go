// Package quality implements the stateless per-image sanity and
// local-quality gates. All thresholds are hard floors: failing any single
// floor zeroes the composite score.
package quality

import (
	"image"

	"github.com/sinhau/pixelbliss/internal/imaging"
)

// Intensities at or beyond these bounds count as clipped shadows/highlights.
const (
	shadowClipMax    = 3
	highlightClipMin = 252
)

// SanityFloors are the cheap global floors applied before any other scoring.
type SanityFloors struct {
	EntropyMin    float64
	BrightnessMin float64
	BrightnessMax float64
}

// PassesSanity reports whether brightness and entropy clear the hard floors.
// Brightness bounds are inclusive.
func PassesSanity(brightness, entropy float64, floors SanityFloors) bool {
	return entropy >= floors.EntropyMin &&
		brightness >= floors.BrightnessMin &&
		brightness <= floors.BrightnessMax
}

// Config holds the local-quality thresholds.
type Config struct {
	// ResizeLong is the longer-side size images are downscaled to before
	// sharpness and exposure assessment.
	ResizeLong int

	// MinSide rejects images whose smaller dimension is below this.
	MinSide int

	// ARMin and ARMax bound the accepted width/height aspect ratio.
	ARMin float64
	ARMax float64

	// SharpnessMin is the Laplacian-variance floor; SharpnessGood is the
	// variance that maps to a full sharpness score of 1.0.
	SharpnessMin  float64
	SharpnessGood float64

	// ClipMax is the maximum tolerated fraction of clipped pixels.
	ClipMax float64
}

// EvaluateLocal runs the local quality checks and returns whether the image
// clears every floor plus a composite score in [0, 1]. A failed floor always
// yields (false, 0).
func EvaluateLocal(img image.Image, cfg Config) (bool, float64) {
	// Size and aspect floors apply to the original dimensions.
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || min(w, h) < cfg.MinSide {
		return false, 0
	}
	ar := float64(w) / float64(h)
	if ar < cfg.ARMin || ar > cfg.ARMax {
		return false, 0
	}

	// Sharpness and exposure are assessed on a consistent working size.
	gray := imaging.Grayscale(imaging.ResizeLongSide(img, cfg.ResizeLong))

	sharpOK, sharpScore := sharpness(gray, cfg.SharpnessMin, cfg.SharpnessGood)
	if !sharpOK {
		return false, 0
	}

	expOK, expScore := exposure(gray, cfg.ClipMax)
	if !expOK {
		return false, 0
	}

	return true, 0.5*sharpScore + 0.5*expScore
}

// sharpness computes the variance of a discrete Laplacian over the grayscale
// intensities. Low variance means a blurry image.
func sharpness(gray *image.Gray, sharpnessMin, sharpnessGood float64) (bool, float64) {
	v := laplacianVariance(gray)
	passes := v >= sharpnessMin
	score := 0.0
	if sharpnessGood > 0 {
		score = v / sharpnessGood
		if score > 1 {
			score = 1
		}
	}
	return passes, score
}

// exposure measures the fraction of clipped shadow/highlight pixels.
func exposure(gray *image.Gray, clipMax float64) (bool, float64) {
	total := len(gray.Pix)
	if total == 0 {
		return false, 0
	}
	clipped := 0
	for _, px := range gray.Pix {
		if px <= shadowClipMax || px >= highlightClipMin {
			clipped++
		}
	}
	frac := float64(clipped) / float64(total)

	passes := frac <= clipMax
	score := 0.0
	if clipMax > 0 {
		score = 1 - frac/clipMax
		if score < 0 {
			score = 0
		}
	}
	return passes, score
}

// laplacianVariance applies the 4-neighbor Laplacian kernel with reflected
// borders and returns the variance of the response.
func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	n := w * h
	if n == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(b.Min.X+reflect(x, w), b.Min.Y+reflect(y, h)).Y)
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lap := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += lap
			sumSq += lap * lap
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

// reflect mirrors an out-of-range index back into [0, n) without repeating
// the edge sample.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - i - 2
	}
	return i
}
