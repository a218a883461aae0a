// Package compress fits images under an upload byte budget.
//
// The strategy prefers lossless output and high quality, escalating in strict
// order: PNG at original size, then a descending JPEG quality ladder, then a
// descending dimension ladder retrying PNG and the full quality ladder at
// each step. The final fallback always terminates regardless of budget.
package compress

import (
	"bytes"
	"image"
	"image/color"
	stddraw "image/draw"
	"image/jpeg"
	"image/png"

	"github.com/sinhau/pixelbliss/internal/imaging"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// losslessQuality is the nominal quality reported for PNG results.
const losslessQuality = 95

// minQuality is the floor of the JPEG quality ladder and the fallback quality.
const minQuality = 50

// fallbackLongSide is the dimension used by the guaranteed fallback.
const fallbackLongSide = 1024

// qualityLadder is the descending JPEG quality sequence (95 -> 50, step 5).
var qualityLadder = []int{95, 90, 85, 80, 75, 70, 65, 60, 55, 50}

// dimensionLadder is the descending longest-side sequence tried after the
// quality ladder is exhausted at the current size.
var dimensionLadder = []int{3840, 3200, 2560, 2048, 1920, 1600, 1280, 1024}

// Result is the outcome of fitting an image under a byte budget.
// The input image is never mutated.
type Result struct {
	Image   image.Image
	Format  string
	Quality int
	Data    []byte
}

// Size returns the serialized size in bytes.
func (r Result) Size() int { return len(r.Data) }

// Fits reports whether the serialized result is within targetBytes.
func (r Result) Fits(targetBytes int) bool { return len(r.Data) <= targetBytes }

// Fit returns a serialization of img no larger than targetBytes whenever
// structurally possible. When even the smallest dimension step at the lowest
// quality exceeds the budget, the degraded fallback is returned anyway; the
// caller is responsible for logging that outcome. Fit never fails.
func Fit(img image.Image, targetBytes int) Result {
	// Lossless at original dimensions.
	if res, ok := tryPNG(img, targetBytes); ok {
		return res
	}

	// Lossy at original dimensions, walking the quality ladder.
	if res, ok := tryQualityLadder(img, targetBytes); ok {
		return res
	}

	// Shrink and retry, skipping steps not smaller than the current size.
	// Each step rescales from the original to avoid compounding resample loss.
	currentLong := longSide(img)
	for _, dim := range dimensionLadder {
		if currentLong <= dim {
			continue
		}
		resized := imaging.ResizeLongSide(img, dim)
		currentLong = dim
		if res, ok := tryPNG(resized, targetBytes); ok {
			return res
		}
		if res, ok := tryQualityLadder(resized, targetBytes); ok {
			return res
		}
	}

	// Guaranteed fallback: smallest step, lowest quality, returned as-is.
	final := imaging.ResizeLongSide(img, fallbackLongSide)
	data := encodeJPEG(final, minQuality)
	return Result{Image: final, Format: FormatJPEG, Quality: minQuality, Data: data}
}

func tryPNG(img image.Image, targetBytes int) (Result, bool) {
	data := encodePNG(img)
	if len(data) == 0 || len(data) > targetBytes {
		return Result{}, false
	}
	return Result{Image: img, Format: FormatPNG, Quality: losslessQuality, Data: data}, true
}

func tryQualityLadder(img image.Image, targetBytes int) (Result, bool) {
	flat := Flatten(img)
	for _, q := range qualityLadder {
		data := encodeJPEG(flat, q)
		if len(data) > 0 && len(data) <= targetBytes {
			return Result{Image: flat, Format: FormatJPEG, Quality: q, Data: data}, true
		}
	}
	return Result{}, false
}

// Flatten composites an image with an alpha channel onto an opaque white
// background. JPEG has no alpha support. Already-opaque images pass through.
func Flatten(img image.Image) image.Image {
	if op, ok := img.(interface{ Opaque() bool }); ok && op.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, stddraw.Src)
	stddraw.Draw(dst, dst.Bounds(), img, b.Min, stddraw.Over)
	return dst
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func encodeJPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil
	}
	return buf.Bytes()
}

func longSide(img image.Image) int {
	b := img.Bounds()
	if b.Dx() > b.Dy() {
		return b.Dx()
	}
	return b.Dy()
}
