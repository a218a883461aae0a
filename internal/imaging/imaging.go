// Package imaging provides the pixel-level primitives shared by the
// quality gate, the compression engine and the output stages.
package imaging

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Grayscale converts an image to 8-bit grayscale using the usual
// luma coefficients (0.299 R + 0.587 G + 0.114 B).
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; scale down to 8-bit first.
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			if lum > 255 {
				lum = 255
			}
			gray.SetGray(x, y, color.Gray{Y: uint8(lum + 0.5)})
		}
	}
	return gray
}

// Brightness returns the mean grayscale intensity on the 0-255 scale.
func Brightness(img image.Image) float64 {
	gray := Grayscale(img)
	b := gray.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	var sum float64
	for _, px := range gray.Pix {
		sum += float64(px)
	}
	return sum / float64(total)
}

// Entropy returns the Shannon entropy of the grayscale histogram in bits.
// Typical values for 8-bit images are 0 (flat) to 8 (maximally varied).
func Entropy(img image.Image) float64 {
	gray := Grayscale(img)
	b := gray.Bounds()
	total := float64(b.Dx() * b.Dy())
	if total == 0 {
		return 0
	}
	var hist [256]int
	for _, px := range gray.Pix {
		hist[px]++
	}
	var entropy float64
	for _, count := range hist {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// ResizeLongSide scales the image proportionally so its longer side equals
// long. Images already at or below the target are returned unchanged.
func ResizeLongSide(img image.Image, long int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if long <= 0 || (w <= long && h <= long) {
		return img
	}
	var nw, nh int
	if w > h {
		nw, nh = long, int(float64(h)*float64(long)/float64(w))
	} else {
		nw, nh = int(float64(w)*float64(long)/float64(h)), long
	}
	return ResizeExact(img, nw, nh)
}

// ResizeExact scales the image to exactly w x h using Catmull-Rom resampling.
func ResizeExact(img image.Image, w, h int) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
