package imaging

import "image"

// Variant describes one output size, e.g. a phone or desktop wallpaper.
type Variant struct {
	Name   string
	Width  int
	Height int
}

// CropToAspect center-crops the image to the w:h aspect ratio and scales it
// to exactly w x h. Never mutates the input image.
func CropToAspect(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	imgRatio := float64(b.Dx()) / float64(b.Dy())
	targetRatio := float64(w) / float64(h)

	cropped := img
	switch {
	case imgRatio > targetRatio:
		// Wider than target: crop width.
		newW := int(float64(b.Dy()) * targetRatio)
		offset := (b.Dx() - newW) / 2
		cropped = cropRect(img, image.Rect(b.Min.X+offset, b.Min.Y, b.Min.X+offset+newW, b.Max.Y))
	case imgRatio < targetRatio:
		// Taller than target: crop height.
		newH := int(float64(b.Dx()) / targetRatio)
		offset := (b.Dy() - newH) / 2
		cropped = cropRect(img, image.Rect(b.Min.X, b.Min.Y+offset, b.Max.X, b.Min.Y+offset+newH))
	}

	return ResizeExact(cropped, w, h)
}

// MakeVariants produces the configured output variants from a single image.
func MakeVariants(img image.Image, variants []Variant) map[string]image.Image {
	out := make(map[string]image.Image, len(variants))
	for _, v := range variants {
		out[v.Name] = CropToAspect(img, v.Width, v.Height)
	}
	return out
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropRect(img image.Image, r image.Rectangle) image.Image {
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			dst.Set(x, y, img.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return dst
}
