package providers

import (
	"context"
	"image"

	"github.com/sinhau/pixelbliss/internal/imaging"
)

// Upscaler enlarges a winner image before output variants are built.
// Implementations may call out to an external super-resolution provider;
// any error makes the pipeline fall back to the un-upscaled image.
type Upscaler interface {
	Upscale(ctx context.Context, img image.Image, factor int) (image.Image, error)
}

// ResampleUpscaler is a local Upscaler using plain Catmull-Rom resampling.
// It adds no detail, but keeps the output dimensions consistent when no
// super-resolution provider is configured.
type ResampleUpscaler struct{}

// Upscale scales the image by the integer factor.
func (ResampleUpscaler) Upscale(ctx context.Context, img image.Image, factor int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if factor <= 1 {
		return img, nil
	}
	b := img.Bounds()
	return imaging.ResizeExact(img, b.Dx()*factor, b.Dy()*factor), nil
}
