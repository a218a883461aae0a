package providers

import (
	"context"
	"hash/fnv"
	"image"
	"image/color"
	"math/rand"
)

// Default canvas size for locally generated images.
const (
	defaultLocalWidth  = 1536
	defaultLocalHeight = 1024
)

// LocalGenerator produces deterministic procedural images without any
// network call. Used for dry runs and tests; the seed is derived from the
// prompt so the same prompt always yields the same image.
type LocalGenerator struct {
	width  int
	height int
}

// LocalOption applies a configuration option to the LocalGenerator.
type LocalOption func(*LocalGenerator)

// WithSize sets the generated canvas size.
func WithSize(w, h int) LocalOption {
	return func(g *LocalGenerator) {
		if w > 0 && h > 0 {
			g.width, g.height = w, h
		}
	}
}

// NewLocalGenerator creates a local procedural generator.
func NewLocalGenerator(opts ...LocalOption) *LocalGenerator {
	g := &LocalGenerator{width: defaultLocalWidth, height: defaultLocalHeight}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders a seeded gradient-plus-noise canvas.
func (g *LocalGenerator) Generate(ctx context.Context, prompt string, ref ModelRef) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := promptSeed(prompt, ref.Model)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // procedural art, not crypto

	base := [3]uint8{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			fx := float64(x) / float64(g.width)
			fy := float64(y) / float64(g.height)
			noise := uint8(rng.Intn(32))
			img.SetRGBA(x, y, color.RGBA{
				R: blend(base[0], fx, noise),
				G: blend(base[1], fy, noise),
				B: blend(base[2], (fx+fy)/2, noise),
				A: 255,
			})
		}
	}

	return &Image{
		Image:    img,
		Provider: ref.Provider,
		Model:    ref.Model,
		Seed:     seed,
	}, nil
}

func blend(base uint8, t float64, noise uint8) uint8 {
	v := int(float64(base)*(1-t) + 255*t*0.7)
	v += int(noise)
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

func promptSeed(prompt, model string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(prompt))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(model))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
