// Package providers defines the image-generation collaborator contract and
// the fan-out engine that drives it across prompt variants and model slots.
package providers

import (
	"context"
	"image"
)

// ModelRef identifies one provider/model pair.
type ModelRef struct {
	Provider string
	Model    string
}

// Slot pairs a primary provider/model with an optional fallback tried when
// the primary produces nothing.
type Slot struct {
	Primary  ModelRef
	Fallback *ModelRef
}

// Image is the successful result of a single generation call.
type Image struct {
	Image    image.Image
	Provider string
	Model    string
	Seed     int64

	// URL is an externally resolvable reference to the result, when the
	// provider hosts one. Used by the aesthetic scoring stage.
	URL string
}

// Generator performs one generation call. Returning ErrNotAvailable means
// the provider had no result for this prompt (a quiet skip); any other error
// is a transient failure that is logged and skipped. Both count as a failed
// slot attempt.
type Generator interface {
	Generate(ctx context.Context, prompt string, ref ModelRef) (*Image, error)
}
