// Package model contains domain models passed between pipeline stages.
package model

import "image"

// Metric is an optional per-candidate measurement. The explicit Valid flag
// distinguishes "not yet computed" from a genuine zero value.
type Metric struct {
	Value float64
	Valid bool
}

// Score returns a set metric.
func Score(v float64) Metric { return Metric{Value: v, Valid: true} }

// Or returns the metric value, or def when the metric is unset.
func (m Metric) Or(def float64) float64 {
	if !m.Valid {
		return def
	}
	return m.Value
}

// Metrics holds the progressively populated measurements of a candidate.
// Fields are filled in by the quality gate, the aesthetic scorer and the
// ranking engine in that order.
type Metrics struct {
	Brightness   Metric
	Entropy      Metric
	LocalQuality Metric
	Aesthetic    Metric
	Final        Metric
}

// Candidate is one generated image attempt. The image is owned exclusively
// by the candidate until it is promoted to winner.
type Candidate struct {
	Image         image.Image
	PromptVariant string

	// Provenance, set at generation time and immutable after.
	Provider string
	Model    string
	Seed     int64

	// ImageRef is an externally resolvable reference to the image (typically
	// the provider's result URL) used by the aesthetic scoring provider.
	// May be empty for providers that only return raw bytes.
	ImageRef string

	Metrics Metrics
}

// ScoreWeights is the immutable weighting of the composite ranking score.
// Weights need not sum to 1.0 but must all be non-negative.
type ScoreWeights struct {
	Brightness   float64
	Entropy      float64
	Aesthetic    float64
	LocalQuality float64
}

// Valid reports whether every weight is non-negative.
func (w ScoreWeights) Valid() bool {
	return w.Brightness >= 0 && w.Entropy >= 0 && w.Aesthetic >= 0 && w.LocalQuality >= 0
}
