// Package scoring populates candidate aesthetic scores through an external
// scoring provider.
package scoring

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sinhau/pixelbliss/internal/domain/model"
	"github.com/sinhau/pixelbliss/internal/domain/types"
	"github.com/sinhau/pixelbliss/pkg/logger"
	"github.com/sinhau/pixelbliss/pkg/metrics"
)

// fallbackScore is substituted when a candidate cannot be scored. Neutral by
// construction: it neither promotes nor buries the candidate.
const fallbackScore = 0.5

// Neutral is a Provider returning a fixed raw score. Used when no external
// scoring provider is configured, so the aesthetic term stays constant and
// ranking falls back to the measured metrics.
type Neutral struct {
	Value float64
}

// Score returns the fixed value.
func (n Neutral) Score(ctx context.Context, imageRef string) (float64, error) {
	return n.Value, nil
}

// Range is the raw score interval declared by the provider.
type Range struct {
	Min float64
	Max float64
}

// Provider scores an externally resolvable image reference. Raw values are
// expected within the declared Range but are clamped regardless.
type Provider interface {
	Score(ctx context.Context, imageRef string) (float64, error)
}

// Scorer scores candidate batches with bounded concurrency. Individual
// failures never fail the batch; they are substituted with fallbackScore
// and reported in the aggregate count.
type Scorer struct {
	provider Provider
	rng      Range
	limit    types.Limit
	logger   logger.Logger
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithRange sets the provider's declared raw score range.
func WithRange(r Range) Option {
	return func(s *Scorer) { s.rng = r }
}

// WithConcurrency bounds the number of in-flight provider calls.
// A zero limit means unbounded.
func WithConcurrency(limit types.Limit) Option {
	return func(s *Scorer) { s.limit = limit }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scorer for the given provider.
func New(provider Provider, opts ...Option) *Scorer {
	s := &Scorer{
		provider: provider,
		rng:      Range{Min: 0, Max: 1},
		limit:    types.Unbounded,
		logger:   logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreBatch fills in the aesthetic metric of every candidate, normalized
// into [0, 1]. Returns the number of fallback substitutions. The batch as a
// whole never fails.
func (s *Scorer) ScoreBatch(ctx context.Context, candidates []*model.Candidate) int {
	sem := s.limit.Semaphore()
	var wg sync.WaitGroup
	var fallbacks atomic.Int64

	for _, c := range candidates {
		if !sem.Acquire(ctx) {
			// Context cancelled: remaining candidates get the fallback.
			c.Metrics.Aesthetic = model.Score(fallbackScore)
			fallbacks.Add(1)
			metrics.RecordFallbackScore()
			continue
		}
		wg.Add(1)
		go func(c *model.Candidate) {
			defer wg.Done()
			defer sem.Release()
			c.Metrics.Aesthetic = model.Score(s.scoreOne(ctx, c, &fallbacks))
		}(c)
	}
	wg.Wait()

	return int(fallbacks.Load())
}

func (s *Scorer) scoreOne(ctx context.Context, c *model.Candidate, fallbacks *atomic.Int64) float64 {
	if c.ImageRef == "" {
		fallbacks.Add(1)
		metrics.RecordFallbackScore()
		return fallbackScore
	}
	raw, err := s.provider.Score(ctx, c.ImageRef)
	if err != nil {
		s.logger.Warn(ctx, "aesthetic scoring failed, using fallback",
			logger.String("provider", c.Provider),
			logger.String("model", c.Model),
			logger.Error(err),
		)
		fallbacks.Add(1)
		metrics.RecordFallbackScore()
		return fallbackScore
	}
	return s.normalize(raw)
}

// normalize maps a raw provider score into [0, 1], clamped at the ends.
// A degenerate declared range pins the result at the neutral midpoint.
func (s *Scorer) normalize(raw float64) float64 {
	if s.rng.Max == s.rng.Min {
		return fallbackScore
	}
	v := (raw - s.rng.Min) / (s.rng.Max - s.rng.Min)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
