package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/sinhau/pixelbliss/internal/domain/model"
	"github.com/sinhau/pixelbliss/internal/domain/types"
	"github.com/sinhau/pixelbliss/pkg/logger"
	"github.com/sinhau/pixelbliss/pkg/metrics"
)

// Report aggregates the outcome of one fan-out batch.
type Report struct {
	// Candidates is the total number of candidates produced.
	Candidates int
	// SlotFailures counts slots where both primary and fallback failed.
	SlotFailures int
	// FailedVariants counts variants whose every slot failed.
	FailedVariants int
}

// Engine fans one generation batch out across prompt variants. Variants run
// concurrently under the limiter; slots within a variant run sequentially so
// slot order is preserved. Individual failures never cancel sibling work.
type Engine struct {
	gen    Generator
	limit  types.Limit
	hasLim bool
	logger logger.Logger
}

// EngineOption applies a configuration option to the Engine.
type EngineOption func(*Engine)

// WithConcurrency bounds concurrent variant processing. A zero limit means
// unbounded. When unset, the limit defaults to the number of variants.
func WithConcurrency(limit types.Limit) EngineOption {
	return func(e *Engine) {
		e.limit = limit
		e.hasLim = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a fan-out engine over the given generator.
func NewEngine(gen Generator, opts ...EngineOption) *Engine {
	e := &Engine{
		gen:    gen,
		logger: logger.Get().Named("fanout"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fanout generates candidates for every variant across the given slots.
// The returned slice is flattened; order across variants is not guaranteed,
// but slot order within one variant is. ErrNoCandidates is returned only
// when the whole batch produced nothing.
func (e *Engine) Fanout(ctx context.Context, variants []string, slots []Slot) ([]*model.Candidate, Report, error) {
	limit := e.limit
	if !e.hasLim {
		limit = types.Bounded(len(variants))
	}
	sem := limit.Semaphore()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		all    []*model.Candidate
		report Report
	)

	for _, variant := range variants {
		if !sem.Acquire(ctx) {
			break
		}
		wg.Add(1)
		go func(variant string) {
			defer wg.Done()
			defer sem.Release()

			produced, failed := e.runVariant(ctx, variant, slots)

			mu.Lock()
			defer mu.Unlock()
			all = append(all, produced...)
			report.SlotFailures += failed
			if len(produced) == 0 {
				report.FailedVariants++
				metrics.RecordVariantFailed()
				e.logger.Warn(ctx, "variant produced no candidates",
					logger.String("variant", variant),
					logger.Int("slots", len(slots)),
				)
			}
		}(variant)
	}
	wg.Wait()

	report.Candidates = len(all)
	metrics.RecordCandidatesGenerated(len(all))

	if len(all) == 0 {
		return nil, report, ErrNoCandidates
	}
	return all, report, nil
}

// runVariant walks the slots in order for one variant. Each slot tries the
// primary and then the fallback; a slot contributes at most one candidate.
func (e *Engine) runVariant(ctx context.Context, variant string, slots []Slot) ([]*model.Candidate, int) {
	var produced []*model.Candidate
	failed := 0

	for i, slot := range slots {
		img := e.tryGenerate(ctx, variant, slot.Primary)
		if img == nil && slot.Fallback != nil {
			img = e.tryGenerate(ctx, variant, *slot.Fallback)
		}
		if img == nil {
			failed++
			metrics.RecordSlotFailure()
			e.logger.Debug(ctx, "slot failed",
				logger.String("variant", variant),
				logger.Int("slot", i),
			)
			continue
		}
		produced = append(produced, &model.Candidate{
			Image:         img.Image,
			PromptVariant: variant,
			Provider:      img.Provider,
			Model:         img.Model,
			Seed:          img.Seed,
			ImageRef:      img.URL,
		})
	}

	return produced, failed
}

// tryGenerate performs one generation call, translating all failure modes
// into a nil result so the caller can move to the fallback.
func (e *Engine) tryGenerate(ctx context.Context, prompt string, ref ModelRef) *Image {
	img, err := e.gen.Generate(ctx, prompt, ref)
	switch {
	case err == nil && img != nil:
		return img
	case err == nil || errors.Is(err, ErrNotAvailable):
		// Provider had nothing for this prompt; quiet skip.
		return nil
	default:
		e.logger.Warn(ctx, "generation call failed",
			logger.String("provider", ref.Provider),
			logger.String("model", ref.Model),
			logger.Error(err),
		)
		return nil
	}
}
