// Package app orchestrates one pipeline run: generate candidates, gate,
// score, rank, dedup-select (or defer to the human override), then build
// outputs, persist, and post.
package app

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/sinhau/pixelbliss/internal/adapters/history"
	"github.com/sinhau/pixelbliss/internal/adapters/providers"
	"github.com/sinhau/pixelbliss/internal/adapters/selection"
	"github.com/sinhau/pixelbliss/internal/adapters/social"
	"github.com/sinhau/pixelbliss/internal/adapters/storage"
	"github.com/sinhau/pixelbliss/internal/config"
	"github.com/sinhau/pixelbliss/internal/domain/dedupe"
	"github.com/sinhau/pixelbliss/internal/domain/model"
	"github.com/sinhau/pixelbliss/internal/domain/quality"
	"github.com/sinhau/pixelbliss/internal/domain/ranking"
	"github.com/sinhau/pixelbliss/internal/domain/scoring"
	"github.com/sinhau/pixelbliss/internal/domain/types"
	"github.com/sinhau/pixelbliss/internal/imaging"
	"github.com/sinhau/pixelbliss/pkg/logger"
	"github.com/sinhau/pixelbliss/pkg/metrics"
)

// preferredUploadVariant is posted when present; otherwise the
// alphabetically first variant is used.
const preferredUploadVariant = "phone_9x16_2k"

// HumanSelector is the human-override collaborator as seen by the pipeline.
type HumanSelector interface {
	Select(ctx context.Context, candidates []*model.Candidate) selection.Result
}

// Service runs the candidate pipeline. Candidates and scores are owned by
// the run that created them; the only shared mutable state is the history
// log behind the Store interface.
type Service struct {
	cfg *config.Config

	generator providers.Generator
	scoreProv scoring.Provider
	upscaler  providers.Upscaler
	selector  HumanSelector
	store     history.Store
	poster    social.Poster
	alerter   social.Alerter
	prompts   PromptSource
	writer    *storage.Writer
	clock     func() time.Time
	logger    logger.Logger

	fanout *providers.Engine
	scorer *scoring.Scorer
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGenerator sets the generation collaborator (usually a Registry).
func WithGenerator(g providers.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithScoringProvider sets the external aesthetic scoring provider.
func WithScoringProvider(p scoring.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.scoreProv = p
		}
	}
}

// WithUpscaler sets the optional winner upscaler.
func WithUpscaler(u providers.Upscaler) Option {
	return func(s *Service) { s.upscaler = u }
}

// WithSelector sets the human-override collaborator.
func WithSelector(sel HumanSelector) Option {
	return func(s *Service) { s.selector = sel }
}

// WithHistory sets the history store.
func WithHistory(st history.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithPoster sets the social posting collaborator.
func WithPoster(p social.Poster) Option {
	return func(s *Service) {
		if p != nil {
			s.poster = p
		}
	}
}

// WithAlerter sets the operator alert collaborator.
func WithAlerter(a social.Alerter) Option {
	return func(s *Service) {
		if a != nil {
			s.alerter = a
		}
	}
}

// WithPromptSource sets the prompt collaborator.
func WithPromptSource(p PromptSource) Option {
	return func(s *Service) {
		if p != nil {
			s.prompts = p
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New assembles a Service from configuration and collaborators.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		generator: defaultGenerator(),
		scoreProv: scoring.Neutral{Value: (cfg.Aesthetic.ScoreMin + cfg.Aesthetic.ScoreMax) / 2},
		store:     history.NewFileStore(cfg.History.Path),
		poster:    social.NopPoster{},
		alerter:   social.NopAlerter{},
		prompts:   NewTemplatePrompts(),
		writer:    storage.NewWriter(cfg.OutputDir),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}

	fanoutOpts := []providers.EngineOption{providers.WithLogger(s.logger)}
	if cfg.Generation.Concurrency >= 0 {
		fanoutOpts = append(fanoutOpts, providers.WithConcurrency(types.Limit(cfg.Generation.Concurrency)))
	}
	s.fanout = providers.NewEngine(s.generator, fanoutOpts...)

	scorerOpts := []scoring.Option{
		scoring.WithRange(scoring.Range{Min: cfg.Aesthetic.ScoreMin, Max: cfg.Aesthetic.ScoreMax}),
		scoring.WithLogger(s.logger),
	}
	if cfg.Aesthetic.Concurrency >= 0 {
		scorerOpts = append(scorerOpts, scoring.WithConcurrency(types.Limit(cfg.Aesthetic.Concurrency)))
	}
	s.scorer = scoring.New(s.scoreProv, scorerOpts...)

	return s
}

func defaultGenerator() providers.Generator {
	reg := providers.NewRegistry()
	reg.Register("local", providers.NewLocalGenerator())
	return reg
}

// RunOnce executes the pipeline once. Benign terminal states return a nil
// error; hard failures return a non-nil error alongside the result.
func (s *Service) RunOnce(ctx context.Context, dryRun bool) (RunResult, error) {
	runID := uuid.NewString()
	now := s.clock()
	theme := ThemeByTime(s.cfg.Themes, s.cfg.RotationMinutes, now)
	res := RunResult{Theme: theme}

	s.logger.Info(ctx, "starting run",
		logger.String("runID", runID),
		logger.String("theme", theme),
		logger.Bool("dryRun", dryRun),
		logger.Bool("humanPath", s.cfg.Selection.Enabled),
	)

	basePrompt, err := s.prompts.BasePrompt(ctx, theme)
	if err != nil {
		s.alerter.Failure(ctx, "prompt generation failed", err.Error())
		s.finish(ctx, &res, OutcomeNoCandidates)
		return res, fmt.Errorf("base prompt: %w", err)
	}
	variants, err := s.prompts.Variants(ctx, basePrompt, s.cfg.NumPromptVariants)
	if err != nil {
		s.alerter.Failure(ctx, "prompt generation failed", err.Error())
		s.finish(ctx, &res, OutcomeNoCandidates)
		return res, fmt.Errorf("prompt variants: %w", err)
	}

	// Generate.
	genStart := time.Now()
	candidates, report, err := s.fanout.Fanout(ctx, variants, slotsFromConfig(s.cfg.Generation.Slots))
	metrics.RecordStageDuration("generate", time.Since(genStart).Seconds())
	res.Candidates = report.Candidates
	res.SlotFailures = report.SlotFailures
	res.FailedVariants = report.FailedVariants
	if err != nil {
		s.alerter.Failure(ctx, "no images produced", "")
		s.finish(ctx, &res, OutcomeNoCandidates)
		return res, err
	}
	if report.FailedVariants > 0 {
		s.alerter.Failure(ctx, "some prompt variants produced no candidates",
			fmt.Sprintf("%d of %d variants failed", report.FailedVariants, len(variants)))
	}

	var winner *model.Candidate
	var winnerHash string
	scored := false

	if s.cfg.Selection.Enabled && s.selector != nil {
		// Human path: the human's judgment is authoritative; no gating,
		// scoring or dedup applies.
		sel := s.selector.Select(ctx, candidates)
		switch sel.Kind {
		case selection.RejectedAll:
			s.finish(ctx, &res, OutcomeHumanRejected)
			return res, nil
		case selection.NoResponse:
			s.finish(ctx, &res, OutcomeHumanTimeout)
			return res, nil
		case selection.Selected:
			winner = candidates[sel.Index]
		}
	} else {
		winner, winnerHash, err = s.selectAutomatic(ctx, candidates, &res)
		if err != nil {
			return res, err
		}
		if winner == nil {
			// All near-duplicates: benign end of run.
			return res, nil
		}
		scored = true
	}

	return s.publish(ctx, publishInput{
		res:        res,
		runDate:    now.Format("2006-01-02"),
		createdAt:  now.Format(time.RFC3339),
		theme:      theme,
		basePrompt: basePrompt,
		candidates: candidates,
		winner:     winner,
		winnerHash: winnerHash,
		scored:     scored,
		dryRun:     dryRun,
	})
}

// selectAutomatic runs gate -> score -> rank -> dedup-select. A nil winner
// with nil error means every ranked candidate was a near-duplicate.
func (s *Service) selectAutomatic(ctx context.Context, candidates []*model.Candidate, res *RunResult) (*model.Candidate, string, error) {
	gateStart := time.Now()
	survivors := s.gate(ctx, candidates)
	metrics.RecordStageDuration("gate", time.Since(gateStart).Seconds())
	res.GatedOut = len(candidates) - len(survivors)
	if len(survivors) == 0 {
		s.alerter.Failure(ctx, "all candidates failed sanity/quality floors", "")
		s.finish(ctx, res, OutcomeAllGatedOut)
		return nil, "", ErrAllGatedOut
	}

	scoreStart := time.Now()
	res.FallbackScores = s.scorer.ScoreBatch(ctx, survivors)
	metrics.RecordStageDuration("score", time.Since(scoreStart).Seconds())

	rankStart := time.Now()
	ranking.Rescore(survivors, s.weights())
	sorted := ranking.SortByFinal(survivors)
	metrics.RecordStageDuration("rank", time.Since(rankStart).Seconds())

	recent, err := s.store.RecentHashes(ctx, s.cfg.History.RecentLimit)
	if err != nil {
		// Degrade to an empty window rather than aborting the run; the
		// worst case is re-posting something visually close to history.
		s.logger.Warn(ctx, "loading recent hashes failed", logger.Error(err))
	}

	winner, hash, skipped := dedupe.FirstUnique(sorted, recent, s.cfg.Ranking.PhashDistanceMin)
	res.DuplicatesSkipped = skipped
	for i := 0; i < skipped; i++ {
		metrics.RecordDuplicateSkipped()
	}
	if winner == nil {
		s.alerter.Failure(ctx, "near-duplicate with manifest history", "")
		s.finish(ctx, res, OutcomeAllDuplicates)
		return nil, "", nil
	}
	return winner, hash, nil
}

// gate measures brightness/entropy and applies the sanity and local-quality
// floors. CPU-bound, so candidates are assessed in parallel up to NumCPU.
func (s *Service) gate(ctx context.Context, candidates []*model.Candidate) []*model.Candidate {
	qcfg := quality.Config{
		ResizeLong:    s.cfg.LocalQuality.ResizeLong,
		MinSide:       s.cfg.LocalQuality.MinSide,
		ARMin:         s.cfg.LocalQuality.ARMin,
		ARMax:         s.cfg.LocalQuality.ARMax,
		SharpnessMin:  s.cfg.LocalQuality.SharpnessMin,
		SharpnessGood: s.cfg.LocalQuality.SharpnessGood,
		ClipMax:       s.cfg.LocalQuality.ClipMax,
	}
	floors := quality.SanityFloors{
		EntropyMin:    s.cfg.Ranking.EntropyMin,
		BrightnessMin: s.cfg.Ranking.BrightnessMin,
		BrightnessMax: s.cfg.Ranking.BrightnessMax,
	}

	passed := make([]bool, len(candidates))
	sem := types.Bounded(runtime.NumCPU()).Semaphore()
	done := make(chan int, len(candidates))
	for i, c := range candidates {
		if !sem.Acquire(ctx) {
			done <- i
			continue
		}
		go func(i int, c *model.Candidate) {
			defer func() { done <- i }()
			defer sem.Release()

			b := imaging.Brightness(c.Image)
			e := imaging.Entropy(c.Image)
			c.Metrics.Brightness = model.Score(b)
			c.Metrics.Entropy = model.Score(e)
			if !quality.PassesSanity(b, e, floors) {
				return
			}
			ok, lq := quality.EvaluateLocal(c.Image, qcfg)
			if !ok {
				return
			}
			c.Metrics.LocalQuality = model.Score(lq)
			passed[i] = true
		}(i, c)
	}
	for range candidates {
		<-done
	}

	survivors := make([]*model.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if passed[i] {
			survivors = append(survivors, c)
			continue
		}
		metrics.RecordGateRejection()
		s.logger.Debug(ctx, "candidate gated out",
			logger.String("provider", c.Provider),
			logger.String("model", c.Model),
			logger.Float64("brightness", c.Metrics.Brightness.Or(0)),
			logger.Float64("entropy", c.Metrics.Entropy.Or(0)),
		)
	}
	return survivors
}

func (s *Service) weights() model.ScoreWeights {
	return model.ScoreWeights{
		Brightness:   s.cfg.Ranking.WBrightness,
		Entropy:      s.cfg.Ranking.WEntropy,
		Aesthetic:    s.cfg.Ranking.WAesthetic,
		LocalQuality: s.cfg.Ranking.WLocalQuality,
	}
}

func slotsFromConfig(slots []config.Slot) []providers.Slot {
	out := make([]providers.Slot, 0, len(slots))
	for _, sl := range slots {
		ps := providers.Slot{
			Primary: providers.ModelRef{Provider: sl.Primary.Provider, Model: sl.Primary.Model},
		}
		if sl.Fallback != nil {
			ps.Fallback = &providers.ModelRef{Provider: sl.Fallback.Provider, Model: sl.Fallback.Model}
		}
		out = append(out, ps)
	}
	return out
}

// finish records the terminal outcome and logs the structured run summary.
func (s *Service) finish(ctx context.Context, res *RunResult, outcome Outcome) {
	res.Outcome = outcome
	metrics.RecordRunOutcome(string(outcome))
	s.logger.Info(ctx, "run finished",
		logger.String("outcome", string(outcome)),
		logger.String("theme", res.Theme),
		logger.Int("candidates", res.Candidates),
		logger.Int("slotFailures", res.SlotFailures),
		logger.Int("failedVariants", res.FailedVariants),
		logger.Int("gatedOut", res.GatedOut),
		logger.Int("fallbackScores", res.FallbackScores),
		logger.Int("duplicatesSkipped", res.DuplicatesSkipped),
		logger.String("outputDir", res.OutputDir),
		logger.String("postID", res.PostID),
	)
}
