package app_test

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sinhau/pixelbliss/internal/adapters/providers"
	"github.com/sinhau/pixelbliss/internal/adapters/selection"
	app "github.com/sinhau/pixelbliss/internal/app"
	"github.com/sinhau/pixelbliss/internal/config"
	"github.com/sinhau/pixelbliss/internal/domain/model"
	"github.com/sinhau/pixelbliss/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// noiseImage passes every gate: high entropy, mid brightness, sharp, no
// clipped pixels, square aspect, above the minimum side.
func noiseImage(seed int64) image.Image {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, 512, 512))
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			v := uint8(30 + rng.Intn(190))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func flatImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 512, 512))
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

type genFunc func(ctx context.Context, prompt string, ref providers.ModelRef) (*providers.Image, error)

func (f genFunc) Generate(ctx context.Context, prompt string, ref providers.ModelRef) (*providers.Image, error) {
	return f(ctx, prompt, ref)
}

func fixedImageGenerator(img image.Image) providers.Generator {
	return genFunc(func(ctx context.Context, prompt string, ref providers.ModelRef) (*providers.Image, error) {
		return &providers.Image{Image: img, Provider: ref.Provider, Model: ref.Model, Seed: 1}, nil
	})
}

type recordingPoster struct {
	uploads int
	posted  bool
}

func (p *recordingPoster) UploadMedia(ctx context.Context, paths []string) ([]string, error) {
	p.uploads += len(paths)
	ids := make([]string, len(paths))
	for i := range paths {
		ids[i] = "media-1"
	}
	return ids, nil
}

func (p *recordingPoster) SetAltText(ctx context.Context, mediaID, text string) error { return nil }

func (p *recordingPoster) Post(ctx context.Context, text string, mediaIDs []string) (string, error) {
	p.posted = true
	return "post-1", nil
}

type fixedSelector struct {
	result selection.Result
}

func (s fixedSelector) Select(ctx context.Context, candidates []*model.Candidate) selection.Result {
	return s.result
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.OutputDir = t.TempDir()
	cfg.History.Path = filepath.Join(t.TempDir(), "index.json")
	cfg.NumPromptVariants = 2
	cfg.Variants = []config.Variant{
		{Name: "phone_9x16_2k", Width: 90, Height: 160},
		{Name: "desktop_16x9_4k", Width: 160, Height: 90},
	}
	return cfg
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC) }
}

func TestRunOnce_Automatic(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pipeline with a healthy generator", t, func() {
		cfg := testConfig(t)
		poster := &recordingPoster{}
		svc := app.New(cfg,
			app.WithGenerator(fixedImageGenerator(noiseImage(1))),
			app.WithPoster(poster),
			app.WithClock(fixedClock()),
		)

		Convey("When running dry", func() {
			res, err := svc.RunOnce(ctx, true)

			Convey("Then the run persists everything but never posts", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, app.OutcomeDryRun)
				So(res.Candidates, ShouldEqual, 2)
				So(res.OutputDir, ShouldNotBeEmpty)
				So(poster.posted, ShouldBeFalse)

				_, statErr := os.Stat(filepath.Join(res.OutputDir, "meta.json"))
				So(statErr, ShouldBeNil)
				_, statErr = os.Stat(filepath.Join(res.OutputDir, "base_img.png"))
				So(statErr, ShouldBeNil)
				_, statErr = os.Stat(filepath.Join(res.OutputDir, "phone_9x16_2k.png"))
				So(statErr, ShouldBeNil)
				_, statErr = os.Stat(filepath.Join(res.OutputDir, "candidates", "candidate_001.png"))
				So(statErr, ShouldBeNil)
			})

			Convey("Then the history log gained the winner's hash", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(cfg.History.Path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "phash")
			})

			Convey("And a second identical run is an all-duplicates no-op", func() {
				So(err, ShouldBeNil)
				res2, err2 := svc.RunOnce(ctx, true)
				So(err2, ShouldBeNil)
				So(res2.Outcome, ShouldEqual, app.OutcomeAllDuplicates)
				So(res2.DuplicatesSkipped, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When running for real", func() {
			res, err := svc.RunOnce(ctx, false)

			Convey("Then the winner is posted and recorded", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, app.OutcomePosted)
				So(res.PostID, ShouldEqual, "post-1")
				So(poster.posted, ShouldBeTrue)
				So(poster.uploads, ShouldEqual, 1)

				data, readErr := os.ReadFile(filepath.Join(res.OutputDir, "meta.json"))
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "post-1")
				So(string(data), ShouldContainSubstring, "scores")
			})
		})
	})

	Convey("Given a generator producing only flat images", t, func() {
		cfg := testConfig(t)
		svc := app.New(cfg,
			app.WithGenerator(fixedImageGenerator(flatImage())),
			app.WithClock(fixedClock()),
		)

		res, err := svc.RunOnce(ctx, true)

		Convey("Then every candidate is gated out and the run hard-fails", func() {
			So(err, ShouldWrap, app.ErrAllGatedOut)
			So(res.Outcome, ShouldEqual, app.OutcomeAllGatedOut)
			So(res.GatedOut, ShouldEqual, res.Candidates)
		})
	})

	Convey("Given a generator that produces nothing", t, func() {
		cfg := testConfig(t)
		gen := genFunc(func(ctx context.Context, prompt string, ref providers.ModelRef) (*providers.Image, error) {
			return nil, providers.ErrNotAvailable
		})
		svc := app.New(cfg, app.WithGenerator(gen), app.WithClock(fixedClock()))

		res, err := svc.RunOnce(ctx, true)

		Convey("Then the run fails with no candidates", func() {
			So(err, ShouldWrap, providers.ErrNoCandidates)
			So(res.Outcome, ShouldEqual, app.OutcomeNoCandidates)
		})
	})
}

func TestRunOnce_HumanPath(t *testing.T) {
	ctx := context.Background()

	Convey("Given the human-override path is enabled", t, func() {
		cfg := testConfig(t)
		cfg.Selection.Enabled = true
		poster := &recordingPoster{}

		Convey("When the human selects a candidate", func() {
			svc := app.New(cfg,
				app.WithGenerator(fixedImageGenerator(noiseImage(2))),
				app.WithPoster(poster),
				app.WithSelector(fixedSelector{result: selection.Result{Kind: selection.Selected, Index: 0}}),
				app.WithClock(fixedClock()),
			)

			res, err := svc.RunOnce(ctx, false)

			Convey("Then the pick is posted without any scoring", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, app.OutcomePosted)
				So(poster.posted, ShouldBeTrue)

				// The human's judgment is authoritative: no scores recorded,
				// but a phash is still captured for future dedup.
				data, readErr := os.ReadFile(filepath.Join(res.OutputDir, "meta.json"))
				So(readErr, ShouldBeNil)
				So(string(data), ShouldNotContainSubstring, "scores")
				So(string(data), ShouldContainSubstring, "phash")
			})
		})

		Convey("When the human rejects everything", func() {
			svc := app.New(cfg,
				app.WithGenerator(fixedImageGenerator(noiseImage(2))),
				app.WithPoster(poster),
				app.WithSelector(fixedSelector{result: selection.Result{Kind: selection.RejectedAll}}),
				app.WithClock(fixedClock()),
			)

			res, err := svc.RunOnce(ctx, false)

			Convey("Then the run ends benignly with nothing persisted", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, app.OutcomeHumanRejected)
				So(res.Outcome.Benign(), ShouldBeTrue)
				So(poster.posted, ShouldBeFalse)
				_, statErr := os.Stat(cfg.History.Path)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When no reply arrives in time", func() {
			svc := app.New(cfg,
				app.WithGenerator(fixedImageGenerator(noiseImage(2))),
				app.WithPoster(poster),
				app.WithSelector(fixedSelector{result: selection.Result{Kind: selection.NoResponse}}),
				app.WithClock(fixedClock()),
			)

			res, err := svc.RunOnce(ctx, false)

			Convey("Then the run times out benignly", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, app.OutcomeHumanTimeout)
				So(poster.posted, ShouldBeFalse)
			})
		})
	})
}
