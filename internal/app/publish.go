package app

import (
	"context"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/sinhau/pixelbliss/internal/adapters/history"
	"github.com/sinhau/pixelbliss/internal/adapters/storage"
	"github.com/sinhau/pixelbliss/internal/config"
	"github.com/sinhau/pixelbliss/internal/domain/dedupe"
	"github.com/sinhau/pixelbliss/internal/domain/model"
	"github.com/sinhau/pixelbliss/internal/imaging"
	"github.com/sinhau/pixelbliss/internal/imaging/compress"
	"github.com/sinhau/pixelbliss/pkg/logger"
	"github.com/sinhau/pixelbliss/pkg/metrics"
)

type publishInput struct {
	res        RunResult
	runDate    string
	createdAt  string
	theme      string
	basePrompt string
	candidates []*model.Candidate
	winner     *model.Candidate
	winnerHash string
	scored     bool
	dryRun     bool
}

// publish upscales the winner, builds output variants, persists artifacts
// and history, and posts unless this is a dry run. Artifacts are persisted
// before posting so a posting failure never loses the run.
func (s *Service) publish(ctx context.Context, in publishInput) (RunResult, error) {
	res := in.res

	baseImg := s.upscaleWinner(ctx, in.winner.Image)

	outputs := imaging.MakeVariants(baseImg, variantsFromConfig(s.cfg.Variants))
	outputs["base_img"] = baseImg

	altText, err := s.prompts.AltText(ctx, in.basePrompt, in.winner.PromptVariant)
	if err != nil {
		s.logger.Warn(ctx, "alt text generation failed", logger.Error(err))
		altText = in.basePrompt
	}

	// Persist.
	persistStart := time.Now()
	slug := storage.MakeSlug(in.theme, in.basePrompt)
	dir := s.writer.RunDir(in.runDate, slug)
	res.OutputDir = dir

	paths, err := s.writer.SaveImages(dir, outputs)
	if err != nil {
		s.alerter.Failure(ctx, "persisting outputs failed", err.Error())
		s.finish(ctx, &res, OutcomePersistFailed)
		return res, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := s.writer.SaveCandidates(dir, in.candidates); err != nil {
		s.logger.Warn(ctx, "archiving candidates failed", logger.Error(err))
	}

	hash := in.winnerHash
	if hash == "" {
		// Human path or hash degradation: the record still carries a phash
		// so future runs can dedup against this post.
		if h, hashErr := dedupe.PhashHex(baseImg); hashErr == nil {
			hash = h
		} else {
			s.logger.Warn(ctx, "hashing winner failed", logger.Error(hashErr))
		}
	}

	meta := storage.Meta{
		Theme:         in.theme,
		BasePrompt:    in.basePrompt,
		VariantPrompt: in.winner.PromptVariant,
		Provider:      in.winner.Provider,
		Model:         in.winner.Model,
		Seed:          in.winner.Seed,
		CreatedAt:     in.createdAt,
		AltText:       altText,
		Phash:         hash,
		Files:         paths,
	}
	if in.scored {
		meta.Scores = &storage.Scores{
			Brightness:   in.winner.Metrics.Brightness.Or(0),
			Entropy:      in.winner.Metrics.Entropy.Or(0),
			LocalQuality: in.winner.Metrics.LocalQuality.Or(0),
			Aesthetic:    in.winner.Metrics.Aesthetic.Or(0),
			Final:        in.winner.Metrics.Final.Or(0),
		}
	}
	if _, err := s.writer.SaveMeta(dir, meta); err != nil {
		s.alerter.Failure(ctx, "persisting meta failed", err.Error())
		s.finish(ctx, &res, OutcomePersistFailed)
		return res, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	recordID := fmt.Sprintf("%s_%s_%s", in.runDate, in.theme, slug)
	record := history.Record{
		ID:        recordID,
		Date:      in.runDate,
		ThemeHint: in.theme,
		Files:     paths,
		Phash:     hash,
	}
	if err := s.store.Append(ctx, record); err != nil {
		s.alerter.Failure(ctx, "appending history failed", err.Error())
		s.finish(ctx, &res, OutcomePersistFailed)
		return res, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	metrics.RecordStageDuration("persist", time.Since(persistStart).Seconds())

	if in.dryRun {
		s.finish(ctx, &res, OutcomeDryRun)
		return res, nil
	}

	// Post.
	postStart := time.Now()
	uploadPath, err := s.prepareUpload(ctx, dir, paths, outputs)
	if err != nil {
		s.alerter.Failure(ctx, "preparing upload failed", err.Error())
		s.finish(ctx, &res, OutcomePostFailed)
		return res, fmt.Errorf("%w: %v", ErrPost, err)
	}
	mediaIDs, err := s.poster.UploadMedia(ctx, []string{uploadPath})
	if err != nil || len(mediaIDs) == 0 {
		if err == nil {
			err = fmt.Errorf("no media ids returned")
		}
		s.alerter.Failure(ctx, "media upload failed", err.Error())
		s.finish(ctx, &res, OutcomePostFailed)
		return res, fmt.Errorf("%w: %v", ErrPost, err)
	}
	if err := s.poster.SetAltText(ctx, mediaIDs[0], altText); err != nil {
		s.logger.Warn(ctx, "setting alt text failed", logger.Error(err))
	}
	postID, err := s.poster.Post(ctx, "", mediaIDs)
	if err != nil {
		s.alerter.Failure(ctx, "post failed", err.Error())
		s.finish(ctx, &res, OutcomePostFailed)
		return res, fmt.Errorf("%w: %v", ErrPost, err)
	}
	metrics.RecordStageDuration("post", time.Since(postStart).Seconds())
	metrics.RecordPost()

	if err := s.store.UpdatePostID(ctx, recordID, postID); err != nil {
		s.logger.Warn(ctx, "updating history post id failed", logger.Error(err))
	}
	meta.PostID = postID
	if _, err := s.writer.SaveMeta(dir, meta); err != nil {
		s.logger.Warn(ctx, "rewriting meta with post id failed", logger.Error(err))
	}

	s.alerter.Success(ctx, in.theme, in.winner.Model, postID)
	res.PostID = postID
	s.finish(ctx, &res, OutcomePosted)
	return res, nil
}

// upscaleWinner applies the optional upscale; any failure falls back to the
// original winner image.
func (s *Service) upscaleWinner(ctx context.Context, img image.Image) image.Image {
	if !s.cfg.Upscale.Enabled || s.upscaler == nil {
		return img
	}
	up, err := s.upscaler.Upscale(ctx, img, s.cfg.Upscale.Factor)
	if err != nil || up == nil {
		s.logger.Warn(ctx, "upscale failed, using original", logger.Error(err))
		return img
	}
	return up
}

// prepareUpload picks the upload variant and fits it under the byte budget.
// With compression disabled the already-saved PNG path is used directly.
func (s *Service) prepareUpload(ctx context.Context, dir string, paths map[string]string, outputs map[string]image.Image) (string, error) {
	name := preferredUploadVariant
	if _, ok := outputs[name]; !ok {
		names := make([]string, 0, len(outputs))
		for n := range outputs {
			names = append(names, n)
		}
		sort.Strings(names)
		name = names[0]
	}

	if !s.cfg.Compression.Enabled {
		return paths[name], nil
	}

	result := compress.Fit(outputs[name], s.cfg.Compression.MaxBytes)
	metrics.RecordCompressedBytes(result.Size())
	if !result.Fits(s.cfg.Compression.MaxBytes) {
		s.logger.Warn(ctx, "upload exceeds byte budget after fallback compression",
			logger.String("variant", name),
			logger.Int("bytes", result.Size()),
			logger.Int("budget", s.cfg.Compression.MaxBytes),
		)
	}

	filename := fmt.Sprintf("upload_%s.%s", name, extFor(result.Format))
	return s.writer.SaveRaw(dir, filename, result.Data)
}

func extFor(format string) string {
	if format == compress.FormatJPEG {
		return "jpg"
	}
	return "png"
}

func variantsFromConfig(variants []config.Variant) []imaging.Variant {
	out := make([]imaging.Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, imaging.Variant{Name: v.Name, Width: v.Width, Height: v.Height})
	}
	return out
}
