// Package selection implements the human-override path: candidates are
// handed to a chat collaborator as numbered previews and the human's reply
// is authoritative. The pipeline never depends on message formatting, only
// on the Messenger contract.
package selection

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"time"

	"github.com/sinhau/pixelbliss/internal/domain/model"
	"github.com/sinhau/pixelbliss/internal/imaging"
	"github.com/sinhau/pixelbliss/pkg/logger"
)

// Defaults for the human-selection flow.
const (
	defaultTimeout         = 5 * time.Minute
	defaultTeardownTimeout = 5 * time.Second
	defaultBatchSize       = 9
	previewLongSide        = 2048
	previewJPEGQuality     = 85
)

// Kind classifies the outcome of a selection round.
type Kind int

const (
	// Selected means the human picked a candidate.
	Selected Kind = iota
	// RejectedAll means the human explicitly rejected every candidate.
	RejectedAll
	// NoResponse means the round timed out or the collaborator failed.
	NoResponse
)

// Result is the outcome of one selection round. Index is only meaningful
// when Kind is Selected.
type Result struct {
	Kind  Kind
	Index int
}

// Preview is one numbered candidate image ready for a chat message.
type Preview struct {
	Data     []byte
	Filename string
	Label    string
}

// Reply is the human's answer relayed by the Messenger.
type Reply struct {
	Index     int
	RejectAll bool
}

// Messenger is the chat collaborator carrying previews to a human and their
// reply back. Implementations own connection management and formatting.
type Messenger interface {
	// SendCandidates delivers a batch of previews.
	SendCandidates(ctx context.Context, previews []Preview) error

	// AwaitReply blocks until the human replies or ctx is done.
	AwaitReply(ctx context.Context) (Reply, error)

	// Close tears the underlying connection down gracefully.
	Close(ctx context.Context) error
}

// Selector runs the human-override selection round.
type Selector struct {
	messenger Messenger
	timeout   time.Duration
	teardown  time.Duration
	batchSize int
	logger    logger.Logger
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithTimeout sets the outer timeout for the whole round.
func WithTimeout(d time.Duration) Option {
	return func(s *Selector) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTeardownTimeout bounds the graceful connection shutdown.
func WithTeardownTimeout(d time.Duration) Option {
	return func(s *Selector) {
		if d > 0 {
			s.teardown = d
		}
	}
}

// WithBatchSize sets how many previews go into one message.
func WithBatchSize(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Selector over the given messenger.
func New(messenger Messenger, opts ...Option) *Selector {
	s := &Selector{
		messenger: messenger,
		timeout:   defaultTimeout,
		teardown:  defaultTeardownTimeout,
		batchSize: defaultBatchSize,
		logger:    logger.Get().Named("selection"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select presents the candidates and waits for the human's decision under
// the outer timeout. Timeouts and collaborator failures both come back as
// NoResponse; the caller treats them as a benign end of the run.
func (s *Selector) Select(ctx context.Context, candidates []*model.Candidate) Result {
	if len(candidates) == 0 {
		return Result{Kind: NoResponse}
	}

	roundCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer s.close()

	for start := 0; start < len(candidates); start += s.batchSize {
		end := min(start+s.batchSize, len(candidates))
		previews := buildPreviews(candidates[start:end], start)
		if err := s.messenger.SendCandidates(roundCtx, previews); err != nil {
			s.logger.Warn(ctx, "sending candidate previews failed",
				logger.Int("batchStart", start),
				logger.Error(err),
			)
			return Result{Kind: NoResponse}
		}
	}

	reply, err := s.messenger.AwaitReply(roundCtx)
	if err != nil {
		s.logger.Warn(ctx, "no human selection received", logger.Error(err))
		return Result{Kind: NoResponse}
	}
	if reply.RejectAll {
		return Result{Kind: RejectedAll}
	}
	if reply.Index < 0 || reply.Index >= len(candidates) {
		s.logger.Warn(ctx, "selection index out of range", logger.Int("index", reply.Index))
		return Result{Kind: NoResponse}
	}
	return Result{Kind: Selected, Index: reply.Index}
}

// close tears the messenger down under the short secondary timeout so a
// stuck connection can never hang the pipeline.
func (s *Selector) close() {
	ctx, cancel := context.WithTimeout(context.Background(), s.teardown)
	defer cancel()
	if err := s.messenger.Close(ctx); err != nil {
		s.logger.Debug(ctx, "messenger teardown failed", logger.Error(err))
	}
}

// buildPreviews renders numbered JPEG previews, downscaled to keep message
// sizes reasonable. Numbering is 1-based to match what the human sees.
func buildPreviews(candidates []*model.Candidate, offset int) []Preview {
	previews := make([]Preview, 0, len(candidates))
	for i, c := range candidates {
		n := offset + i + 1
		img := imaging.AddNumber(imaging.ResizeLongSide(c.Image, previewLongSide), n)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: previewJPEGQuality}); err != nil {
			continue
		}
		previews = append(previews, Preview{
			Data:     buf.Bytes(),
			Filename: fmt.Sprintf("candidate_%03d.jpg", n),
			Label:    fmt.Sprintf("#%d (%s/%s)", n, c.Provider, c.Model),
		})
	}
	return previews
}
