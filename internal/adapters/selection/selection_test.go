package selection_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/sinhau/pixelbliss/internal/adapters/selection"
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

type fakeMessenger struct {
	sent     [][]selection.Preview
	reply    selection.Reply
	sendErr  error
	replyErr error
	closed   bool
}

func (m *fakeMessenger) SendCandidates(ctx context.Context, previews []selection.Preview) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, previews)
	return nil
}

func (m *fakeMessenger) AwaitReply(ctx context.Context) (selection.Reply, error) {
	if m.replyErr != nil {
		return selection.Reply{}, m.replyErr
	}
	return m.reply, nil
}

func (m *fakeMessenger) Close(ctx context.Context) error {
	m.closed = true
	return nil
}

func testCandidates(n int) []*model.Candidate {
	out := make([]*model.Candidate, 0, n)
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				img.Set(x, y, color.RGBA{R: uint8(i * 40), G: 100, B: 150, A: 255})
			}
		}
		out = append(out, &model.Candidate{Image: img, Provider: "local", Model: "gradient-v1"})
	}
	return out
}

func TestSelect(t *testing.T) {
	ctx := context.Background()

	Convey("Given a messenger that picks a candidate", t, func() {
		m := &fakeMessenger{reply: selection.Reply{Index: 2}}
		sel := selection.New(m, selection.WithTimeout(time.Second))

		res := sel.Select(ctx, testCandidates(4))

		Convey("Then the result carries the chosen index", func() {
			So(res.Kind, ShouldEqual, selection.Selected)
			So(res.Index, ShouldEqual, 2)
		})

		Convey("Then previews were delivered with 1-based labels", func() {
			So(m.sent, ShouldHaveLength, 1)
			So(m.sent[0], ShouldHaveLength, 4)
			So(m.sent[0][0].Label, ShouldEqual, "#1 (local/gradient-v1)")
			So(m.sent[0][0].Filename, ShouldEqual, "candidate_001.jpg")
			So(m.sent[0][0].Data, ShouldNotBeEmpty)
		})

		Convey("Then the connection was torn down", func() {
			So(m.closed, ShouldBeTrue)
		})
	})

	Convey("Given more candidates than the batch size", t, func() {
		m := &fakeMessenger{reply: selection.Reply{Index: 0}}
		sel := selection.New(m, selection.WithBatchSize(3), selection.WithTimeout(time.Second))

		sel.Select(ctx, testCandidates(7))

		Convey("Then previews go out in batches with continuous numbering", func() {
			So(m.sent, ShouldHaveLength, 3)
			So(m.sent[0], ShouldHaveLength, 3)
			So(m.sent[2], ShouldHaveLength, 1)
			So(m.sent[2][0].Label, ShouldStartWith, "#7")
		})
	})

	Convey("Given a human that rejects everything", t, func() {
		m := &fakeMessenger{reply: selection.Reply{RejectAll: true}}
		sel := selection.New(m, selection.WithTimeout(time.Second))

		res := sel.Select(ctx, testCandidates(2))

		Convey("Then the round ends with RejectedAll", func() {
			So(res.Kind, ShouldEqual, selection.RejectedAll)
		})
	})

	Convey("Given a messenger that fails to deliver", t, func() {
		m := &fakeMessenger{sendErr: errors.New("gateway down")}
		sel := selection.New(m, selection.WithTimeout(time.Second))

		res := sel.Select(ctx, testCandidates(2))

		Convey("Then the round degrades to NoResponse", func() {
			So(res.Kind, ShouldEqual, selection.NoResponse)
			So(m.closed, ShouldBeTrue)
		})
	})

	Convey("Given a reply that never arrives", t, func() {
		m := &fakeMessenger{replyErr: context.DeadlineExceeded}
		sel := selection.New(m, selection.WithTimeout(time.Second))

		res := sel.Select(ctx, testCandidates(2))

		Convey("Then the round degrades to NoResponse", func() {
			So(res.Kind, ShouldEqual, selection.NoResponse)
		})
	})

	Convey("Given an out-of-range selection index", t, func() {
		m := &fakeMessenger{reply: selection.Reply{Index: 9}}
		sel := selection.New(m, selection.WithTimeout(time.Second))

		res := sel.Select(ctx, testCandidates(2))

		Convey("Then the round degrades to NoResponse", func() {
			So(res.Kind, ShouldEqual, selection.NoResponse)
		})
	})

	Convey("Given no candidates at all", t, func() {
		m := &fakeMessenger{}
		sel := selection.New(m)

		res := sel.Select(ctx, nil)

		Convey("Then the round is NoResponse without any messaging", func() {
			So(res.Kind, ShouldEqual, selection.NoResponse)
			So(m.sent, ShouldBeEmpty)
		})
	})
}
