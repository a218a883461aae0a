package social_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sinhau/pixelbliss/internal/adapters/social"
	"github.com/sinhau/pixelbliss/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestWebhookAlerter(t *testing.T) {
	ctx := context.Background()

	Convey("Given a webhook endpoint", t, func() {
		var received []map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			var msg map[string]string
			_ = json.Unmarshal(body, &msg)
			received = append(received, msg)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		alerter := social.NewWebhookAlerter(srv.URL)

		Convey("When a success alert is sent", func() {
			alerter.Success(ctx, "nature", "gradient-v1", "https://post/1")

			Convey("Then the webhook receives the formatted message", func() {
				So(received, ShouldHaveLength, 1)
				So(received[0]["content"], ShouldContainSubstring, "posted nature")
				So(received[0]["content"], ShouldContainSubstring, "https://post/1")
			})
		})

		Convey("When a failure alert is sent", func() {
			alerter.Failure(ctx, "no images produced", "all slots failed")

			Convey("Then the webhook receives reason and details", func() {
				So(received, ShouldHaveLength, 1)
				So(received[0]["content"], ShouldContainSubstring, "FAIL: no images produced")
				So(received[0]["content"], ShouldContainSubstring, "all slots failed")
			})
		})
	})

	Convey("Given an empty webhook URL", t, func() {
		alerter := social.NewWebhookAlerter("")

		Convey("Then alerting is a silent no-op", func() {
			So(func() { alerter.Failure(ctx, "anything", "") }, ShouldNotPanic)
		})
	})
}

func TestNopPoster(t *testing.T) {
	ctx := context.Background()

	Convey("Given the no-op poster", t, func() {
		p := social.NopPoster{}

		Convey("Then uploads return one id per path", func() {
			ids, err := p.UploadMedia(ctx, []string{"a.png", "b.png"})
			So(err, ShouldBeNil)
			So(ids, ShouldHaveLength, 2)
		})

		Convey("Then posting returns a placeholder id", func() {
			id, err := p.Post(ctx, "", []string{"m1"})
			So(err, ShouldBeNil)
			So(id, ShouldNotBeEmpty)
		})
	})
}
