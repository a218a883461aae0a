package storage_test

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/sinhau/pixelbliss/internal/adapters/storage"
	"github.com/sinhau/pixelbliss/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func smallImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 90, A: 255})
		}
	}
	return img
}

func TestMakeSlug(t *testing.T) {
	Convey("Given theme and prompt text", t, func() {
		Convey("Then unsafe characters collapse to underscores", func() {
			So(storage.MakeSlug("neo-noir", "rainy street, 4k!"), ShouldEqual, "neo-noir_rainy_street_4k_")
		})

		Convey("Then long slugs are capped at 50 characters", func() {
			long := storage.MakeSlug("theme", "a very very very very very very very long prompt indeed")
			So(len(long), ShouldBeLessThanOrEqualTo, 50)
		})
	})
}

func TestWriter(t *testing.T) {
	Convey("Given a writer rooted in a temp dir", t, func() {
		root := t.TempDir()
		w := storage.NewWriter(root)
		dir := w.RunDir("2026-08-31", "test_slug")

		Convey("Then the run dir follows the date/slug layout", func() {
			So(dir, ShouldEqual, filepath.Join(root, "2026-08-31", "test_slug"))
		})

		Convey("When saving images", func() {
			paths, err := w.SaveImages(dir, map[string]image.Image{
				"base_img": smallImage(),
				"phone":    smallImage(),
			})

			Convey("Then each image lands as a PNG and is mapped by name", func() {
				So(err, ShouldBeNil)
				So(paths, ShouldHaveLength, 2)
				for name, p := range paths {
					So(p, ShouldEqual, filepath.Join(dir, name+".png"))
					_, statErr := os.Stat(p)
					So(statErr, ShouldBeNil)
				}
			})
		})

		Convey("When saving candidates", func() {
			candidates := []*model.Candidate{
				{Image: smallImage()},
				{Image: smallImage()},
			}
			err := w.SaveCandidates(dir, candidates)

			Convey("Then they are archived with 1-based numbering", func() {
				So(err, ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(dir, "candidates", "candidate_001.png"))
				So(statErr, ShouldBeNil)
				_, statErr = os.Stat(filepath.Join(dir, "candidates", "candidate_002.png"))
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When saving meta", func() {
			meta := storage.Meta{
				Theme:      "nature",
				BasePrompt: "misty forest",
				Provider:   "local",
				Model:      "gradient-v1",
				CreatedAt:  "2026-08-31T08:00:00Z",
				AltText:    "a misty forest",
				Phash:      "00ff00ff00ff00ff",
				Files:      map[string]string{"base_img": "x/base_img.png"},
			}
			path, err := w.SaveMeta(dir, meta)

			Convey("Then meta.json round-trips", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)

				var got storage.Meta
				So(json.Unmarshal(data, &got), ShouldBeNil)
				So(got.Theme, ShouldEqual, "nature")
				So(got.Phash, ShouldEqual, "00ff00ff00ff00ff")
				So(got.Scores, ShouldBeNil)
			})

			Convey("Then absent optional fields are omitted from the document", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldNotContainSubstring, "postId")
				So(string(data), ShouldNotContainSubstring, "scores")
			})
		})

		Convey("When saving raw bytes", func() {
			path, err := w.SaveRaw(dir, "upload_phone.jpg", []byte{0xff, 0xd8, 0xff})

			Convey("Then the file is written verbatim", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(data, ShouldResemble, []byte{0xff, 0xd8, 0xff})
			})
		})
	})
}
