package history_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sinhau/pixelbliss/internal/adapters/history"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store over a fresh file", t, func() {
		path := filepath.Join(t.TempDir(), "manifest", "index.json")
		store := history.NewFileStore(path)

		Convey("When the file does not exist yet", func() {
			hashes, err := store.RecentHashes(ctx, 10)

			Convey("Then recent hashes is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(hashes, ShouldBeEmpty)
			})
		})

		Convey("When records are appended", func() {
			So(store.Append(ctx, history.Record{ID: "r1", Date: "2026-08-30", Phash: "aaaa000000000000"}), ShouldBeNil)
			So(store.Append(ctx, history.Record{ID: "r2", Date: "2026-08-31", Phash: "bbbb000000000000"}), ShouldBeNil)
			So(store.Append(ctx, history.Record{ID: "r3", Date: "2026-08-31"}), ShouldBeNil)

			Convey("Then all hashes come back in insertion order", func() {
				hashes, err := store.RecentHashes(ctx, 10)
				So(err, ShouldBeNil)
				So(hashes, ShouldResemble, []string{"aaaa000000000000", "bbbb000000000000"})
			})

			Convey("Then the limit keeps only the newest window", func() {
				hashes, err := store.RecentHashes(ctx, 2)
				So(err, ShouldBeNil)
				// r3 has no hash, so the 2-record window holds one.
				So(hashes, ShouldResemble, []string{"bbbb000000000000"})
			})

			Convey("Then a zero limit means the whole log", func() {
				hashes, err := store.RecentHashes(ctx, 0)
				So(err, ShouldBeNil)
				So(hashes, ShouldHaveLength, 2)
			})

			Convey("Then the file is a plain JSON array", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldStartWith, "[")
			})

			Convey("And updating a post id on an existing record succeeds", func() {
				So(store.UpdatePostID(ctx, "r2", "post-123"), ShouldBeNil)

				// Reopen to prove the update was persisted.
				reopened := history.NewFileStore(path)
				hashes, err := reopened.RecentHashes(ctx, 10)
				So(err, ShouldBeNil)
				So(hashes, ShouldHaveLength, 2)
			})

			Convey("And updating an unknown record fails with ErrNotFound", func() {
				So(store.UpdatePostID(ctx, "missing", "post-123"), ShouldWrap, history.ErrNotFound)
			})
		})

		Convey("When the file holds invalid JSON", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte("{broken"), 0o644), ShouldBeNil)

			Convey("Then reads surface the parse error", func() {
				_, err := store.RecentHashes(ctx, 10)
				So(err, ShouldNotBeNil)
			})
		})
	})
}
