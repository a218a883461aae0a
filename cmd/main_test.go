package main

import (
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRunArgs(t *testing.T) {
	convey.Convey("Given the CLI entrypoint", t, func() {
		origArgs := os.Args
		defer func() { os.Args = origArgs }()

		convey.Convey("When invoked with an unknown subcommand", func() {
			os.Args = []string{"pixelbliss", "bogus"}

			convey.Convey("Then it exits with a usage error", func() {
				convey.So(run(), convey.ShouldEqual, 2)
			})
		})
	})
}
