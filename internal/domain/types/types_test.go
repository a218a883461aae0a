package types_test

import (
	"context"
	"testing"

	"github.com/sinhau/pixelbliss/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLimit(t *testing.T) {
	Convey("Given limit construction", t, func() {
		Convey("Then zero and negatives are unbounded", func() {
			So(types.Bounded(0).IsUnbounded(), ShouldBeTrue)
			So(types.Bounded(-3).IsUnbounded(), ShouldBeTrue)
			So(types.Unbounded.IsUnbounded(), ShouldBeTrue)
		})

		Convey("Then positive values are bounded", func() {
			So(types.Bounded(4).IsUnbounded(), ShouldBeFalse)
			So(int(types.Bounded(4)), ShouldEqual, 4)
		})
	})
}

func TestSemaphore(t *testing.T) {
	Convey("Given an unbounded semaphore", t, func() {
		sem := types.Unbounded.Semaphore()
		ctx := context.Background()

		Convey("Then Acquire never blocks", func() {
			for i := 0; i < 100; i++ {
				So(sem.Acquire(ctx), ShouldBeTrue)
			}
			sem.Release()
		})

		Convey("Then a cancelled context denies acquisition", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			So(sem.Acquire(cancelled), ShouldBeFalse)
		})
	})

	Convey("Given a bounded semaphore of one slot", t, func() {
		sem := types.Bounded(1).Semaphore()
		ctx := context.Background()

		Convey("When the slot is taken", func() {
			So(sem.Acquire(ctx), ShouldBeTrue)

			Convey("Then a second acquire blocks until cancellation", func() {
				cancelled, cancel := context.WithCancel(ctx)
				cancel()
				So(sem.Acquire(cancelled), ShouldBeFalse)
			})

			Convey("Then release frees the slot", func() {
				sem.Release()
				So(sem.Acquire(ctx), ShouldBeTrue)
				sem.Release()
			})
		})
	})
}
