package pipe_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/savor/internal/adapters/pipe"
	"github.com/okian/savor/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryPipe(t *testing.T) {
	Convey("Given a new pipe", t, func() {
		p := pipe.NewInMemoryPipe(pipe.WithCapacity(4))
		ctx := context.Background()

		Convey("Then it starts empty", func() {
			So(p.Len(ctx), ShouldEqual, 0)
		})

		Convey("When records are enqueued", func() {
			ok := p.Enqueue(ctx, model.Record{ID: 1, Name: "A", Rating: 5, Distance: 100})

			Convey("Then the enqueue succeeds and the record is buffered", func() {
				So(ok, ShouldBeTrue)
				So(p.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the pipe is closed and drained", func() {
			for i := int64(1); i <= 3; i++ {
				So(p.Enqueue(ctx, model.Record{ID: i, Name: "A", Rating: 5, Distance: 100}), ShouldBeTrue)
			}
			So(p.Close(), ShouldBeNil)

			Convey("Then dequeue yields every record and then closes", func() {
				var got []int64
				for rec := range p.Dequeue(ctx) {
					got = append(got, rec.ID)
				}
				So(got, ShouldResemble, []int64{1, 2, 3})
			})

			Convey("And enqueue after close is rejected", func() {
				So(p.Enqueue(ctx, model.Record{ID: 9}), ShouldBeFalse)
			})

			Convey("And a second close is a no-op", func() {
				So(p.Close(), ShouldBeNil)
			})
		})

		Convey("When the pipe is full", func() {
			for i := int64(1); i <= 4; i++ {
				So(p.Enqueue(ctx, model.Record{ID: i}), ShouldBeTrue)
			}

			Convey("Then further enqueues are rejected without blocking", func() {
				done := make(chan bool, 1)
				go func() { done <- p.Enqueue(ctx, model.Record{ID: 5}) }()
				select {
				case ok := <-done:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("enqueue blocked on a full pipe")
				}
			})
		})

		Convey("When the consumer context is cancelled", func() {
			So(p.Enqueue(ctx, model.Record{ID: 1}), ShouldBeTrue)
			cctx, cancel := context.WithCancel(ctx)
			out := p.Dequeue(cctx)
			cancel()

			Convey("Then the dequeue channel closes", func() {
				select {
				case _, open := <-out:
					So(open, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("dequeue channel did not close")
				}
			})
		})
	})
}
