package queue_test

import (
	"context"
	"testing"

	"github.com/valetivivek/comite/internal/adapters/mq/queue"
	"github.com/valetivivek/comite/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		event := func(id string) queue.Event {
			return queue.Event{UserID: "u1", ChapterID: id, Kind: model.TelemetryActivity}
		}

		Convey("When enqueueing within capacity", func() {
			So(q.Enqueue(ctx, event("ch1")), ShouldBeTrue)
			So(q.Enqueue(ctx, event("ch2")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("Then a third enqueue reports backpressure", func() {
				So(q.Enqueue(ctx, event("ch3")), ShouldBeFalse)
			})

			Convey("And dequeue yields events in order", func() {
				events := q.Dequeue(ctx)
				first := <-events
				So(first.ChapterID, ShouldEqual, "ch1")
				second := <-events
				So(second.ChapterID, ShouldEqual, "ch2")
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, event("ch1")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues fail but buffered events drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, event("ch2")), ShouldBeFalse)

				events := q.Dequeue(ctx)
				buffered, ok := <-events
				So(ok, ShouldBeTrue)
				So(buffered.ChapterID, ShouldEqual, "ch1")
				_, ok = <-events
				So(ok, ShouldBeFalse)
			})

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
