package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/valetivivek/comite/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStatsStore_ApplyValidRead(t *testing.T) {
	Convey("Given a stats store over an in-memory doc store", t, func() {
		ctx := context.Background()
		now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		store := repository.NewStatsStore(
			repository.NewMemStore(),
			repository.WithStatsClock(func() time.Time { return now }),
		)

		Convey("When a valid read is applied", func() {
			err := store.ApplyValidRead(ctx, "u1", "ch1", []string{"action", "romance"})
			So(err, ShouldBeNil)

			Convey("Then counters increment by exactly one", func() {
				stats, err := store.Stats(ctx, "u1")
				So(err, ShouldBeNil)
				So(stats.TotalChaptersRead, ShouldEqual, 1)
				So(stats.GenreCounts["action"], ShouldEqual, 1)
				So(stats.GenreCounts["romance"], ShouldEqual, 1)
				So(stats.LastUpdated, ShouldEqual, now)
			})

			Convey("And the chapter is recorded as read", func() {
				read, err := store.AlreadyRead(ctx, "u1", "ch1")
				So(err, ShouldBeNil)
				So(read, ShouldBeTrue)
			})

			Convey("And re-applying the same chapter is a no-op", func() {
				So(store.ApplyValidRead(ctx, "u1", "ch1", []string{"action"}), ShouldBeNil)
				stats, _ := store.Stats(ctx, "u1")
				So(stats.TotalChaptersRead, ShouldEqual, 1)
				So(stats.GenreCounts["action"], ShouldEqual, 1)
			})

			Convey("And a second chapter keeps counters monotonic", func() {
				So(store.ApplyValidRead(ctx, "u1", "ch2", []string{"action"}), ShouldBeNil)
				stats, _ := store.Stats(ctx, "u1")
				So(stats.TotalChaptersRead, ShouldEqual, 2)
				So(stats.GenreCounts["action"], ShouldEqual, 2)
				So(stats.GenreCounts["romance"], ShouldEqual, 1)
			})
		})

		Convey("When the genre list carries duplicates", func() {
			So(store.ApplyValidRead(ctx, "u2", "ch1", []string{"horror", "horror", ""}), ShouldBeNil)

			Convey("Then each genre counts once and blanks are dropped", func() {
				stats, _ := store.Stats(ctx, "u2")
				So(stats.GenreCounts["horror"], ShouldEqual, 1)
				So(stats.GenreCounts, ShouldNotContainKey, "")
			})
		})

		Convey("When querying an unknown user", func() {
			stats, err := store.Stats(ctx, "nobody")

			Convey("Then a zeroed record comes back", func() {
				So(err, ShouldBeNil)
				So(stats.TotalChaptersRead, ShouldEqual, 0)
				So(stats.GenreCounts, ShouldBeEmpty)
			})
		})

		Convey("When a flair override is set", func() {
			So(store.SetFlairOverride(ctx, "u3", []string{"sports", "comedy"}), ShouldBeNil)

			Convey("Then it round-trips", func() {
				got, err := store.FlairOverride(ctx, "u3")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []string{"sports", "comedy"})
			})

			Convey("And clearing it reverts to automatic", func() {
				So(store.SetFlairOverride(ctx, "u3", nil), ShouldBeNil)
				got, _ := store.FlairOverride(ctx, "u3")
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestMemStore(t *testing.T) {
	Convey("Given an in-memory doc store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()

		type doc struct {
			Name string `json:"name"`
			N    int    `json:"n"`
		}

		Convey("When a document is set and read back", func() {
			So(store.Set(ctx, "k1", doc{Name: "a", N: 7}), ShouldBeNil)

			var got doc
			ok, err := store.Get(ctx, "k1", &got)

			Convey("Then it round-trips as an independent copy", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, doc{Name: "a", N: 7})
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("When reading a missing key", func() {
			var got doc
			ok, err := store.Get(ctx, "missing", &got)

			Convey("Then it reports absence without error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When deleting", func() {
			So(store.Set(ctx, "k2", doc{}), ShouldBeNil)
			So(store.Delete(ctx, "k2"), ShouldBeNil)
			So(store.Delete(ctx, "k2"), ShouldBeNil)

			var got doc
			ok, _ := store.Get(ctx, "k2", &got)
			So(ok, ShouldBeFalse)
		})
	})
}
