package service_test

import (
	"context"
	"os"
	"testing"

	"github.com/valetivivek/comite/internal/adapters/catalog"
	service "github.com/valetivivek/comite/internal/app"
	"github.com/valetivivek/comite/internal/config"
	"github.com/valetivivek/comite/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func newStartedService(t *testing.T, cat *catalog.MemCatalog) *service.Service {
	t.Helper()
	svc := service.New(
		service.WithCatalog(cat),
		service.WithQueueSize(16),
		service.WithWorkerCount(1),
		service.WithTrackerConfig(config.TrackerConfig{
			TickIntervalSec:     5,
			InactivityWindowSec: 15,
			MinActiveSec:        45,
			MinScrollPct:        80,
			MinImageRatio:       0.70,
		}),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a reading service", t, func() {
		ctx := context.Background()
		cat := catalog.NewMemCatalog()
		svc := newStartedService(t, cat)

		Convey("When Start is called again", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})

		Convey("When service stats are requested", func() {
			stats := svc.GetStats()

			So(stats["started"], ShouldBeTrue)
			So(stats["workerCount"], ShouldEqual, 1)
			So(stats["activeSessions"], ShouldEqual, 0)
		})

		Convey("When Stop is called twice", func() {
			svc.Stop()
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})
}

func TestServiceReadingFlow(t *testing.T) {
	Convey("Given a service with one catalogued chapter", t, func() {
		ctx := context.Background()
		cat := catalog.NewMemCatalog()
		cat.Put("ch1", catalog.ChapterInfo{
			SeriesID:   "series-1",
			Genres:     []string{"action", "fantasy"},
			ImageCount: 10,
		})
		svc := newStartedService(t, cat)

		Convey("When a session is started for the chapter", func() {
			So(svc.StartReading(ctx, "u1", "ch1"), ShouldBeNil)

			Convey("Then it shows up as an active session", func() {
				So(svc.GetStats()["activeSessions"], ShouldEqual, 1)
			})

			Convey("And ending it immediately is not a valid read", func() {
				valid, err := svc.EndReading(ctx, "u1", "ch1")
				So(err, ShouldBeNil)
				So(valid, ShouldBeFalse)
				So(svc.GetStats()["activeSessions"], ShouldEqual, 0)
			})
		})

		Convey("When the chapter is not in the catalog", func() {
			err := svc.StartReading(ctx, "u1", "missing")
			So(err, ShouldWrap, catalog.ErrChapterUnknown)
		})

		Convey("When a reader has no history yet", func() {
			result, err := svc.Flair(ctx, "fresh")

			So(err, ShouldBeNil)
			So(result.Rank, ShouldEqual, "Newbie")
			So(result.Genres, ShouldResemble, []string{"Explorer"})
		})

		Convey("When a manual flair override is stored", func() {
			So(svc.SetFlairOverride(ctx, "u1", []string{"horror"}), ShouldBeNil)

			result, err := svc.Flair(ctx, "u1")
			So(err, ShouldBeNil)
			So(result.Genres, ShouldResemble, []string{"horror"})
		})
	})
}
