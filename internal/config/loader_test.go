package config_test

import (
	"context"
	"testing"

	"github.com/valetivivek/comite/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		ctx := context.Background()

		Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			Convey("Then defaults are populated", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.Tracker.TickIntervalSec, ShouldEqual, 5)
				So(cfg.Tracker.InactivityWindowSec, ShouldEqual, 15)
				So(cfg.Tracker.MinActiveSec, ShouldEqual, 45)
				So(cfg.Tracker.MinScrollPct, ShouldEqual, 80)
				So(cfg.Tracker.MinImageRatio, ShouldEqual, 0.70)
				So(cfg.Upload.MaxBytes, ShouldEqual, int64(10<<20))
				So(cfg.Upload.ExpirySec, ShouldEqual, 60)
				So(cfg.Upload.AllowedRoles, ShouldResemble, []string{"owner", "admin", "editor"})
				So(cfg.Upload.AllowedTypes, ShouldContain, "image/png")
			})
		})

		Convey("When an env override is set", func() {
			t.Setenv("COMITE_ADDR", ":7070")
			t.Setenv("COMITE_UPLOAD__SECRET", "hunter2")
			cfg, err := config.Load(ctx)

			Convey("Then env wins over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.Upload.Secret, ShouldEqual, "hunter2")
			})
		})

		Convey("When an env override is invalid", func() {
			t.Setenv("COMITE_TRACKER__MIN_SCROLL_PCT", "150")
			_, err := config.Load(ctx)

			Convey("Then loading fails with an invalid-config error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "min_scroll_pct")
			})
		})
	})
}
