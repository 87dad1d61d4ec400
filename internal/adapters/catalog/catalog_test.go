package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/valetivivek/comite/internal/adapters/catalog"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemCatalog(t *testing.T) {
	Convey("Given an in-memory catalog", t, func() {
		ctx := context.Background()
		c := catalog.NewMemCatalog()
		c.Put("ch1", catalog.ChapterInfo{SeriesID: "s1", Genres: []string{"action"}, ImageCount: 12})

		Convey("When looking up a registered chapter", func() {
			info, err := c.Chapter(ctx, "ch1")

			So(err, ShouldBeNil)
			So(info.SeriesID, ShouldEqual, "s1")
			So(info.ImageCount, ShouldEqual, 12)
		})

		Convey("When looking up an unknown chapter", func() {
			_, err := c.Chapter(ctx, "nope")

			So(err, ShouldWrap, catalog.ErrChapterUnknown)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a YAML fixture of chapters", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "catalog.yaml")
		fixture := `chapters:
  ch-1001:
    series_id: one-piece
    genres: [action, adventure]
    image_count: 18
  ch-2:
    series_id: berserk
    genres: [dark-fantasy]
    image_count: 22
`
		So(os.WriteFile(path, []byte(fixture), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			c, err := catalog.LoadFile(path)

			Convey("Then every chapter is resolvable", func() {
				So(err, ShouldBeNil)
				So(c.Len(), ShouldEqual, 2)

				info, err := c.Chapter(context.Background(), "ch-1001")
				So(err, ShouldBeNil)
				So(info.SeriesID, ShouldEqual, "one-piece")
				So(info.Genres, ShouldResemble, []string{"action", "adventure"})
				So(info.ImageCount, ShouldEqual, 18)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := catalog.LoadFile(filepath.Join(dir, "missing.yaml"))

			So(err, ShouldWrap, catalog.ErrLoadCatalog)
		})
	})
}
