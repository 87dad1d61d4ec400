package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/valetivivek/comite/internal/adapters/catalog"
	"github.com/valetivivek/comite/internal/adapters/http/api"
	"github.com/valetivivek/comite/internal/domain/model"
	"github.com/valetivivek/comite/pkg/logger"
	"github.com/valetivivek/comite/pkg/ratelimit"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// mockDeps is a scriptable implementation of api.Dependencies.
type mockDeps struct {
	startErr     error
	endValid     bool
	endErr       error
	acceptAll    bool
	rejectAfter  int
	submitted    []model.TelemetryEvent
	stats        model.UserReadingStats
	statsErr     error
	flair        model.FlairResult
	flairErr     error
	override     []string
	overrideErr  error
	overrideUser string
}

func (m *mockDeps) StartReading(ctx context.Context, userID, chapterID string) error {
	return m.startErr
}

func (m *mockDeps) EndReading(ctx context.Context, userID, chapterID string) (bool, error) {
	return m.endValid, m.endErr
}

func (m *mockDeps) SubmitTelemetry(ctx context.Context, e model.TelemetryEvent) bool {
	if !m.acceptAll && len(m.submitted) >= m.rejectAfter {
		return false
	}
	m.submitted = append(m.submitted, e)
	return true
}

func (m *mockDeps) ReadingStats(ctx context.Context, userID string) (model.UserReadingStats, error) {
	return m.stats, m.statsErr
}

func (m *mockDeps) Flair(ctx context.Context, userID string) (model.FlairResult, error) {
	return m.flair, m.flairErr
}

func (m *mockDeps) SetFlairOverride(ctx context.Context, userID string, genres []string) error {
	m.overrideUser = userID
	m.override = genres
	return m.overrideErr
}

type mockStatsProvider struct{}

func (mockStatsProvider) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *mockDeps) *http.ServeMux {
	srv := api.NewServer(deps, mockStatsProvider{}, testUploadConfig(), &stubSigner{},
		ratelimit.New(
			ratelimit.WithWindow(time.Minute),
			ratelimit.WithLimit(20),
		))
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux
}

func postJSON(mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(w, req)
	return w
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSessionsEndpoints(t *testing.T) {
	Convey("Given the sessions endpoints", t, func() {
		deps := &mockDeps{acceptAll: true}
		mux := newTestServer(deps)

		Convey("When a session is started for a known chapter", func() {
			w := postJSON(mux, "/sessions/start", `{"user_id":"u1","chapter_id":"ch1"}`)

			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("When the chapter is unknown", func() {
			deps.startErr = catalog.ErrChapterUnknown
			w := postJSON(mux, "/sessions/start", `{"user_id":"u1","chapter_id":"nope"}`)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the start body is missing identifiers", func() {
			So(postJSON(mux, "/sessions/start", `{"user_id":"u1"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(postJSON(mux, "/sessions/start", `{"chapter_id":"ch1"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(postJSON(mux, "/sessions/start", `not json`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a session ends as a valid read", func() {
			deps.endValid = true
			w := postJSON(mux, "/sessions/end", `{"user_id":"u1","chapter_id":"ch1"}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			var resp map[string]bool
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp["valid"], ShouldBeTrue)
		})

		Convey("When a session ends without meeting the thresholds", func() {
			deps.endValid = false
			w := postJSON(mux, "/sessions/end", `{"user_id":"u1","chapter_id":"ch1"}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"valid":false`)
		})
	})
}

func TestTelemetryEndpoint(t *testing.T) {
	Convey("Given the telemetry endpoint", t, func() {
		deps := &mockDeps{acceptAll: true}
		mux := newTestServer(deps)

		Convey("When a mixed batch is submitted", func() {
			body := `{"events":[
				{"user_id":"u1","chapter_id":"ch1","kind":"activity"},
				{"user_id":"u1","chapter_id":"ch1","kind":"scroll","scroll_pct":64.5},
				{"user_id":"u1","chapter_id":"ch1","kind":"image_seen","image_id":"img-2"}
			]}`
			w := postJSON(mux, "/sessions/telemetry", body)

			Convey("Then every beacon is accepted and forwarded", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"accepted":3`)
				So(len(deps.submitted), ShouldEqual, 3)
				So(deps.submitted[1].ScrollPct, ShouldEqual, 64.5)
				So(deps.submitted[2].ImageID, ShouldEqual, "img-2")
			})
		})

		Convey("When a beacon has an unknown kind", func() {
			body := `{"events":[{"user_id":"u1","chapter_id":"ch1","kind":"hover"}]}`
			So(postJSON(mux, "/sessions/telemetry", body).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an image_seen beacon has no image id", func() {
			body := `{"events":[{"user_id":"u1","chapter_id":"ch1","kind":"image_seen"}]}`
			So(postJSON(mux, "/sessions/telemetry", body).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the batch is empty", func() {
			So(postJSON(mux, "/sessions/telemetry", `{"events":[]}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue pushes back", func() {
			deps.acceptAll = false
			deps.rejectAfter = 1
			body := `{"events":[
				{"user_id":"u1","chapter_id":"ch1","kind":"activity"},
				{"user_id":"u1","chapter_id":"ch1","kind":"activity"}
			]}`
			w := postJSON(mux, "/sessions/telemetry", body)

			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
		})
	})
}

func TestReadersEndpoints(t *testing.T) {
	Convey("Given the readers endpoints", t, func() {
		deps := &mockDeps{
			acceptAll: true,
			stats: model.UserReadingStats{
				UserID:            "u1",
				TotalChaptersRead: 512,
				GenreCounts:       map[string]int{"action": 300, "romance": 150},
			},
			flair: model.FlairResult{Rank: "Binger", Genres: []string{"action", "romance"}},
		}
		mux := newTestServer(deps)

		Convey("When reading stats are fetched", func() {
			w := get(mux, "/readers/u1/stats")

			So(w.Code, ShouldEqual, http.StatusOK)
			var stats model.UserReadingStats
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats.TotalChaptersRead, ShouldEqual, 512)
		})

		Convey("When flair is fetched", func() {
			w := get(mux, "/readers/u1/flair")

			So(w.Code, ShouldEqual, http.StatusOK)
			var result model.FlairResult
			So(json.Unmarshal(w.Body.Bytes(), &result), ShouldBeNil)
			So(result.Rank, ShouldEqual, "Binger")
			So(result.Genres, ShouldResemble, []string{"action", "romance"})
		})

		Convey("When a manual flair override is set", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/readers/u1/flair",
				strings.NewReader(`{"genres":["horror","isekai"]}`))
			mux.ServeHTTP(w, req)

			Convey("Then it persists and returns the updated flair", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.overrideUser, ShouldEqual, "u1")
				So(deps.override, ShouldResemble, []string{"horror", "isekai"})
			})
		})

		Convey("When an override names more than three genres", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/readers/u1/flair",
				strings.NewReader(`{"genres":["a","b","c","d"]}`))
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the path is missing a resource segment", func() {
			So(get(mux, "/readers/u1").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the resource is unknown", func() {
			So(get(mux, "/readers/u1/badges").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		mux := newTestServer(&mockDeps{acceptAll: true})

		Convey("When health is probed", func() {
			w := get(mux, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When service stats are fetched", func() {
			w := get(mux, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("When metrics are scraped", func() {
			w := get(mux, "/metrics")
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}
