// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valetivivek/comite/internal/adapters/storage"
	"github.com/valetivivek/comite/internal/config"
	"github.com/valetivivek/comite/internal/domain/model"
	"github.com/valetivivek/comite/pkg/ratelimit"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the app service.
type Dependencies interface {
	// StartReading begins a tracked session for a chapter view.
	StartReading(ctx context.Context, userID, chapterID string) error

	// EndReading closes the session and returns the validity verdict.
	EndReading(ctx context.Context, userID, chapterID string) (bool, error)

	// SubmitTelemetry pushes a beacon for async processing.
	// Returns false on backpressure.
	SubmitTelemetry(ctx context.Context, e model.TelemetryEvent) bool

	// ReadingStats returns a user's durable reading record.
	ReadingStats(ctx context.Context, userID string) (model.UserReadingStats, error)

	// Flair returns a user's derived rank and genre labels.
	Flair(ctx context.Context, userID string) (model.FlairResult, error)

	// SetFlairOverride persists a manual genre selection (nil clears it).
	SetFlairOverride(ctx context.Context, userID string, genres []string) error
}

// Server wires HTTP routes for the reading API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	sessionsHandler  *SessionsHandler
	telemetryHandler *TelemetryHandler
	readersHandler   *ReadersHandler
	uploadHandler    *UploadHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, uploadCfg config.UploadConfig, signer storage.Signer, limiter *ratelimit.Limiter) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		sessionsHandler:  NewSessionsHandler(deps),
		telemetryHandler: NewTelemetryHandler(deps),
		readersHandler:   NewReadersHandler(deps),
		uploadHandler:    NewUploadHandler(uploadCfg, signer, limiter),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions/start", MetricsMiddleware(s.sessionsHandler.HandleStart, "sessions_start"))
	mux.HandleFunc("/sessions/end", MetricsMiddleware(s.sessionsHandler.HandleEnd, "sessions_end"))
	mux.HandleFunc("/sessions/telemetry", MetricsMiddleware(s.telemetryHandler.HandlePost, "sessions_telemetry"))
	mux.HandleFunc("/readers/", MetricsMiddleware(s.readersHandler.Handle, "readers"))
	mux.HandleFunc("/sign-upload", MetricsMiddleware(s.uploadHandler.HandleSignUpload, "sign_upload"))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
