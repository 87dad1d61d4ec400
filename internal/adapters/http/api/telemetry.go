package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/valetivivek/comite/internal/domain/model"
)

// maxTelemetryBatch bounds one beacon submission.
const maxTelemetryBatch = 100

// TelemetryHandler ingests reading beacons.
type TelemetryHandler struct {
	deps Dependencies
}

// NewTelemetryHandler creates a new telemetry handler.
func NewTelemetryHandler(deps Dependencies) *TelemetryHandler {
	return &TelemetryHandler{deps: deps}
}

// telemetryEvent mirrors one beacon in the request body.
type telemetryEvent struct {
	UserID    string  `json:"user_id"`
	ChapterID string  `json:"chapter_id"`
	Kind      string  `json:"kind"`
	ScrollPct float64 `json:"scroll_pct,omitempty"`
	ImageID   string  `json:"image_id,omitempty"`
	TS        string  `json:"ts,omitempty"`
}

func (e telemetryEvent) validate() error {
	switch {
	case strings.TrimSpace(e.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(e.ChapterID) == "":
		return errors.New("missing chapter_id")
	}
	switch e.Kind {
	case model.TelemetryActivity, model.TelemetryScroll, model.TelemetryImageSeen:
	default:
		return errors.New("unknown kind")
	}
	if e.Kind == model.TelemetryImageSeen && strings.TrimSpace(e.ImageID) == "" {
		return errors.New("missing image_id")
	}
	return nil
}

type telemetryRequest struct {
	Events []telemetryEvent `json:"events"`
}

type telemetryAck struct {
	Accepted int `json:"accepted"`
}

// HandlePost handles POST /sessions/telemetry requests. Beacons are
// queued for async application; a full queue rejects the whole batch.
func (h *TelemetryHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.telemetry"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req telemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Events) == 0 || len(req.Events) > maxTelemetryBatch {
		writeError(w, http.StatusBadRequest, NewKind(op, ErrBadRequest))
		return
	}
	for _, e := range req.Events {
		if err := e.validate(); err != nil {
			writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	accepted := 0
	for _, e := range req.Events {
		at, _ := time.Parse(time.RFC3339, e.TS)
		ok := h.deps.SubmitTelemetry(r.Context(), model.TelemetryEvent{
			UserID:    e.UserID,
			ChapterID: e.ChapterID,
			Kind:      e.Kind,
			ScrollPct: e.ScrollPct,
			ImageID:   e.ImageID,
			At:        at,
		})
		if !ok {
			writeError(w, http.StatusTooManyRequests, NewKind(op, ErrBackpressure))
			return
		}
		accepted++
	}
	writeJSON(w, http.StatusAccepted, telemetryAck{Accepted: accepted})
}
