package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ReadersHandler serves per-reader statistics and flair.
type ReadersHandler struct {
	deps Dependencies
}

// NewReadersHandler creates a new readers handler.
func NewReadersHandler(deps Dependencies) *ReadersHandler {
	return &ReadersHandler{deps: deps}
}

// Handle dispatches /readers/{user_id}/stats and /readers/{user_id}/flair.
func (h *ReadersHandler) Handle(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/readers/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, ErrBadRequest)
		return
	}
	userID, resource := parts[0], parts[1]

	switch {
	case resource == "stats" && r.Method == http.MethodGet:
		h.handleStats(w, r, userID)
	case resource == "flair" && r.Method == http.MethodGet:
		h.handleGetFlair(w, r, userID)
	case resource == "flair" && r.Method == http.MethodPut:
		h.handlePutFlair(w, r, userID)
	default:
		http.NotFound(w, r)
	}
}

func (h *ReadersHandler) handleStats(w http.ResponseWriter, r *http.Request, userID string) {
	const op = "api.reader_stats"
	stats, err := h.deps.ReadingStats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ReadersHandler) handleGetFlair(w http.ResponseWriter, r *http.Request, userID string) {
	const op = "api.reader_flair"
	result, err := h.deps.Flair(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// flairOverrideRequest carries a manual genre selection.
type flairOverrideRequest struct {
	Genres []string `json:"genres"`
}

func (h *ReadersHandler) handlePutFlair(w http.ResponseWriter, r *http.Request, userID string) {
	const op = "api.set_flair"
	var req flairOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Genres) > 3 {
		writeError(w, http.StatusBadRequest, NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.SetFlairOverride(r.Context(), userID, req.Genres); err != nil {
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	result, err := h.deps.Flair(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
