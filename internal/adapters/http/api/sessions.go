package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/valetivivek/comite/internal/adapters/catalog"
)

// SessionsHandler handles reading-session lifecycle requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// sessionRequest identifies one (user, chapter) viewing session.
type sessionRequest struct {
	UserID    string `json:"user_id"`
	ChapterID string `json:"chapter_id"`
}

func (s sessionRequest) validate() error {
	switch {
	case strings.TrimSpace(s.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(s.ChapterID) == "":
		return errors.New("missing chapter_id")
	}
	return nil
}

// HandleStart handles POST /sessions/start requests.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.StartReading(r.Context(), req.UserID, req.ChapterID); err != nil {
		if errors.Is(err, catalog.ErrChapterUnknown) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

// HandleEnd handles POST /sessions/end requests. The response reports
// whether the session counted as a valid read.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_end"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	valid, err := h.deps.EndReading(r.Context(), req.UserID, req.ChapterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}
