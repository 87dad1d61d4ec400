package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/valetivivek/comite/internal/adapters/storage"
	"github.com/valetivivek/comite/internal/config"
	"github.com/valetivivek/comite/pkg/logger"
	"github.com/valetivivek/comite/pkg/metrics"
	"github.com/valetivivek/comite/pkg/ratelimit"
)

// Identity headers for the signing endpoint.
const (
	headerRole   = "x-comite-role"
	headerSecret = "x-comite-secret"
)

// corsAllowMethods and corsAllowHeaders cover the subsequent direct PUT
// to object storage as well as the signing call itself.
const (
	corsAllowMethods = "GET,HEAD,PUT,POST,OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, x-amz-acl, x-amz-content-sha256, " +
		headerRole + ", " + headerSecret
)

// UploadHandler authorizes uploads and issues presigned URLs.
type UploadHandler struct {
	cfg     config.UploadConfig
	signer  storage.Signer
	limiter *ratelimit.Limiter
	logger  logger.Logger
}

// NewUploadHandler creates a new upload signing handler.
func NewUploadHandler(cfg config.UploadConfig, signer storage.Signer, limiter *ratelimit.Limiter) *UploadHandler {
	return &UploadHandler{
		cfg:     cfg,
		signer:  signer,
		limiter: limiter,
		logger:  logger.Get().Named("upload"),
	}
}

// signUploadRequest mirrors the POST /sign-upload body.
type signUploadRequest struct {
	ContentType   string `json:"contentType"`
	ObjectKey     string `json:"objectKey"`
	ContentLength int64  `json:"contentLength,omitempty"`
}

// HandleSignUpload handles POST /sign-upload requests. Each gate
// short-circuits with its own status so callers can tell apart method,
// rate, identity, role and payload failures.
func (h *UploadHandler) HandleSignUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.sign_upload"
	h.setCORS(w, r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		metrics.RecordSignRequest("method_not_allowed")
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	if ok, retryAfter := h.limiter.Allow(clientIP(r)); !ok {
		metrics.RecordRateLimited()
		metrics.RecordSignRequest("rate_limited")
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))
		writeError(w, http.StatusTooManyRequests, errors.New("too many requests"))
		return
	}

	role := r.Header.Get(headerRole)
	secret := r.Header.Get(headerSecret)
	if role == "" || secret == "" {
		metrics.RecordSignRequest("unauthorized")
		writeError(w, http.StatusUnauthorized, NewKind(op, ErrUnauthorized))
		return
	}
	if !h.roleAllowed(role) {
		metrics.RecordSignRequest("forbidden")
		writeError(w, http.StatusForbidden, NewKind(op, ErrForbidden))
		return
	}
	if h.cfg.Secret == "" || secret != h.cfg.Secret {
		metrics.RecordSignRequest("unauthorized")
		writeError(w, http.StatusUnauthorized, NewKind(op, ErrUnauthorized))
		return
	}

	var req signUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordSignRequest("bad_request")
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.validate(req); err != nil {
		metrics.RecordSignRequest("bad_request")
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	signed, err := h.signer.PresignUpload(r.Context(), req.ObjectKey, req.ContentType)
	if err != nil {
		// Signing failures carry credential detail; log it, return a
		// generic message.
		h.logger.Error(r.Context(), "presign failed",
			logger.String("key", req.ObjectKey),
			logger.Error(err),
		)
		metrics.RecordSignRequest("error")
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	metrics.RecordSignRequest("ok")
	writeJSON(w, http.StatusOK, signed)
}

// validate applies the payload policy: image MIME allow-list, a
// non-empty object key, and the advisory size cap.
func (h *UploadHandler) validate(req signUploadRequest) error {
	if strings.TrimSpace(req.ObjectKey) == "" {
		return errors.New("missing objectKey")
	}
	if strings.Contains(req.ObjectKey, "..") {
		return errors.New("invalid objectKey")
	}
	allowed := false
	for _, t := range h.cfg.AllowedTypes {
		if strings.EqualFold(t, req.ContentType) {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.New("contentType not allowed")
	}
	if req.ContentLength > h.cfg.MaxBytes {
		return errors.New("contentLength exceeds limit")
	}
	return nil
}

func (h *UploadHandler) roleAllowed(role string) bool {
	for _, allowed := range h.cfg.AllowedRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

// setCORS echoes an allow-listed Origin, or "*" when no allow-list is
// configured.
func (h *UploadHandler) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allow := "*"
	if len(h.cfg.AllowedOrigins) > 0 {
		allow = ""
		for _, o := range h.cfg.AllowedOrigins {
			if origin == o {
				allow = origin
				break
			}
		}
		if allow == "" {
			allow = h.cfg.AllowedOrigins[0]
		}
		w.Header().Set("Vary", "Origin")
	}
	w.Header().Set("Access-Control-Allow-Origin", allow)
	w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
	w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
