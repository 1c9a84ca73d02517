package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/ai"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
)

// CaptureService captures and translates the current frame.
type CaptureService interface {
	Capture(ctx context.Context, code string) (ai.TranslationResult, error)
	LastResult() (ai.TranslationResult, bool)
}

// CaptureHandler handles /api/capture.
type CaptureHandler struct {
	service CaptureService
}

// NewCaptureHandler creates a new CaptureHandler.
func NewCaptureHandler(service CaptureService) *CaptureHandler {
	return &CaptureHandler{service: service}
}

type captureRequest struct {
	Language string `json:"language"`
}

// ServeHTTP handles GET (last result) and POST (new capture).
func (h *CaptureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.last(w)
	case http.MethodPost:
		h.capture(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CaptureHandler) last(w http.ResponseWriter) {
	result, ok := h.service.LastResult()
	if !ok {
		writeError(w, http.StatusNotFound, "no translation yet")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CaptureHandler) capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.Capture(r.Context(), req.Language)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, capture.ErrNotReady):
		writeError(w, http.StatusConflict, "camera is not ready for capture")
	case errors.Is(err, app.ErrUnknownLanguage):
		writeError(w, http.StatusBadRequest, "unsupported language")
	case errors.Is(err, app.ErrNoAnalyzer):
		writeError(w, http.StatusServiceUnavailable, "translation service not configured")
	default:
		writeError(w, http.StatusInternalServerError, "capture failed")
	}
}
