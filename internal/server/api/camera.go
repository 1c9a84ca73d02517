package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/capture"
)

// CameraService controls the camera.
type CameraService interface {
	StartCamera(ctx context.Context) error
	StopCamera()
	CameraStatus() capture.Status
}

// CameraHandler handles /api/camera, /api/camera/start and /api/camera/stop.
type CameraHandler struct {
	camera CameraService
}

// NewCameraHandler creates a new CameraHandler.
func NewCameraHandler(camera CameraService) *CameraHandler {
	return &CameraHandler{camera: camera}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *CameraHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/camera")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.camera.CameraStatus())
	case "start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	case "stop":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.camera.StopCamera()
		writeJSON(w, http.StatusOK, h.camera.CameraStatus())
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// start handles POST /api/camera/start. It doubles as the retry action after
// a failure. Camera failures answer 503 with the failed status as the body.
func (h *CameraHandler) start(w http.ResponseWriter, r *http.Request) {
	if err := h.camera.StartCamera(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, h.camera.CameraStatus())
		return
	}
	writeJSON(w, http.StatusOK, h.camera.CameraStatus())
}
