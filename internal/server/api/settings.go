package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/language"
)

// SettingsService reads and changes persisted settings.
type SettingsService interface {
	SelectedLanguage() language.Language
	SelectLanguage(code string) (language.Language, error)
	CameraID(def int) int
	SetCameraID(id int) error
}

// SettingsHandler handles GET and PUT /api/settings.
type SettingsHandler struct {
	service         SettingsService
	defaultCameraID int
}

// NewSettingsHandler creates a new SettingsHandler. defaultCameraID is
// reported when no camera has been chosen.
func NewSettingsHandler(service SettingsService, defaultCameraID int) *SettingsHandler {
	return &SettingsHandler{service: service, defaultCameraID: defaultCameraID}
}

type settingsResponse struct {
	Language string `json:"language"`
	CameraID int    `json:"cameraId"`
}

type updateSettingsRequest struct {
	Language *string `json:"language"`
	CameraID *int    `json:"cameraId"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.current())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) current() settingsResponse {
	return settingsResponse{
		Language: h.service.SelectedLanguage().Code,
		CameraID: h.service.CameraID(h.defaultCameraID),
	}
}

// update handles PUT /api/settings. A camera change applies on the next launch.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Language == nil && req.CameraID == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.CameraID != nil {
		if *req.CameraID < 0 {
			writeError(w, http.StatusBadRequest, "cameraId must not be negative")
			return
		}
		if err := h.service.SetCameraID(*req.CameraID); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	if req.Language != nil {
		if _, err := h.service.SelectLanguage(*req.Language); err != nil {
			if errors.Is(err, app.ErrUnknownLanguage) {
				writeError(w, http.StatusBadRequest, "unsupported language")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	writeJSON(w, http.StatusOK, h.current())
}
