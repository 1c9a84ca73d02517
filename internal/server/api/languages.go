package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/language"
)

// LanguageService lists translation targets.
type LanguageService interface {
	Languages() []language.Language
	SelectedLanguage() language.Language
}

// LanguagesHandler handles GET /api/languages.
type LanguagesHandler struct {
	service LanguageService
}

// NewLanguagesHandler creates a new LanguagesHandler.
func NewLanguagesHandler(service LanguageService) *LanguagesHandler {
	return &LanguagesHandler{service: service}
}

type languagesResponse struct {
	Languages []language.Language `json:"languages"`
	Selected  string              `json:"selected"`
}

func (h *LanguagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, languagesResponse{
		Languages: h.service.Languages(),
		Selected:  h.service.SelectedLanguage().Code,
	})
}
