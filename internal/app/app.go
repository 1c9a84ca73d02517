// Package app wires the camera, the AI client and the settings store into the
// Mudra application.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ayusman/mudra/internal/ai"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/language"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/store"
)

// ErrUnknownLanguage is returned for language codes outside the supported list.
var ErrUnknownLanguage = errors.New("unknown language")

// Analyzer turns a captured frame into a translation.
type Analyzer interface {
	Analyze(ctx context.Context, imageDataURL, targetLanguage string) ai.TranslationResult
}

// Config holds configuration options for the application.
type Config struct {
	// Store persists the selected language. Optional.
	Store *store.Store
	// Device is the camera. A nil device makes the camera unsupported.
	Device capture.Device
	// Preview is the video sink. One is created when nil.
	Preview  *capture.Preview
	Analyzer Analyzer
	Camera   capture.ControllerConfig
}

// App is the main application: it owns the camera controller and runs the
// capture and translate flow.
type App struct {
	camera   *capture.Controller
	preview  *capture.Preview
	analyzer Analyzer
	settings *store.SettingsRepository

	mu        sync.RWMutex
	language  language.Language
	last      *ai.TranslationResult
	analyzing int
	callbacks []func(Event)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	preview := config.Preview
	if preview == nil {
		preview = capture.NewPreview(capture.DefaultFPS)
	}

	a := &App{
		preview:  preview,
		analyzer: config.Analyzer,
		language: language.Default(),
	}

	a.camera = capture.NewController(config.Device, preview, config.Camera)
	a.camera.OnStatusChange(func(s capture.Status) {
		a.emit(Event{Type: EventCamera, Camera: &s})
	})

	if config.Store != nil {
		a.settings = config.Store.Settings()
		a.loadLanguage()
	}

	return a
}

func (a *App) loadLanguage() {
	code, err := a.settings.Get(store.KeyLanguage)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("failed to load language", "module", "app", "action", "load", "error", err)
		}
		return
	}

	lang, ok := language.Lookup(code)
	if !ok {
		logger.Warn("stored language is not supported", "module", "app", "action", "load", "code", code)
		return
	}
	a.language = lang
}

// StartCamera starts the camera. A failed start is reflected in the camera
// status as well as returned.
func (a *App) StartCamera(ctx context.Context) error {
	return a.camera.Start(ctx)
}

// StopCamera stops the camera.
func (a *App) StopCamera() {
	a.camera.Stop()
}

// CameraStatus returns the current camera status.
func (a *App) CameraStatus() capture.Status {
	return a.camera.Status()
}

// Preview returns the video sink backing the live preview.
func (a *App) Preview() *capture.Preview {
	return a.preview
}

// Languages returns the supported languages.
func (a *App) Languages() []language.Language {
	return language.All()
}

// SelectedLanguage returns the language used for captures.
func (a *App) SelectedLanguage() language.Language {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.language
}

// SelectLanguage changes and persists the selected language.
func (a *App) SelectLanguage(code string) (language.Language, error) {
	lang, ok := language.Lookup(code)
	if !ok {
		return language.Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}

	if a.settings != nil {
		if err := a.settings.Set(store.KeyLanguage, lang.Code); err != nil {
			return language.Language{}, fmt.Errorf("failed to save language: %w", err)
		}
	}

	a.mu.Lock()
	a.language = lang
	a.mu.Unlock()

	logger.Info("language selected", "module", "app", "action", "select", "language", lang.Code)
	a.emit(Event{Type: EventLanguage, Language: &lang})
	return lang, nil
}

// CameraID returns the persisted camera index, or def when none is stored.
func (a *App) CameraID(def int) int {
	return cameraID(a.settings, def)
}

// StoredCameraID reads the persisted camera index from st before an App
// exists, so the device can be opened with it.
func StoredCameraID(st *store.Store, def int) int {
	if st == nil {
		return def
	}
	return cameraID(st.Settings(), def)
}

func cameraID(settings *store.SettingsRepository, def int) int {
	if settings == nil {
		return def
	}

	value, err := settings.GetOr(store.KeyCameraID, strconv.Itoa(def))
	if err != nil {
		logger.Warn("failed to load camera id", "module", "app", "action", "load", "error", err)
		return def
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 0 {
		return def
	}
	return id
}

// SetCameraID persists the camera index used on the next launch.
func (a *App) SetCameraID(id int) error {
	if id < 0 {
		return fmt.Errorf("invalid camera id %d", id)
	}
	if a.settings == nil {
		return nil
	}
	return a.settings.Set(store.KeyCameraID, strconv.Itoa(id))
}

// LastResult returns the most recent translation, if any.
func (a *App) LastResult() (ai.TranslationResult, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.last == nil {
		return ai.TranslationResult{}, false
	}
	return *a.last, true
}

// Analyzing reports whether a translation request is in flight.
func (a *App) Analyzing() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.analyzing > 0
}

// Close stops the camera and releases the preview.
func (a *App) Close() {
	a.camera.Close()
	a.preview.Close()
	logger.Info("app closed", "module", "app", "action", "close", "result", "ok")
}
