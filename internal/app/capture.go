package app

import (
	"context"
	"errors"

	"github.com/ayusman/mudra/internal/ai"
	"github.com/ayusman/mudra/internal/language"
	"github.com/ayusman/mudra/internal/logger"
)

// ErrNoAnalyzer is returned by Capture when the app has no AI client.
var ErrNoAnalyzer = errors.New("no analyzer configured")

// Capture grabs the current frame and translates it into the language with
// the given code, or the selected language when code is empty. It returns
// capture.ErrNotReady without contacting the AI service when no frame is
// available.
//
// Captures run independently; a new capture does not cancel one in flight.
func (a *App) Capture(ctx context.Context, code string) (ai.TranslationResult, error) {
	lang := a.SelectedLanguage()
	if code != "" {
		l, ok := language.Lookup(code)
		if !ok {
			return ai.TranslationResult{}, ErrUnknownLanguage
		}
		lang = l
	}

	if a.analyzer == nil {
		return ai.TranslationResult{}, ErrNoAnalyzer
	}

	img, err := a.camera.Capture()
	if err != nil {
		logger.Warn("capture skipped", "module", "app", "action", "capture", "result", "not_ready", "error", err)
		return ai.TranslationResult{}, err
	}

	a.setAnalyzing(1)
	result := a.analyzer.Analyze(ctx, img, lang.Name)
	a.setAnalyzing(-1)

	a.mu.Lock()
	a.last = &result
	a.mu.Unlock()

	a.emit(Event{Type: EventResult, Result: &result, Language: &lang})
	return result, nil
}

func (a *App) setAnalyzing(delta int) {
	a.mu.Lock()
	a.analyzing += delta
	busy := a.analyzing > 0
	a.mu.Unlock()

	a.emit(Event{Type: EventAnalyzing, Analyzing: &busy})
}
