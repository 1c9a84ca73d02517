package app

import (
	"github.com/ayusman/mudra/internal/ai"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/language"
)

// EventType names an application event.
type EventType string

const (
	EventCamera    EventType = "camera"
	EventAnalyzing EventType = "analyzing"
	EventResult    EventType = "result"
	EventLanguage  EventType = "language"
)

// Event is a state change pushed to views.
type Event struct {
	Type      EventType             `json:"type"`
	Camera    *capture.Status       `json:"camera,omitempty"`
	Analyzing *bool                 `json:"analyzing,omitempty"`
	Result    *ai.TranslationResult `json:"result,omitempty"`
	Language  *language.Language    `json:"language,omitempty"`
}

// Subscribe registers fn to receive every event. Callbacks run on the
// goroutine that caused the event and must not block.
func (a *App) Subscribe(fn func(Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

func (a *App) emit(e Event) {
	a.mu.RLock()
	callbacks := a.callbacks
	a.mu.RUnlock()

	for _, fn := range callbacks {
		fn(e)
	}
}
