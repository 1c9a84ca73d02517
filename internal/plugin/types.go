// Package plugin runs external hook executables when Mudra produces a
// translation, for example to speak it aloud or forward it to another app.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// The executable receives one JSON Request on stdin and answers with one
// JSON Response on stdout.
package plugin

import (
	"encoding/json"

	"github.com/ayusman/mudra/internal/ai"
)

// EventResult is sent after every completed translation.
const EventResult = "result"

// Manifest describes a plugin's metadata and the events it handles.
// An empty Events list subscribes to every event.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is the payload written to a plugin's stdin.
type Request struct {
	Event    string                `json:"event"`
	Language string                `json:"language,omitempty"`
	Result   *ai.TranslationResult `json:"result,omitempty"`
	Config   json.RawMessage       `json:"config,omitempty"`
}

// Response is what a plugin writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribed to event.
func (p *Plugin) Handles(event string) bool {
	if len(p.Manifest.Events) == 0 {
		return true
	}
	for _, e := range p.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
