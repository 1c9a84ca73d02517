// Package main provides a Mudra plugin that speaks translations aloud.
// It uses say on macOS, espeak on Linux and System.Speech on Windows.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event    string          `json:"event"`
	Language string          `json:"language"`
	Result   *Result         `json:"result"`
	Config   json.RawMessage `json:"config"`
}

// Result mirrors the translation result sent by Mudra.
type Result struct {
	DetectedGesture string `json:"detectedGesture"`
	Translation     string `json:"translation"`
	Confidence      int    `json:"confidence"`
	Timestamp       int64  `json:"timestamp"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from the manifest.
type Config struct {
	MinConfidence int `json:"minConfidence"`
}

// placeholders are never spoken.
var placeholders = map[string]bool{
	"Unable to translate":            true,
	"Unable to process at this time": true,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "result" || req.Result == nil {
		writeSkipped("no result")
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	text := strings.TrimSpace(req.Result.Translation)
	if text == "" || placeholders[text] {
		writeSkipped("nothing to say")
		return
	}
	if req.Result.Confidence < cfg.MinConfidence {
		writeSkipped("low confidence")
		return
	}

	if err := speak(text); err != nil {
		writeErrorResponse(fmt.Sprintf("speak failed: %v", err))
		return
	}

	writeSuccessResponse(nil)
}

// speak runs the platform speech command.
func speak(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("say", text)
	case "windows":
		script := "Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak($args[0])"
		cmd = exec.Command("powershell", "-NoProfile", "-Command", script, text)
	default:
		cmd = exec.Command("espeak", text)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSkipped reports success without speaking.
func writeSkipped(reason string) {
	data, _ := json.Marshal(map[string]string{"skipped": reason})
	writeSuccessResponse(data)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data json.RawMessage) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}
