package ai

import (
	"math"
	"time"
)

// Defaults for reply fields that are missing or of the wrong type.
const (
	DefaultGesture     = "Unknown gesture"
	DefaultTranslation = "Unable to translate"
)

// Fallback values reported when analysis fails altogether.
const (
	FallbackGesture     = "Error analyzing gesture"
	FallbackTranslation = "Unable to process at this time"
)

// TranslationResult is the outcome of one analysis round trip.
type TranslationResult struct {
	DetectedGesture string `json:"detectedGesture"`
	Translation     string `json:"translation"`
	Confidence      int    `json:"confidence"`
	Timestamp       int64  `json:"timestamp"`
}

// Fallback returns the fixed result for a failed analysis completed at ts.
func Fallback(ts time.Time) TranslationResult {
	return TranslationResult{
		DetectedGesture: FallbackGesture,
		Translation:     FallbackTranslation,
		Confidence:      0,
		Timestamp:       ts.UnixMilli(),
	}
}

// ClampConfidence rounds v to an integer percentage within [0,100].
func ClampConfidence(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
