package ai_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/ai"
)

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{42, 42},
		{99.5, 100},
		{49.4, 49},
		{100, 100},
		{100.2, 100},
		{-0.4, 0},
		{-12, 0},
		{1e9, 100},
		{math.Inf(1), 100},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ai.ClampConfidence(tt.in), "ClampConfidence(%v)", tt.in)
	}
}

func TestFallback(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_123)

	got := ai.Fallback(ts)
	require.Equal(t, ai.TranslationResult{
		DetectedGesture: "Error analyzing gesture",
		Translation:     "Unable to process at this time",
		Confidence:      0,
		Timestamp:       1_700_000_000_123,
	}, got)
}
