package ai_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/ai"
)

func TestParseReply_Valid(t *testing.T) {
	got, err := ai.ParseReply(`{"detectedGesture":"Open palm wave","translation":"Hola","confidence":87}`)
	require.NoError(t, err)
	require.Equal(t, "Open palm wave", got.DetectedGesture)
	require.Equal(t, "Hola", got.Translation)
	require.Equal(t, 87, got.Confidence)
	require.Zero(t, got.Timestamp)
}

func TestParseReply_WrappedInProse(t *testing.T) {
	reply := "Here is the analysis:\n```json\n{\n  \"detectedGesture\": \"Thumbs up\",\n  \"translation\": \"Bien\",\n  \"confidence\": 72.6\n}\n```\nLet me know if you need more."

	got, err := ai.ParseReply(reply)
	require.NoError(t, err)
	require.Equal(t, "Thumbs up", got.DetectedGesture)
	require.Equal(t, "Bien", got.Translation)
	require.Equal(t, 73, got.Confidence)
}

func TestParseReply_FirstValidObject(t *testing.T) {
	reply := `Note {not json} then {"detectedGesture":"A","translation":"B","confidence":10} and {"detectedGesture":"C"}`

	got, err := ai.ParseReply(reply)
	require.NoError(t, err)
	require.Equal(t, "A", got.DetectedGesture)
	require.Equal(t, 10, got.Confidence)
}

func TestParseReply_NestedBraces(t *testing.T) {
	got, err := ai.ParseReply(`{"detectedGesture":"Letter {B}","translation":"B","confidence":50,"extra":{"x":1}}`)
	require.NoError(t, err)
	require.Equal(t, "Letter {B}", got.DetectedGesture)
}

func TestParseReply_Defaults(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		gesture     string
		translation string
		confidence  int
	}{
		{"empty object", `{}`, ai.DefaultGesture, ai.DefaultTranslation, 0},
		{"empty strings", `{"detectedGesture":"","translation":"  ","confidence":40}`, ai.DefaultGesture, ai.DefaultTranslation, 40},
		{"wrong types", `{"detectedGesture":42,"translation":true,"confidence":"85"}`, ai.DefaultGesture, ai.DefaultTranslation, 0},
		{"null confidence", `{"detectedGesture":"Fist","translation":"A","confidence":null}`, "Fist", "A", 0},
		{"over range", `{"detectedGesture":"Fist","translation":"A","confidence":250}`, "Fist", "A", 100},
		{"under range", `{"detectedGesture":"Fist","translation":"A","confidence":-3}`, "Fist", "A", 0},
		{"no sign", `{"detectedGesture":"No clear sign detected","translation":"Please make a clear sign language gesture","confidence":0}`, ai.NoSignGesture, "Please make a clear sign language gesture", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ai.ParseReply(tt.reply)
			require.NoError(t, err)
			require.Equal(t, tt.gesture, got.DetectedGesture)
			require.Equal(t, tt.translation, got.Translation)
			require.Equal(t, tt.confidence, got.Confidence)
		})
	}
}

func TestParseReply_NoJSON(t *testing.T) {
	_, err := ai.ParseReply("I cannot see any hands in this picture.")
	require.True(t, errors.Is(err, ai.ErrNoJSON))
}

func TestParseReply_InvalidJSON(t *testing.T) {
	_, err := ai.ParseReply(`{"detectedGesture": "Wave", "translation": }`)
	require.Error(t, err)
}

func TestParseReply_TopLevelArrayIgnored(t *testing.T) {
	_, err := ai.ParseReply(`[1, 2, 3]`)
	require.ErrorIs(t, err, ai.ErrNoJSON)
}
