package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoJSON is returned when a reply contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in reply")

// ParseReply extracts the first JSON object from a free-text model reply and
// validates its fields. Missing or mistyped fields take their defaults. The
// returned result has no timestamp.
func ParseReply(reply string) (TranslationResult, error) {
	raw, err := extractObject(reply)
	if err != nil {
		return TranslationResult{}, err
	}

	obj := gjson.ParseBytes(raw)
	result := TranslationResult{
		DetectedGesture: DefaultGesture,
		Translation:     DefaultTranslation,
	}

	if v := obj.Get("detectedGesture"); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
		result.DetectedGesture = v.Str
	}
	if v := obj.Get("translation"); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
		result.Translation = v.Str
	}
	if v := obj.Get("confidence"); v.Type == gjson.Number {
		result.Confidence = ClampConfidence(v.Num)
	}

	return result, nil
}

// extractObject returns the first complete, valid JSON object in s. Models
// often wrap the object in prose or a markdown fence.
func extractObject(s string) ([]byte, error) {
	data := []byte(s)
	sawBrace := false

	for i := bytes.IndexByte(data, '{'); i >= 0; {
		sawBrace = true

		var obj json.RawMessage
		dec := json.NewDecoder(bytes.NewReader(data[i:]))
		if err := dec.Decode(&obj); err == nil && len(obj) > 0 && obj[0] == '{' {
			return obj, nil
		}

		next := bytes.IndexByte(data[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}

	if sawBrace {
		return nil, errors.New("reply contains no valid JSON object")
	}
	return nil, ErrNoJSON
}
