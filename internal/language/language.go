// Package language holds the static list of translation target languages.
package language

import "strings"

// Language is a translation target offered to the user.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

var supported = []Language{
	{Code: "en", Name: "English", Flag: "🇺🇸"},
	{Code: "es", Name: "Spanish", Flag: "🇪🇸"},
	{Code: "fr", Name: "French", Flag: "🇫🇷"},
	{Code: "de", Name: "German", Flag: "🇩🇪"},
	{Code: "it", Name: "Italian", Flag: "🇮🇹"},
	{Code: "pt", Name: "Portuguese", Flag: "🇵🇹"},
	{Code: "hi", Name: "Hindi", Flag: "🇮🇳"},
	{Code: "ta", Name: "Tamil", Flag: "🇮🇳"},
	{Code: "te", Name: "Telugu", Flag: "🇮🇳"},
	{Code: "zh", Name: "Chinese", Flag: "🇨🇳"},
	{Code: "ja", Name: "Japanese", Flag: "🇯🇵"},
	{Code: "ko", Name: "Korean", Flag: "🇰🇷"},
	{Code: "ar", Name: "Arabic", Flag: "🇸🇦"},
	{Code: "ru", Name: "Russian", Flag: "🇷🇺"},
}

// All returns a copy of the supported languages, default first.
func All() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Default returns the language selected when the user has not chosen one.
func Default() Language {
	return supported[0]
}

// Lookup finds a language by code, case-insensitively.
func Lookup(code string) (Language, bool) {
	code = strings.TrimSpace(code)
	for _, l := range supported {
		if strings.EqualFold(l.Code, code) {
			return l, true
		}
	}
	return Language{}, false
}
