package ai

import (
	"context"
	"errors"
)

// Provider sends a prompt and an image to a vision model and returns its
// free-text reply.
type Provider interface {
	// Name returns the provider name.
	Name() string
	// Describe asks the model about img using prompt.
	Describe(ctx context.Context, prompt string, img Image) (string, error)
}

// Config holds the configuration for an AI provider.
type Config struct {
	Provider string // gemini, openai, compatible, anthropic
	APIKey   string
	BaseURL  string // optional except for compatible
	Model    string
	// MaxTokens caps the reply length. Zero uses DefaultMaxTokens.
	MaxTokens int
}

// ProviderType constants
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderCompatible = "compatible"
	ProviderAnthropic  = "anthropic"
)

// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// DefaultMaxTokens is enough for the small JSON object the prompt asks for.
const DefaultMaxTokens = 512

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrMissingAPIKey   = errors.New("API key is required")
	ErrMissingBaseURL  = errors.New("base URL is required for compatible provider")
	ErrMissingModel    = errors.New("model is required")
)

// NewProvider creates a new AI provider based on the config.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch cfg.Provider {
	case ProviderGemini:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = GeminiBaseURL
		}
		return NewOpenAIProvider(ProviderGemini, cfg.APIKey, baseURL, cfg.Model, cfg.MaxTokens), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(ProviderOpenAI, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens), nil
	case ProviderCompatible:
		if cfg.BaseURL == "" {
			return nil, ErrMissingBaseURL
		}
		return NewOpenAIProvider(ProviderCompatible, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens), nil
	default:
		return nil, ErrInvalidProvider
	}
}
