package ai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for the OpenAI chat completions API and
// services that speak it, Gemini's compatibility endpoint included.
type OpenAIProvider struct {
	client    openai.Client
	name      string
	model     string
	maxTokens int
}

// NewOpenAIProvider creates a chat completions provider reported as name.
func NewOpenAIProvider(name, apiKey, baseURL, model string, maxTokens int) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		name:      name,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Describe sends the prompt and the image as one user message.
func (p *OpenAIProvider) Describe(ctx context.Context, prompt string, img Image) (string, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: img.DataURL(),
		}),
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
		MaxTokens: openai.Int(int64(p.maxTokens)),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
