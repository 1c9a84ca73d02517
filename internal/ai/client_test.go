package ai_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/ai"
)

// fakeProvider returns a scripted reply and records what it was asked.
type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	prompts []string
	images  []ai.Image
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Describe(ctx context.Context, prompt string, img ai.Image) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, img)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestClient_AnalyzeSpanish(t *testing.T) {
	provider := &fakeProvider{reply: `{"detectedGesture":"Flat hand moving from chin","translation":"Gracias","confidence":91}`}
	client := ai.NewClient(provider, ai.WithClock(fixedClock(1_700_000_000_000)))

	got := client.Analyze(context.Background(), tinyJPEG, "Spanish")

	require.Equal(t, ai.TranslationResult{
		DetectedGesture: "Flat hand moving from chin",
		Translation:     "Gracias",
		Confidence:      91,
		Timestamp:       1_700_000_000_000,
	}, got)

	require.Equal(t, 1, provider.calls())
	require.Contains(t, provider.prompts[0], "Spanish")
	require.Equal(t, "image/jpeg", provider.images[0].MIMEType)
	require.Equal(t, "/9j/4AAQSkZJRg==", provider.images[0].Data)
}

func TestClient_MalformedReplyFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose only", "Sorry, I can't help with that."},
		{"broken json", `{"detectedGesture": "Wave", "confidence": }`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := ai.NewClient(&fakeProvider{reply: tt.reply}, ai.WithClock(fixedClock(42)))

			got := client.Analyze(context.Background(), tinyJPEG, "English")
			require.Equal(t, ai.Fallback(time.UnixMilli(42)), got)
		})
	}
}

func TestClient_ProviderErrorFallsBack(t *testing.T) {
	client := ai.NewClient(&fakeProvider{err: errors.New("quota exceeded")}, ai.WithClock(fixedClock(7)))

	got := client.Analyze(context.Background(), tinyJPEG, "English")
	require.Equal(t, ai.FallbackGesture, got.DetectedGesture)
	require.Equal(t, ai.FallbackTranslation, got.Translation)
	require.Zero(t, got.Confidence)
	require.Equal(t, int64(7), got.Timestamp)
}

func TestClient_InvalidImageSkipsProvider(t *testing.T) {
	provider := &fakeProvider{reply: `{"detectedGesture":"A","translation":"A","confidence":1}`}
	client := ai.NewClient(provider)

	got := client.Analyze(context.Background(), "not a data url", "English")
	require.Equal(t, ai.FallbackGesture, got.DetectedGesture)
	require.Zero(t, provider.calls())
}

func TestClient_ConfidenceAlwaysInRange(t *testing.T) {
	for _, reply := range []string{
		`{"detectedGesture":"A","translation":"B","confidence":1000}`,
		`{"detectedGesture":"A","translation":"B","confidence":-50}`,
		`{"detectedGesture":"A","translation":"B","confidence":0.0001}`,
	} {
		got := ai.NewClient(&fakeProvider{reply: reply}).Analyze(context.Background(), tinyJPEG, "English")
		require.GreaterOrEqual(t, got.Confidence, 0)
		require.LessOrEqual(t, got.Confidence, 100)
	}
}

func TestClient_Timeout(t *testing.T) {
	provider := &fakeProvider{reply: `{}`, delay: time.Second}
	client := ai.NewClient(provider, ai.WithTimeout(20*time.Millisecond))

	start := time.Now()
	got := client.Analyze(context.Background(), tinyJPEG, "English")
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.Equal(t, ai.FallbackGesture, got.DetectedGesture)
}

func TestClient_CancelledWhileRateLimited(t *testing.T) {
	provider := &fakeProvider{reply: `{"detectedGesture":"A","translation":"B","confidence":5}`}
	limiter := ai.NewRateLimiter(1)
	client := ai.NewClient(provider, ai.WithRateLimiter(limiter))

	// Drain the single token.
	first := client.Analyze(context.Background(), tinyJPEG, "English")
	require.Equal(t, "A", first.DetectedGesture)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	got := client.Analyze(ctx, tinyJPEG, "English")
	require.Equal(t, ai.FallbackGesture, got.DetectedGesture)
	require.Equal(t, 1, provider.calls())
}

func TestOpenAIProvider_Describe(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") || r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}

		data, _ := io.ReadAll(r.Body)
		body = string(data)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gemini-2.0-flash-exp",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant",
			"content":"{\"detectedGesture\":\"Wave\",\"translation\":\"Hola\",\"confidence\":80}"}}]}`)
	}))
	defer srv.Close()

	p, err := ai.NewProvider(ai.Config{
		Provider: ai.ProviderGemini,
		APIKey:   "test-key",
		BaseURL:  srv.URL + "/v1beta/openai/",
		Model:    "gemini-2.0-flash-exp",
	})
	require.NoError(t, err)

	got := ai.NewClient(p).Analyze(context.Background(), tinyJPEG, "Spanish")
	require.Equal(t, "Wave", got.DetectedGesture)
	require.Equal(t, "Hola", got.Translation)
	require.Equal(t, 80, got.Confidence)

	require.Contains(t, body, `"image_url"`)
	require.Contains(t, body, "data:image/jpeg;base64,/9j/4AAQSkZJRg==")
	require.Contains(t, body, "Translate it to Spanish")
}

func TestAnthropicProvider_Describe(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}

		data, _ := io.ReadAll(r.Body)
		body = string(data)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"{\"detectedGesture\":\"Fist\",\"translation\":\"Oui\",\"confidence\":64}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":10}}`)
	}))
	defer srv.Close()

	p, err := ai.NewProvider(ai.Config{
		Provider: ai.ProviderAnthropic,
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Model:    "claude-sonnet-4-5",
	})
	require.NoError(t, err)

	got := ai.NewClient(p).Analyze(context.Background(), tinyJPEG, "French")
	require.Equal(t, "Fist", got.DetectedGesture)
	require.Equal(t, "Oui", got.Translation)
	require.Equal(t, 64, got.Confidence)

	require.Contains(t, body, `"media_type":"image/jpeg"`)
	require.Contains(t, body, `"data":"/9j/4AAQSkZJRg=="`)
}
