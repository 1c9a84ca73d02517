package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/ai"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

// fakeGemini answers chat completions in the language named by the prompt.
func fakeGemini(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "unexpected path", http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "data:image/jpeg;base64,") {
			http.Error(w, "missing image", http.StatusBadRequest)
			return
		}

		translation := "Hello"
		if strings.Contains(string(body), "Spanish") {
			translation = "Hola"
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-e2e","object":"chat.completion","created":1,"model":"gemini-2.0-flash-exp",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant",
			"content":"Here you go:\n{\"detectedGesture\":\"Open palm wave\",\"translation\":\"`+translation+`\",\"confidence\":91}"}}]}`)
	}))
}

// recordingHook installs a plugin that copies its request to received.json.
func recordingHook(t *testing.T, dir string) string {
	t.Helper()

	hookDir := filepath.Join(dir, "record")
	if err := os.MkdirAll(hookDir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}
	script := "#!/bin/sh\ncat > received.json\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(hookDir, "record.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write hook: %v", err)
	}
	manifest := `{"name":"record","version":"1.0.0","executable":"record.sh","events":["result"]}`
	if err := os.WriteFile(filepath.Join(hookDir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return filepath.Join(hookDir, "received.json")
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("hook script needs a POSIX shell")
	}

	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	gemini := fakeGemini(t)
	defer gemini.Close()

	provider, err := ai.NewProvider(ai.Config{
		Provider: ai.ProviderGemini,
		APIKey:   "e2e-key",
		BaseURL:  gemini.URL + "/v1beta/openai/",
		Model:    "gemini-2.0-flash-exp",
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	client := ai.NewClient(provider, ai.WithRateLimiter(ai.NewRateLimiter(100)), ai.WithTimeout(5*time.Second))

	preview := capture.NewPreview(30)
	preview.Mount()

	application := app.New(app.Config{
		Store:    s,
		Device:   capture.NewMockDevice(640, 480),
		Preview:  preview,
		Analyzer: client,
		Camera:   capture.ControllerConfig{AttachDelay: time.Millisecond, FallbackDelay: time.Millisecond},
	})
	defer application.Close()

	pluginDir := filepath.Join(tmpDir, "plugins")
	received := recordingHook(t, pluginDir)
	manager := plugin.NewManager(pluginDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	hooks := plugin.NewDispatcher(manager, plugin.NewExecutor(5*time.Second), 0)
	defer hooks.Close()
	application.Subscribe(func(e app.Event) {
		if e.Type == app.EventResult {
			hooks.Notify(plugin.Request{Event: plugin.EventResult, Language: e.Language.Name, Result: e.Result})
		}
	})

	srv := server.New(server.Config{App: application, Preview: preview})
	ts := httptest.NewServer(srv)
	defer func() {
		srv.Shutdown(context.Background())
		ts.Close()
	}()

	httpClient := ts.Client()

	t.Run("StartCamera", func(t *testing.T) {
		resp, err := httpClient.Post(ts.URL+"/api/camera/start", "application/json", nil)
		if err != nil {
			t.Fatalf("start camera error = %v", err)
		}
		defer resp.Body.Close()

		var status capture.Status
		json.NewDecoder(resp.Body).Decode(&status)
		if resp.StatusCode != http.StatusOK || status.State != capture.StateActive {
			t.Fatalf("start = %d %+v, want 200 active", resp.StatusCode, status)
		}
	})

	t.Run("SelectSpanish", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(`{"language":"es"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := httpClient.Do(req)
		if err != nil {
			t.Fatalf("put settings error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	var result ai.TranslationResult
	t.Run("CaptureAndTranslate", func(t *testing.T) {
		before := time.Now().UnixMilli()

		resp, err := httpClient.Post(ts.URL+"/api/capture", "application/json", strings.NewReader(`{}`))
		if err != nil {
			t.Fatalf("capture error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decode error = %v", err)
		}

		if result.Translation != "Hola" {
			t.Errorf("translation = %q, want Hola", result.Translation)
		}
		if result.DetectedGesture != "Open palm wave" {
			t.Errorf("detectedGesture = %q", result.DetectedGesture)
		}
		if result.Confidence != 91 {
			t.Errorf("confidence = %d, want 91", result.Confidence)
		}
		if result.Timestamp < before {
			t.Errorf("timestamp %d predates the request (%d)", result.Timestamp, before)
		}
	})

	t.Run("HookReceivesResult", func(t *testing.T) {
		var data []byte
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if b, err := os.ReadFile(received); err == nil && len(b) > 0 {
				data = b
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if data == nil {
			t.Fatal("hook never received the result")
		}

		var req plugin.Request
		if err := json.Unmarshal(data, &req); err != nil {
			t.Fatalf("hook payload error = %v: %s", err, data)
		}
		if req.Event != plugin.EventResult || req.Language != "Spanish" {
			t.Errorf("hook request = %+v", req)
		}
		if req.Result == nil || req.Result.Translation != "Hola" {
			t.Errorf("hook result = %+v", req.Result)
		}
	})

	t.Run("LastResult", func(t *testing.T) {
		resp, err := httpClient.Get(ts.URL + "/api/capture")
		if err != nil {
			t.Fatalf("get capture error = %v", err)
		}
		defer resp.Body.Close()

		var last ai.TranslationResult
		json.NewDecoder(resp.Body).Decode(&last)
		if last != result {
			t.Errorf("last = %+v, want %+v", last, result)
		}
	})

	t.Run("StopCamera", func(t *testing.T) {
		resp, err := httpClient.Post(ts.URL+"/api/camera/stop", "application/json", nil)
		if err != nil {
			t.Fatalf("stop camera error = %v", err)
		}
		resp.Body.Close()

		resp, err = httpClient.Post(ts.URL+"/api/capture", "application/json", nil)
		if err != nil {
			t.Fatalf("capture error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("capture after stop status = %d, want %d", resp.StatusCode, http.StatusConflict)
		}
	})

	t.Run("LanguageSurvivesRestart", func(t *testing.T) {
		restarted := app.New(app.Config{Store: s, Device: capture.NewMockDevice(640, 480)})
		defer restarted.Close()

		if got := restarted.SelectedLanguage().Code; got != "es" {
			t.Errorf("SelectedLanguage() after restart = %q, want es", got)
		}
	})
}
