package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/ai"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

const shutdownTimeout = 5 * time.Second

func main() {
	fmt.Println("Mudra - Sign Language Translator")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	provider, err := ai.NewProvider(ai.Config{
		Provider: cfg.AIProvider,
		APIKey:   cfg.AIAPIKey,
		BaseURL:  cfg.AIBaseURL,
		Model:    cfg.AIModel,
	})
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	analyzer := ai.NewClient(provider,
		ai.WithRateLimiter(ai.NewRateLimiter(cfg.AIQPS)),
		ai.WithTimeout(cfg.AITimeout),
	)

	cameraID := app.StoredCameraID(st, cfg.CameraID)
	preview := capture.NewPreview(capture.DefaultFPS)
	application := app.New(app.Config{
		Store:    st,
		Device:   capture.NewDevice(cameraID),
		Preview:  preview,
		Analyzer: analyzer,
	})
	defer application.Close()
	logger.Info("camera selected", "module", "main", "action", "init", "camera_id", cameraID)

	hooks := startHooks(cfg, application)
	defer hooks.Close()

	webDir := cfg.StaticDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:       webDir,
		App:             application,
		Preview:         preview,
		DefaultCameraID: cfg.CameraID,
	})

	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.Addr, err)
	}

	// The preview accepts streams only once the view can show them.
	preview.Mount()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Serve(l); err != nil {
			logger.Error("http server failed", "module", "main", "action", "serve", "error", err)
			stop()
		}
	}()

	url := "http://" + l.Addr().String()
	fmt.Printf("Open %s in your browser\n", url)

	if cfg.Tray {
		runTray(ctx, stop, application, url)
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down", "module", "main", "action", "shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("http shutdown failed", "module", "main", "action", "shutdown", "error", err)
	}
	preview.Unmount()
}

// startHooks discovers result plugins and forwards every translation to them.
func startHooks(cfg *config.Config, a *app.App) *plugin.Dispatcher {
	manager := plugin.NewManager(cfg.PluginDir)
	if err := manager.Discover(); err != nil {
		logger.Warn("plugin discovery failed", "module", "main", "action", "discover", "dir", cfg.PluginDir, "error", err)
	}

	dispatcher := plugin.NewDispatcher(manager, plugin.NewExecutor(cfg.PluginTimeout), plugin.DefaultQueueSize)
	a.Subscribe(func(e app.Event) {
		if e.Type != app.EventResult || e.Result == nil {
			return
		}
		req := plugin.Request{Event: plugin.EventResult, Result: e.Result}
		if e.Language != nil {
			req.Language = e.Language.Name
		}
		dispatcher.Notify(req)
	})
	return dispatcher
}

// runTray shows the tray menu on the calling goroutine until quit or ctx ends.
func runTray(ctx context.Context, quit context.CancelFunc, a *app.App, url string) {
	t := tray.New()
	t.SetCameraStatus(a.CameraStatus())

	a.Subscribe(func(e app.Event) {
		switch e.Type {
		case app.EventCamera:
			t.SetCameraStatus(*e.Camera)
		case app.EventResult:
			t.SetLastResult(*e.Result)
		}
	})

	t.OnToggle(func(start bool) {
		if !start {
			a.StopCamera()
			return
		}
		go func() {
			if err := a.StartCamera(ctx); err != nil {
				logger.Warn("camera start failed", "module", "tray", "action", "start", "error", err)
			}
		}()
	})
	t.OnCapture(func() {
		go func() {
			if _, err := a.Capture(ctx, ""); err != nil {
				logger.Warn("capture failed", "module", "tray", "action", "capture", "error", err)
			}
		}()
	})
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			logger.Warn("failed to open browser", "module", "tray", "action", "open", "error", err)
		}
	})
	t.OnQuit(quit)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
