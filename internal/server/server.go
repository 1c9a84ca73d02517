// Package server provides the HTTP server for the Mudra sign language translator.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/server/api"
)

// Application is the behavior the HTTP layer dispatches to.
type Application interface {
	api.CameraService
	api.CaptureService
	api.LanguageService
	api.SettingsService
	Subscribe(fn func(app.Event))
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	App       Application
	// Preview feeds /api/stream. Optional.
	Preview FrameSource
	// DefaultCameraID is reported by /api/settings when none is stored.
	DefaultCameraID int
}

// Server represents the HTTP server for the Mudra application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	events  *EventsHandler
	start   time.Time
	http    *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	s.handler = RequestLogger(OriginGuard(s.mux))
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.App != nil {
		camera := api.NewCameraHandler(s.config.App)
		s.mux.Handle("/api/camera", camera)
		s.mux.Handle("/api/camera/", camera)
		s.mux.Handle("/api/capture", api.NewCaptureHandler(s.config.App))
		s.mux.Handle("/api/languages", api.NewLanguagesHandler(s.config.App))
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.App, s.config.DefaultCameraID))

		s.events = NewEventsHandler(s.config.App)
		s.mux.Handle("/api/events", s.events)
	}

	// Register camera stream endpoint if a preview is configured
	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.events != nil {
		response["clients"] = s.events.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("http server listening", "module", "http", "action", "listen", "result", "ok", "addr", l.Addr().String())
	err := s.http.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown closes WebSocket clients and stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.events != nil {
		s.events.Close()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
