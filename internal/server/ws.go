package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/ai"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/logger"
)

// Events carry camera-derived results, so only this server's own page may
// subscribe.
var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

// Snapshot is the state a view needs when it connects.
type Snapshot interface {
	CameraStatus() capture.Status
	LastResult() (ai.TranslationResult, bool)
	Subscribe(fn func(app.Event))
}

// EventsHandler pushes application events to WebSocket clients.
type EventsHandler struct {
	state   Snapshot
	clients map[*websocket.Conn]chan []byte
	mu      sync.RWMutex
	closed  bool
}

// NewEventsHandler creates an EventsHandler fed by state's events.
func NewEventsHandler(state Snapshot) *EventsHandler {
	h := &EventsHandler{
		state:   state,
		clients: make(map[*websocket.Conn]chan []byte),
	}
	state.Subscribe(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "module", "http", "action", "upgrade", "result", "failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBuffer)
	for _, msg := range h.initial() {
		send <- msg
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.clients[conn] = send
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(conn, send, done)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
	<-done
}

// initial returns the current camera status and last result.
func (h *EventsHandler) initial() [][]byte {
	status := h.state.CameraStatus()
	msgs := [][]byte{encodeEvent(app.Event{Type: app.EventCamera, Camera: &status})}

	if result, ok := h.state.LastResult(); ok {
		msgs = append(msgs, encodeEvent(app.Event{Type: app.EventResult, Result: &result}))
	}
	return msgs
}

func (h *EventsHandler) writeLoop(conn *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	defer close(done)

	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			// Drain until the reader removes this client.
			for range send {
			}
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	conn.Close()
}

// broadcast queues e for every client. Slow clients drop events rather than
// stall the caller.
func (h *EventsHandler) broadcast(e app.Event) {
	msg := encodeEvent(e)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, send := range h.clients {
		select {
		case send <- msg:
		default:
			logger.Warn("websocket client too slow, dropping event", "module", "http", "action", "broadcast", "remote_ip", conn.RemoteAddr().String(), "type", string(e.Type))
		}
	}
}

func (h *EventsHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *EventsHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn, send := range h.clients {
		delete(h.clients, conn)
		close(send)
	}
}

func encodeEvent(e app.Event) []byte {
	msg, _ := json.Marshal(e)
	return msg
}
