package plugin

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/logger"
)

const (
	// DefaultQueueSize bounds the number of pending notifications.
	DefaultQueueSize = 16
	// DefaultDrainTimeout bounds how long Close waits for queued requests.
	DefaultDrainTimeout = 5 * time.Second
)

// Runner executes a single plugin request.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req Request) (*Response, error)
}

// Dispatcher delivers requests to subscribed plugins on a background worker,
// one request at a time and in arrival order.
type Dispatcher struct {
	manager *Manager
	runner  Runner

	queue  chan Request
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	drain  time.Duration

	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts a dispatcher. A queueSize of zero or less uses
// DefaultQueueSize.
func NewDispatcher(manager *Manager, runner Runner, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager: manager,
		runner:  runner,
		queue:   make(chan Request, queueSize),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		drain:   DefaultDrainTimeout,
	}
	go d.run()
	return d
}

// Notify queues req without blocking. It reports false when the request was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Notify(req Request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	select {
	case d.queue <- req:
		return true
	default:
		logger.Warn("plugin queue full", "module", "plugin", "action", "notify", "result", "dropped", "event", req.Event)
		return false
	}
}

// Close stops accepting requests and waits for queued ones to finish. Requests
// still running after the drain timeout are cancelled and the rest dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	timer := time.NewTimer(d.drain)
	defer timer.Stop()
	select {
	case <-d.done:
	case <-timer.C:
		logger.Warn("plugin drain timed out", "module", "plugin", "action", "close", "result", "cancelled", "timeout", d.drain)
		d.cancel()
		<-d.done
	}
	d.cancel()
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for req := range d.queue {
		if d.ctx.Err() != nil {
			logger.Warn("plugin request dropped", "module", "plugin", "action", "close", "result", "dropped", "event", req.Event)
			continue
		}
		for _, p := range d.manager.Subscribers(req.Event) {
			d.deliver(p, req)
		}
	}
}

func (d *Dispatcher) deliver(p *Plugin, req Request) {
	resp, err := d.runner.Execute(d.ctx, p, req)
	if err != nil {
		logger.Error("plugin failed", "module", "plugin", "action", "execute", "plugin", p.Manifest.Name, "event", req.Event, "error", err)
		return
	}
	if !resp.Success {
		logger.Warn("plugin reported failure", "module", "plugin", "action", "execute", "plugin", p.Manifest.Name, "event", req.Event, "error", resp.Error)
		return
	}
	logger.Debug("plugin done", "module", "plugin", "action", "execute", "plugin", p.Manifest.Name, "event", req.Event, "result", "success")
}
