package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/logger"
)

// Acquisition defaults
const (
	DefaultAttachRetries = 5
	DefaultAttachDelay   = 100 * time.Millisecond
	DefaultFallbackDelay = time.Second
)

// ControllerConfig tunes camera acquisition. Zero fields take the defaults.
type ControllerConfig struct {
	Constraints   Constraints
	AttachRetries int
	AttachDelay   time.Duration
	FallbackDelay time.Duration
	JPEGQuality   int
}

func (c ControllerConfig) withDefaults() ControllerConfig {
	if c.Constraints.IsZero() {
		c.Constraints = PreferredConstraints()
	}
	if c.AttachRetries <= 0 {
		c.AttachRetries = DefaultAttachRetries
	}
	if c.AttachDelay <= 0 {
		c.AttachDelay = DefaultAttachDelay
	}
	if c.FallbackDelay <= 0 {
		c.FallbackDelay = DefaultFallbackDelay
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	return c
}

// Controller owns the single camera stream and its status.
type Controller struct {
	device Device
	sink   Sink
	config ControllerConfig

	// lifecycle serializes Start and Stop; it is held across device waits.
	lifecycle sync.Mutex
	stream    Stream

	mu        sync.RWMutex
	status    Status
	observers []func(Status)
}

// NewController creates an idle controller. A nil device marks the camera as
// unsupported.
func NewController(device Device, sink Sink, config ControllerConfig) *Controller {
	c := &Controller{
		device: device,
		sink:   sink,
		config: config.withDefaults(),
		status: newStatus(device != nil && sink != nil),
	}

	if notifier, ok := sink.(interface{ OnError(func(error)) }); ok {
		notifier.OnError(c.playbackFailed)
	}

	return c
}

// Status returns a snapshot of the camera status.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// OnStatusChange registers fn to receive every status update.
func (c *Controller) OnStatusChange(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Start acquires the camera, attaches it to the sink and waits for playback.
// Calling Start while active is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.stream != nil && c.Status().IsActive {
		return nil
	}
	if c.stream != nil {
		c.release()
	}

	if !c.Status().IsSupported {
		c.fail(ErrNotSupported)
		return ErrNotSupported
	}

	if err := c.apply(Status.requesting); err != nil {
		return err
	}
	logger.Info("starting camera", "module", "capture", "action", "start", "width", c.config.Constraints.Width, "height", c.config.Constraints.Height)

	stream, err := c.acquire(ctx)
	if err != nil {
		c.fail(err)
		return err
	}

	if err := c.attach(ctx, stream); err != nil {
		stopTracks(stream)
		c.fail(err)
		return err
	}

	if err := c.sink.Play(ctx); err != nil {
		c.sink.Detach()
		stopTracks(stream)
		if !errors.Is(err, ErrPlayback) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %v", ErrPlayback, err)
		}
		c.fail(err)
		return err
	}

	c.stream = stream
	if err := c.apply(Status.activated); err != nil {
		return err
	}
	logger.Info("camera active", "module", "capture", "action", "start", "result", "ok")
	return nil
}

// acquire opens the device with the preferred constraints and falls back to
// unconstrained video when they are rejected.
func (c *Controller) acquire(ctx context.Context) (Stream, error) {
	stream, err := c.device.Open(c.config.Constraints)
	if err == nil {
		return stream, nil
	}
	if !errors.Is(err, ErrOverconstrained) {
		return nil, err
	}

	logger.Warn("camera rejected constraints, retrying with basic settings", "module", "capture", "action", "fallback", "error", err)
	c.annotate(Message(err))

	if err := sleepContext(ctx, c.config.FallbackDelay); err != nil {
		return nil, err
	}

	stream, err = c.device.Open(Constraints{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFallbackFailed, err)
	}
	return stream, nil
}

// attach binds stream to the sink, retrying while the sink is not ready.
func (c *Controller) attach(ctx context.Context, stream Stream) error {
	for attempt := 0; ; attempt++ {
		err := c.sink.Attach(stream)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSinkNotReady) {
			return err
		}
		if attempt >= c.config.AttachRetries {
			return fmt.Errorf("%w after %d retries", err, attempt)
		}

		logger.Debug("video sink not ready, retrying", "module", "capture", "action", "attach", "attempt", attempt+1)
		next := attempt + 1
		if err := c.apply(func(s Status) (Status, error) { return s.retrying(next) }); err != nil {
			return err
		}
		if err := sleepContext(ctx, c.config.AttachDelay); err != nil {
			return err
		}
	}
}

// Stop halts every track of the current stream and returns to idle.
func (c *Controller) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.release()
	if err := c.apply(Status.idle); err != nil {
		logger.Warn("camera stop", "module", "capture", "action", "stop", "error", err)
	}
}

// Close is component teardown; it releases the stream like Stop.
func (c *Controller) Close() {
	c.Stop()
}

func (c *Controller) release() {
	if c.stream == nil {
		return
	}

	c.sink.Detach()
	stopTracks(c.stream)
	c.stream = nil
	logger.Info("camera stopped", "module", "capture", "action", "stop", "result", "ok")
}

// Capture encodes the current frame as a JPEG data URL. It returns
// ErrNotReady when the camera is inactive or has no frame dimensions.
func (c *Controller) Capture() (string, error) {
	if !c.Status().IsActive {
		return "", ErrNotReady
	}

	frame, err := c.sink.Frame()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	defer frame.Close()

	dataURL, err := EncodeFrame(*frame, c.config.JPEGQuality)
	if err != nil {
		return "", err
	}

	logger.Debug("frame captured", "module", "capture", "action", "capture", "width", frame.Cols(), "height", frame.Rows())
	return dataURL, nil
}

// playbackFailed moves an active camera to failed and releases its stream in
// the background. It runs on the sink's frame pump, which Detach waits for.
func (c *Controller) playbackFailed(err error) {
	logger.Error("video playback error", "module", "capture", "action", "play", "result", "failed", "error", err)

	failed := c.apply(func(s Status) (Status, error) {
		if !s.IsActive {
			return s, ErrNotReady
		}
		return s.failed(playbackErrorMessage)
	})
	if failed != nil {
		return
	}

	go c.releaseFailed()
}

// releaseFailed drops the stream of a camera that is no longer active. A Start
// that won the lifecycle lock first owns a fresh stream and is left alone.
func (c *Controller) releaseFailed() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.stream != nil && !c.Status().IsActive {
		c.release()
	}
}

// apply runs a transition function against the current status and publishes
// the result.
func (c *Controller) apply(transition func(Status) (Status, error)) error {
	c.mu.Lock()
	next, err := transition(c.status)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.status = next
	observers := c.observers
	c.mu.Unlock()

	notify(observers, next)
	return nil
}

func (c *Controller) annotate(message string) {
	c.mu.Lock()
	c.status = c.status.withError(message)
	status, observers := c.status, c.observers
	c.mu.Unlock()

	notify(observers, status)
}

func (c *Controller) fail(err error) {
	logger.Error("camera error", "module", "capture", "action", "start", "result", "failed", "error", err)
	if applyErr := c.apply(func(s Status) (Status, error) { return s.failed(Message(err)) }); applyErr != nil {
		logger.Warn("camera status", "module", "capture", "error", applyErr)
	}
}

func notify(observers []func(Status), status Status) {
	for _, fn := range observers {
		fn(status)
	}
}

func stopTracks(stream Stream) {
	for _, track := range stream.Tracks() {
		if err := track.Stop(); err != nil {
			logger.Warn("failed to stop track", "module", "capture", "kind", track.Kind(), "error", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
