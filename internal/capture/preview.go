package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/logger"
)

// Sink receives a stream from the Controller and plays it.
type Sink interface {
	// Attach binds the stream. It returns ErrSinkNotReady while the sink
	// cannot accept a stream yet.
	Attach(stream Stream) error
	// Play blocks until the first frame has been decoded.
	Play(ctx context.Context) error
	// Frame returns a copy of the most recent frame. The caller closes it.
	Frame() (*gocv.Mat, error)
	// Detach stops playback and releases the last frame.
	Detach()
}

// Preview playback tuning.
const (
	playProbeAttempts   = 20
	playProbeInterval   = 50 * time.Millisecond
	maxConsecutiveFails = 10
)

// Preview is the video sink behind the MJPEG preview. It pumps frames from the
// attached stream and keeps the latest one for captures and viewers.
type Preview struct {
	mu       sync.RWMutex
	mounted  bool
	stream   Stream
	latest   gocv.Mat
	hasFrame bool
	interval time.Duration
	onError  func(error)

	stopCh chan struct{}
	done   chan struct{}
}

// NewPreview creates an unmounted Preview refreshing at fps frames per second.
func NewPreview(fps int) *Preview {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Preview{
		latest:   gocv.NewMat(),
		interval: time.Second / time.Duration(fps),
	}
}

// Mount marks the preview ready to receive a stream.
func (p *Preview) Mount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mounted = true
}

// Unmount detaches any stream and refuses new ones.
func (p *Preview) Unmount() {
	p.Detach()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.mounted = false
}

// OnError registers fn to be called once when an attached stream stops
// delivering frames.
func (p *Preview) OnError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

func (p *Preview) Attach(stream Stream) error {
	p.Detach()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.mounted {
		return ErrSinkNotReady
	}
	p.stream = stream
	return nil
}

// Play waits for the first decodable frame, then starts the frame pump.
func (p *Preview) Play(ctx context.Context) error {
	p.mu.RLock()
	stream := p.stream
	p.mu.RUnlock()

	if stream == nil {
		return fmt.Errorf("%w: no stream attached", ErrPlayback)
	}

	var lastErr error
	for i := 0; i < playProbeAttempts; i++ {
		frame, err := stream.ReadFrame()
		if err == nil {
			p.store(frame)
			p.startPump(stream)
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(playProbeInterval):
		}
	}

	return fmt.Errorf("%w: %v", ErrPlayback, lastErr)
}

func (p *Preview) Frame() (*gocv.Mat, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.hasFrame || p.latest.Empty() {
		return nil, ErrNotReady
	}
	frame := p.latest.Clone()
	return &frame, nil
}

// JPEG encodes the latest frame for the MJPEG preview.
func (p *Preview) JPEG(quality int) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.hasFrame {
		return nil, ErrNotReady
	}
	return encodeJPEG(p.latest, quality)
}

func (p *Preview) Detach() {
	p.mu.Lock()
	stopCh, done := p.stopCh, p.done
	p.stopCh, p.done = nil, nil
	p.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stream = nil
	p.hasFrame = false
	if !p.latest.Empty() {
		p.latest.Close()
		p.latest = gocv.NewMat()
	}
}

// Close releases the frame buffer. The preview cannot be used afterwards.
func (p *Preview) Close() {
	p.Unmount()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest.Close()
}

func (p *Preview) store(frame *gocv.Mat) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest.Close()
	p.latest = *frame
	p.hasFrame = true
}

func (p *Preview) startPump(stream Stream) {
	p.mu.Lock()
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	stopCh, done := p.stopCh, p.done
	p.mu.Unlock()

	go p.pump(stream, stopCh, done)
}

func (p *Preview) pump(stream Stream, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		frame, err := stream.ReadFrame()
		if err != nil {
			failures++
			if failures == maxConsecutiveFails {
				logger.Warn("video playback stalled", "module", "capture", "action", "pump", "result", "failed", "error", err)
				p.mu.RLock()
				onError := p.onError
				p.mu.RUnlock()
				if onError != nil {
					onError(fmt.Errorf("%w: %v", ErrPlayback, err))
				}
			}
			continue
		}

		failures = 0
		p.store(frame)
	}
}
