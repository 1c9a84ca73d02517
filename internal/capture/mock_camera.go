package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// MockDevice produces synthetic frames for tests and camera-less runs. Open
// errors queued with FailNext are returned before any stream is handed out.
type MockDevice struct {
	mu       sync.Mutex
	width    int
	height   int
	failures []error
	requests []Constraints
	streams  []*MockStream
}

// NewMockDevice creates a device whose streams deliver width x height frames.
func NewMockDevice(width, height int) *MockDevice {
	return &MockDevice{width: width, height: height}
}

// FailNext queues errors returned by subsequent Open calls, in order.
func (d *MockDevice) FailNext(errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = append(d.failures, errs...)
}

func (d *MockDevice) Open(c Constraints) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, c)

	if len(d.failures) > 0 {
		err := d.failures[0]
		d.failures = d.failures[1:]
		if err != nil {
			return nil, err
		}
	}

	s := &MockStream{
		width:  d.width,
		height: d.height,
		track:  &MockTrack{},
	}
	d.streams = append(d.streams, s)
	return s, nil
}

// Requests returns the constraints of every Open call.
func (d *MockDevice) Requests() []Constraints {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Constraints(nil), d.requests...)
}

// Streams returns every stream handed out so far.
func (d *MockDevice) Streams() []*MockStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockStream(nil), d.streams...)
}

// LiveStreams counts streams with at least one track still running.
func (d *MockDevice) LiveStreams() int {
	live := 0
	for _, s := range d.Streams() {
		if !s.track.Stopped() {
			live++
		}
	}
	return live
}

// MockStream is a single-track synthetic stream.
type MockStream struct {
	mu        sync.Mutex
	width     int
	height    int
	track     *MockTrack
	readErr   error
	readCount int
}

func (s *MockStream) Tracks() []Track {
	return []Track{s.track}
}

// Track returns the stream's video track for inspection.
func (s *MockStream) Track() *MockTrack {
	return s.track
}

// FailReads makes subsequent reads return err; nil restores frames.
func (s *MockStream) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// Reads returns the number of successful reads.
func (s *MockStream) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCount
}

func (s *MockStream) ReadFrame() (*gocv.Mat, error) {
	if s.track.Stopped() {
		return nil, ErrStreamEnded
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.width == 0 || s.height == 0 {
		return nil, errors.New("no frame dimensions")
	}

	frame := gocv.NewMatWithSize(s.height, s.width, gocv.MatTypeCV8UC3)
	s.readCount++
	return &frame, nil
}

// MockTrack records whether it has been stopped.
type MockTrack struct {
	mu      sync.Mutex
	stopped bool
}

func (t *MockTrack) Kind() string {
	return "video"
}

func (t *MockTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return nil
}

// Stopped reports whether Stop has been called.
func (t *MockTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
