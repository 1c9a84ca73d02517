// Package capture owns the webcam: device access, the camera controller
// lifecycle and still-frame encoding.
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/logger"
)

// Default camera settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480

	FacingUser = "user"
)

// Constraints describe the video a caller would like to receive. The zero
// value requests any video the device can produce.
type Constraints struct {
	Width      int
	Height     int
	FacingMode string
}

// PreferredConstraints is the first request made when the camera starts.
func PreferredConstraints() Constraints {
	return Constraints{Width: DefaultWidth, Height: DefaultHeight, FacingMode: FacingUser}
}

// IsZero reports whether c places no requirement on the device.
func (c Constraints) IsZero() bool {
	return c == Constraints{}
}

// Track is one media track of a Stream. A webcam stream is video only.
type Track interface {
	Kind() string
	Stop() error
}

// Stream is a live video feed obtained from a Device.
type Stream interface {
	// ReadFrame returns the next frame. The caller must close the Mat.
	ReadFrame() (*gocv.Mat, error)
	Tracks() []Track
}

// Device is a capture device that can be asked for a stream.
type Device interface {
	Open(c Constraints) (Stream, error)
}

// gocvDevice opens a local camera through OpenCV.
type gocvDevice struct {
	deviceID int
	fps      int
}

// NewDevice returns a Device backed by the OpenCV camera with the given index.
func NewDevice(deviceID int) Device {
	return &gocvDevice{deviceID: deviceID, fps: DefaultFPS}
}

// Open opens the camera and applies c. A device that cannot honor the
// requested resolution yields ErrOverconstrained.
func (d *gocvDevice) Open(c Constraints) (Stream, error) {
	vc, err := gocv.OpenVideoCapture(d.deviceID)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d", ErrNoDevice, d.deviceID)
	}

	if !c.IsZero() {
		if c.FacingMode != "" && c.FacingMode != FacingUser {
			logger.Debug("facing mode not selectable on this backend", "module", "capture", "facing_mode", c.FacingMode)
		}
		if c.Width > 0 {
			vc.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
		}
		if c.Height > 0 {
			vc.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))
		}
		if vc.Get(gocv.VideoCaptureFrameWidth) <= 0 || vc.Get(gocv.VideoCaptureFrameHeight) <= 0 {
			vc.Close()
			return nil, fmt.Errorf("%w: %dx%d", ErrOverconstrained, c.Width, c.Height)
		}
	}

	vc.Set(gocv.VideoCaptureFPS, float64(d.fps))

	return &gocvStream{track: &videoTrack{capture: vc}}, nil
}

// classifyOpenError maps backend error text onto the camera error taxonomy.
func classifyOpenError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "not authorized"), strings.Contains(msg, "denied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"):
		return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	default:
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
}

// gocvStream is a single-track stream over an OpenCV VideoCapture.
type gocvStream struct {
	track *videoTrack
}

func (s *gocvStream) Tracks() []Track {
	return []Track{s.track}
}

func (s *gocvStream) ReadFrame() (*gocv.Mat, error) {
	return s.track.read()
}

type videoTrack struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
}

func (t *videoTrack) Kind() string {
	return "video"
}

// Stop releases the underlying capture. Stopping twice is a no-op.
func (t *videoTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.capture == nil {
		return nil
	}
	err := t.capture.Close()
	t.capture = nil
	return err
}

func (t *videoTrack) read() (*gocv.Mat, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.capture == nil {
		return nil, ErrStreamEnded
	}

	mat := gocv.NewMat()
	if ok := t.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}
