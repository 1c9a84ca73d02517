package capture

import (
	"context"
	"errors"
)

// Camera error taxonomy. Device implementations wrap these so callers can
// classify failures with errors.Is.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoDevice         = errors.New("no camera found")
	ErrDeviceBusy       = errors.New("camera is busy")
	ErrOverconstrained  = errors.New("camera constraints not supported")
	ErrFallbackFailed   = errors.New("camera unavailable with any settings")
	ErrNotSupported     = errors.New("camera not supported")
	ErrSinkNotReady     = errors.New("video sink not ready")
	ErrPlayback         = errors.New("video playback failed")
	ErrStreamEnded      = errors.New("stream has been stopped")

	// ErrNotReady is the capture sentinel: no active stream or no frame
	// dimensions yet.
	ErrNotReady = errors.New("camera not ready for capture")
)

// Message returns the user-facing text for a camera error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Camera permission denied. Please allow camera access and refresh the page."
	case errors.Is(err, ErrNoDevice):
		return "No camera found. Please connect a camera and try again."
	case errors.Is(err, ErrDeviceBusy):
		return "Camera is already in use by another application."
	case errors.Is(err, ErrOverconstrained):
		return "Camera constraints not supported. Trying with basic settings..."
	case errors.Is(err, ErrFallbackFailed):
		return "Unable to access camera with any settings"
	case errors.Is(err, ErrNotSupported):
		return "Camera not supported by this device"
	case errors.Is(err, ErrSinkNotReady):
		return "Video preview not available"
	case errors.Is(err, ErrPlayback):
		return "Failed to start video playback"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Camera start was cancelled"
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to access camera"
}

// playbackErrorMessage is reported when an active stream stops delivering frames.
const playbackErrorMessage = "Video playback error"
