package capture

import (
	"errors"
	"testing"
)

func TestNewDevice(t *testing.T) {
	for _, id := range []int{0, 1, 2} {
		d, ok := NewDevice(id).(*gocvDevice)
		if !ok {
			t.Fatalf("NewDevice(%d) returned %T", id, d)
		}
		if d.deviceID != id {
			t.Errorf("deviceID = %d, want %d", d.deviceID, id)
		}
		if d.fps != DefaultFPS {
			t.Errorf("fps = %d, want %d (default)", d.fps, DefaultFPS)
		}
	}
}

func TestPreferredConstraints(t *testing.T) {
	c := PreferredConstraints()
	if c.Width != 640 || c.Height != 480 || c.FacingMode != FacingUser {
		t.Errorf("PreferredConstraints() = %+v", c)
	}
	if c.IsZero() {
		t.Error("preferred constraints must not be zero")
	}
	if !(Constraints{}).IsZero() {
		t.Error("zero constraints should report IsZero")
	}
}

func TestClassifyOpenError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission", errors.New("Permission denied by system"), ErrPermissionDenied},
		{"not authorized", errors.New("camera access not authorized"), ErrPermissionDenied},
		{"busy", errors.New("Device or resource busy"), ErrDeviceBusy},
		{"in use", errors.New("camera in use"), ErrDeviceBusy},
		{"other", errors.New("VIDEOIO ERROR: can't open camera by index"), ErrNoDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOpenError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyOpenError(%q) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestVideoTrack_StoppedTrack(t *testing.T) {
	track := &videoTrack{}

	// Stopping a track without a capture should not panic and return nil
	if err := track.Stop(); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}

	if _, err := track.read(); !errors.Is(err, ErrStreamEnded) {
		t.Errorf("read() error = %v, want ErrStreamEnded", err)
	}
	if track.Kind() != "video" {
		t.Errorf("Kind() = %q", track.Kind())
	}
}

func TestDevice_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	stream, err := NewDevice(0).Open(PreferredConstraints())
	if err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	frame, err := stream.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if frame.Cols() != 640 || frame.Rows() != 480 {
			t.Logf("Frame dimensions: %dx%d (expected 640x480, but camera may not support)", frame.Cols(), frame.Rows())
		}
		frame.Close()
	}

	for _, track := range stream.Tracks() {
		if err := track.Stop(); err != nil {
			t.Errorf("Stop() failed: %v", err)
		}
	}

	if _, err := stream.ReadFrame(); !errors.Is(err, ErrStreamEnded) {
		t.Errorf("ReadFrame() after stop = %v, want ErrStreamEnded", err)
	}
}
