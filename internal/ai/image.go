package ai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidImage is returned for data URLs that do not carry a base64 image.
var ErrInvalidImage = errors.New("invalid image data URL")

// Image is an inline image payload.
type Image struct {
	MIMEType string
	// Data is the base64 encoded image, without the data URL header.
	Data string
}

// ParseDataURL splits a "data:<mime>;base64,<payload>" URL.
func ParseDataURL(dataURL string) (Image, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data scheme", ErrInvalidImage)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload", ErrInvalidImage)
	}

	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok || !strings.HasPrefix(mimeType, "image/") {
		return Image{}, fmt.Errorf("%w: unsupported header %q", ErrInvalidImage, header)
	}
	if payload == "" {
		return Image{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return Image{MIMEType: mimeType, Data: payload}, nil
}

// DataURL reassembles the image as a data URL.
func (img Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + img.Data
}
