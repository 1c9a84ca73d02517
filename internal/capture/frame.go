package capture

import (
	"encoding/base64"
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultJPEGQuality matches the compression used for captured stills.
const DefaultJPEGQuality = 80

// JPEGDataURLPrefix introduces an inline base64 JPEG payload.
const JPEGDataURLPrefix = "data:image/jpeg;base64,"

// EncodeFrame renders frame at its native resolution as a base64 JPEG data
// URL. Frames without dimensions yield ErrNotReady.
func EncodeFrame(frame gocv.Mat, quality int) (string, error) {
	data, err := encodeJPEG(frame, quality)
	if err != nil {
		return "", err
	}
	return JPEGDataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

func encodeJPEG(frame gocv.Mat, quality int) ([]byte, error) {
	if frame.Empty() || frame.Cols() == 0 || frame.Rows() == 0 {
		return nil, fmt.Errorf("%w: frame has no dimensions", ErrNotReady)
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close, so copy it out first.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
