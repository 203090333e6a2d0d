package scanner

import (
	"go-mrz-scanner/internal/engine"
	apperrors "go-mrz-scanner/internal/errors"
)

// FrameBuffer is an owned, heap-allocated copy of pixel data submitted for
// asynchronous recognition. Exactly one component owns it at a time: the
// queue while pending, then the worker until the recognition call returns.
type FrameBuffer struct {
	pixels   []byte
	width    int
	height   int
	stride   int
	format   engine.PixelFormat
	length   int
	releases int
}

// InferPixelFormat derives the pixel format from the stride-to-width ratio:
// equal means grayscale, 3x means RGB, 4x means ARGB. Any other ratio is
// unsupported.
func InferPixelFormat(width, stride int) (engine.PixelFormat, error) {
	if width <= 0 || stride <= 0 {
		return 0, apperrors.NewValidationError("width and stride must be positive", nil)
	}
	switch stride {
	case width:
		return engine.PixelFormatGrayscale, nil
	case width * 3:
		return engine.PixelFormatRGB, nil
	case width * 4:
		return engine.PixelFormatARGB, nil
	default:
		return 0, apperrors.NewValidationError("unsupported stride-to-width ratio", nil)
	}
}

// NewFrameBuffer validates the pixel geometry and copies the data into an
// owned buffer, so the caller may reuse its slice immediately.
func NewFrameBuffer(pixels []byte, width, height, stride int, format engine.PixelFormat) (*FrameBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewValidationError("frame dimensions must be positive", nil)
	}
	if stride < width*format.BytesPerPixel() {
		return nil, apperrors.NewValidationError("stride too small for pixel format", nil)
	}
	length := stride * height
	if len(pixels) < length {
		return nil, apperrors.NewValidationError("pixel data shorter than stride*height", nil)
	}

	owned := make([]byte, length)
	copy(owned, pixels[:length])

	return &FrameBuffer{
		pixels: owned,
		width:  width,
		height: height,
		stride: stride,
		format: format,
		length: length,
	}, nil
}

// imageData wraps the buffer in the engine's call convention
func (f *FrameBuffer) imageData() engine.ImageData {
	return engine.ImageData{
		Bytes:  f.pixels,
		Width:  f.width,
		Height: f.height,
		Stride: f.stride,
		Format: f.format,
		Length: f.length,
	}
}

// release drops the pixel data. Must be called exactly once, by whichever
// component owns the buffer when it leaves the pipeline.
func (f *FrameBuffer) release() {
	f.pixels = nil
	f.releases++
}

func (f *FrameBuffer) released() bool {
	return f.releases > 0
}
