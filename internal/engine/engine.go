package engine

import (
	"fmt"
	"strings"
	"sync"
)

// Status is the engine-native status code. Zero means success; any other
// value identifies a failure class that can be looked up with ErrorString.
type Status int

const (
	StatusOK                Status = 0
	StatusLicenseInvalid    Status = -10001
	StatusFileNotFound      Status = -10005
	StatusImageDecodeFailed Status = -10006
	StatusInvalidArgument   Status = -10007
	StatusRecognitionFailed Status = -10012
	StatusSettingsInvalid   Status = -10030
	StatusEngineClosed      Status = -10040
)

var statusText = map[Status]string{
	StatusOK:                "successful",
	StatusLicenseInvalid:    "the license is invalid",
	StatusFileNotFound:      "the file is not found",
	StatusImageDecodeFailed: "the image data failed to decode",
	StatusInvalidArgument:   "one or more arguments are invalid",
	StatusRecognitionFailed: "the recognition failed",
	StatusSettingsInvalid:   "the settings content is invalid",
	StatusEngineClosed:      "the engine instance has been destroyed",
}

// ErrorString returns a human-readable description of a status code
func ErrorString(s Status) string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return fmt.Sprintf("unknown error (%d)", int(s))
}

// PixelFormat identifies the layout of raw pixel data
type PixelFormat int

const (
	PixelFormatGrayscale PixelFormat = iota
	PixelFormatRGB
	PixelFormatARGB
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatGrayscale:
		return "grayscale"
	case PixelFormatRGB:
		return "rgb"
	case PixelFormatARGB:
		return "argb"
	default:
		return fmt.Sprintf("pixel_format(%d)", int(f))
	}
}

// BytesPerPixel returns the per-pixel byte width of the format
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGB:
		return 3
	case PixelFormatARGB:
		return 4
	default:
		return 1
	}
}

// ImageData describes one raw pixel buffer handed to the engine
type ImageData struct {
	Bytes  []byte
	Width  int
	Height int
	Stride int
	Format PixelFormat
	Length int
}

// Point is an integer point in image coordinates
type Point struct {
	X int
	Y int
}

// LineResult is the engine-native record for one recognized text line.
// Location holds the four corner points in the engine's winding order.
type LineResult struct {
	Confidence int
	Text       string
	Location   [4]Point
}

// Result groups the line results recognized within one text zone
type Result struct {
	Lines []*LineResult
}

// ResultSet is the engine-owned container returned by AllResults.
// Callers must hand it back via FreeResults once converted.
type ResultSet struct {
	Results []*Result
}

// ModeMRZ is the fixed recognition-profile selector used by this binding.
// The profile is not user-configurable at this layer.
const ModeMRZ = "mrz"

// Engine is the request/response interface of the recognition engine.
// Recognize calls store their outcome on the handle; AllResults retrieves
// it afterwards (nil when the last call failed or detected nothing).
//
// Implementations are not required to be safe for concurrent invocation;
// callers must serialize access to one handle.
type Engine interface {
	RecognizeFile(path string, mode string) Status
	RecognizeBuffer(data ImageData, mode string) Status
	AllResults() *ResultSet
	FreeResults(set *ResultSet)
	AppendSettingsFromFile(path string) (Status, string)
	AppendSettingsFromString(content string) (Status, string)
	Version() string
	Close() error
}

var (
	licenseMu  sync.Mutex
	licenseKey string
)

// InitLicense records the product key used to activate the engine.
// It must be called once before instances are created. An empty key is
// rejected; everything else is accepted and validated lazily by the
// underlying engine.
func InitLicense(key string) (Status, string) {
	licenseMu.Lock()
	defer licenseMu.Unlock()

	if strings.TrimSpace(key) == "" {
		return StatusLicenseInvalid, ErrorString(StatusLicenseInvalid)
	}
	licenseKey = key
	return StatusOK, ErrorString(StatusOK)
}

// Licensed reports whether InitLicense has been called with a usable key
func Licensed() bool {
	licenseMu.Lock()
	defer licenseMu.Unlock()
	return licenseKey != ""
}
