package engine

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"go-mrz-scanner/internal/logger"
)

// mrzCharset is the character set of ICAO 9303 machine-readable zones
const mrzCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"

// Tesseract implements Engine on top of a gosseract client.
//
// The handle is stateful: a successful Recognize* call stores the produced
// result set until the next call replaces it. Not safe for concurrent use;
// the scanner session serializes access.
type Tesseract struct {
	client  *gosseract.Client
	results *ResultSet
	closed  bool
}

// NewTesseract creates a recognition engine instance configured for MRZ text
func NewTesseract() (*Tesseract, error) {
	client := gosseract.NewClient()

	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to configure page segmentation: %w", err)
	}
	if err := client.SetWhitelist(mrzCharset); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to configure character whitelist: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// RecognizeFile runs recognition against an image file on disk
func (t *Tesseract) RecognizeFile(path string, mode string) Status {
	if t.closed {
		return StatusEngineClosed
	}
	if mode != ModeMRZ {
		return StatusInvalidArgument
	}
	t.results = nil

	if _, err := os.Stat(path); err != nil {
		return StatusFileNotFound
	}
	if err := t.client.SetImage(path); err != nil {
		return StatusImageDecodeFailed
	}

	return t.recognize()
}

// RecognizeBuffer runs recognition against a raw pixel buffer
func (t *Tesseract) RecognizeBuffer(data ImageData, mode string) Status {
	if t.closed {
		return StatusEngineClosed
	}
	if mode != ModeMRZ {
		return StatusInvalidArgument
	}
	t.results = nil

	img, status := decodePixels(data)
	if status != StatusOK {
		return status
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return StatusImageDecodeFailed
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return StatusImageDecodeFailed
	}

	return t.recognize()
}

// recognize extracts line-level results from the image set on the client
// and stores them on the handle. No detected lines leaves results nil.
func (t *Tesseract) recognize() Status {
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		logger.WithError(err).Debug("Recognition call failed")
		return StatusRecognitionFailed
	}

	result := &Result{}
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		result.Lines = append(result.Lines, &LineResult{
			Confidence: int(box.Confidence),
			Text:       text,
			Location: [4]Point{
				{X: box.Box.Min.X, Y: box.Box.Min.Y},
				{X: box.Box.Max.X, Y: box.Box.Min.Y},
				{X: box.Box.Max.X, Y: box.Box.Max.Y},
				{X: box.Box.Min.X, Y: box.Box.Max.Y},
			},
		})
	}

	if len(result.Lines) > 0 {
		t.results = &ResultSet{Results: []*Result{result}}
	}
	return StatusOK
}

// AllResults returns the result set produced by the last recognition call,
// or nil when the call failed or detected nothing
func (t *Tesseract) AllResults() *ResultSet {
	return t.results
}

// FreeResults releases an engine-owned result set
func (t *Tesseract) FreeResults(set *ResultSet) {
	if set == nil {
		return
	}
	set.Results = nil
	if t.results == set {
		t.results = nil
	}
}

// AppendSettingsFromFile loads recognition settings from a file
func (t *Tesseract) AppendSettingsFromFile(path string) (Status, string) {
	content, err := os.ReadFile(path)
	if err != nil {
		return StatusFileNotFound, fmt.Sprintf("failed to read settings file: %v", err)
	}
	return t.AppendSettingsFromString(string(content))
}

// AppendSettingsFromString applies recognition settings given as
// newline-separated key=value pairs. Lines starting with # are ignored.
// Recognized keys: language, psm, whitelist; anything else is passed
// through as a raw engine variable.
func (t *Tesseract) AppendSettingsFromString(content string) (Status, string) {
	if t.closed {
		return StatusEngineClosed, ErrorString(StatusEngineClosed)
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return StatusSettingsInvalid, fmt.Sprintf("malformed settings line: %q", line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "language":
			err = t.client.SetLanguage(strings.Split(value, "+")...)
		case "psm":
			var psm int
			psm, err = strconv.Atoi(value)
			if err == nil {
				err = t.client.SetPageSegMode(gosseract.PageSegMode(psm))
			}
		case "whitelist":
			err = t.client.SetWhitelist(value)
		default:
			err = t.client.SetVariable(gosseract.SettableVariable(key), value)
		}
		if err != nil {
			return StatusSettingsInvalid, fmt.Sprintf("failed to apply %q: %v", key, err)
		}
	}

	return StatusOK, "settings applied"
}

// Version reports the underlying engine version
func (t *Tesseract) Version() string {
	return gosseract.Version()
}

// Close destroys the engine instance. The handle is unusable afterwards.
func (t *Tesseract) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.results = nil
	return t.client.Close()
}

// decodePixels validates raw pixel data and reassembles it into an image
func decodePixels(data ImageData) (image.Image, Status) {
	if data.Width <= 0 || data.Height <= 0 {
		return nil, StatusInvalidArgument
	}
	bpp := data.Format.BytesPerPixel()
	if data.Stride < data.Width*bpp {
		return nil, StatusInvalidArgument
	}
	if data.Length != data.Stride*data.Height || len(data.Bytes) < data.Length {
		return nil, StatusInvalidArgument
	}

	rect := image.Rect(0, 0, data.Width, data.Height)

	switch data.Format {
	case PixelFormatGrayscale:
		return &image.Gray{Pix: data.Bytes[:data.Length], Stride: data.Stride, Rect: rect}, StatusOK

	case PixelFormatRGB:
		img := image.NewNRGBA(rect)
		for y := 0; y < data.Height; y++ {
			row := data.Bytes[y*data.Stride:]
			for x := 0; x < data.Width; x++ {
				src := x * 3
				dst := img.PixOffset(x, y)
				img.Pix[dst+0] = row[src+0]
				img.Pix[dst+1] = row[src+1]
				img.Pix[dst+2] = row[src+2]
				img.Pix[dst+3] = 0xff
			}
		}
		return img, StatusOK

	case PixelFormatARGB:
		img := image.NewNRGBA(rect)
		for y := 0; y < data.Height; y++ {
			row := data.Bytes[y*data.Stride:]
			for x := 0; x < data.Width; x++ {
				src := x * 4
				dst := img.PixOffset(x, y)
				img.Pix[dst+0] = row[src+1]
				img.Pix[dst+1] = row[src+2]
				img.Pix[dst+2] = row[src+3]
				img.Pix[dst+3] = row[src+0]
			}
		}
		return img, StatusOK

	default:
		return nil, StatusInvalidArgument
	}
}
