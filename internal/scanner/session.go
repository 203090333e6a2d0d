package scanner

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"go-mrz-scanner/internal/engine"
	apperrors "go-mrz-scanner/internal/errors"
	"go-mrz-scanner/internal/logger"
	"go-mrz-scanner/pkg/models"
)

// Listener receives the flattened line results of one asynchronous
// recognition. It is invoked on the worker goroutine; implementations that
// touch shared state must synchronize themselves.
type Listener func(lines []models.LineResult)

type sessionState int

const (
	stateReady sessionState = iota
	stateListening
	stateClosed
)

// Session is the user-facing reader object. It owns one engine handle for
// its whole lifetime, plus an optional worker goroutine and task queue that
// exist only while an async listener is registered.
//
// All engine access, synchronous and asynchronous, is serialized behind
// engineMu; the underlying engine is not guaranteed thread-safe. The queue
// carries its own lock so submissions never wait on a recognition in
// flight.
type Session struct {
	eng      engine.Engine
	engineMu sync.Mutex

	mu       sync.Mutex // guards state, listener, queue
	state    sessionState
	listener Listener
	queue    *taskQueue
	workerWG sync.WaitGroup
}

// NewSession wraps an engine handle in a reader session. The session takes
// ownership of the handle and destroys it on Close.
func NewSession(eng engine.Engine) *Session {
	return &Session{eng: eng, state: stateReady}
}

// CreateInstance allocates a new engine handle and wraps it in a session
func CreateInstance() (*Session, error) {
	if !engine.Licensed() {
		logger.Warn("Creating scanner instance without a license key")
	}
	eng, err := engine.NewTesseract()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to allocate recognition engine", err)
	}
	return NewSession(eng), nil
}

// DecodeFile recognizes MRZ text in an image file. Engine failures degrade
// to an empty result list and a logged status, matching the behavior of
// the synchronous decode APIs this session exposes.
func (s *Session) DecodeFile(path string) ([]models.LineResult, error) {
	if s.closed() {
		return nil, apperrors.NewStateError("session is closed", nil)
	}

	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	status := s.eng.RecognizeFile(path, engine.ModeMRZ)
	if status != engine.StatusOK {
		logger.WithFields(logrus.Fields{
			"path":   path,
			"status": int(status),
			"error":  engine.ErrorString(status),
		}).Error("File recognition failed")
		return []models.LineResult{}, nil
	}
	return s.collectResults(), nil
}

// DecodeMat recognizes MRZ text in a raw pixel buffer, inferring the pixel
// format from the stride-to-width ratio.
func (s *Session) DecodeMat(pixels []byte, width, height, stride int) ([]models.LineResult, error) {
	format, err := InferPixelFormat(width, stride)
	if err != nil {
		return nil, err
	}
	return s.DecodeBytes(pixels, width, height, stride, format)
}

// DecodeBytes recognizes MRZ text in a raw pixel buffer with an explicit
// pixel format.
func (s *Session) DecodeBytes(pixels []byte, width, height, stride int, format engine.PixelFormat) ([]models.LineResult, error) {
	if s.closed() {
		return nil, apperrors.NewStateError("session is closed", nil)
	}

	data := engine.ImageData{
		Bytes:  pixels,
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Length: stride * height,
	}

	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	status := s.eng.RecognizeBuffer(data, engine.ModeMRZ)
	if status == engine.StatusInvalidArgument {
		return nil, apperrors.NewValidationError("uninterpretable pixel buffer", nil)
	}
	if status != engine.StatusOK {
		logger.WithFields(logrus.Fields{
			"status": int(status),
			"error":  engine.ErrorString(status),
		}).Error("Buffer recognition failed")
		return []models.LineResult{}, nil
	}
	return s.collectResults(), nil
}

// collectResults flattens and frees the engine's result set. Caller must
// hold engineMu.
func (s *Session) collectResults() []models.LineResult {
	set := s.eng.AllResults()
	if set == nil {
		return []models.LineResult{}
	}
	lines := flattenResults(set)
	s.eng.FreeResults(set)
	return lines
}

// LoadModel applies recognition settings from a file path or, when the
// path does not exist, from the literal settings content.
func (s *Session) LoadModel(pathOrContent string) engine.Status {
	if s.closed() {
		return engine.StatusEngineClosed
	}

	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	var status engine.Status
	var message string
	if _, err := os.Stat(pathOrContent); err == nil {
		status, message = s.eng.AppendSettingsFromFile(pathOrContent)
	} else {
		status, message = s.eng.AppendSettingsFromString(pathOrContent)
	}

	logger.WithFields(logrus.Fields{
		"status":  int(status),
		"message": message,
	}).Info("Load MRZ model")
	return status
}

// AddAsyncListener registers a callback for asynchronous recognition
// results. The first registration allocates the task queue and starts the
// worker goroutine; later registrations only swap the stored callback.
func (s *Session) AddAsyncListener(listener Listener) error {
	if listener == nil {
		return apperrors.NewValidationError("listener must not be nil", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateClosed:
		return apperrors.NewStateError("session is closed", nil)
	case stateListening:
		// Swap only; the worker keeps running.
		s.listener = listener
		return nil
	}

	s.listener = listener
	s.queue = newTaskQueue()
	s.state = stateListening

	s.workerWG.Add(1)
	go s.workerLoop(s.queue)

	return nil
}

// DecodeMatAsync enqueues a frame for background recognition and returns
// immediately. Requires a registered async listener.
func (s *Session) DecodeMatAsync(pixels []byte, width, height, stride int) error {
	format, err := InferPixelFormat(width, stride)
	if err != nil {
		return err
	}
	return s.DecodeBytesAsync(pixels, width, height, stride, format)
}

// DecodeBytesAsync enqueues a frame with an explicit pixel format
func (s *Session) DecodeBytesAsync(pixels []byte, width, height, stride int, format engine.PixelFormat) error {
	frame, err := NewFrameBuffer(pixels, width, height, stride, format)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != stateListening {
		s.mu.Unlock()
		frame.release()
		return apperrors.NewStateError("no async listener registered", nil)
	}
	queue := s.queue
	s.mu.Unlock()

	if !queue.submit(&task{frame: frame}) {
		return apperrors.NewStateError("session worker has shut down", nil)
	}
	return nil
}

// ClearAsyncListener stops the worker, releases any queued frames and
// drops the callback reference. Blocks until the worker goroutine has
// fully joined so no engine or queue state can be used afterwards. No-op
// when no listener is registered.
func (s *Session) ClearAsyncListener() error {
	s.mu.Lock()
	if s.state != stateListening {
		s.mu.Unlock()
		return nil
	}
	queue := s.queue
	s.queue = nil
	s.listener = nil
	s.state = stateReady
	s.mu.Unlock()

	queue.close()
	s.workerWG.Wait()
	queue.drain()

	if dropped := queue.droppedCount(); dropped > 0 {
		logger.WithField("dropped_frames", dropped).Debug("Async queue superseded stale frames")
	}
	return nil
}

// Close tears the session down: stops the worker if one is running, then
// destroys the engine handle. The session is unusable afterwards.
func (s *Session) Close() error {
	if err := s.ClearAsyncListener(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = stateClosed
	s.mu.Unlock()

	s.engineMu.Lock()
	defer s.engineMu.Unlock()
	return s.eng.Close()
}

// Version reports the underlying engine version
func (s *Session) Version() string {
	return s.eng.Version()
}

func (s *Session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateClosed
}

func (s *Session) currentListener() Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}
