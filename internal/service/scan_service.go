package service

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"go-mrz-scanner/internal/engine"
	apperrors "go-mrz-scanner/internal/errors"
	"go-mrz-scanner/internal/observer"
	"go-mrz-scanner/internal/repository"
	"go-mrz-scanner/internal/scanner"
	"go-mrz-scanner/pkg/models"
)

const (
	// maxImageDimension bounds the longest image side before recognition;
	// larger inputs are downscaled to keep engine latency predictable
	maxImageDimension = 2048

	// defaultBatchWorkers is the concurrency used for batch scans
	defaultBatchWorkers = 4

	timestampFormat = "2006-01-02T15:04:05Z07:00"
)

// ScanService defines the interface for MRZ document scanning
type ScanService interface {
	// ScanURL fetches a remote image and recognizes its MRZ text
	ScanURL(ctx context.Context, imageURL string, expectedText string) (*models.ScanResponse, error)

	// ScanFile recognizes MRZ text in a local image file
	ScanFile(ctx context.Context, path string, expectedText string) (*models.ScanResponse, error)

	// ScanBatch scans several remote images concurrently
	ScanBatch(ctx context.Context, request models.BatchScanRequest) (*models.BatchScanResponse, error)

	// LoadSettings fetches recognition settings from storage and applies them
	LoadSettings(ctx context.Context, location string) error

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error

	// EngineVersion reports the underlying recognition engine version
	EngineVersion() string
}

// mrzScanService implements ScanService on top of one scanner session
type mrzScanService struct {
	docRepo      repository.DocumentRepository
	settingsRepo repository.SettingsRepository
	session      *scanner.Session
	publisher    observer.Subject
	batchWorkers int
}

// NewScanService creates a new MRZ scan service. The settings repository and
// publisher may be nil when the deployment does not use them.
func NewScanService(
	docRepo repository.DocumentRepository,
	settingsRepo repository.SettingsRepository,
	session *scanner.Session,
	publisher observer.Subject,
) ScanService {
	return &mrzScanService{
		docRepo:      docRepo,
		settingsRepo: settingsRepo,
		session:      session,
		publisher:    publisher,
		batchWorkers: defaultBatchWorkers,
	}
}

// ScanURL fetches a remote image and recognizes its MRZ text
func (s *mrzScanService) ScanURL(ctx context.Context, imageURL string, expectedText string) (*models.ScanResponse, error) {
	start := time.Now()
	s.emit(ctx, observer.ScanEvent{EventType: observer.ScanStarted, ImageURL: imageURL})

	if err := s.ValidateImageURL(imageURL); err != nil {
		s.emitFailure(ctx, imageURL, start, err)
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}

	img, err := s.docRepo.FetchImage(ctx, imageURL)
	if err != nil {
		s.emit(ctx, observer.ScanEvent{
			EventType:    observer.ImageFetchFailed,
			ImageURL:     imageURL,
			ErrorMessage: err.Error(),
		})
		s.emitFailure(ctx, imageURL, start, err)
		return nil, apperrors.NewNetworkError("failed to fetch image", err)
	}
	s.emit(ctx, observer.ScanEvent{EventType: observer.ImageFetched, ImageURL: imageURL})

	pixels, width, height := grayscaleFrame(img)
	lines, err := s.session.DecodeBytes(pixels, width, height, width, engine.PixelFormatGrayscale)
	if err != nil {
		s.emitFailure(ctx, imageURL, start, err)
		return nil, err
	}

	response := s.buildResponse(lines, expectedText, start)
	response.ImageURL = imageURL

	s.emit(ctx, observer.ScanEvent{
		EventType:      observer.ScanCompleted,
		ImageURL:       imageURL,
		ProcessingTime: time.Since(start),
		LineCount:      len(lines),
		Success:        true,
	})
	return response, nil
}

// ScanFile recognizes MRZ text in a local image file
func (s *mrzScanService) ScanFile(ctx context.Context, path string, expectedText string) (*models.ScanResponse, error) {
	start := time.Now()
	s.emit(ctx, observer.ScanEvent{EventType: observer.ScanStarted, Metadata: map[string]interface{}{"file_path": path}})

	lines, err := s.session.DecodeFile(path)
	if err != nil {
		s.emitFailure(ctx, "", start, err)
		return nil, err
	}

	response := s.buildResponse(lines, expectedText, start)
	response.FilePath = path

	s.emit(ctx, observer.ScanEvent{
		EventType:      observer.ScanCompleted,
		ProcessingTime: time.Since(start),
		LineCount:      len(lines),
		Success:        true,
		Metadata:       map[string]interface{}{"file_path": path},
	})
	return response, nil
}

// ScanBatch scans several remote images concurrently. Per-URL failures are
// reported inline in the matching result slot so one bad URL does not fail
// the whole batch.
func (s *mrzScanService) ScanBatch(ctx context.Context, request models.BatchScanRequest) (*models.BatchScanResponse, error) {
	if len(request.URLs) == 0 {
		return nil, apperrors.NewValidationError("batch request contains no URLs", nil)
	}

	workers := s.batchWorkers
	if len(request.URLs) < workers {
		workers = len(request.URLs)
	}

	results := make([]models.ScanResponse, len(request.URLs))
	pool := NewWorkerPool(workers)
	pool.Start()
	defer pool.Close()

	for i, imageURL := range request.URLs {
		i, imageURL := i, imageURL
		pool.Submit(func() {
			if ctx.Err() != nil {
				results[i] = errorResponse(imageURL, ctx.Err())
				return
			}
			response, err := s.ScanURL(ctx, imageURL, request.ExpectedText)
			if err != nil {
				results[i] = errorResponse(imageURL, err)
				return
			}
			results[i] = *response
		})
	}
	pool.Wait()

	return &models.BatchScanResponse{Results: results}, nil
}

// LoadSettings fetches recognition settings from storage and applies them to
// the session
func (s *mrzScanService) LoadSettings(ctx context.Context, location string) error {
	if s.settingsRepo == nil {
		return apperrors.NewStateError("no settings repository configured", nil)
	}

	content, err := s.settingsRepo.FetchSettings(ctx, location)
	if err != nil {
		return apperrors.NewNotFoundError("failed to fetch recognition settings", err)
	}

	if status := s.session.LoadModel(content); status != engine.StatusOK {
		return apperrors.NewEngineError("failed to apply recognition settings: "+engine.ErrorString(status), nil)
	}
	return nil
}

// ValidateImageURL validates the image URL
func (s *mrzScanService) ValidateImageURL(imageURL string) error {
	return s.docRepo.ValidateImageURL(imageURL)
}

// EngineVersion reports the underlying recognition engine version
func (s *mrzScanService) EngineVersion() string {
	return s.session.Version()
}

func (s *mrzScanService) buildResponse(lines []models.LineResult, expectedText string, start time.Time) *models.ScanResponse {
	response := &models.ScanResponse{
		Timestamp:         time.Now().Format(timestampFormat),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Lines:             lines,
		TextMatch:         buildTextMatch(expectedText, joinLineText(lines)),
	}
	if len(lines) == 0 {
		response.Errors = append(response.Errors, "no MRZ lines recognized")
	}
	return response
}

func (s *mrzScanService) emit(ctx context.Context, event observer.ScanEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now()
	s.publisher.NotifyObservers(ctx, event)
}

func (s *mrzScanService) emitFailure(ctx context.Context, imageURL string, start time.Time, err error) {
	s.emit(ctx, observer.ScanEvent{
		EventType:      observer.ScanFailed,
		ImageURL:       imageURL,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

func errorResponse(imageURL string, err error) models.ScanResponse {
	return models.ScanResponse{
		ImageURL:  imageURL,
		Timestamp: time.Now().Format(timestampFormat),
		Lines:     []models.LineResult{},
		Errors:    []string{err.Error()},
	}
}

// joinLineText concatenates recognized lines into one newline-separated
// string for text matching
func joinLineText(lines []models.LineResult) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.Text)
	}
	return strings.Join(parts, "\n")
}

// grayscaleFrame converts a decoded image into the tightly packed grayscale
// buffer the engine consumes. Oversized inputs are downscaled first.
func grayscaleFrame(img image.Image) (pixels []byte, width, height int) {
	bounds := img.Bounds()
	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)
	}

	gray := imaging.Grayscale(img)
	width = gray.Rect.Dx()
	height = gray.Rect.Dy()

	// Grayscale output stores equal R, G and B per pixel; keep one channel.
	pixels = make([]byte, width*height)
	for y := 0; y < height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < width; x++ {
			pixels[y*width+x] = row[x*4]
		}
	}
	return pixels, width, height
}
