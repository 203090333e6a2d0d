package service

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	"go-mrz-scanner/internal/engine"
	apperrors "go-mrz-scanner/internal/errors"
	"go-mrz-scanner/internal/observer"
	"go-mrz-scanner/internal/scanner"
	"go-mrz-scanner/pkg/models"
)

// stubEngine is a scripted recognition engine for service tests
type stubEngine struct {
	mu             sync.Mutex
	bufferStatus   engine.Status
	fileStatus     engine.Status
	lineText       string
	current        *engine.ResultSet
	appliedContent string
}

func (e *stubEngine) RecognizeFile(path, mode string) engine.Status {
	return e.recognize(e.fileStatus)
}

func (e *stubEngine) recognize(status engine.Status) engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if status != engine.StatusOK {
		e.current = nil
		return status
	}
	e.current = &engine.ResultSet{Results: []*engine.Result{{
		Lines: []*engine.LineResult{{
			Confidence: 90,
			Text:       e.lineText,
			Location:   [4]engine.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 0, Y: 5}},
		}},
	}}}
	return engine.StatusOK
}

func (e *stubEngine) RecognizeBuffer(data engine.ImageData, mode string) engine.Status {
	return e.recognize(e.bufferStatus)
}

func (e *stubEngine) AllResults() *engine.ResultSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *stubEngine) FreeResults(set *engine.ResultSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = nil
}

func (e *stubEngine) AppendSettingsFromFile(path string) (engine.Status, string) {
	return engine.StatusOK, "loaded"
}

func (e *stubEngine) AppendSettingsFromString(content string) (engine.Status, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appliedContent = content
	return engine.StatusOK, "loaded"
}

func (e *stubEngine) Version() string { return "stub-1.0" }
func (e *stubEngine) Close() error    { return nil }

// fakeDocRepo serves a fixed image or error
type fakeDocRepo struct {
	img         image.Image
	fetchErr    error
	validateErr error
	failFor     map[string]error
}

func (r *fakeDocRepo) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if err, ok := r.failFor[imageURL]; ok {
		return nil, err
	}
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.img, nil
}

func (r *fakeDocRepo) ValidateImageURL(imageURL string) error { return r.validateErr }

// fakeSettingsRepo serves fixed settings content
type fakeSettingsRepo struct {
	content string
	err     error
}

func (r *fakeSettingsRepo) FetchSettings(ctx context.Context, location string) (string, error) {
	return r.content, r.err
}

// recordingPublisher captures events synchronously
type recordingPublisher struct {
	mu     sync.Mutex
	events []observer.EventType
}

func (p *recordingPublisher) Subscribe(observer.Observer)   {}
func (p *recordingPublisher) Unsubscribe(observer.Observer) {}

func (p *recordingPublisher) NotifyObservers(ctx context.Context, event observer.ScanEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.EventType)
}

func (p *recordingPublisher) seen(eventType observer.EventType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == eventType {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, eng *stubEngine, repo *fakeDocRepo, settings *fakeSettingsRepo, pub observer.Subject) (ScanService, *scanner.Session) {
	t.Helper()
	session := scanner.NewSession(eng)
	t.Cleanup(func() { session.Close() })

	if settings == nil {
		return NewScanService(repo, nil, session, pub), session
	}
	return NewScanService(repo, settings, session, pub), session
}

func testImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 64, 32))
}

func TestScanURL_Success(t *testing.T) {
	eng := &stubEngine{lineText: "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"}
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, eng, &fakeDocRepo{img: testImage()}, nil, pub)

	resp, err := svc.ScanURL(context.Background(), "https://example.com/passport.png", "")
	if err != nil {
		t.Fatalf("ScanURL() error = %v", err)
	}
	if resp.ImageURL != "https://example.com/passport.png" {
		t.Errorf("ImageURL = %q", resp.ImageURL)
	}
	if len(resp.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1", len(resp.Lines))
	}
	if resp.Lines[0].Text != eng.lineText {
		t.Errorf("line text = %q, want %q", resp.Lines[0].Text, eng.lineText)
	}
	if resp.Lines[0].X3 != 10 || resp.Lines[0].Y3 != 5 {
		t.Errorf("corner 3 = (%d,%d), want (10,5)", resp.Lines[0].X3, resp.Lines[0].Y3)
	}
	if resp.TextMatch != nil {
		t.Errorf("TextMatch = %+v, want nil without expectation", resp.TextMatch)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("Errors = %v, want none", resp.Errors)
	}
	if !pub.seen(observer.ScanStarted) || !pub.seen(observer.ImageFetched) || !pub.seen(observer.ScanCompleted) {
		t.Errorf("missing lifecycle events, got %v", pub.events)
	}
}

func TestScanURL_WithExpectedText(t *testing.T) {
	eng := &stubEngine{lineText: "IDFRADOUEL<<<<<<<<<<<<<<<<<<<<075025"}
	svc, _ := newTestService(t, eng, &fakeDocRepo{img: testImage()}, nil, nil)

	resp, err := svc.ScanURL(context.Background(), "https://example.com/id.png", "IDFRADOUEL<<<<<<<<<<<<<<<<<<<<075025")
	if err != nil {
		t.Fatalf("ScanURL() error = %v", err)
	}
	if resp.TextMatch == nil {
		t.Fatal("TextMatch = nil, want a match")
	}
	if resp.TextMatch.Similarity != 1.0 {
		t.Errorf("Similarity = %v, want 1.0", resp.TextMatch.Similarity)
	}
	if resp.TextMatch.WordErrorRate != 0.0 {
		t.Errorf("WordErrorRate = %v, want 0.0", resp.TextMatch.WordErrorRate)
	}
}

func TestScanURL_FetchFailure(t *testing.T) {
	eng := &stubEngine{lineText: "unused"}
	pub := &recordingPublisher{}
	repo := &fakeDocRepo{fetchErr: errors.New("connection refused")}
	svc, _ := newTestService(t, eng, repo, nil, pub)

	_, err := svc.ScanURL(context.Background(), "https://example.com/missing.png", "")
	if err == nil {
		t.Fatal("ScanURL() error = nil, want network error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("error type = %v, want network", err)
	}
	if !pub.seen(observer.ImageFetchFailed) || !pub.seen(observer.ScanFailed) {
		t.Errorf("missing failure events, got %v", pub.events)
	}
}

func TestScanURL_InvalidURL(t *testing.T) {
	eng := &stubEngine{}
	repo := &fakeDocRepo{validateErr: errors.New("scheme not allowed")}
	svc, _ := newTestService(t, eng, repo, nil, nil)

	_, err := svc.ScanURL(context.Background(), "ftp://example.com/a.png", "")
	if err == nil {
		t.Fatal("ScanURL() error = nil, want validation error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("error type = %v, want validation", err)
	}
}

func TestScanURL_NoLinesRecognized(t *testing.T) {
	eng := &stubEngine{bufferStatus: engine.StatusRecognitionFailed}
	svc, _ := newTestService(t, eng, &fakeDocRepo{img: testImage()}, nil, nil)

	resp, err := svc.ScanURL(context.Background(), "https://example.com/blank.png", "")
	if err != nil {
		t.Fatalf("ScanURL() error = %v, engine failures should degrade", err)
	}
	if len(resp.Lines) != 0 {
		t.Errorf("len(Lines) = %d, want 0", len(resp.Lines))
	}
	if len(resp.Errors) == 0 {
		t.Error("Errors is empty, want a no-lines entry")
	}
}

func TestScanBatch_IsolatesFailures(t *testing.T) {
	eng := &stubEngine{lineText: "P<UTOLINE"}
	repo := &fakeDocRepo{
		img:     testImage(),
		failFor: map[string]error{"https://example.com/bad.png": errors.New("boom")},
	}
	svc, _ := newTestService(t, eng, repo, nil, nil)

	resp, err := svc.ScanBatch(context.Background(), models.BatchScanRequest{
		URLs: []string{
			"https://example.com/a.png",
			"https://example.com/bad.png",
			"https://example.com/b.png",
		},
	})
	if err != nil {
		t.Fatalf("ScanBatch() error = %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(resp.Results))
	}
	if len(resp.Results[0].Lines) != 1 || len(resp.Results[2].Lines) != 1 {
		t.Error("healthy URLs should have recognized lines")
	}
	if len(resp.Results[1].Errors) == 0 {
		t.Error("failing URL should carry an inline error")
	}
	if resp.Results[1].ImageURL != "https://example.com/bad.png" {
		t.Errorf("result order not preserved: %q", resp.Results[1].ImageURL)
	}
}

func TestScanBatch_EmptyRequest(t *testing.T) {
	eng := &stubEngine{}
	svc, _ := newTestService(t, eng, &fakeDocRepo{img: testImage()}, nil, nil)

	_, err := svc.ScanBatch(context.Background(), models.BatchScanRequest{})
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestLoadSettings_AppliesContent(t *testing.T) {
	eng := &stubEngine{}
	settings := &fakeSettingsRepo{content: "psm=6\nwhitelist=ABC123<"}
	svc, _ := newTestService(t, eng, &fakeDocRepo{img: testImage()}, settings, nil)

	if err := svc.LoadSettings(context.Background(), "mrz-settings.txt"); err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if !strings.Contains(eng.appliedContent, "whitelist=ABC123<") {
		t.Errorf("settings content not applied, got %q", eng.appliedContent)
	}
}

func TestLoadSettings_NotFound(t *testing.T) {
	eng := &stubEngine{}
	settings := &fakeSettingsRepo{err: errors.New("no such blob")}
	svc, _ := newTestService(t, eng, &fakeDocRepo{img: testImage()}, settings, nil)

	err := svc.LoadSettings(context.Background(), "missing.txt")
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("error = %v, want not-found error", err)
	}
}

func TestLoadSettings_NoRepositoryConfigured(t *testing.T) {
	eng := &stubEngine{}
	svc, _ := newTestService(t, eng, &fakeDocRepo{img: testImage()}, nil, nil)

	err := svc.LoadSettings(context.Background(), "anything.txt")
	if !apperrors.IsType(err, apperrors.ErrorTypeState) {
		t.Errorf("error = %v, want state error", err)
	}
}

func TestGrayscaleFrame_PacksOneBytePerPixel(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 10))
	for i := range img.Pix {
		img.Pix[i] = byte(i % 251)
	}

	pixels, width, height := grayscaleFrame(img)
	if width != 20 || height != 10 {
		t.Fatalf("dimensions = %dx%d, want 20x10", width, height)
	}
	if len(pixels) != width*height {
		t.Fatalf("len(pixels) = %d, want %d", len(pixels), width*height)
	}
}

func TestGrayscaleFrame_DownscalesOversizedImages(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, maxImageDimension*2, 100))

	_, width, height := grayscaleFrame(img)
	if width > maxImageDimension || height > maxImageDimension {
		t.Errorf("dimensions = %dx%d, want both <= %d", width, height, maxImageDimension)
	}
	if width == 0 || height == 0 {
		t.Errorf("dimensions = %dx%d, degenerate output", width, height)
	}
}

func TestEngineVersion(t *testing.T) {
	eng := &stubEngine{}
	svc, _ := newTestService(t, eng, &fakeDocRepo{img: testImage()}, nil, nil)

	if got := svc.EngineVersion(); got != "stub-1.0" {
		t.Errorf("EngineVersion() = %q", got)
	}
}
