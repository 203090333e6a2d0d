package scanner

import (
	"sync"

	"go-mrz-scanner/internal/engine"
)

// fakeEngine is a scripted Engine implementation for session and worker
// tests. Results for buffer recognitions are produced per call via
// resultsFor, keyed on the submitted pixel data.
type fakeEngine struct {
	mu sync.Mutex

	fileStatus   engine.Status
	bufferStatus engine.Status
	resultsFor   func(data engine.ImageData) *engine.ResultSet

	// gate, when non-nil, blocks each RecognizeBuffer call until the test
	// sends on it. Lets tests pile up submissions behind an in-flight task.
	gate chan struct{}

	bufferCalls int
	fileCalls   int
	freedSets   int
	closeCalls  int

	current *engine.ResultSet
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{}
}

func (f *fakeEngine) RecognizeFile(path string, mode string) engine.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileCalls++
	f.current = nil
	if f.fileStatus != engine.StatusOK {
		return f.fileStatus
	}
	if f.resultsFor != nil {
		f.current = f.resultsFor(engine.ImageData{})
	}
	return engine.StatusOK
}

func (f *fakeEngine) RecognizeBuffer(data engine.ImageData, mode string) engine.Status {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bufferCalls++
	f.current = nil
	if f.bufferStatus != engine.StatusOK {
		return f.bufferStatus
	}
	if f.resultsFor != nil {
		f.current = f.resultsFor(data)
	}
	return engine.StatusOK
}

func (f *fakeEngine) AllResults() *engine.ResultSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeEngine) FreeResults(set *engine.ResultSet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if set != nil {
		f.freedSets++
		if f.current == set {
			f.current = nil
		}
	}
}

func (f *fakeEngine) AppendSettingsFromFile(path string) (engine.Status, string) {
	return engine.StatusOK, "settings applied"
}

func (f *fakeEngine) AppendSettingsFromString(content string) (engine.Status, string) {
	return engine.StatusOK, "settings applied"
}

func (f *fakeEngine) Version() string {
	return "fake-1.0"
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

// singleLineSet builds a one-result, one-line result set with the given text
func singleLineSet(text string, confidence int) *engine.ResultSet {
	return &engine.ResultSet{
		Results: []*engine.Result{
			{
				Lines: []*engine.LineResult{
					{
						Confidence: confidence,
						Text:       text,
						Location: [4]engine.Point{
							{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 0, Y: 5},
						},
					},
				},
			},
		},
	}
}
