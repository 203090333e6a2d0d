package scanner

import (
	"github.com/sirupsen/logrus"

	"go-mrz-scanner/internal/engine"
	"go-mrz-scanner/internal/logger"
	"go-mrz-scanner/pkg/models"
)

// workerLoop drains the task queue on a dedicated goroutine until the
// queue shuts down. A failed recognition never stops the loop: the status
// is logged, the frame is released, and the loop moves on. Frames left in
// the queue at shutdown are drained by ClearAsyncListener, not here.
func (s *Session) workerLoop(queue *taskQueue) {
	defer s.workerWG.Done()

	for {
		t, ok := queue.takeBlocking()
		if !ok {
			return
		}
		s.processTask(t)
	}
}

// processTask runs one recognition. The frame is released unconditionally
// once the engine call returns, success or failure. The listener is
// invoked only when the engine produced results, and outside the engine
// lock so host code cannot stall a concurrent synchronous call.
func (s *Session) processTask(t *task) {
	data := t.frame.imageData()

	s.engineMu.Lock()
	status := s.eng.RecognizeBuffer(data, engine.ModeMRZ)
	var lines []models.LineResult
	if status == engine.StatusOK {
		if set := s.eng.AllResults(); set != nil {
			lines = flattenResults(set)
			s.eng.FreeResults(set)
		}
	}
	s.engineMu.Unlock()

	t.frame.release()

	if status != engine.StatusOK {
		logger.WithFields(logrus.Fields{
			"status": int(status),
			"error":  engine.ErrorString(status),
		}).Error("Async recognition failed")
		return
	}
	if lines == nil {
		// Nothing detected; absent results mean no callback invocation.
		return
	}

	if listener := s.currentListener(); listener != nil {
		dispatch(listener, lines)
	}
}
