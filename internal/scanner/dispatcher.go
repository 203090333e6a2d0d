package scanner

import (
	"go-mrz-scanner/internal/engine"
	"go-mrz-scanner/internal/logger"
	"go-mrz-scanner/pkg/models"
)

// flattenResults converts the engine's nested result structure (top-level
// results each holding line-level sub-results) into one flat ordered
// sequence of line records.
func flattenResults(set *engine.ResultSet) []models.LineResult {
	if set == nil {
		return nil
	}

	var lines []models.LineResult
	for _, result := range set.Results {
		for _, line := range result.Lines {
			lines = append(lines, models.LineResult{
				Confidence: line.Confidence,
				Text:       line.Text,
				X1:         line.Location[0].X,
				Y1:         line.Location[0].Y,
				X2:         line.Location[1].X,
				Y2:         line.Location[1].Y,
				X3:         line.Location[2].X,
				Y3:         line.Location[2].Y,
				X4:         line.Location[3].X,
				Y4:         line.Location[3].Y,
			})
		}
	}
	return lines
}

// dispatch invokes the listener with one recognition's results. A panic in
// host code is logged and swallowed so the worker loop keeps running.
func dispatch(listener Listener, lines []models.LineResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Async listener panicked")
		}
	}()
	listener(lines)
}
