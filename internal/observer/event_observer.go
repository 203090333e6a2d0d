package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanEvent represents one event in a scan's lifecycle
type ScanEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ImageURL       string                 `json:"image_url,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	LineCount      int                    `json:"line_count"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of scan event
type EventType string

const (
	// ScanStarted when a scan begins
	ScanStarted EventType = "scan_started"
	// ScanCompleted when a scan finishes successfully
	ScanCompleted EventType = "scan_completed"
	// ScanFailed when a scan fails
	ScanFailed EventType = "scan_failed"
	// ImageFetched when a document image is successfully fetched
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when a document image fetch fails
	ImageFetchFailed EventType = "image_fetch_failed"
)

// Observer defines the interface for scan event observers
type Observer interface {
	OnEvent(ctx context.Context, event ScanEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ScanEvent)
}

// LoggingObserver logs scan events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

// OnEvent handles scan events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ScanEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"image_url":       event.ImageURL,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.LineCount > 0 {
		fields["line_count"] = event.LineCount
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case ScanStarted:
		o.logger.WithFields(fields).Info("MRZ scan started")
	case ScanCompleted:
		o.logger.WithFields(fields).Info("MRZ scan completed")
	case ScanFailed:
		o.logger.WithFields(fields).Error("MRZ scan failed")
	case ImageFetched:
		o.logger.WithFields(fields).Debug("Document image fetched")
	case ImageFetchFailed:
		o.logger.WithFields(fields).Error("Document image fetch failed")
	default:
		o.logger.WithFields(fields).Info("Scan event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from scan events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalScans          int64
	successfulScans     int64
	failedScans         int64
	linesRecognized     int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() Observer {
	return &MetricsObserver{}
}

// OnEvent handles scan events by updating counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event ScanEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ScanStarted:
		o.totalScans++
	case ScanCompleted:
		o.successfulScans++
		o.linesRecognized += int64(event.LineCount)
		o.totalProcessingTime += event.ProcessingTime
	case ScanFailed:
		o.failedScans++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns a snapshot of the collected counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulScans > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulScans)
	}

	return map[string]interface{}{
		"total_scans":           o.totalScans,
		"successful_scans":      o.successfulScans,
		"failed_scans":          o.failedScans,
		"lines_recognized":      o.linesRecognized,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{observers: make([]Observer, 0)}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ScanEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
