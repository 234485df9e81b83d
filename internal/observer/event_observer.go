package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineEvent describes one step of a crop or split request
type PipelineEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Operation      string                 `json:"operation"`
	Filename       string                 `json:"filename,omitempty"`
	URL            string                 `json:"url,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// RequestStarted when a flow begins
	RequestStarted EventType = "request_started"
	// RequestCompleted when a flow responds successfully
	RequestCompleted EventType = "request_completed"
	// RequestFailed when a flow aborts
	RequestFailed EventType = "request_failed"
	// ImageFetched when a URL source was downloaded
	ImageFetched EventType = "image_fetched"
	// CandidateSelected when the table processor produced a usable candidate
	CandidateSelected EventType = "candidate_selected"
	// AssetPublished when an output image was uploaded
	AssetPublished EventType = "asset_published"
	// AssetPublishFailed when an upload was rejected
	AssetPublishFailed EventType = "asset_publish_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PipelineEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PipelineEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"operation":  event.Operation,
		"success":    event.Success,
	}
	if event.Filename != "" {
		fields["filename"] = event.Filename
	}
	if event.URL != "" {
		fields["url"] = event.URL
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case RequestStarted:
		entry.Info("Request started")
	case RequestCompleted:
		entry.Info("Request completed")
	case RequestFailed:
		entry.Error("Request failed")
	case ImageFetched:
		entry.Debug("Image fetched")
	case CandidateSelected:
		entry.Debug("Candidate selected")
	case AssetPublished:
		entry.Info("Asset published")
	case AssetPublishFailed:
		entry.Error("Asset publish failed")
	default:
		entry.Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// OperationStats are the counters kept per operation
type OperationStats struct {
	Total          int64         `json:"total"`
	Succeeded      int64         `json:"succeeded"`
	Failed         int64         `json:"failed"`
	AvgProcessTime time.Duration `json:"avg_processing_time_ns"`
	totalTime      time.Duration
}

// MetricsObserver collects counters from pipeline events
type MetricsObserver struct {
	mu              sync.RWMutex
	operations      map[string]*OperationStats
	publishedAssets int64
	publishFailures int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{operations: make(map[string]*OperationStats)}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	stats := o.operations[event.Operation]
	if stats == nil {
		stats = &OperationStats{}
		o.operations[event.Operation] = stats
	}

	switch event.EventType {
	case RequestStarted:
		stats.Total++
	case RequestCompleted:
		stats.Succeeded++
		stats.totalTime += event.ProcessingTime
		stats.AvgProcessTime = stats.totalTime / time.Duration(stats.Succeeded)
	case RequestFailed:
		stats.Failed++
	case AssetPublished:
		o.publishedAssets++
	case AssetPublishFailed:
		o.publishFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns a snapshot of the current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	operations := make(map[string]OperationStats, len(o.operations))
	for name, stats := range o.operations {
		if name == "" {
			continue
		}
		operations[name] = *stats
	}

	return map[string]interface{}{
		"operations":       operations,
		"published_assets": o.publishedAssets,
		"publish_failures": o.publishFailures,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
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

// NotifyObservers delivers event to every observer in subscription order.
// A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PipelineEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}()
	}
}
