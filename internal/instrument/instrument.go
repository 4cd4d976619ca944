package instrument

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	parentSpanIDKey
	instrumenterKey
)

// Instrumenter interface defines the tracing API.
type Instrumenter interface {
	StartSpan(ctx context.Context, source, component, action string) (context.Context, Span)
}

// Span interface represents a timed operation span.
type Span interface {
	End()
	SetStatus(status string)
	SetMetadata(key string, value any)
	SetResource(resource, recordID string)
	TraceID() string
	SpanID() string
}

// Event is a finished span as handed to a Sink.
type Event struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	Source       string         `json:"source"`
	Component    string         `json:"component"`
	Action       string         `json:"action"`
	Resource     string         `json:"resource,omitempty"`
	RecordID     string         `json:"record_id,omitempty"`
	DurationMs   float64        `json:"duration_ms"`
	Status       string         `json:"status,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Sink receives finished spans.
type Sink interface {
	Emit(event Event)
}

func newUUID() string {
	return uuid.New().String()
}

// WithTraceID sets the trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

func withParentSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, parentSpanIDKey, spanID)
}

func getParentSpanID(ctx context.Context) string {
	if v, ok := ctx.Value(parentSpanIDKey).(string); ok {
		return v
	}
	return ""
}

// WithInstrumenter sets the instrumenter in the context.
func WithInstrumenter(ctx context.Context, inst Instrumenter) context.Context {
	return context.WithValue(ctx, instrumenterKey, inst)
}

// GetInstrumenter returns the instrumenter from the context,
// or a NoopInstrumenter if none is set.
func GetInstrumenter(ctx context.Context) Instrumenter {
	if v, ok := ctx.Value(instrumenterKey).(Instrumenter); ok {
		return v
	}
	return &NoopInstrumenter{}
}

// SinkInstrumenter hands every finished span to a Sink.
type SinkInstrumenter struct {
	sink Sink
}

func NewInstrumenter(sink Sink) *SinkInstrumenter {
	return &SinkInstrumenter{sink: sink}
}

// StartSpan creates a new span and returns the updated context.
func (i *SinkInstrumenter) StartSpan(ctx context.Context, source, component, action string) (context.Context, Span) {
	span := &sinkSpan{
		traceID:      GetTraceID(ctx),
		spanID:       newUUID(),
		parentSpanID: getParentSpanID(ctx),
		source:       source,
		component:    component,
		action:       action,
		startTime:    time.Now(),
		metadata:     make(map[string]any),
		sink:         i.sink,
	}
	// child spans reference this span as parent
	return withParentSpanID(ctx, span.spanID), span
}

type sinkSpan struct {
	traceID      string
	spanID       string
	parentSpanID string
	source       string
	component    string
	action       string
	resource     string
	recordID     string
	status       string
	startTime    time.Time
	metadata     map[string]any
	sink         Sink
	mu           sync.Mutex
	ended        bool
}

func (s *sinkSpan) TraceID() string { return s.traceID }
func (s *sinkSpan) SpanID() string  { return s.spanID }

func (s *sinkSpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *sinkSpan) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[key] = value
}

func (s *sinkSpan) SetResource(resource, recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resource = resource
	s.recordID = recordID
}

func (s *sinkSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	s.sink.Emit(Event{
		TraceID:      s.traceID,
		SpanID:       s.spanID,
		ParentSpanID: s.parentSpanID,
		Source:       s.source,
		Component:    s.component,
		Action:       s.action,
		Resource:     s.resource,
		RecordID:     s.recordID,
		DurationMs:   float64(time.Since(s.startTime).Microseconds()) / 1000.0,
		Status:       s.status,
		Metadata:     s.metadata,
		CreatedAt:    time.Now(),
	})
}
