package instrument

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
)

// LogSink writes one log line per finished span.
type LogSink struct {
	Logger *log.Logger // nil uses the standard logger
}

func (l *LogSink) Emit(e Event) {
	var b strings.Builder
	fmt.Fprintf(&b, "SPAN trace=%s %s.%s.%s %.2fms", e.TraceID, e.Source, e.Component, e.Action, e.DurationMs)
	if e.Status != "" {
		fmt.Fprintf(&b, " status=%s", e.Status)
	}
	if e.Resource != "" {
		fmt.Fprintf(&b, " resource=%s", e.Resource)
	}
	if e.RecordID != "" {
		fmt.Fprintf(&b, " id=%s", e.RecordID)
	}
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Metadata[k])
	}

	if l.Logger != nil {
		l.Logger.Print(b.String())
		return
	}
	log.Print(b.String())
}

// MemorySink keeps finished spans in memory. Used by tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (m *MemorySink) Emit(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of the recorded spans.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
