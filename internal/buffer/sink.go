package buffer

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"

	"github.com/coffersTech/tierlog/internal/model"
)

// Sink observes every entry appended to a Store.
// Sinks are notified after the entry is retained, outside the tier lock.
type Sink interface {
	Append(p model.Priority, e model.RawEntry)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(p model.Priority, e model.RawEntry)

func (f SinkFunc) Append(p model.Priority, e model.RawEntry) { f(p, e) }

type printSink struct {
	mu sync.Mutex
	w  io.Writer
}

// PrintSink mirrors entries to w as "INFO file:line message" lines.
func PrintSink(w io.Writer) Sink {
	return &printSink{w: w}
}

func (s *printSink) Append(p model.Priority, e model.RawEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s %s:%d %s\n", p.Tag(), e.File, e.Line, e.Message)
}

// LoggerSink mirrors entries through a structured logger.
// Debug-tier entries are logged at V(1).
func LoggerSink(logger logr.Logger) Sink {
	return SinkFunc(func(p model.Priority, e model.RawEntry) {
		kv := []any{
			"priority", p.Tag(),
			"file", e.File,
			"line", e.Line,
			"counter", e.Counter,
		}
		switch p {
		case model.Error:
			logger.Error(nil, e.Message, kv...)
		case model.Debug:
			logger.V(1).Info(e.Message, kv...)
		default:
			logger.Info(e.Message, kv...)
		}
	})
}
