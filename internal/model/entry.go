package model

// RawEntry is a record as retained by a tier buffer, before it is tagged
// with the tier's priority.
type RawEntry struct {
	Timestamp uint64 `json:"timestamp" cbor:"timestamp"`
	Counter   uint64 `json:"counter" cbor:"counter"`
	File      string `json:"file" cbor:"file"`
	Line      uint32 `json:"line" cbor:"line"`
	Message   string `json:"message" cbor:"message"`
}

// LogEntry is a normalized log record inside an aggregate.
// Timestamp is a monotonic clock reading; Counter is the per-tier sequence
// number assigned on append.
type LogEntry struct {
	Timestamp uint64   `json:"timestamp" cbor:"timestamp"`
	Priority  Priority `json:"priority" cbor:"priority"`
	File      string   `json:"file" cbor:"file"`
	Line      uint32   `json:"line" cbor:"line"`
	Message   string   `json:"message" cbor:"message"`
	Counter   uint64   `json:"counter" cbor:"counter"`
}

// NewLogEntry tags a raw tier record with its priority.
func NewLogEntry(p Priority, raw RawEntry) LogEntry {
	return LogEntry{
		Timestamp: raw.Timestamp,
		Priority:  p,
		File:      raw.File,
		Line:      raw.Line,
		Message:   raw.Message,
		Counter:   raw.Counter,
	}
}

// The accessors below let entries be matched by the query package.

func (e *LogEntry) GetTimestamp() uint64 { return e.Timestamp }
func (e *LogEntry) GetPriority() string  { return e.Priority.String() }
func (e *LogEntry) GetFile() string      { return e.File }
func (e *LogEntry) GetLine() uint32      { return e.Line }
func (e *LogEntry) GetMessage() string   { return e.Message }
func (e *LogEntry) GetCounter() uint64   { return e.Counter }
