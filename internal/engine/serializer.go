package engine

import (
	"sort"

	"github.com/go-logr/logr"

	"github.com/coffersTech/tierlog/internal/codec"
	"github.com/coffersTech/tierlog/internal/model"
)

// Serializer encodes an aggregate into a payload that fits a byte budget.
type Serializer struct {
	encoder codec.Encoder
	logger  logr.Logger
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithLogger sets the logger that receives encoding anomalies.
func WithLogger(logger logr.Logger) SerializerOption {
	return func(s *Serializer) { s.logger = logger }
}

// NewSerializer returns a Serializer using enc, or the JSON codec when enc
// is nil.
func NewSerializer(enc codec.Encoder, opts ...SerializerOption) *Serializer {
	if enc == nil {
		enc = codec.JSON
	}
	s := &Serializer{encoder: enc, logger: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Encoder returns the encoder in use.
func (s *Serializer) Encoder() codec.Encoder {
	return s.encoder
}

// Result describes a bounded serialization.
type Result struct {
	Payload   string
	Included  int // entries in Payload, always a prefix of the aggregate
	Total     int
	Truncated bool
}

// Serialize returns the encoding of the longest prefix of l whose encoding
// is at most maxBytes long. See SerializeResult.
func (s *Serializer) Serialize(l *Log, maxBytes int) string {
	return s.SerializeResult(l, maxBytes).Payload
}

// SerializeResult encodes l, dropping entries from the tail until the
// payload fits in maxBytes.
//
// The full encoding is returned when it fits, and always for an empty
// aggregate. Otherwise the largest prefix length k in [0, n) that fits is
// chosen. When even k = 0 does not fit (the budget is below the wrapper
// overhead) the k = 0 encoding is returned anyway, so the call never fails
// but may exceed a budget that small.
//
// For a monotonic encoder k is found by binary search with O(log n) encode
// calls; other encoders are scanned from n-1 down.
func (s *Serializer) SerializeResult(l *Log, maxBytes int) Result {
	n := len(l.Entries)

	full := s.encode(l.Entries, n)
	if n == 0 || len(full) <= maxBytes {
		return Result{Payload: full, Included: n, Total: n}
	}

	var k int
	var payload string
	if s.encoder.Monotonic() {
		k, payload = s.search(l.Entries, maxBytes)
	} else {
		k, payload = s.scan(l.Entries, maxBytes)
	}
	return Result{Payload: payload, Included: k, Total: n, Truncated: true}
}

// search binary-searches the first prefix length whose encoding does not
// fit. The probe just below that boundary is always evaluated, so the
// largest fitting probe is the answer.
func (s *Serializer) search(entries []model.LogEntry, maxBytes int) (int, string) {
	best, bestPayload := -1, ""
	sort.Search(len(entries), func(k int) bool {
		out := s.encode(entries[:k], k)
		if len(out) > maxBytes {
			return true
		}
		if k > best {
			best, bestPayload = k, out
		}
		return false
	})
	if best < 0 {
		return 0, s.encode(entries[:0], 0)
	}
	return best, bestPayload
}

func (s *Serializer) scan(entries []model.LogEntry, maxBytes int) (int, string) {
	var out string
	for k := len(entries) - 1; k >= 0; k-- {
		out = s.encode(entries[:k], k)
		if len(out) <= maxBytes {
			return k, out
		}
	}
	// k = 0 did not fit either; out holds its encoding.
	return 0, out
}

// encode never fails: an encoder error is logged and yields an empty
// payload, which fits any non-negative budget.
func (s *Serializer) encode(entries []model.LogEntry, k int) string {
	out, err := s.encoder.Encode(entries)
	if err != nil {
		s.logger.Error(err, "encoding anomaly, substituting empty payload",
			"codec", s.encoder.Name(), "entries", k)
		return ""
	}
	return string(out)
}

// Serialize is a convenience for NewSerializer(codec.JSON).Serialize.
func (l *Log) Serialize(maxBytes int) string {
	return NewSerializer(codec.JSON).Serialize(l, maxBytes)
}
