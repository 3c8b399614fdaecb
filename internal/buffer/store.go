package buffer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/coffersTech/tierlog/internal/model"
)

// DefaultCapacity is the number of entries each tier retains.
const DefaultCapacity = 1000

// tier is one priority buffer with its own lock and sequence counter.
type tier struct {
	mu      sync.Mutex
	ring    *RingBuffer[model.RawEntry]
	next    uint64 // counter assigned to the next appended entry
	evicted uint64
}

// Store holds the three priority tiers.
// Each tier is locked independently, so an export of one tier is a
// consistent snapshot while the others keep accepting appends.
type Store struct {
	tiers    [3]*tier
	capacity int
	clock    func() uint64
	sinks    []Sink
	journal  *Journal
	logger   logr.Logger
}

// TierStats describes the occupancy of a single tier.
type TierStats struct {
	Priority model.Priority `json:"priority"`
	Retained int            `json:"retained"`
	Appended uint64         `json:"appended"`
	Evicted  uint64         `json:"evicted"`
	Capacity int            `json:"capacity"`
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity sets the per-tier capacity.
func WithCapacity(n int) Option {
	return func(s *Store) { s.capacity = n }
}

// WithClock replaces the timestamp source.
func WithClock(clock func() uint64) Option {
	return func(s *Store) { s.clock = clock }
}

// WithSink registers an observer for appended entries.
func WithSink(sink Sink) Option {
	return func(s *Store) { s.sinks = append(s.sinks, sink) }
}

// WithJournal records every append to j.
func WithJournal(j *Journal) Option {
	return func(s *Store) { s.journal = j }
}

// WithLogger sets the logger used for journal failures.
func WithLogger(logger logr.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Store with empty tiers.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		capacity: DefaultCapacity,
		logger:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = monotonicClock()
	}

	for i := range s.tiers {
		ring, err := NewRingBuffer[model.RawEntry](s.capacity)
		if err != nil {
			return nil, fmt.Errorf("tier %s: %w", model.Priority(i), err)
		}
		s.tiers[i] = &tier{ring: ring}
	}
	return s, nil
}

// monotonicClock reads wall-clock nanoseconds and never returns a value
// lower than one it already returned, so timestamps stay ordered across
// restarts and system clock steps.
func monotonicClock() func() uint64 {
	var last atomic.Uint64
	return func() uint64 {
		now := uint64(time.Now().UnixNano())
		for {
			prev := last.Load()
			if now < prev {
				now = prev
			}
			if last.CompareAndSwap(prev, now) {
				return now
			}
		}
	}
}

func (s *Store) tierFor(p model.Priority) *tier {
	if !p.Valid() {
		panic(fmt.Sprintf("buffer: invalid priority %d", uint8(p)))
	}
	return s.tiers[p]
}

// Append records a message in tier p and returns the stored entry.
func (s *Store) Append(p model.Priority, file string, line uint32, message string) model.RawEntry {
	t := s.tierFor(p)

	t.mu.Lock()
	entry := model.RawEntry{
		Timestamp: s.clock(),
		Counter:   t.next,
		File:      file,
		Line:      line,
		Message:   message,
	}
	t.next++
	if t.ring.Push(entry) {
		t.evicted++
	}
	if s.journal != nil {
		if err := s.journal.Write(p, entry); err != nil {
			s.logger.Error(err, "journal write failed", "priority", p.Tag(), "counter", entry.Counter)
		}
	}
	t.mu.Unlock()

	for _, sink := range s.sinks {
		sink.Append(p, entry)
	}
	return entry
}

// Export returns the entries currently retained by tier p, oldest first.
// The tier is left untouched.
func (s *Store) Export(p model.Priority) []model.RawEntry {
	t := s.tierFor(p)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ring.GetAll()
}

// Drain returns the entries retained by tier p and clears the tier.
// Counters keep increasing across a drain.
func (s *Store) Drain(p model.Priority) []model.RawEntry {
	t := s.tierFor(p)
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.ring.GetAll()
	t.ring.Reset()
	return entries
}

// Restore re-inserts previously recorded entries into tier p, keeping their
// timestamps and counters. The tier counter advances past the highest
// restored counter. Restored entries are not journaled or mirrored, and
// entries pushed out of the ring while restoring do not count as evicted.
func (s *Store) Restore(p model.Priority, entries []model.RawEntry) {
	t := s.tierFor(p)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries {
		t.ring.Push(e)
		if e.Counter >= t.next {
			t.next = e.Counter + 1
		}
	}
}

// Capacity returns the per-tier capacity.
func (s *Store) Capacity() int {
	return s.capacity
}

// Stats returns per-tier occupancy in tier order.
func (s *Store) Stats() []TierStats {
	stats := make([]TierStats, 0, len(s.tiers))
	for _, p := range model.Priorities() {
		t := s.tierFor(p)
		t.mu.Lock()
		stats = append(stats, TierStats{
			Priority: p,
			Retained: t.ring.Len(),
			Appended: t.next,
			Evicted:  t.evicted,
			Capacity: t.ring.Cap(),
		})
		t.mu.Unlock()
	}
	return stats
}
