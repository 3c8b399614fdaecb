// Package engine builds log aggregates from the priority tiers, orders
// them and serializes them under a byte budget.
package engine

import (
	"github.com/coffersTech/tierlog/internal/model"
	"github.com/coffersTech/tierlog/internal/pkg/query"
)

// Exporter returns a snapshot of one tier, oldest first.
// *buffer.Store satisfies it.
type Exporter interface {
	Export(p model.Priority) []model.RawEntry
}

// Log is an ordered collection of entries gathered from one or more tiers.
// A Log is built per request and is not safe for concurrent use.
type Log struct {
	Entries []model.LogEntry

	src Exporter
}

// NewLog creates an empty aggregate that reads from src.
func NewLog(src Exporter) *Log {
	return &Log{src: src}
}

// PushTier appends every entry currently retained by tier p, in export
// order. Calling it twice for the same tier duplicates the entries.
func (l *Log) PushTier(p model.Priority) {
	raw := l.src.Export(p)
	if len(raw) == 0 {
		return
	}
	if l.Entries == nil {
		l.Entries = make([]model.LogEntry, 0, len(raw))
	}
	for _, r := range raw {
		l.Entries = append(l.Entries, model.NewLogEntry(p, r))
	}
}

// PushAll appends the Info, Debug and Error tiers in that order.
func (l *Log) PushAll() {
	for _, p := range model.Priorities() {
		l.PushTier(p)
	}
}

// Filter keeps only the entries matching expr. A nil expr keeps all.
func (l *Log) Filter(expr query.Node) {
	if expr == nil {
		return
	}
	kept := l.Entries[:0]
	for i := range l.Entries {
		if query.Match(expr, &l.Entries[i]) {
			kept = append(kept, l.Entries[i])
		}
	}
	l.Entries = kept
}

// Len returns the number of entries in the aggregate.
func (l *Log) Len() int {
	return len(l.Entries)
}
