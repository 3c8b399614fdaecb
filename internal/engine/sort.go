package engine

import (
	"sort"

	"github.com/coffersTech/tierlog/internal/model"
)

// Sort orders the entries by timestamp. Entries with equal timestamps keep
// their current relative order.
func (l *Log) Sort(order model.SortOrder) {
	if order == model.Descending {
		l.SortDescending()
		return
	}
	l.SortAscending()
}

// SortAscending stable-sorts the entries by ascending timestamp.
func (l *Log) SortAscending() {
	sort.SliceStable(l.Entries, func(i, j int) bool {
		return l.Entries[i].Timestamp < l.Entries[j].Timestamp
	})
}

// SortDescending stable-sorts the entries by descending timestamp.
func (l *Log) SortDescending() {
	sort.SliceStable(l.Entries, func(i, j int) bool {
		return l.Entries[i].Timestamp > l.Entries[j].Timestamp
	})
}

// SortWithTieBreak orders by timestamp, then by tier (Info, Debug, Error),
// then by counter. Both secondary keys follow the requested direction, so
// the result is fully determined by the entries and independent of the
// order in which tiers were pushed.
func (l *Log) SortWithTieBreak(order model.SortOrder) {
	less := func(a, b model.LogEntry) bool {
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Counter < b.Counter
	}
	sort.SliceStable(l.Entries, func(i, j int) bool {
		if order == model.Descending {
			return less(l.Entries[j], l.Entries[i])
		}
		return less(l.Entries[i], l.Entries[j])
	})
}
