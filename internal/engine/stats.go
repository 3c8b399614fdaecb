package engine

import (
	"github.com/coffersTech/tierlog/internal/buffer"
)

// StatsSource reports per-tier occupancy. *buffer.Store satisfies it.
type StatsSource interface {
	Stats() []buffer.TierStats
}

// SystemStats contains high-level store metrics for API response.
type SystemStats struct {
	Tiers         []buffer.TierStats `json:"tiers"`
	TotalRetained int                `json:"total_retained"`
	TotalAppended uint64             `json:"total_appended"`
	TotalEvicted  uint64             `json:"total_evicted"`
}

// CollectStats sums the per-tier statistics of src.
// Tiers are read one at a time, so the totals are not a cross-tier snapshot.
func CollectStats(src StatsSource) SystemStats {
	tiers := src.Stats()
	stats := SystemStats{Tiers: tiers}
	for _, t := range tiers {
		stats.TotalRetained += t.Retained
		stats.TotalAppended += t.Appended
		stats.TotalEvicted += t.Evicted
	}
	return stats
}
