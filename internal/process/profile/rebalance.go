package profile

import (
	"time"

	"github.com/hinata/core/internal/core/domain"
)

// evictWeightFloor and evictAge are the eviction thresholds from spec
// §4.4 step 8: "any component whose normalizedWeight is below 0.01 AND
// lastActivated older than 14 days is removed".
const (
	evictWeightFloor = 0.01
	evictAge         = 14 * 24 * time.Hour
)

// rebalance implements spec §4.4 step 7: normalizedWeight = this
// component's totalAttentionWeight divided by the sum across all of the
// user's components, and priority derived from it.
func rebalance(components []*domain.ProfileComponent) {
	var total float32
	for _, c := range components {
		total += c.TotalAttentionWeight
	}

	if total == 0 {
		return
	}

	for _, c := range components {
		c.NormalizedWeight = c.TotalAttentionWeight / total
		c.Priority = domain.DerivePriority(c.NormalizedWeight)
	}
}

// evict implements spec §4.4 step 8, returning the surviving components
// and the count removed.
func evict(components []*domain.ProfileComponent, now time.Time) ([]*domain.ProfileComponent, int) {
	kept := make([]*domain.ProfileComponent, 0, len(components))
	removed := 0

	for _, c := range components {
		if c.NormalizedWeight < evictWeightFloor && now.Sub(c.LastActivated) > evictAge {
			removed++
			continue
		}

		kept = append(kept, c)
	}

	return kept, removed
}
