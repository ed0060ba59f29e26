package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/domain"
)

func TestHotTier_PutGet(t *testing.T) {
	h := NewHotTier(64)

	obs := &domain.Observation{ID: "obs-1", InfluenceWeight: 0.9}
	h.Put(obs)

	got, ok := h.Get("obs-1")
	require.True(t, ok)
	assert.Equal(t, obs, got)

	_, ok = h.Get("missing")
	assert.False(t, ok)
}

func TestHotTier_RecordReadPromotesAfterThreshold(t *testing.T) {
	h := NewHotTier(64)

	promoted := false
	for i := 0; i < defaultPromoteReadCount; i++ {
		promoted = h.RecordRead("obs-1")
	}

	assert.True(t, promoted)
}

func TestHotTier_RecordReadDoesNotPromoteBelowThreshold(t *testing.T) {
	h := NewHotTier(64)

	promoted := h.RecordRead("obs-1")

	assert.False(t, promoted)
}

func TestHotTier_Evict(t *testing.T) {
	h := NewHotTier(64)

	h.Put(&domain.Observation{ID: "obs-1"})
	h.Evict("obs-1")

	_, ok := h.Get("obs-1")
	assert.False(t, ok)
}

func TestHotTier_SweepFindsStaleAndLowWeightEntries(t *testing.T) {
	h := NewHotTier(64)

	stale := &domain.Observation{ID: "stale", InfluenceWeight: 0.9}
	h.Put(stale)
	h.entries["stale"].storedAt = time.Now().Add(-8 * 24 * time.Hour)

	lowWeight := &domain.Observation{ID: "low-weight", InfluenceWeight: 0.1}
	h.Put(lowWeight)

	fresh := &domain.Observation{ID: "fresh", InfluenceWeight: 0.9}
	h.Put(fresh)

	toEvict := h.Sweep(context.Background())

	assert.ElementsMatch(t, []string{"stale", "low-weight"}, toEvict)
}

func TestDetermineTier(t *testing.T) {
	tests := []struct {
		name            string
		age             time.Duration
		influenceWeight float32
		want            domain.Tier
	}{
		{"fresh high weight is hot", 24 * time.Hour, 0.9, domain.TierHot},
		{"fresh low weight is warm", 24 * time.Hour, 0.5, domain.TierWarm},
		{"old moderate weight is warm", 20 * 24 * time.Hour, 0.4, domain.TierWarm},
		{"old low weight is cold", 40 * 24 * time.Hour, 0.2, domain.TierCold},
		{"very fresh but very low weight is warm", time.Hour, 0.35, domain.TierWarm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineTier(tt.age, tt.influenceWeight))
		})
	}
}
