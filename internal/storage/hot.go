package storage

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/hinata/core/internal/core/domain"
)

// Default promotion thresholds (spec §4.3 get(): "promote to hot if read
// count >= R_promote within window W").
const (
	defaultPromoteReadCount = 3
	defaultPromoteWindow    = 24 * time.Hour

	// Eviction thresholds (spec §4.3 hot tier: "evicted by age>7d or
	// influenceWeight<0.7").
	hotTierMaxAge             = 7 * 24 * time.Hour
	hotTierMinInfluenceWeight = 0.7
)

type hotEntry struct {
	obs       *domain.Observation
	storedAt  time.Time
	readCount int
	lastReads []time.Time
	element   *list.Element
}

// HotTier is the in-process LRU key-value tier keyed by observationId
// (spec §4.3 "Hot"). It is bounded by a byte budget, approximated by summing
// a per-entry size estimate (observationApproxSize) rather than a strict
// memory accounting pass.
type HotTier struct {
	mu        sync.Mutex
	entries   map[string]*hotEntry
	order     *list.List // front = most recently used
	maxBytes  int64
	approxLen int64
}

// NewHotTier creates an empty hot tier bounded by budgetMB.
func NewHotTier(budgetMB int) *HotTier {
	return &HotTier{
		entries:  make(map[string]*hotEntry),
		order:    list.New(),
		maxBytes: int64(budgetMB) * 1024 * 1024,
	}
}

// Put inserts or replaces obs in the hot tier, evicting the least-recently
// used entries if the budget is exceeded.
func (h *HotTier) Put(obs *domain.Observation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.entries[obs.ID]; ok && existing.element != nil {
		h.order.Remove(existing.element)
		h.approxLen -= observationApproxSize(existing.obs)
	}

	entry := &hotEntry{obs: obs, storedAt: time.Now()}
	entry.element = h.order.PushFront(obs.ID)
	h.entries[obs.ID] = entry
	h.approxLen += observationApproxSize(obs)

	h.evictIfNeeded()
}

// Get returns the observation if present, touching LRU order. Reads for
// promotion bookkeeping are recorded separately by RecordRead.
func (h *HotTier) Get(id string) (*domain.Observation, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[id]
	if !ok || entry.obs == nil {
		return nil, false
	}

	h.order.MoveToFront(entry.element)

	return entry.obs, true
}

// RecordRead tracks a warm/cold-tier read for promotion decisions and
// reports whether the observation has now crossed the promotion threshold
// (spec §4.3 get(): "promote to hot if read count >= R_promote within
// window W").
func (h *HotTier) RecordRead(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[id]
	if !ok {
		entry = &hotEntry{}
		h.entries[id] = entry
	}

	now := time.Now()
	entry.lastReads = append(entry.lastReads, now)
	entry.lastReads = pruneReadsOutsideWindow(entry.lastReads, now, defaultPromoteWindow)
	entry.readCount = len(entry.lastReads)

	return entry.readCount >= defaultPromoteReadCount
}

func pruneReadsOutsideWindow(reads []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)

	kept := reads[:0]

	for _, t := range reads {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	return kept
}

// Evict removes id from the hot tier (spec §4.3 eviction by age or weight).
func (h *HotTier) Evict(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[id]
	if !ok {
		return
	}

	if entry.element != nil {
		h.order.Remove(entry.element)
		h.approxLen -= observationApproxSize(entry.obs)
	}

	delete(h.entries, id)
}

// Sweep returns the ids whose entries have crossed the hot-tier eviction
// thresholds, for the background migrate() task to demote (spec §4.3).
func (h *HotTier) Sweep(ctx context.Context) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toEvict []string

	for id, entry := range h.entries {
		if entry.obs == nil {
			continue
		}

		age := time.Since(entry.storedAt)
		if age > hotTierMaxAge || entry.obs.InfluenceWeight < hotTierMinInfluenceWeight {
			toEvict = append(toEvict, id)
		}
	}

	return toEvict
}

func (h *HotTier) evictIfNeeded() {
	for h.maxBytes > 0 && h.approxLen > h.maxBytes && h.order.Len() > 0 {
		oldest := h.order.Back()
		if oldest == nil {
			return
		}

		id := oldest.Value.(string) //nolint:forcetypeassert // only ids are pushed onto this list

		h.order.Remove(oldest)

		if entry, ok := h.entries[id]; ok {
			h.approxLen -= observationApproxSize(entry.obs)
			delete(h.entries, id)
		}
	}
}

// observationApproxSize estimates an observation's memory footprint for
// budget accounting; precise accounting isn't worth the bookkeeping cost
// for an in-process cache that's rebuilt on restart anyway.
func observationApproxSize(obs *domain.Observation) int64 {
	if obs == nil {
		return 0
	}

	size := int64(len(obs.Highlight) + len(obs.Note) + len(obs.Address) + len(obs.ContentHash))
	size += int64(len(obs.Embedding) * 4)

	for _, tag := range obs.Tags {
		size += int64(len(tag))
	}

	return size + 256 // fixed overhead per entry
}
