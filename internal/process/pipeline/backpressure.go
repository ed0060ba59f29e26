package pipeline

import "sync/atomic"

// enrichmentQueueDepthThreshold is the in-flight enrichment call count
// above which the pipeline shifts to degraded mode (spec §4.1
// "Backpressure").
const enrichmentQueueDepthThreshold = 64

// enrichmentBackpressure tracks in-flight EnrichmentWorker calls across
// concurrent ProcessBatch invocations sharing one Pipeline.
type enrichmentBackpressure struct {
	inFlight int32
}

func (b *enrichmentBackpressure) degraded() bool {
	return atomic.LoadInt32(&b.inFlight) >= enrichmentQueueDepthThreshold
}

func (b *enrichmentBackpressure) enter() { atomic.AddInt32(&b.inFlight, 1) }
func (b *enrichmentBackpressure) leave() { atomic.AddInt32(&b.inFlight, -1) }
