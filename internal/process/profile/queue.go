package profile

import (
	"context"
	"errors"

	"github.com/hinata/core/internal/core/ports"
)

// eventQueueCapacity bounds the async handoff between ObservationPipeline
// and Engine; a full queue means the engine has fallen behind the
// pipeline's write rate.
const eventQueueCapacity = 4096

// ErrQueueFull is returned by Enqueue when the event queue has no spare
// capacity; the caller (ObservationPipeline) logs and drops the event
// rather than blocking ingestion on profile maintenance.
var ErrQueueFull = errors.New("profile event queue is full")

// EventQueue is a bounded, non-blocking ports.ProfileEventSink (spec §4.1
// step 10: "enqueue profile update event ... do not block on it").
type EventQueue struct {
	ch chan ports.ProfileUpdateEvent
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{ch: make(chan ports.ProfileUpdateEvent, eventQueueCapacity)}
}

var _ ports.ProfileEventSink = (*EventQueue)(nil)

// Enqueue never blocks: it either lands the event in the buffer or fails
// immediately with ErrQueueFull.
func (q *EventQueue) Enqueue(ctx context.Context, event ports.ProfileUpdateEvent) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Events exposes the receive side for Engine.Run's drain loop.
func (q *EventQueue) Events() <-chan ports.ProfileUpdateEvent {
	return q.ch
}
