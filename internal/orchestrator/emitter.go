package orchestrator

import (
	"log"
	"sync/atomic"
	"time"
)

// Emitter is the thread-safe funnel for the orchestrator's event feed.
// Producers call Emit from any goroutine; a single consumer drains Events.
type Emitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEmitter creates an Emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	return &Emitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event to the feed. If the buffer is full it retries briefly
// to let the consumer drain, then drops the event and counts the drop.
func (e *Emitter) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			log.Printf("[orchestrator] WARNING: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events dropped so far.
func (e *Emitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns the read-only feed for the consumer.
func (e *Emitter) Events() <-chan Event {
	return e.events
}

// Close closes the feed. Call only after all producers have stopped.
func (e *Emitter) Close() {
	close(e.events)
}
