// Package events fans out snapshot cycle outcomes to live subscribers.
package events

import (
	"sync"
	"time"

	"github.com/vadiminshakov/exposure/internal/domain"
)

// CycleEvent outcome of one snapshot cycle as consumed by web/UI layers.
type CycleEvent struct {
	Timestamp time.Time           `json:"ts"`
	Status    string              `json:"status"`
	Persisted bool                `json:"persisted"`
	Reason    string              `json:"reason,omitempty"`
	Summary   *domain.SummaryView `json:"summary,omitempty"`
}

// NewCycleEvent builds the event for result.
func NewCycleEvent(result domain.CycleResult, ts time.Time) CycleEvent {
	event := CycleEvent{
		Timestamp: ts,
		Status:    result.Status.String(),
		Persisted: result.Persisted,
		Reason:    result.Reason(),
	}
	if result.Summary != nil {
		view := result.Summary.View()
		event.Summary = &view
	}
	return event
}

// CycleBroadcaster fans out events to all subscribers via buffered channels.
type CycleBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan CycleEvent]struct{}
	buffer int
}

// NewCycleBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewCycleBroadcaster(buffer int) *CycleBroadcaster {
	if buffer < 1 {
		buffer = 16
	}
	return &CycleBroadcaster{
		subs:   make(map[chan CycleEvent]struct{}),
		buffer: buffer,
	}
}

// Publish sends the event to all subscribers, dropping it for a slow reader.
func (b *CycleBroadcaster) Publish(e CycleEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel that receives events until Unsubscribe is called.
func (b *CycleBroadcaster) Subscribe() chan CycleEvent {
	ch := make(chan CycleEvent, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *CycleBroadcaster) Unsubscribe(ch chan CycleEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
