package sinks

import (
	"context"
	"sync"

	"github.com/hmansoor/regprobe/internal/events"
)

const (
	defaultCapacity   = 1000
	defaultEvictBlock = 100
)

// MemorySink retains a bounded window of recent events for display. Once the
// capacity is exceeded it evicts the oldest block of entries, so a long run
// never grows the console without bound.
type MemorySink struct {
	mu         sync.Mutex
	entries    []events.Event
	capacity   int
	evictBlock int
}

// NewMemorySink builds a sink keeping at most capacity events, dropping the
// oldest evictBlock entries on overflow. Non-positive arguments select the
// defaults (1000 / 100).
func NewMemorySink(capacity, evictBlock int) *MemorySink {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if evictBlock <= 0 || evictBlock > capacity {
		evictBlock = defaultEvictBlock
		if evictBlock > capacity {
			evictBlock = capacity
		}
	}
	return &MemorySink{capacity: capacity, evictBlock: evictBlock}
}

// Consume appends the batch in order, evicting oldest blocks as needed.
func (s *MemorySink) Consume(_ context.Context, batch []events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, batch...)
	for len(s.entries) > s.capacity {
		n := s.evictBlock
		if n > len(s.entries) {
			n = len(s.entries)
		}
		s.entries = append(s.entries[:0:0], s.entries[n:]...)
	}
	return nil
}

// Events returns a copy of the retained window in append order.
func (s *MemorySink) Events() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Event, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear discards all retained events.
func (s *MemorySink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Close implements the Sink interface; it performs no action.
func (s *MemorySink) Close(context.Context) error {
	return nil
}
