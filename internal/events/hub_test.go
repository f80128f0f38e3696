package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestHubFlushBySize verifies the hub flushes immediately once the batch size
// limit is reached.
func TestHubFlushBySize(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{
		BufferSize:    8,
		MaxBatch:      2,
		FlushInterval: time.Minute,
	}, sink)
	defer func() {
		require.NoError(t, hub.Close(context.Background()))
	}()

	hub.Emit(sampleEvent(LevelInfo))
	hub.Emit(sampleEvent(LevelInfo))
	require.Eventually(t, func() bool {
		b := sink.Batches()
		return len(b) == 1 && len(b[0]) == 2
	}, time.Second, 10*time.Millisecond)
}

// TestHubFlushByInterval verifies the periodic flush kicks in for partial
// batches.
func TestHubFlushByInterval(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{
		BufferSize:    4,
		MaxBatch:      10,
		FlushInterval: 25 * time.Millisecond,
	}, sink)
	defer func() {
		require.NoError(t, hub.Close(context.Background()))
	}()

	hub.Emit(sampleEvent(LevelWarning))
	require.Eventually(t, func() bool {
		return len(sink.Batches()) == 1
	}, time.Second, 5*time.Millisecond)
}

// TestHubEmitNeverBlocks asserts Emit returns promptly even with a full,
// unconsumed buffer.
func TestHubEmitNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := &Hub{
		cfg:    Config{},
		events: make(chan Event),
		logger: zap.NewNop(),
	}
	start := time.Now()
	hub.Emit(sampleEvent(LevelInfo))
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

// TestHubFlushOnClose ensures Close drains buffered events before returning.
func TestHubFlushOnClose(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{
		BufferSize:    4,
		MaxBatch:      100,
		FlushInterval: time.Minute,
	}, sink)

	hub.Emit(sampleEvent(LevelSuccess))

	require.NoError(t, hub.Close(context.Background()))
	require.Len(t, sink.Batches(), 1)
	require.Len(t, sink.Batches()[0], 1)
}

// TestHubDiscardsInvalidEvents checks malformed events never reach sinks.
func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{BufferSize: 4, MaxBatch: 1, FlushInterval: time.Minute}, sink)

	hub.Emit(Event{Level: LevelInfo}) // missing run id, ts, message

	require.NoError(t, hub.Close(context.Background()))
	require.Empty(t, sink.Batches())
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	valid := sampleEvent(LevelError)
	require.NoError(t, valid.Validate())

	cases := map[string]func(e *Event){
		"missing run id":    func(e *Event) { e.RunID = "" },
		"missing timestamp": func(e *Event) { e.TS = time.Time{} },
		"unknown level":     func(e *Event) { e.Level = "DEBUG" },
		"missing message":   func(e *Event) { e.Message = "" },
		"negative worker":   func(e *Event) { e.Worker = -1 },
	}
	for name, mutate := range cases {
		evt := valid
		mutate(&evt)
		require.Error(t, evt.Validate(), name)
	}
}

type stubSink struct {
	mu      sync.Mutex
	batches [][]Event
}

func newStubSink() *stubSink {
	return &stubSink{}
}

func (s *stubSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]Event(nil), batch...))
	return nil
}

func (s *stubSink) Close(context.Context) error {
	return nil
}

func (s *stubSink) Batches() [][]Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]Event, len(s.batches))
	for i, b := range s.batches {
		out[i] = append([]Event(nil), b...)
	}
	return out
}

func sampleEvent(level Level) Event {
	return Event{
		RunID:   "run-1",
		TS:      time.Now(),
		Level:   level,
		Worker:  1,
		Message: "checked 10 dates",
	}
}
