package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config controls buffering and batching for the Hub.
//   - BufferSize: size of the internal channel (default 1024).
//   - MaxBatch: flush once this many events queue (default 64).
//   - FlushInterval: flush cadence for partial batches (default 200ms).
//   - SinkTimeout: per-sink timeout while flushing (default 5s).
//   - BaseContext: parent context for sink calls (default context.Background()).
//   - Logger: optional structured logger used for warnings.
type Config struct {
	BufferSize    int
	MaxBatch      int
	FlushInterval time.Duration
	SinkTimeout   time.Duration
	BaseContext   context.Context
	Logger        *zap.Logger
}

const (
	defaultBufferSize    = 1024
	defaultMaxBatch      = 64
	defaultFlushInterval = 200 * time.Millisecond
	defaultSinkTimeout   = 5 * time.Second
	dropWarnInterval     = 5 * time.Second
)

// Hub collects Event streams and fans them out to registered sinks. Emit
// never blocks the caller; appends from concurrent workers are serialized by
// the hub's channel so sink batches are never interleaved.
type Hub struct {
	cfg      Config
	sinks    []Sink
	events   chan Event
	stopCh   chan struct{}
	doneCh   chan struct{}
	logger   *zap.Logger
	dropped  atomic.Int64
	lastWarn atomic.Int64
	closed   atomic.Bool

	closeOnce sync.Once
	closeCtx  context.Context
}

// NewHub starts the background fan-out goroutine over the supplied sinks and
// returns a Hub ready to accept events.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = defaultMaxBatch
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = defaultSinkTimeout
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		cfg:    cfg,
		sinks:  append([]Sink(nil), sinks...),
		events: make(chan Event, cfg.BufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
	go h.run()
	return h
}

// Emit enqueues an Event. It never blocks; if the buffer is full the event is
// dropped and a rate-limited warning is logged.
func (h *Hub) Emit(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid event", zap.Error(err))
		return
	}
	select {
	case h.events <- evt:
	default:
		h.dropped.Add(1)
		h.warnDropped()
	}
}

// Close drains remaining events, flushes and closes sinks, and blocks until
// the background goroutine exits. Safe to call multiple times.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeCtx = ctx
		close(h.stopCh)
	})
	select {
	case <-h.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event hub close wait: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, h.cfg.MaxBatch)
	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatch {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-h.stopCh:
			h.drain(batch)
			return
		}
	}
}

// drain empties the channel after shutdown begins, flushing in MaxBatch
// chunks, then closes the sinks.
func (h *Hub) drain(batch []Event) {
	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatch {
				h.flush(batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				h.flush(batch)
			}
			h.closeSinks()
			return
		}
	}
}

func (h *Hub) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}
	copyBatch := append([]Event(nil), batch...)
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(h.cfg.BaseContext, h.cfg.SinkTimeout)
		if err := sink.Consume(ctx, copyBatch); err != nil {
			h.logger.Warn("event sink consume failed", zap.Error(err))
		}
		cancel()
	}
}

func (h *Hub) closeSinks() {
	ctx := h.closeCtx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			h.logger.Warn("event sink close failed", zap.Error(err))
		}
	}
}

func (h *Hub) warnDropped() {
	now := time.Now().UnixNano()
	last := h.lastWarn.Load()
	if now-last < dropWarnInterval.Nanoseconds() {
		return
	}
	if !h.lastWarn.CompareAndSwap(last, now) {
		return
	}
	count := h.dropped.Swap(0)
	h.logger.Warn("events dropped due to backpressure", zap.Int64("dropped", count))
}
