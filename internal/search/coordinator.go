package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hmansoor/regprobe/internal/daterange"
	"github.com/hmansoor/regprobe/internal/events"
	"github.com/hmansoor/regprobe/internal/metrics"
)

// Options configures a Coordinator.
type Options struct {
	// BaseContext is the parent context workers run under; cancelling it
	// halts runs at their next per-date check. Defaults to
	// context.Background().
	BaseContext context.Context
	// Logger receives coordinator lifecycle logs.
	Logger *zap.Logger
}

// Coordinator owns run lifecycle: it partitions the date range, spawns one
// worker per non-empty partition, holds the shared stop signal and counters,
// and derives the final outcome once every worker has stopped. At most one
// run is in flight at a time.
type Coordinator struct {
	querier Querier
	results ResultStore
	emitter events.Emitter
	clock   Clock
	ids     IDGenerator
	baseCtx context.Context
	logger  *zap.Logger

	mu  sync.Mutex
	run *Run
}

// Run is the handle for one search run. Snapshots never block the run.
type Run struct {
	state *runState
	done  chan struct{}
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.state.id
}

// Snapshot returns a point-in-time view of the run.
func (r *Run) Snapshot() State {
	return r.state.snapshot()
}

// Done is closed once every worker has stopped.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// NewCoordinator wires a Coordinator. The querier, emitter, clock, and id
// generator are required; results may be nil to disable persistence.
func NewCoordinator(
	querier Querier,
	results ResultStore,
	emitter events.Emitter,
	clock Clock,
	ids IDGenerator,
	opts Options,
) *Coordinator {
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		querier: querier,
		results: results,
		emitter: emitter,
		clock:   clock,
		ids:     ids,
		baseCtx: baseCtx,
		logger:  logger,
	}
}

// Start validates the request, partitions the range, and launches the run.
// Validation failures surface as ConfigError before any worker is spawned.
// The call returns as soon as the workers are launched; observers poll
// Snapshot or wait on the run's Done channel.
func (c *Coordinator) Start(identifier string, span daterange.Range, workers int) (*Run, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, configErrorf("identifier must not be empty")
	}
	if workers < 1 {
		return nil, configErrorf("worker count must be >= 1, got %d", workers)
	}
	if span.IsZero() || span.End.Before(span.Start) {
		return nil, configErrorf("invalid date range %s", span)
	}
	parts, err := daterange.Partition(span, workers)
	if err != nil {
		return nil, configErrorf("partition range: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != nil && c.run.state.running.Load() {
		return nil, ErrAlreadyRunning
	}

	id, err := c.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	state := newRunState(id, identifier, span, workers, c.clock.Now())
	run := &Run{state: state, done: make(chan struct{})}

	c.emitPlan(state, parts)
	metrics.RunStarted()
	c.logger.Info("search started",
		zap.String("run_id", id),
		zap.String("identifier", identifier),
		zap.String("range", span.String()),
		zap.Int("workers", workers),
		zap.Int64("total_days", state.total),
	)

	var wg sync.WaitGroup
	for i, part := range parts {
		if part.IsZero() {
			continue
		}
		w := &worker{
			index:      i + 1,
			identifier: identifier,
			span:       part,
			state:      state,
			querier:    c.querier,
			results:    c.results,
			emitter:    c.emitter,
			clock:      c.clock,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(c.baseCtx)
		}()
	}

	go func() {
		wg.Wait()
		state.running.Store(false)
		c.finishRun(state)
		close(run.done)
	}()

	c.run = run
	return run, nil
}

// Snapshot returns the latest run's state, ErrNoRun before the first Start.
func (c *Coordinator) Snapshot() (State, error) {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	if run == nil {
		return State{}, ErrNoRun
	}
	return run.Snapshot(), nil
}

// RequestStop raises the shared stop flag for the active run. Workers honor
// it at their next per-date check; an in-flight request is never aborted.
// Calling it repeatedly, or after the run finished, has no further effect.
func (c *Coordinator) RequestStop() {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	if run == nil || !run.state.running.Load() {
		return
	}
	if run.state.requestStop() {
		c.emit(run.state, events.LevelWarning, "stop requested, halting all workers")
		c.logger.Info("stop requested", zap.String("run_id", run.state.id))
	}
}

func (c *Coordinator) emitPlan(state *runState, parts []daterange.Range) {
	base := state.total / int64(state.workers)
	c.emit(state, events.LevelInfo, "starting search for identifier %s", state.identifier)
	c.emit(state, events.LevelInfo, "date range %s, %d days total", state.span, state.total)
	c.emit(state, events.LevelInfo, "workers: %d, about %d days per worker", state.workers, base)
	for i, part := range parts {
		if part.IsZero() {
			continue
		}
		c.emit(state, events.LevelInfo, "worker %d assigned %s (%d days)", i+1, part, part.Days())
	}
	c.emit(state, events.LevelWarning, "search stops automatically when a record is found")
}

func (c *Coordinator) finishRun(state *runState) {
	outcome := state.outcome()
	metrics.RunCompleted(string(outcome))
	checked := state.checked.Load()
	switch outcome {
	case ResultFound:
		c.emit(state, events.LevelSuccess, "search finished: record found after %d of %d dates", checked, state.total)
	case ResultAborted:
		c.emit(state, events.LevelWarning, "search aborted by request after %d of %d dates", checked, state.total)
	default:
		c.emit(state, events.LevelWarning, "search finished: no record in range, %d dates checked", checked)
	}
	c.logger.Info("search finished",
		zap.String("run_id", state.id),
		zap.String("outcome", string(outcome)),
		zap.Int64("checked", checked),
		zap.Int64("found", state.found.Load()),
	)
}

// emit publishes a coordinator-level event (worker index 0).
func (c *Coordinator) emit(state *runState, level events.Level, format string, args ...any) {
	c.emitter.Emit(events.Event{
		RunID:   state.id,
		TS:      c.clock.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
