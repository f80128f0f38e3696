package search

import (
	"sync/atomic"
	"time"

	"github.com/hmansoor/regprobe/internal/daterange"
)

// Result classifies a finished run.
type Result string

// Possible final results.
const (
	ResultFound    Result = "FOUND"
	ResultNotFound Result = "NOT_FOUND"
	ResultAborted  Result = "ABORTED"
)

// State is a point-in-time view of one run, safe to read while workers are in
// flight. Result is empty until the run finishes.
type State struct {
	RunID         string
	Identifier    string
	Range         daterange.Range
	Workers       int
	Started       time.Time
	Running       bool
	StopRequested bool
	Checked       int64
	Found         int64
	Total         int64
	Result        Result
}

// Progress returns the checked/total fraction in [0, 1].
func (s State) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Checked) / float64(s.Total)
}

// runState is the shared mutable state of one run. The stop flag is the only
// cross-worker coordination primitive; counters are monotonic and all access
// goes through atomics so a snapshot never blocks the run.
type runState struct {
	id         string
	identifier string
	span       daterange.Range
	workers    int
	total      int64
	started    time.Time

	running   atomic.Bool
	stop      atomic.Bool
	cancelled atomic.Bool
	checked   atomic.Int64
	found     atomic.Int64
}

func newRunState(id, identifier string, span daterange.Range, workers int, started time.Time) *runState {
	s := &runState{
		id:         id,
		identifier: identifier,
		span:       span,
		workers:    workers,
		total:      int64(span.Days()),
		started:    started,
	}
	s.running.Store(true)
	return s
}

// signalStop flips the shared stop flag; used by workers on terminal
// classifications. The flag is never reset for the lifetime of the run.
func (s *runState) signalStop() {
	s.stop.Store(true)
}

// requestStop flips the stop flag on behalf of an external caller and records
// the run as cancelled. Returns false when the flag was already set, which
// makes repeated cancellation a no-op.
func (s *runState) requestStop() bool {
	if !s.stop.CompareAndSwap(false, true) {
		return false
	}
	s.cancelled.Store(true)
	return true
}

func (s *runState) snapshot() State {
	st := State{
		RunID:         s.id,
		Identifier:    s.identifier,
		Range:         s.span,
		Workers:       s.workers,
		Started:       s.started,
		Running:       s.running.Load(),
		StopRequested: s.stop.Load(),
		Checked:       s.checked.Load(),
		Found:         s.found.Load(),
		Total:         s.total,
	}
	if !st.Running {
		st.Result = s.outcome()
	}
	return st
}

// outcome derives the final result once every worker has stopped: any find
// wins, an externally cancelled run is Aborted, everything else exhausted the
// range without a record.
func (s *runState) outcome() Result {
	switch {
	case s.found.Load() > 0:
		return ResultFound
	case s.cancelled.Load():
		return ResultAborted
	default:
		return ResultNotFound
	}
}
