package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hmansoor/regprobe/internal/daterange"
	"github.com/hmansoor/regprobe/internal/events"
	"github.com/hmansoor/regprobe/internal/metrics"
)

// progressEvery controls how often a worker summarizes an uneventful stretch
// of no-match dates.
const progressEvery = 10

// worker walks one partition of the date range sequentially. It checks the
// shared stop flag before every request; an in-flight request is allowed to
// complete before the flag is observed.
type worker struct {
	index      int
	identifier string
	span       daterange.Range
	state      *runState
	querier    Querier
	results    ResultStore
	emitter    events.Emitter
	clock      Clock
}

func (w *worker) run(ctx context.Context) {
	metrics.WorkerStarted()
	defer metrics.WorkerStopped()

	checked := 0
	for date := w.span.Start; !date.After(w.span.End); date = date.AddDate(0, 0, 1) {
		if ctx.Err() != nil || w.state.stop.Load() {
			break
		}

		out, err := w.querier.Query(ctx, w.identifier, date)
		if err != nil {
			// Transport failures are transient: log and move to the next date.
			metrics.QueryFailed()
			w.emit(events.LevelError, "checking %s failed: %v", date.Format(daterange.Layout), err)
			continue
		}
		checked++
		w.state.checked.Add(1)
		metrics.DateChecked()

		class := Classify(out)
		metrics.ResponseClassified(class.String())
		switch class {
		case NoMatch:
			if checked%progressEvery == 0 {
				w.emit(events.LevelInfo, "checked %d dates, currently at %s, no records",
					checked, date.Format(daterange.Layout))
			}
		case ProtocolError:
			w.handleProtocolError(ctx, date, out)
			w.finish(checked)
			return
		case Match:
			w.handleMatch(ctx, date, out)
			w.finish(checked)
			return
		}
	}
	w.finish(checked)
}

// handleMatch reports and persists a found record, then raises the run-wide
// stop signal.
func (w *worker) handleMatch(ctx context.Context, date time.Time, out Outcome) {
	day := date.Format(daterange.Layout)
	w.emit(events.LevelSuccess, "*** RECORD FOUND *** identifier %s, date %s", w.identifier, day)
	w.persist(ctx, date, out)
	w.emit(events.LevelSuccess, "preview: %s...", Preview(out.Body))
	w.state.found.Add(1)
	w.state.signalStop()
}

// handleProtocolError treats a non-success status as terminal for the whole
// run: a non-200 from this service means continuing the scan is pointless.
func (w *worker) handleProtocolError(ctx context.Context, date time.Time, out Outcome) {
	day := date.Format(daterange.Layout)
	w.emit(events.LevelError, "HTTP %d error, identifier %s, date %s", out.StatusCode, w.identifier, day)
	w.persist(ctx, date, out)
	w.emit(events.LevelError, "response preview: %s...", Preview(out.Body))
	w.state.found.Add(1)
	w.state.signalStop()
	w.emit(events.LevelWarning, "stopping all workers due to HTTP %d", out.StatusCode)
}

// persist saves the response body through the result store. Failures are
// logged and never escalate; the search outcome does not depend on the save.
func (w *worker) persist(ctx context.Context, date time.Time, out Outcome) {
	if w.results == nil {
		return
	}
	name, err := w.results.Save(ctx, w.identifier, date, out.Body, out.StatusCode)
	if err != nil {
		w.emit(events.LevelError, "saving response failed: %v", err)
		return
	}
	w.emit(events.LevelSuccess, "response saved to %s", name)
}

func (w *worker) finish(checked int) {
	switch {
	case w.state.cancelled.Load():
		w.emit(events.LevelWarning, "stop requested, halting after %d dates", checked)
	case w.state.stop.Load():
		w.emit(events.LevelWarning, "stopped, a record was found")
	default:
		w.emit(events.LevelWarning, "range %s exhausted, checked %d dates, no record", w.span, checked)
	}
}

func (w *worker) emit(level events.Level, format string, args ...any) {
	w.emitter.Emit(events.Event{
		RunID:   w.state.id,
		TS:      w.clock.Now(),
		Level:   level,
		Worker:  w.index,
		Message: fmt.Sprintf(format, args...),
	})
}
