package events

import (
	"errors"
	"fmt"
	"time"
)

// Level classifies an event for display and log routing.
type Level string

// Supported event levels.
const (
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "SUCCESS"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Event is one immutable entry in a run's log. Ordering is emission order as
// observed by the hub; there is no global wall-clock ordering across workers.
type Event struct {
	// RunID identifies the search run the event belongs to.
	RunID string
	// TS is the timestamp recorded by the emitter.
	TS time.Time
	// Level classifies the event.
	Level Level
	// Worker is the 1-based index of the emitting worker, 0 for the
	// coordinator itself.
	Worker int
	// Message is the rendered log line.
	Message string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Level {
	case LevelInfo, LevelSuccess, LevelWarning, LevelError:
	default:
		return fmt.Errorf("unknown level %q", e.Level)
	}
	if e.Message == "" {
		return errors.New("message is required")
	}
	if e.Worker < 0 {
		return errors.New("worker index must be >= 0")
	}
	return nil
}
