package search

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start while a previous run is in flight.
var ErrAlreadyRunning = errors.New("a search is already running")

// ErrNoRun is returned by snapshot accessors before the first Start.
var ErrNoRun = errors.New("no search has been started")

// ConfigError reports invalid Start parameters. It is returned synchronously,
// before any worker is spawned.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
