// Package sinks provides the event sinks wired into the hub: structured log
// output and the bounded in-memory console window served by the API.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/hmansoor/regprobe/internal/events"
)

// LogSink routes run events into the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch, mapping event levels onto log levels.
func (s *LogSink) Consume(_ context.Context, batch []events.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID),
			zap.Int("worker", evt.Worker),
			zap.String("level", string(evt.Level)),
			zap.Time("at", evt.TS),
		}
		switch evt.Level {
		case events.LevelError:
			s.logger.Error(evt.Message, fields...)
		case events.LevelWarning:
			s.logger.Warn(evt.Message, fields...)
		default:
			s.logger.Info(evt.Message, fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
