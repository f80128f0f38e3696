package events

import "context"

// Sink consumes batches of events. Implementations must be safe for repeated
// calls, honor ctx deadlines, and may be invoked concurrently.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter appends individual events; Hub satisfies this interface so the
// search core stays agnostic about buffering, retention, and rendering.
type Emitter interface {
	Emit(evt Event)
}
