package search

import (
	"context"
	"time"
)

// Outcome is the raw result of one lookup request: the status code and the
// response body text. A transport-level failure produces an error instead.
type Outcome struct {
	StatusCode int
	Body       string
}

// Classification maps a raw outcome onto the search taxonomy.
type Classification int

// Possible classifications of a lookup response.
const (
	// NoMatch is a successful response carrying the service's empty-result
	// template.
	NoMatch Classification = iota
	// Match is a successful response holding a record.
	Match
	// TransportError means no response was received at all.
	TransportError
	// ProtocolError means the service answered with a non-success status.
	ProtocolError
)

func (c Classification) String() string {
	switch c {
	case NoMatch:
		return "no_match"
	case Match:
		return "match"
	case TransportError:
		return "transport_error"
	case ProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// Querier issues one lookup request for an identifier/date pair. It returns
// an Outcome for any received response regardless of status code, and an
// error only when the request itself failed.
type Querier interface {
	Query(ctx context.Context, identifier string, date time.Time) (Outcome, error)
}

// ResultStore persists lookup responses for matched or errored dates. Save
// returns the name of the written artifact.
type ResultStore interface {
	Save(ctx context.Context, identifier string, date time.Time, body string, statusCode int) (string, error)
}

// Clock abstracts wall time for timestamps on events and run bookkeeping.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
