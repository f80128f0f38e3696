// Package events provides the run log primitives, the non-blocking hub, and
// the emitter interface workers use to report search progress. Events are
// buffered on a background goroutine and fanned out to pluggable sinks such
// as the structured log or the in-memory console window.
package events
