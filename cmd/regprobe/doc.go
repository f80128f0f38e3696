// Package main hosts the registration search service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, search management, and event log endpoints. Requests
//     are validated, identifiers are normalized, and date ranges are parsed before a run is handed to the
//     coordinator.
//   - Coordinator & workers: internal/search.Coordinator partitions the requested date range into contiguous
//     per-worker spans and launches one goroutine per span. Workers share an atomic stop flag and monotonic
//     counters; the first record found (or a non-success response from the lookup service) raises the flag and
//     every worker halts at its next per-date check. At most one run is in flight at a time.
//   - Lookup client: internal/query.Client posts one multipart form per candidate date via Colly. Responses are
//     classified against the service's empty-result template; transport failures are transient and skip the date,
//     non-success statuses are terminal for the whole run.
//   - Persistence: matched and errored responses are written by internal/results.Store as raw HTML plus a JSON
//     metadata sidecar under the configured results directory.
//   - Events: run progress flows through internal/events.Hub, a non-blocking buffered fan-out, into a zap log sink
//     and a bounded in-memory console buffer served over the API. Emission never blocks a worker; overflow drops
//     events rather than stalling the search.
//   - Configuration & plumbing: Viper populates config from env/files (REGPROBE_ prefix); zap provides structured
//     logging; Prometheus metrics are exported via middleware and the /metrics handler.
//
// Operational notes:
//   - Concurrency model: fixed worker pool per run, one in-flight request per worker. Shutdown is coordinated via
//     context cancellation propagated from main through the coordinator to workers; an in-flight request is never
//     aborted mid-date.
//   - Observability: zap logs carry run IDs at key transitions; Prometheus counters/histograms track lookup and
//     API activity; the event hub batches run lifecycle events for downstream sinks.
//
// Quick checklist:
//   - Configure env vars: REGPROBE_SERVER_PORT, REGPROBE_SEARCH_ENDPOINT (required), REGPROBE_SEARCH_TIMEOUT_SECONDS,
//     REGPROBE_SEARCH_DEFAULT_WORKERS, REGPROBE_SEARCH_RESULTS_DIR, and REGPROBE_AUTH_* when API auth is required.
//   - Run locally: go run ./cmd/regprobe -config config.yaml (or rely solely on env overrides).
//   - The process reacts to SIGTERM for graceful drain: the HTTP server stops, the active run is cancelled, and the
//     event hub flushes before exit.
package main
