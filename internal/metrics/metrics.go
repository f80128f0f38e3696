// Package metrics exposes Prometheus collectors for the search service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	datesCheckedTotal    prometheus.Counter
	queryFailuresTotal   prometheus.Counter
	responsesTotal       *prometheus.CounterVec
	runsStartedTotal     prometheus.Counter
	runsCompletedTotal   *prometheus.CounterVec
	activeWorkers        prometheus.Gauge
	queryDurationSeconds prometheus.Histogram
	httpRequestsTotal    *prometheus.CounterVec
	httpDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times; helpers are no-ops until it runs.
func Init() {
	once.Do(func() {
		datesCheckedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "regprobe_dates_checked_total",
			Help: "Total candidate dates for which a classified response was received.",
		})

		queryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "regprobe_query_failures_total",
			Help: "Total lookup requests that failed at the transport level.",
		})

		responsesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regprobe_responses_total",
				Help: "Total classified lookup responses, labeled by classification.",
			},
			[]string{"class"},
		)

		runsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "regprobe_runs_started_total",
			Help: "Total search runs started.",
		})

		runsCompletedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regprobe_runs_completed_total",
				Help: "Total search runs completed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "regprobe_active_workers",
			Help: "Number of worker goroutines currently searching.",
		})

		queryDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "regprobe_query_duration_seconds",
			Help:    "Latency of individual lookup requests.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		})

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regprobe_http_requests_total",
				Help: "Total HTTP requests served, labeled by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		)

		httpDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regprobe_http_request_duration_seconds",
				Help:    "Latency of served HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DateChecked counts one classified response against a candidate date.
func DateChecked() {
	if datesCheckedTotal != nil {
		datesCheckedTotal.Inc()
	}
}

// QueryFailed counts one transport-level lookup failure.
func QueryFailed() {
	if queryFailuresTotal != nil {
		queryFailuresTotal.Inc()
	}
}

// ResponseClassified counts one response by its classification label.
func ResponseClassified(class string) {
	if responsesTotal != nil {
		responsesTotal.WithLabelValues(class).Inc()
	}
}

// RunStarted counts one search run start.
func RunStarted() {
	if runsStartedTotal != nil {
		runsStartedTotal.Inc()
	}
}

// RunCompleted counts one finished run by outcome label.
func RunCompleted(outcome string) {
	if runsCompletedTotal != nil {
		runsCompletedTotal.WithLabelValues(outcome).Inc()
	}
}

// WorkerStarted increments the active worker gauge.
func WorkerStarted() {
	if activeWorkers != nil {
		activeWorkers.Inc()
	}
}

// WorkerStopped decrements the active worker gauge.
func WorkerStopped() {
	if activeWorkers != nil {
		activeWorkers.Dec()
	}
}

// ObserveQueryDuration records the latency of one lookup request.
func ObserveQueryDuration(d time.Duration) {
	if queryDurationSeconds != nil {
		queryDurationSeconds.Observe(d.Seconds())
	}
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpDurationSeconds != nil {
		httpDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
	}
}
