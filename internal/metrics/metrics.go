// Package metrics exposes Prometheus counters/histograms for netvald: a
// package-level set of named collectors, registered once at startup and
// referenced directly by the instrumented call sites.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// JobsStarted counts jobs started, labeled by kind (simulation, ingestion,
// remediation).
var JobsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "netval_jobs_started_total",
	Help: "Total number of jobs started, by kind.",
}, []string{"kind"})

// JobsCompleted counts jobs that reached a terminal state, labeled by kind
// and outcome (complete, failed).
var JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "netval_jobs_completed_total",
	Help: "Total number of jobs completed, by kind and outcome.",
}, []string{"kind", "outcome"})

// SSHSessionsActive tracks in-flight SSH sessions across the pool.
var SSHSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "netval_ssh_sessions_active",
	Help: "Number of SSH sessions currently open across the worker pool.",
})

// SSHSessionFailures counts SSH session failures, labeled by failure class
// (unreachable, auth, push).
var SSHSessionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "netval_ssh_session_failures_total",
	Help: "Total number of SSH session failures, by class.",
}, []string{"class"})

// CheckDuration records how long each registered check takes to run
// against an assembled topology, labeled by check id.
var CheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "netval_check_duration_seconds",
	Help:    "Duration of a single validation check run, by check id.",
	Buckets: prometheus.DefBuckets,
}, []string{"check_id"})

// CircuitBreakerState tracks each device's SSH circuit breaker state
// (0=closed, 1=half-open, 2=open), mirroring gobreaker.State's own integer
// encoding so it can be set directly from a gobreaker.StateChange callback.
var CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "netval_ssh_circuit_breaker_state",
	Help: "Per-device SSH circuit breaker state (0=closed, 1=half-open, 2=open).",
}, []string{"device_id"})
