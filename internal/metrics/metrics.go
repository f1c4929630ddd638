// Package metrics exposes Prometheus instrumentation for the scheduler,
// attention router, and commitment engine, grounded directly on
// internal/metrics/metrics.go: the same var-block-of-collectors
// plus Register()/NewServer() shape, generalized from a single job/worker
// namespace to three.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scheduler metrics

	ExecutionPickupLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assistant",
		Subsystem: "scheduler",
		Name:      "execution_pickup_latency_seconds",
		Help:      "Time from an execution becoming due to a worker claiming it.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	ExecutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assistant",
		Subsystem: "scheduler",
		Name:      "execution_duration_seconds",
		Help:      "Duration of a dispatched execution invocation.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})

	ExecutionsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "assistant",
		Subsystem: "scheduler",
		Name:      "executions_in_flight",
		Help:      "Number of executions currently dispatched.",
	})

	ExecutionsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "scheduler",
		Name:      "executions_completed_total",
		Help:      "Total executions finished, by outcome.",
	}, []string{"outcome"})

	PredicateEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "scheduler",
		Name:      "predicate_evaluations_total",
		Help:      "Total conditional-schedule predicate evaluations, by result.",
	}, []string{"result"})

	// Attention router metrics

	RoutingDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "router",
		Name:      "routing_decisions_total",
		Help:      "Total routing decisions, by final decision and channel.",
	}, []string{"decision", "channel"})

	RateLimitDemotionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "router",
		Name:      "rate_limit_demotions_total",
		Help:      "Total decisions demoted by the rate limiter, by demoted-to outcome.",
	}, []string{"demoted_to"})

	EscalationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "router",
		Name:      "escalations_total",
		Help:      "Total escalations, by trigger.",
	}, []string{"trigger"})

	FailClosedQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "assistant",
		Subsystem: "router",
		Name:      "fail_closed_queue_depth",
		Help:      "Number of signals currently queued in the fail-closed path.",
	})

	// Commitment engine metrics

	CommitmentTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "commitment",
		Name:      "transitions_total",
		Help:      "Total commitment state transitions, by actor and to-state.",
	}, []string{"actor", "to_state"})

	CommitmentProposalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "commitment",
		Name:      "proposals_total",
		Help:      "Total commitment proposals created, by kind.",
	}, []string{"kind"})

	// Process lifecycle

	ProcessStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "assistant",
		Name:      "process_start_time_seconds",
		Help:      "Unix timestamp when the process started.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assistant",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Register registers every collector with the default registry, a single
// one-shot call made at process startup.
func Register() {
	prometheus.MustRegister(
		ExecutionPickupLatency,
		ExecutionDuration,
		ExecutionsInFlight,
		ExecutionsCompletedTotal,
		PredicateEvaluationsTotal,
		RoutingDecisionsTotal,
		RateLimitDemotionsTotal,
		EscalationsTotal,
		FailClosedQueueDepth,
		CommitmentTransitionsTotal,
		CommitmentProposalsTotal,
		ProcessStartTime,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer returns the standalone /metrics HTTP server.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
