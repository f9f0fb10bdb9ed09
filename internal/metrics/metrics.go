package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procdash",
			Subsystem: "poll",
			Name:      "total",
			Help:      "Number of status polls by result.",
		}, []string{"result"},
	)
	pollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "procdash",
			Subsystem: "poll",
			Name:      "duration_seconds",
			Help:      "Observed duration of successful status polls.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procdash",
			Subsystem: "command",
			Name:      "total",
			Help:      "Number of lifecycle commands issued, by action and result.",
		}, []string{"action", "result"},
	)
	bulkDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procdash",
			Subsystem: "bulk",
			Name:      "dispatches_total",
			Help:      "Number of bulk dispatches by action.",
		}, []string{"action"},
	)
	connectionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "procdash",
			Subsystem: "client",
			Name:      "connection_state",
			Help:      "Current connection state (1 = active state, 0 = inactive).",
		}, []string{"state"},
	)
	knownProcesses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "procdash",
			Subsystem: "client",
			Name:      "known_processes",
			Help:      "Number of processes in the local registry.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{pollsTotal, pollDuration, commandsTotal, bulkDispatches, connectionState, knownProcesses}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncPoll(result string) {
	if regOK.Load() {
		pollsTotal.WithLabelValues(result).Inc()
	}
}

func ObservePollDuration(seconds float64) {
	if regOK.Load() {
		pollDuration.Observe(seconds)
	}
}

func IncCommand(action, result string) {
	if regOK.Load() {
		commandsTotal.WithLabelValues(action, result).Inc()
	}
}

func IncBulkDispatch(action string) {
	if regOK.Load() {
		bulkDispatches.WithLabelValues(action).Inc()
	}
}

func SetConnectionState(state string, active bool) {
	if regOK.Load() {
		var value float64
		if active {
			value = 1
		}
		connectionState.WithLabelValues(state).Set(value)
	}
}

func SetKnownProcesses(n int) {
	if regOK.Load() {
		knownProcesses.Set(float64(n))
	}
}
