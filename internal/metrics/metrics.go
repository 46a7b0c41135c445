package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded against session operations.
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeRejected   = "rejected" // failed client-side validation, no request sent
	OutcomeSuperseded = "superseded"
)

var (
	SessionOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Session manager operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	SessionInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_in_flight",
			Help: "Session operations currently waiting on the Auth API",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auth_api_circuit_breaker_state",
			Help: "Current state of the Auth API circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func init() {
	prometheus.MustRegister(SessionOperations)
	prometheus.MustRegister(SessionInFlight)
	prometheus.MustRegister(CircuitBreakerState)
}

// ObserveOperation counts one finished operation.
func ObserveOperation(operation, outcome string) {
	SessionOperations.WithLabelValues(operation, outcome).Inc()
}
