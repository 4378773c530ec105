// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "users"

// Operation results recorded in UserOperationsTotal.
const (
	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// UserOperationsTotal counts service operations on user records.
// Labels:
//   - operation: list, get, create, update, delete
//   - result: success, not_found, conflict, error
var UserOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of user record operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// EventsPublishFailuresTotal counts lifecycle events that could not be published.
var EventsPublishFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_publish_failures_total",
		Help:      "Total number of user lifecycle events that failed to publish.",
	},
	[]string{"type"},
)
