// Package metrics holds the service's custom Prometheus collectors. They register
// with the default registry on import; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notes"

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - action: "register" or "login"
//   - result: "success" or the error kind (e.g. "conflict", "unauthorized")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"action", "result"},
)

// NoteOperationsTotal counts note use cases.
// Labels:
//   - operation: create, list, get, update, delete, search, share, shared
//   - result: "success" or the error kind
var NoteOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "note_operations_total",
		Help:      "Total number of note operations, by outcome.",
	},
	[]string{"operation", "result"},
)

// NotesDeletedTotal counts notes removed by delete requests.
var NotesDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notes_deleted_total",
		Help:      "Total number of notes removed.",
	},
)

// RateLimitedTotal counts requests rejected by a throttling policy.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by rate limiting, by policy.",
	},
	[]string{"policy"},
)
