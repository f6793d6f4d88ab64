package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts datastore operations by backend and
	// operation name.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eveview",
		Subsystem: "datastore",
		Name:      "operations_total",
		Help:      "Datastore operations by backend and operation.",
	}, []string{"backend", "operation"})

	// LockRetriesTotal counts statement retries caused by lock
	// contention in the relational engine.
	LockRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eveview",
		Subsystem: "sqlite",
		Name:      "lock_retries_total",
		Help:      "Statement retries caused by database lock contention.",
	})
)
