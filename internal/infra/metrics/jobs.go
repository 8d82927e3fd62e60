package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsFinishedTotal, invocationsTotal, reconcileMismatchTotal)
}

var jobsFinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "discovery_jobs_finished_total",
		Help: "Discovery jobs reaching a terminal state, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'error'
)

var invocationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "discovery_invocations_total",
		Help: "Job invocations by outcome.",
	},
	[]string{"outcome"}, // 'continued', 'finished', 'noop', 'error'
)

var reconcileMismatchTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "discovery_reconcile_mismatch_total",
		Help: "Reconcile runs that found counters diverging from storage.",
	},
)

func IncJobFinished(status string) {
	jobsFinishedTotal.WithLabelValues(norm(status)).Inc()
}

func IncInvocation(outcome string) {
	invocationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncReconcileMismatch() { reconcileMismatchTotal.Inc() }
