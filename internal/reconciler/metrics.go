package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recompute outcomes, used as the "outcome" label.
const (
	outcomeOK        = "ok"
	outcomeForbidden = "forbidden"
	outcomeNotFound  = "not_found"
	outcomeInvariant = "invariant_violation"
	outcomeError     = "unavailable"
)

type metrics struct {
	recomputes          *prometheus.CounterVec
	recomputeDuration   prometheus.Histogram
	settlementsWritten  prometheus.Counter
	settlementsKept     prometheus.Counter
	settlementsSettled  prometheus.Counter
	invariantViolations prometheus.Counter
}

// newMetrics registers the reconciler collectors with reg. A nil reg
// creates unregistered collectors.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		recomputes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "recomputes_total",
			Help:      "Settlement recomputes by outcome.",
		}, []string{"outcome"}),
		recomputeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "settleup",
			Name:      "recompute_duration_seconds",
			Help:      "Time spent recomputing a group's settlements, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		}),
		settlementsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "settlements_written_total",
			Help:      "Pending settlements inserted by recomputes.",
		}),
		settlementsKept: f.NewCounter(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "settlements_preserved_total",
			Help:      "Settled rows left untouched by recomputes.",
		}),
		settlementsSettled: f.NewCounter(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "settlements_settled_total",
			Help:      "Pending settlements marked settled.",
		}),
		invariantViolations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "invariant_violations_total",
			Help:      "Recomputes aborted because balances did not sum to zero.",
		}),
	}
}
