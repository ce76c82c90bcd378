package grove

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors wired into Database's hot
// paths — apply latency, proof generation, and storage round trips — per
// SPEC_FULL.md's AMBIENT STACK "Metrics" section. A nil *Metrics is valid
// everywhere it's used: every observe method is a no-op on a nil
// receiver, so Database works unmetered with no extra nil checks at call
// sites.
type Metrics struct {
	applyDuration prometheus.Histogram
	applyTotal    prometheus.Counter
	getDuration   prometheus.Histogram
	referenceHops prometheus.Histogram
	proveDuration prometheus.Histogram
}

// NewMetrics builds a Metrics and registers its collectors against reg.
// Pass a fresh prometheus.NewRegistry() in tests to avoid colliding with
// the global default registry across test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		applyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "grovedb_apply_duration_seconds",
			Help: "Latency of Insert/InsertIfNotExists/Delete, including root propagation up the path.",
		}),
		applyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grovedb_apply_total",
			Help: "Count of Insert/InsertIfNotExists/Delete calls that wrote an entry.",
		}),
		getDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "grovedb_get_duration_seconds",
			Help: "Latency of Get, including Reference chain resolution.",
		}),
		referenceHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grovedb_reference_hops",
			Help:    "Number of Reference hops resolved per Get call.",
			Buckets: prometheus.LinearBuckets(0, 1, DefaultMaxReferenceHops+2),
		}),
		proveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "grovedb_prove_duration_seconds",
			Help: "Latency of Prove, across every path-level blob plus the leaf query blob.",
		}),
	}
	reg.MustRegister(m.applyDuration, m.applyTotal, m.getDuration, m.referenceHops, m.proveDuration)
	return m
}

func (m *Metrics) observeApply(d time.Duration) {
	if m == nil {
		return
	}
	m.applyDuration.Observe(d.Seconds())
	m.applyTotal.Inc()
}

func (m *Metrics) observeGet(d time.Duration, hops int) {
	if m == nil {
		return
	}
	m.getDuration.Observe(d.Seconds())
	m.referenceHops.Observe(float64(hops))
}

func (m *Metrics) observeProve(d time.Duration) {
	if m == nil {
		return
	}
	m.proveDuration.Observe(d.Seconds())
}
