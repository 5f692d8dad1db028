package ambre

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is optional Prometheus instrumentation for a Database. It is nil
// by default (mirroring bfs.BFSOptions.Ctx defaulting to
// context.Background() rather than forcing a dependency on every caller):
// embedding this package never registers anything with any registry unless
// a caller explicitly builds a Metrics and passes it via WithMetrics.
//
// Unlike the pack's promauto.New* call sites, which register straight into
// the global default registry, NewMetrics takes an explicit
// prometheus.Registerer so a library caller controls where (or whether)
// these series are exposed.
type Metrics struct {
	transactionsIngested prometheus.Counter
	trieNodes            prometheus.Gauge
	derivationLatency    prometheus.Histogram
}

// NewMetrics registers a transaction counter, a trie node-count gauge, and
// a derivation-latency histogram against reg, and returns the bundle for
// use with WithMetrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transactionsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "ambre_transactions_ingested_total",
			Help: "Total transactions inserted into the database.",
		}),
		trieNodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ambre_trie_nodes",
			Help: "Current number of nodes in the trie, including the root.",
		}),
		derivationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ambre_derivation_duration_seconds",
			Help:    "Wall-clock time spent deriving itemsets or rules.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeTransaction() {
	if m == nil {
		return
	}
	m.transactionsIngested.Inc()
}

func (m *Metrics) setTrieNodes(n int) {
	if m == nil {
		return
	}
	m.trieNodes.Set(float64(n))
}

func (m *Metrics) observeDerivation(seconds float64) {
	if m == nil {
		return
	}
	m.derivationLatency.Observe(seconds)
}
