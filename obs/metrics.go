// Package obs wires the btree package's cache, split, and corruption
// events up to Prometheus, the way libravdb's internal/obs package
// wires its own vector-search events.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the metrics a Tree reports through as it runs:
// monotonic counters for inserts, splits, cache loads, cache
// evictions and corruptions, plus a ResidentNodes gauge that rises on
// each cache load and falls on each eviction.
type Metrics struct {
	Inserts       prometheus.Counter
	Splits        prometheus.Counter
	CacheLoads    prometheus.Counter
	CacheEvicts   prometheus.Counter
	Corruptions   prometheus.Counter
	ResidentNodes prometheus.Gauge
}

// NewMetrics registers and returns a fresh set of metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Inserts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ccnbtree_inserts_total",
			Help: "Total entries inserted across all nodes.",
		}),
		Splits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ccnbtree_splits_total",
			Help: "Total node splits performed.",
		}),
		CacheLoads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ccnbtree_cache_loads_total",
			Help: "Total nodes loaded into the resident cache.",
		}),
		CacheEvicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ccnbtree_cache_evictions_total",
			Help: "Total nodes evicted from the resident cache.",
		}),
		Corruptions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ccnbtree_corruptions_total",
			Help: "Total nodes latched corrupt.",
		}),
		ResidentNodes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ccnbtree_resident_nodes",
			Help: "Current number of nodes held in the resident cache.",
		}),
	}
}

// Insert records one entry insertion.
func (m *Metrics) Insert() { m.Inserts.Inc() }

// Split records one node split.
func (m *Metrics) Split() { m.Splits.Inc() }

// CacheLoad records one resident-cache load (a node that was not
// already resident and had to be fetched through IO, or created
// fresh).
func (m *Metrics) CacheLoad() {
	m.CacheLoads.Inc()
	m.ResidentNodes.Inc()
}

// CacheEvict records one resident-cache eviction.
func (m *Metrics) CacheEvict() {
	m.CacheEvicts.Inc()
	m.ResidentNodes.Dec()
}

// Corruption records one node being latched corrupt.
func (m *Metrics) Corruption() { m.Corruptions.Inc() }
