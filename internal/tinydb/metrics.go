package tinydb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tinydb"

const (
	splitLeaf     = "leaf"
	splitInternal = "internal"
	splitRoot     = "root"

	insertOK           = "ok"
	insertDuplicateKey = "duplicate_key"
	insertTableFull    = "table_full"
)

// Metrics are storage engine counters. A nil registerer creates unregistered collectors.
type Metrics struct {
	PagesLoaded    prometheus.Counter
	PagesFlushed   prometheus.Counter
	PagesAllocated prometheus.Counter
	Splits         *prometheus.CounterVec
	Inserts        *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PagesLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pager",
			Name:      "pages_loaded_total",
			Help:      "Pages read from the database file into the page cache.",
		}),
		PagesFlushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pager",
			Name:      "pages_flushed_total",
			Help:      "Pages written from the page cache to the database file.",
		}),
		PagesAllocated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pager",
			Name:      "pages_allocated_total",
			Help:      "Pages appended past the current end of the database.",
		}),
		Splits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "btree",
			Name:      "node_splits_total",
			Help:      "Node splits by kind (leaf, internal, root).",
		}, []string{"kind"}),
		Inserts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "btree",
			Name:      "inserts_total",
			Help:      "Insert attempts by result.",
		}, []string{"result"}),
	}
}
