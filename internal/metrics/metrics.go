package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace_indexer"

// Drop reasons for events that never become an activity
const (
	ReasonUnmatched = "unmatched"
	ReasonMalformed = "malformed"
)

// Metrics holds the indexer's prometheus collectors
type Metrics struct {
	TransactionsProcessed prometheus.Counter
	TransactionsFailed    prometheus.Counter
	EventsMatched         prometheus.Counter
	EventsDropped         *prometheus.CounterVec
	ActivitiesInserted    *prometheus.CounterVec
	WriteRetries          prometheus.Counter
	CheckpointVersion     prometheus.Gauge
	InFlight              prometheus.Gauge
	ProcessingDuration    prometheus.Histogram
	MetadataFetches       *prometheus.CounterVec
	PriceLookups          *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in binaries
// and a fresh registry in tests
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "transactions_processed_total",
			Help:      "Total transactions committed by the processor",
		}),
		TransactionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "transactions_failed_total",
			Help:      "Total transactions whose writes failed after every retry",
		}),
		EventsMatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remapper",
			Name:      "events_matched_total",
			Help:      "Total events matched to a marketplace registry entry",
		}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remapper",
			Name:      "events_dropped_total",
			Help:      "Total events dropped, by reason",
		}, []string{"reason"}),
		ActivitiesInserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "activities_inserted_total",
			Help:      "Total activities inserted, by marketplace and type",
		}, []string{"marketplace", "type"}),
		WriteRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "write_retries_total",
			Help:      "Total retried database write transactions",
		}),
		CheckpointVersion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "checkpoint_version",
			Help:      "Last transaction version the checkpoint advanced to",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "in_flight_transactions",
			Help:      "Transactions dispatched but not yet passed by the checkpoint",
		}),
		ProcessingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "transaction_duration_seconds",
			Help:      "Time taken to reduce and commit one transaction",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		MetadataFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "fetches_total",
			Help:      "Total token metadata fetches, by outcome",
		}, []string{"outcome"}),
		PriceLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "lookups_total",
			Help:      "Total USD price lookups, by source",
		}, []string{"source"}),
	}
}

// Handler serves the collectors gathered from g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
