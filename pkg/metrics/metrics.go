package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvau_upstream_calls_total",
			Help: "Total calls to UV data upstreams",
		},
		[]string{"source", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uvau_upstream_latency_seconds",
			Help:    "UV upstream call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvau_dataset_polls_total",
			Help: "Dataset refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotReadings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uvau_snapshot_readings",
			Help: "Readings held by the current UV snapshot",
		},
	)

	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uvau_snapshot_fetched_timestamp_seconds",
			Help: "Unix time the current UV snapshot was fetched",
		},
	)

	SelectionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvau_selection_transitions_total",
			Help: "Selection changes by triggering action",
		},
		[]string{"action"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uvau_active_sessions",
			Help: "Sessions currently held in memory",
		},
	)

	LocationLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvau_location_lookups_total",
			Help: "Location lookups by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvau_http_requests_total",
			Help: "HTTP requests by route and status class",
		},
		[]string{"route", "status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uvau_http_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)
)
