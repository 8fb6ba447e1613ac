package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	queryResultOK    = "ok"
	queryResultError = "error"
	queryResultPanic = "panic"
)

var (
	sourceQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipgeo",
		Subsystem: "remote",
		Name:      "queries_total",
		Help:      "Remote source queries by source and result.",
	}, []string{"source", "result"})

	sourceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ipgeo",
		Subsystem: "remote",
		Name:      "query_duration_seconds",
		Help:      "Duration of remote source queries.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 1.5, 2.5, 5},
	}, []string{"source"})

	localFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ipgeo",
		Subsystem: "local",
		Name:      "failures_total",
		Help:      "Local resolutions which produced no data because of an error.",
	})
)
