package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelinesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsink_pipelines_built_total",
		Help: "Total number of destination pipelines built.",
	}, []string{"destination"})

	ValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsink_validation_errors_total",
		Help: "Total number of option validation failures reported by validate-all.",
	}, []string{"option"})

	RateLimitTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsink_rate_limit_triggers_total",
		Help: "Total number of times a destination rate limit paused processing.",
	}, []string{"destination"})

	RateLimitWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docsink_rate_limit_wait_seconds",
		Help:    "Time spent paused by destination rate limits.",
		Buckets: prometheus.DefBuckets,
	}, []string{"destination"})

	StageStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsink_stage_stops_total",
		Help: "Total number of records a pipeline stage stopped from reaching later stages.",
	}, []string{"stage"})

	SinkRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsink_sink_rebuilds_total",
		Help: "Total number of sink rebuilds by the server, by result.",
	}, []string{"result"})

	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsink_panics_recovered_total",
		Help: "Total number of panics recovered in server tasks and sink rebuilds.",
	}, []string{"task"})
)
