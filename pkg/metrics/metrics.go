package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Inventory metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "unet_nodes_total",
			Help: "Total number of nodes by role and lifecycle state",
		},
		[]string{"role", "lifecycle"},
	)

	LinksTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "unet_links_total",
			Help: "Total number of links",
		},
	)

	LocationsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "unet_locations_total",
			Help: "Total number of locations",
		},
	)

	// Polling metrics
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unet_polls_total",
			Help: "Total number of SNMP polls by outcome",
		},
		[]string{"outcome"},
	)

	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unet_poll_duration_seconds",
			Help:    "Time taken to complete one SNMP poll",
			Buckets: prometheus.DefBuckets,
		},
	)

	TasksUnhealthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "unet_poll_tasks_unhealthy",
			Help: "Number of poll tasks that have reached max_retries consecutive failures",
		},
	)

	// Policy metrics
	PolicyEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unet_policy_evaluations_total",
			Help: "Total number of policy rule evaluations by verdict",
		},
		[]string{"verdict"},
	)

	PolicyEvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unet_policy_evaluation_duration_seconds",
			Help:    "Time taken for one full-sweep policy evaluation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	PolicyActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unet_policy_actions_total",
			Help: "Total number of policy actions executed by outcome",
		},
		[]string{"outcome"},
	)

	// Policy loader metrics
	LoaderCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unet_loader_cache_hits_total",
			Help: "Total number of policy file loads served from cache",
		},
	)

	LoaderCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unet_loader_cache_misses_total",
			Help: "Total number of policy file loads that re-parsed from disk",
		},
	)

	LoaderFileErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unet_loader_file_errors_total",
			Help: "Total number of .policy files that failed to parse",
		},
	)

	// Storage metrics
	StorageOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unet_storage_operation_duration_seconds",
			Help:    "Storage backend operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StorageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unet_storage_errors_total",
			Help: "Total number of storage operations that returned an error, by code",
		},
		[]string{"code"},
	)
)

func init() {
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(LinksTotal)
	prometheus.MustRegister(LocationsTotal)
	prometheus.MustRegister(PollsTotal)
	prometheus.MustRegister(PollDuration)
	prometheus.MustRegister(TasksUnhealthy)
	prometheus.MustRegister(PolicyEvaluationsTotal)
	prometheus.MustRegister(PolicyEvaluationDuration)
	prometheus.MustRegister(PolicyActionsTotal)
	prometheus.MustRegister(LoaderCacheHitsTotal)
	prometheus.MustRegister(LoaderCacheMissesTotal)
	prometheus.MustRegister(LoaderFileErrorsTotal)
	prometheus.MustRegister(StorageOperationDuration)
	prometheus.MustRegister(StorageErrorsTotal)
}

// Timer is a helper for timing operations, unchanged in shape from
// the teacher's metrics.Timer.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
