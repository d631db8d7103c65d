package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	transcripts = "transcripts"

	// Claim metrics
	itemsClaimedTotal = "items_claimed_total"
	claimErrorsTotal  = "claim_errors_total"

	// Outcome metrics
	itemOutcomesTotal     = "item_outcomes_total"
	reconcileErrorsTotal  = "reconcile_errors_total"
	batchDurationSeconds  = "batch_duration_seconds"
	transformDurationSecs = "transform_duration_seconds"

	// Labels
	statusLabel    = "status"
	retryableLabel = "retryable"
)

/**
* Metrics definition
**/
var itemsClaimedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: transcripts,
		Name:      itemsClaimedTotal,
		Help:      "number of work items moved from pending to processing",
	},
)

var claimErrorsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: transcripts,
		Name:      claimErrorsTotal,
		Help:      "number of failed claim transactions",
	},
	[]string{retryableLabel},
)

var itemOutcomesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: transcripts,
		Name:      itemOutcomesTotal,
		Help:      "number of work items reconciled, by terminal status",
	},
	[]string{statusLabel},
)

var reconcileErrorsTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: transcripts,
		Name:      reconcileErrorsTotal,
		Help:      "number of reconciliations which failed and left the item in processing",
	},
)

var batchDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: transcripts,
		Name:      batchDurationSeconds,
		Help:      "time spent executing and reconciling one claimed batch",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
	},
)

var transformDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: transcripts,
		Name:      transformDurationSecs,
		Help:      "time spent in the transcript transform for a single item",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{statusLabel},
)

func IncreaseItemsClaimed(count int) {
	itemsClaimedTotalMetric.Add(float64(count))
}

func IncreaseClaimErrors(retryable bool) {
	label := "false"
	if retryable {
		label = "true"
	}
	claimErrorsTotalMetric.With(prometheus.Labels{retryableLabel: label}).Inc()
}

func IncreaseItemOutcome(status string) {
	itemOutcomesTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseReconcileErrors() {
	reconcileErrorsTotalMetric.Inc()
}

func ObserveBatchDuration(d time.Duration) {
	batchDurationMetric.Observe(d.Seconds())
}

func ObserveTransformDuration(status string, d time.Duration) {
	transformDurationMetric.With(prometheus.Labels{statusLabel: status}).Observe(d.Seconds())
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(itemsClaimedTotalMetric)
	prometheus.MustRegister(claimErrorsTotalMetric)
	prometheus.MustRegister(itemOutcomesTotalMetric)
	prometheus.MustRegister(reconcileErrorsTotalMetric)
	prometheus.MustRegister(batchDurationMetric)
	prometheus.MustRegister(transformDurationMetric)
}
