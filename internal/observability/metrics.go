package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	openSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shift_report",
		Subsystem: "review",
		Name:      "open_sessions",
		Help:      "Number of supervisor review sessions currently held in memory.",
	})
	fieldEditCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shift_report",
		Subsystem: "review",
		Name:      "field_edits_total",
		Help:      "Number of overlay mutations applied across all review sessions.",
	})
	flushCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shift_report",
		Subsystem: "review",
		Name:      "flushes_total",
		Help:      "Number of successful bulk saves of review edits.",
	})
	flushedEditsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shift_report",
		Subsystem: "review",
		Name:      "flushed_edits_total",
		Help:      "Number of edited payloads persisted by bulk saves.",
	})
	flushFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shift_report",
		Subsystem: "review",
		Name:      "flush_failures_total",
		Help:      "Number of bulk saves that failed; the overlay is retained on failure.",
	})
	deletedRecordCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shift_report",
		Subsystem: "review",
		Name:      "records_deleted_total",
		Help:      "Number of records removed from the validated set by supervisors.",
	})
	lastValidatedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shift_report",
		Subsystem: "validation",
		Name:      "last_day_validated_timestamp_seconds",
		Help:      "Unix timestamp of the most recent day validation snapshot.",
	})
)

func init() {
	prometheus.MustRegister(
		openSessionsGauge,
		fieldEditCounter,
		flushCounter,
		flushedEditsCounter,
		flushFailureCounter,
		deletedRecordCounter,
		lastValidatedGauge,
	)
}

// SetOpenReviewSessions updates the open-session gauge.
func SetOpenReviewSessions(count int) {
	openSessionsGauge.Set(float64(count))
}

// RecordFieldEdit counts one overlay mutation.
func RecordFieldEdit() {
	fieldEditCounter.Inc()
}

// RecordFlush counts a successful bulk save of the given size.
func RecordFlush(edits int) {
	flushCounter.Inc()
	flushedEditsCounter.Add(float64(edits))
}

// RecordFlushFailure counts a failed bulk save.
func RecordFlushFailure() {
	flushFailureCounter.Inc()
}

// RecordDeletedRecord counts a supervisor deletion from the validated set.
func RecordDeletedRecord() {
	deletedRecordCounter.Inc()
}

// RecordDayValidated updates the validation watermark gauge.
func RecordDayValidated(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastValidatedGauge.Set(float64(ts.Unix()))
}
