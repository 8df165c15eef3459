package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nrppa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"component", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nrppa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"component", "method", "path", "status"},
	)
	pdusDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nrppa",
			Subsystem: "codec",
			Name:      "pdus_decoded_total",
			Help:      "NRPPa PDUs decoded, by procedure and message kind.",
		},
		[]string{"procedure", "kind"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nrppa",
			Subsystem: "codec",
			Name:      "decode_errors_total",
			Help:      "NRPPa PDU decode failures, by stage.",
		},
		[]string{"stage"},
	)
	criticalityMismatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nrppa",
			Subsystem: "codec",
			Name:      "criticality_mismatches_total",
			Help:      "PDUs whose criticality differs from the procedure table.",
		},
		[]string{"procedure"},
	)
	procedureOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nrppa",
			Subsystem: "procedure",
			Name:      "outcomes_total",
			Help:      "Procedure executions by outcome.",
		},
		[]string{"procedure", "outcome"},
	)
	procedureDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nrppa",
			Subsystem: "procedure",
			Name:      "duration_seconds",
			Help:      "Procedure execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"procedure", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			pdusDecoded,
			decodeErrors,
			criticalityMismatches,
			procedureOutcomes,
			procedureDuration,
		)
	})
}

func RecordHTTPRequest(component, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(component, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(component, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPDU(procedure, kind string) {
	RegisterMetrics()
	pdusDecoded.WithLabelValues(procedure, kind).Inc()
}

func RecordDecodeError(stage string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(stage).Inc()
}

func RecordCriticalityMismatch(procedure string) {
	RegisterMetrics()
	criticalityMismatches.WithLabelValues(procedure).Inc()
}

func RecordProcedureOutcome(procedure, outcome string, duration time.Duration) {
	RegisterMetrics()
	procedureOutcomes.WithLabelValues(procedure, outcome).Inc()
	procedureDuration.WithLabelValues(procedure, outcome).Observe(duration.Seconds())
}
