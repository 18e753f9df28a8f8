package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "uppf_"

	resultSuccess  = "success"
	resultError    = "error"
	resultRejected = "rejected"
)

var (
	registerOnce sync.Once

	claimCreateTotal   *prometheus.CounterVec
	claimCreateLatency *prometheus.HistogramVec

	varianceFlaggedTotal prometheus.Counter
	shortPayTotal        prometheus.Counter
	agingAlertTotal      prometheus.Counter

	batchSubmitTotal   *prometheus.CounterVec
	batchSubmitLatency *prometheus.HistogramVec

	dashboardLatency prometheus.Histogram

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		claimCreateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "claim_create_total",
				Help: "Total claim create operations by result",
			},
			[]string{"result"},
		)
		claimCreateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "claim_create_latency_seconds",
				Help:    "Claim create latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		varianceFlaggedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconciliation_variances_total",
				Help: "Total reconciliation variance findings",
			},
		)
		shortPayTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "short_pay_total",
				Help: "Total short-paid claims",
			},
		)
		agingAlertTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "aging_alerts_total",
				Help: "Total aging alerts raised",
			},
		)

		batchSubmitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_submit_total",
				Help: "Total batch submit operations by result",
			},
			[]string{"result"},
		)
		batchSubmitLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "batch_submit_latency_seconds",
				Help:    "Batch submit latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		dashboardLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dashboard_latency_seconds",
				Help:    "Variance dashboard aggregation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "submission_export_total",
				Help: "Total submission package exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "submission_export_latency_seconds",
				Help:    "Submission package export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			claimCreateTotal,
			claimCreateLatency,
			varianceFlaggedTotal,
			shortPayTotal,
			agingAlertTotal,
			batchSubmitTotal,
			batchSubmitLatency,
			dashboardLatency,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveClaimCreate records claim create latency and result.
func ObserveClaimCreate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if claimCreateTotal != nil {
		claimCreateTotal.WithLabelValues(result).Inc()
	}
	if claimCreateLatency != nil {
		claimCreateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// CountVarianceFlagged adds reconciliation findings.
func CountVarianceFlagged(count int) {
	if count <= 0 {
		return
	}
	if varianceFlaggedTotal != nil {
		varianceFlaggedTotal.Add(float64(count))
	}
}

// CountShortPay increments the short-pay counter.
func CountShortPay() {
	if shortPayTotal != nil {
		shortPayTotal.Inc()
	}
}

// CountAgingAlert increments the aging alert counter.
func CountAgingAlert() {
	if agingAlertTotal != nil {
		agingAlertTotal.Inc()
	}
}

// ObserveBatchSubmit records batch submit latency and result.
func ObserveBatchSubmit(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if batchSubmitTotal != nil {
		batchSubmitTotal.WithLabelValues(result).Inc()
	}
	if batchSubmitLatency != nil {
		batchSubmitLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveDashboard records dashboard aggregation latency.
func ObserveDashboard(duration time.Duration) {
	if dashboardLatency != nil {
		dashboardLatency.Observe(duration.Seconds())
	}
}

// ObserveExport records submission export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess  = resultSuccess
	ResultError    = resultError
	ResultRejected = resultRejected
)
