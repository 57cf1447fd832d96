package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "flightops_"

	// ResultSuccess labels a successful operation.
	ResultSuccess = "success"
	// ResultError labels a failed operation.
	ResultError = "error"
)

var (
	registerOnce sync.Once

	checkinCalculateTotal   *prometheus.CounterVec
	checkinCalculateLatency *prometheus.HistogramVec
	checkinApproveTotal     *prometheus.CounterVec
	checkinApproveLatency   *prometheus.HistogramVec
	checkinEditTotal        *prometheus.CounterVec

	draftExportTotal   *prometheus.CounterVec
	draftExportLatency *prometheus.HistogramVec

	invoiceCreateTotal   *prometheus.CounterVec
	invoiceCreateLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		checkinCalculateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "checkin_calculate_total",
				Help: "Total check-in draft calculations by result",
			},
			[]string{"result"},
		)
		checkinCalculateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "checkin_calculate_latency_seconds",
				Help:    "Check-in draft calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		checkinApproveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "checkin_approve_total",
				Help: "Total check-in approvals by result",
			},
			[]string{"result"},
		)
		checkinApproveLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "checkin_approve_latency_seconds",
				Help:    "Check-in approval latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		checkinEditTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "checkin_line_edit_total",
				Help: "Total draft line edits by result",
			},
			[]string{"result"},
		)

		draftExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "draft_export_total",
				Help: "Total draft exports by format and result",
			},
			[]string{"format", "result"},
		)
		draftExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "draft_export_latency_seconds",
				Help:    "Draft export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		invoiceCreateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_create_total",
				Help: "Total invoice creation calls by result",
			},
			[]string{"result"},
		)
		invoiceCreateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_create_latency_seconds",
				Help:    "Invoice creation call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			checkinCalculateTotal,
			checkinCalculateLatency,
			checkinApproveTotal,
			checkinApproveLatency,
			checkinEditTotal,
			draftExportTotal,
			draftExportLatency,
			invoiceCreateTotal,
			invoiceCreateLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveCheckinCalculate records a calculate run.
func ObserveCheckinCalculate(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if checkinCalculateTotal != nil {
		checkinCalculateTotal.WithLabelValues(result).Inc()
	}
	if checkinCalculateLatency != nil {
		checkinCalculateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveCheckinApprove records an approval attempt.
func ObserveCheckinApprove(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if checkinApproveTotal != nil {
		checkinApproveTotal.WithLabelValues(result).Inc()
	}
	if checkinApproveLatency != nil {
		checkinApproveLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncCheckinLineEdit records a draft line edit.
func IncCheckinLineEdit(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if checkinEditTotal != nil {
		checkinEditTotal.WithLabelValues(result).Inc()
	}
}

// ObserveDraftExport records a draft export.
func ObserveDraftExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if draftExportTotal != nil {
		draftExportTotal.WithLabelValues(format, result).Inc()
	}
	if draftExportLatency != nil {
		draftExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveInvoiceCreate records an invoice boundary call.
func ObserveInvoiceCreate(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if invoiceCreateTotal != nil {
		invoiceCreateTotal.WithLabelValues(result).Inc()
	}
	if invoiceCreateLatency != nil {
		invoiceCreateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "bookings_pending_checkin",
			Help: "Bookings with billing inputs but no approval",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM bookings WHERE checkin_approved_at IS NULL AND aircraft_id IS NOT NULL")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
