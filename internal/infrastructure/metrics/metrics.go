package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerRecords     *prometheus.CounterVec
	LedgerAmount      *prometheus.HistogramVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Stock metrics
	StockUnits *prometheus.CounterVec

	// Payroll and quotation metrics
	PayrollSettlements prometheus.Counter
	QuotationsCreated  prometheus.Counter

	// Audit metrics
	AuditEntriesCreated *prometheus.CounterVec

	// Report metrics
	ReportCacheLookups *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge
}

// New creates and registers all Prometheus metrics on the default registerer
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all Prometheus metrics and registers them on reg
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		LedgerRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_ledger_records_total",
				Help: "Total number of ledger records created by kind",
			},
			[]string{"kind"},
		),
		LedgerAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bizledger_ledger_record_amount",
				Help:    "Amounts of created ledger records",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"kind"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bizledger_operation_duration_seconds",
				Help:    "Duration of service operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_operation_errors_total",
				Help: "Total number of failed service operations by error kind",
			},
			[]string{"operation", "kind"},
		),

		// Stock metrics
		StockUnits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_stock_units_total",
				Help: "Catalog units moved by direction",
			},
			[]string{"direction"},
		),

		// Payroll and quotation metrics
		PayrollSettlements: factory.NewCounter(prometheus.CounterOpts{
			Name: "bizledger_payroll_settlements_total",
			Help: "Total number of payroll settlements",
		}),
		QuotationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bizledger_quotations_created_total",
			Help: "Total number of quotations created",
		}),

		// Audit metrics
		AuditEntriesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_audit_entries_total",
				Help: "Total audit entries created",
			},
			[]string{"subject_type", "action"},
		),

		// Report metrics
		ReportCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_report_cache_lookups_total",
				Help: "Balance report cache lookups by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "bizledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "bizledger_outbox_errors_total",
			Help: "Total outbox publish failures",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bizledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bizledger_db_connections",
			Help: "Current number of database connections",
		}),
	}
}
