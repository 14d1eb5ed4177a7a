package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SignupsTotal           *prometheus.CounterVec
	TransfersTotal         prometheus.Counter
	TransferAmount         prometheus.Histogram
	WithdrawalsTotal       prometheus.Counter
	DisbursementsTotal     prometheus.Counter
	SettlementsTotal       *prometheus.CounterVec
	InsufficientFundsTotal prometheus.Counter
	RequestDurationSeconds *prometheus.HistogramVec
	TxLogPublishFailures   prometheus.Counter
}

// New creates all metrics and registers them on reg. Tests pass a fresh
// registry so parallel packages never collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SignupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sahakosh_signups_total",
			Help: "Accounts created, by role",
		}, []string{"role"}),
		TransfersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sahakosh_transfers_total",
			Help: "Completed citizen-to-vendor transfers",
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sahakosh_transfer_amount",
			Help:    "Distribution of transfer amounts",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),
		WithdrawalsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sahakosh_withdrawals_total",
			Help: "Completed vendor withdrawals",
		}),
		DisbursementsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sahakosh_disbursements_total",
			Help: "Bulk scheme disbursement runs",
		}),
		SettlementsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sahakosh_settlements_total",
			Help: "Per-beneficiary settlement outcomes during disbursement",
		}, []string{"outcome"}),
		InsufficientFundsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sahakosh_insufficient_funds_total",
			Help: "Operations rejected for insufficient balance",
		}),
		RequestDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sahakosh_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		TxLogPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sahakosh_txlog_publish_failures_total",
			Help: "Transaction log events that could not be published",
		}),
	}
}
