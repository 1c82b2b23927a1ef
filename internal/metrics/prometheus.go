package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_operations_total",
		Help: "Business operations by name and outcome",
	}, []string{"operation", "result"})

	LedgerVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_ledger_volume_total",
		Help: "Absolute ledger amount written, by entry type",
	}, []string{"type"})

	CommissionsPaid = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhub_commissions_paid_total",
		Help: "Referral commission credited, by level",
	}, []string{"level"})

	PendingRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "taskhub_pending_requests",
		Help: "Requests waiting for operator review, by queue",
	}, []string{"queue"})

	LedgerDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskhub_ledger_drift_accounts",
		Help: "Accounts whose balance differs from the ledger sum at the last reconciliation",
	})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskhub_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveOperation counts one call; result is "ok", the reason code, or "error".
func ObserveOperation(operation string, result string) {
	label := strings.TrimSpace(result)
	if label == "" {
		label = "error"
	}
	Operations.WithLabelValues(operation, label).Inc()
}

func AddLedgerVolume(txType string, amount decimal.Decimal) {
	v, _ := amount.Abs().Float64()
	if v > 0 {
		LedgerVolume.WithLabelValues(txType).Add(v)
	}
}

func AddCommission(level string, amount decimal.Decimal) {
	v, _ := amount.Float64()
	if v > 0 {
		CommissionsPaid.WithLabelValues(level).Add(v)
	}
}

func SetPendingRequests(queue string, count int) {
	if count < 0 {
		count = 0
	}
	PendingRequests.WithLabelValues(queue).Set(float64(count))
}

func SetLedgerDrift(count int) {
	LedgerDrift.Set(float64(count))
}

func ObserveHttpRequest(method, route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HttpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
