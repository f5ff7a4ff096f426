// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the HTTP and domain collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ordersPlaced    *prometheus.CounterVec
	refunds         *prometheus.CounterVec
	walletMovements *prometheus.CounterVec
	couponsConsumed prometheus.Counter
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders created by payment method.",
		}, []string{"payment_method"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_refund_minor_units_total",
			Help: "Refunded amount in minor currency units by trigger.",
		}, []string{"trigger"}),
		walletMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_transactions_total",
			Help: "Wallet ledger entries by type and source.",
		}, []string{"type", "source"}),
		couponsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coupons_consumed_total",
			Help: "Coupon usages consumed.",
		}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.ordersPlaced, m.refunds, m.walletMovements, m.couponsConsumed)
	return m
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) OrderPlaced(paymentMethod string) {
	if m == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

func (m *Metrics) Refunded(trigger string, amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.refunds.WithLabelValues(normalizeLabel(trigger)).Add(float64(amount))
}

func (m *Metrics) WalletMovement(txType, source string) {
	if m == nil {
		return
	}
	m.walletMovements.WithLabelValues(normalizeLabel(txType), normalizeLabel(source)).Inc()
}

func (m *Metrics) CouponConsumed() {
	if m == nil {
		return
	}
	m.couponsConsumed.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
