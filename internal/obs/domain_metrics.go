package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersPlacedTotal counts successfully placed orders by fulfillment type.
	OrdersPlacedTotal *prometheus.CounterVec
	// PromoApplyTotal counts promo application attempts by outcome.
	PromoApplyTotal *prometheus.CounterVec
	// PointsRedeemedTotal accumulates loyalty points redeemed at checkout.
	PointsRedeemedTotal prometheus.Counter
	// PointsEarnedTotal accumulates loyalty points earned from orders.
	PointsEarnedTotal prometheus.Counter
	// OTPRequestsTotal counts login code requests by outcome.
	OTPRequestsTotal *prometheus.CounterVec
	// CartsSweptTotal counts idle carts removed by the janitor.
	CartsSweptTotal prometheus.Counter
	// CheckoutDuration records end-to-end checkout latency in milliseconds.
	CheckoutDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Count of orders placed by fulfillment type.",
		}, []string{"fulfillment"})
		PromoApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_apply_total",
			Help:      "Count of promo code application attempts by outcome.",
		}, []string{"result"})
		PointsRedeemedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_redeemed_total",
			Help:      "Total loyalty points redeemed at checkout.",
		})
		PointsEarnedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_earned_total",
			Help:      "Total loyalty points earned from placed orders.",
		})
		OTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_requests_total",
			Help:      "Count of login code requests by outcome.",
		}, []string{"result"})
		CartsSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_swept_total",
			Help:      "Number of idle carts removed by the background sweeper.",
		})
		CheckoutDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Latency of checkout processing in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		})

		mustRegisterCollector(reg, OrdersPlacedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersPlacedTotal = v
			}
		})
		mustRegisterCollector(reg, PromoApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PromoApplyTotal = v
			}
		})
		mustRegisterCollector(reg, PointsRedeemedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PointsRedeemedTotal = v
			}
		})
		mustRegisterCollector(reg, PointsEarnedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PointsEarnedTotal = v
			}
		})
		mustRegisterCollector(reg, OTPRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OTPRequestsTotal = v
			}
		})
		mustRegisterCollector(reg, CartsSweptTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartsSweptTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CheckoutDuration = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
