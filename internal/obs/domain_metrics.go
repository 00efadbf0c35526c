package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by result (placed, empty_cart, invalid, error).
	CheckoutTotal *prometheus.CounterVec
	// OrderValueBDT observes placed order totals in taka.
	OrderValueBDT prometheus.Histogram
	// CartMutationsTotal counts cart mutations by operation.
	CartMutationsTotal *prometheus.CounterVec
	// ShippingLookupsTotal counts rate table lookups by source (table, default).
	ShippingLookupsTotal *prometheus.CounterVec
	// NotificationsTotal counts order notification deliveries by result.
	NotificationsTotal *prometheus.CounterVec
	// RateLimitedTotal counts requests rejected by a rate limit.
	RateLimitedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"}))
		OrderValueBDT = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value_bdt",
			Help:      "Distribution of placed order totals in BDT.",
			Buckets:   []float64{500, 1000, 5000, 10000, 25000, 50000, 100000, 250000},
		}))
		CartMutationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation.",
		}, []string{"op"}))
		ShippingLookupsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_lookups_total",
			Help:      "Count of shipping rate lookups by source.",
		}, []string{"source"}))
		NotificationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Count of order notification deliveries by result.",
		}, []string{"result"}))
		RateLimitedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Count of requests rejected by rate limiting.",
		}, []string{"limit"}))
	})
}

// RecordCheckout increments the checkout counter when domain metrics are registered.
func RecordCheckout(result string) {
	if CheckoutTotal != nil {
		CheckoutTotal.WithLabelValues(result).Inc()
	}
}

// RecordOrderValue observes a placed order total.
func RecordOrderValue(total float64) {
	if OrderValueBDT != nil {
		OrderValueBDT.Observe(total)
	}
}

// RecordCartMutation increments the cart mutation counter for op.
func RecordCartMutation(op string) {
	if CartMutationsTotal != nil {
		CartMutationsTotal.WithLabelValues(op).Inc()
	}
}

// RecordShippingLookup increments the shipping lookup counter for source.
func RecordShippingLookup(source string) {
	if ShippingLookupsTotal != nil {
		ShippingLookupsTotal.WithLabelValues(source).Inc()
	}
}

// RecordNotification increments the notification counter for result.
func RecordNotification(result string) {
	if NotificationsTotal != nil {
		NotificationsTotal.WithLabelValues(result).Inc()
	}
}

// RecordRateLimited increments the rate limit rejection counter for limit.
func RecordRateLimited(limit string) {
	if RateLimitedTotal != nil {
		RateLimitedTotal.WithLabelValues(limit).Inc()
	}
}
