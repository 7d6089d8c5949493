package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics records market lifecycle and purchase activity.
type MarketplaceMetrics struct {
	activations     prometheus.Counter
	deactivations   *prometheus.CounterVec
	purchases       prometheus.Counter
	rejections      *prometheus.CounterVec
	purchaseLatency prometheus.Histogram
}

// NewMarketplaceMetrics registers the marketplace metrics on the provided registerer.
func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	activations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_activations_total",
		Help: "Markets opened for a play session.",
	})
	deactivations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_deactivations_total",
		Help: "Markets closed, by reason.",
	}, []string{"reason"})
	purchases := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "player_purchases_total",
		Help: "Accepted player purchases.",
	})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "player_purchase_rejections_total",
		Help: "Rejected player purchases, by reason.",
	}, []string{"reason"})
	purchaseLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "player_purchase_duration_seconds",
		Help:    "Duration of the purchase path in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(activations, deactivations, purchases, rejections, purchaseLatency)
	return &MarketplaceMetrics{
		activations:     activations,
		deactivations:   deactivations,
		purchases:       purchases,
		rejections:      rejections,
		purchaseLatency: purchaseLatency,
	}
}

// IncActivation counts a successful market activation.
func (m *MarketplaceMetrics) IncActivation() {
	if m == nil || m.activations == nil {
		return
	}
	m.activations.Inc()
}

// IncDeactivation counts a market close for the given reason (manual/expired).
func (m *MarketplaceMetrics) IncDeactivation(reason string) {
	if m == nil || m.deactivations == nil {
		return
	}
	m.deactivations.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncPurchase counts an accepted purchase.
func (m *MarketplaceMetrics) IncPurchase() {
	if m == nil || m.purchases == nil {
		return
	}
	m.purchases.Inc()
}

// IncRejection counts a rejected purchase for the given reason.
func (m *MarketplaceMetrics) IncRejection(reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObservePurchaseDuration records the latency of one purchase attempt.
func (m *MarketplaceMetrics) ObservePurchaseDuration(d time.Duration) {
	if m == nil || m.purchaseLatency == nil {
		return
	}
	m.purchaseLatency.Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
