package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records engine-level pricing observations.
type PricingMetrics struct {
	duration  *prometheus.HistogramVec
	applied   *prometheus.CounterVec
	excluded  *prometheus.CounterVec
	cartLines prometheus.Histogram
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_duration_seconds",
		Help:    "Duration of cart pricing calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tenant"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_discounts_applied",
		Help: "Discounts applied to cart lines, by discount type.",
	}, []string{"type"})
	excluded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_discounts_excluded",
		Help: "Discount definitions excluded as malformed before pricing.",
	}, []string{"tenant"})
	cartLines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_cart_lines",
		Help:    "Number of lines per priced cart.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})
	reg.MustRegister(duration, applied, excluded, cartLines)
	return &PricingMetrics{
		duration:  duration,
		applied:   applied,
		excluded:  excluded,
		cartLines: cartLines,
	}
}

// ObserveDuration records the duration of one pricing call.
func (p *PricingMetrics) ObserveDuration(tenant string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(tenant)).Observe(duration.Seconds())
}

// IncApplied increments the applied counter for the given discount type.
func (p *PricingMetrics) IncApplied(discountType string) {
	if p == nil || p.applied == nil {
		return
	}
	p.applied.WithLabelValues(normalizeLabel(discountType)).Inc()
}

// IncExcluded counts a malformed discount dropped for the tenant.
func (p *PricingMetrics) IncExcluded(tenant string) {
	if p == nil || p.excluded == nil {
		return
	}
	p.excluded.WithLabelValues(normalizeLabel(tenant)).Inc()
}

// ObserveCartLines records how many lines the priced cart had.
func (p *PricingMetrics) ObserveCartLines(count int) {
	if p == nil || p.cartLines == nil {
		return
	}
	p.cartLines.Observe(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
