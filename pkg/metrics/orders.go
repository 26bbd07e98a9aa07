package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle and cart activity. A nil receiver is a no-op.
type OrderMetrics struct {
	placed          prometheus.Counter
	cancelled       prometheus.Counter
	transitions     *prometheus.CounterVec
	placeFailures   *prometheus.CounterVec
	restoreFailures prometheus.Counter
	cartMutations   *prometheus.CounterVec
	placeDuration   prometheus.Histogram
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created from a cart.",
	})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders moved to cancelled.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"to"})
	placeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_place_failures_total",
		Help: "Rejected order placements by error code.",
	}, []string{"reason"})
	restoreFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_restore_failures_total",
		Help: "Line items whose stock could not be restored.",
	})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	placeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_place_duration_seconds",
		Help:    "Duration of successful order placements.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(placed, cancelled, transitions, placeFailures, restoreFailures, cartMutations, placeDuration)
	return &OrderMetrics{
		placed:          placed,
		cancelled:       cancelled,
		transitions:     transitions,
		placeFailures:   placeFailures,
		restoreFailures: restoreFailures,
		cartMutations:   cartMutations,
		placeDuration:   placeDuration,
	}
}

// OrderPlaced counts a placement and records how long it took.
func (m *OrderMetrics) OrderPlaced(duration time.Duration) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
	m.placeDuration.Observe(duration.Seconds())
}

// PlaceFailed counts a rejected placement.
func (m *OrderMetrics) PlaceFailed(reason string) {
	if m == nil || m.placeFailures == nil {
		return
	}
	m.placeFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *OrderMetrics) OrderCancelled() {
	if m == nil || m.cancelled == nil {
		return
	}
	m.cancelled.Inc()
}

// StatusTransition counts a status change to the target status.
func (m *OrderMetrics) StatusTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func (m *OrderMetrics) StockRestoreFailed(count int) {
	if m == nil || m.restoreFailures == nil || count <= 0 {
		return
	}
	m.restoreFailures.Add(float64(count))
}

// CartMutation counts a successful cart mutation by operation name.
func (m *OrderMetrics) CartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
