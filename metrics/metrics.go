// Package metrics exposes prometheus collectors for the order pipeline.
// Collectors register against an injected Registerer so tests get isolated
// registries instead of sharing process-global state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics counts pipeline outcomes and payment latency.
type PipelineMetrics struct {
	Orders         *prometheus.CounterVec
	PaymentMS      *prometheus.HistogramVec
	StockConflicts prometheus.Counter
}

// NewPipelineMetrics registers the pipeline collectors on reg.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderpipeline",
			Name:      "orders_total",
			Help:      "Order creation attempts by outcome.",
		}, []string{"outcome"}),
		PaymentMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orderpipeline",
			Name:      "payment_duration_ms",
			Help:      "Payment processing latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method"}),
		StockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderpipeline",
			Name:      "stock_conflicts_total",
			Help:      "Reservations lost to a concurrent order after payment.",
		}),
	}
	reg.MustRegister(m.Orders, m.PaymentMS, m.StockConflicts)
	return m
}

// Handler serves the registry over HTTP.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
