package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg                *prometheus.Registry
	OrdersCreated      prometheus.Counter
	PreferenceFailures prometheus.Counter
	PreferenceLatency  prometheus.Histogram
	Webhooks           *prometheus.CounterVec
	StockDecrements    prometheus.Counter
	OutboxDispatched   *prometheus.CounterVec
	OrderEvents        *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_orders_created_total"})
	prefFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_preference_failures_total"})
	prefLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_preference_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storefront_webhooks_total"}, []string{"outcome"})
	decrements := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_stock_decrements_total"})
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storefront_outbox_dispatched_total"}, []string{"result"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storefront_order_events_consumed_total"}, []string{"type"})

	r.MustRegister(ordersCreated, prefFailures, prefLatency, webhooks, decrements, dispatched, events)
	return &Registry{
		reg:                r,
		OrdersCreated:      ordersCreated,
		PreferenceFailures: prefFailures,
		PreferenceLatency:  prefLatency,
		Webhooks:           webhooks,
		StockDecrements:    decrements,
		OutboxDispatched:   dispatched,
		OrderEvents:        events,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
