package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	OrdersCreated   prometheus.Counter
	OrdersCancelled prometheus.Counter
	OrdersPaid      prometheus.Counter
	StockConflicts  prometheus.Counter
	PaymentWebhooks *prometheus.CounterVec
}

// New registers the service collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_orders_created_total",
			Help: "Orders successfully created from carts.",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_orders_cancelled_total",
			Help: "Orders moved to the cancelled status.",
		}),
		OrdersPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_orders_paid_total",
			Help: "Orders marked as paid.",
		}),
		StockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_stock_conflicts_total",
			Help: "Checkouts or cart mutations rejected for insufficient stock.",
		}),
		PaymentWebhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_payment_webhooks_total",
			Help: "Payment provider callbacks by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.OrdersCreated,
		m.OrdersCancelled,
		m.OrdersPaid,
		m.StockConflicts,
		m.PaymentWebhooks,
	)
	return m
}
