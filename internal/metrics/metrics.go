package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokokita_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokokita_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	StockMovementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokokita_stock_movements_total",
			Help: "Stock ledger movements recorded, by direction",
		},
		[]string{"direction"},
	)

	SalesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokokita_sales_total",
			Help: "Completed point of sale transactions",
		},
	)

	SalesAmountCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokokita_sales_amount_cents_total",
			Help: "Gross sales amount in cents",
		},
	)

	LowStockProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tokokita_low_stock_products",
			Help: "Products at or below their minimum stock level, from the last notification derivation",
		},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokokita_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)
