package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders committed by checkout",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of the checkout transaction",
		Buckets: prometheus.DefBuckets,
	})

	InsufficientStockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insufficient_stock_total",
		Help: "Total number of checkouts rejected for insufficient stock",
	})

	StockDepletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_depleted_total",
		Help: "Total number of size rows driven to zero by checkout",
	})

	RestocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restocks_total",
		Help: "Total number of size rows restocked",
	}, []string{"trigger"})

	StockMergesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_merges_total",
		Help: "Total number of duplicate size-stock creations merged into an increment",
	})

	SizeStocksSeededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "size_stocks_seeded_total",
		Help: "Total number of size rows created by product seeding",
	})

	CartPrecheckRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_precheck_rejected_total",
		Help: "Total number of cart additions rejected by the availability pre-check",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
