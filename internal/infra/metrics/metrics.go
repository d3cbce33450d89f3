package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MixOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factory_mix_operations_total",
		Help: "Color mix entry operations by kind and result.",
	}, []string{"op", "result"})

	StockShortages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "factory_stock_shortages_total",
		Help: "Mix operations rejected because a material would go negative.",
	})

	ConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "factory_mix_conflict_retries_total",
		Help: "Mix operations retried after a concurrent stock change.",
	})

	LowStockAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "factory_low_stock_alerts_total",
		Help: "Low stock alerts sent.",
	})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "factory_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
