package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Plan metrics
	PlanRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unihybrid_plan_requests_total",
			Help: "Total number of execution plan requests",
		},
		[]string{"scenario", "side", "status"},
	)

	PlanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unihybrid_plan_duration_seconds",
			Help:    "Execution plan build duration in seconds",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.05},
		},
		[]string{"scenario"},
	)

	OrderbookShare = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unihybrid_orderbook_share_ratio",
			Help:    "Fraction of the swap input routed to the orderbook",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1},
		},
		[]string{"scenario"},
	)

	LevelsUsed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unihybrid_levels_used",
		Help:    "Number of orderbook levels filled per plan",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	SavingsBps = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unihybrid_savings_bps",
			Help:    "Savings over the AMM-only reference in basis points",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
		},
		[]string{"scenario"},
	)

	// Cache metrics
	LevelCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unihybrid_level_cache_hits_total",
		Help: "Total number of synthesized books served from cache",
	})

	LevelCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unihybrid_level_cache_misses_total",
		Help: "Total number of synthesized books built from scratch",
	})

	// Oracle metrics
	OracleLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unihybrid_oracle_lookups_total",
			Help: "Total number of price oracle lookups",
		},
		[]string{"status"},
	)

	OraclePairs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unihybrid_oracle_pairs",
		Help: "Number of configured oracle pairs",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unihybrid_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unihybrid_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unihybrid_http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)
