package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpgql_cache_hits_total",
			Help: "Total number of GraphQL response cache hits",
		},
		[]string{"layer"},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wpgql_cache_misses_total",
			Help: "Total number of GraphQL response cache misses",
		},
	)

	// CacheSize holds the size of the most recently stored entry by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wpgql_cache_size_bytes",
			Help: "Size in bytes of the most recently stored GraphQL response cache entry",
		},
		[]string{"layer"},
	)

	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wpgql_304_responses_total",
			Help: "Total number of 304 Not Modified responses served from cache",
		},
	)

	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wpgql_conditional_requests_total",
			Help: "Total number of conditional requests sent",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpgql_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
