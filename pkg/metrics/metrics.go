// Package metrics exposes the Prometheus registry used by wp-pages.
// All metrics are defined in their respective packages (graphql, cache,
// ratelimit, site) to keep the packages independent.
//
// This package provides the HTTP handler and a reference of all metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by wp-pages.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry the handler reads from.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler. Scrapes of the handler itself are
// counted in Registry (promhttp_metric_handler_requests_total).
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - wpgql_rate_limit_waits_total (Counter): Requests delayed by the client-side limiter
//   - wpgql_rate_limit_wait_seconds (Histogram): Time spent waiting for a token
//
// Cache Metrics (pkg/cache):
//   - wpgql_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - wpgql_cache_misses_total (Counter): Cache misses
//   - wpgql_cache_size_bytes{layer="redis"} (Gauge): Size of the most recently stored entry
//   - wpgql_304_responses_total (Counter): 304 Not Modified responses
//   - wpgql_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - wpgql_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/graphql):
//   - wpgql_requests_total{operation, status} (Counter): Requests by operation and HTTP status
//   - wpgql_request_duration_seconds{operation} (Histogram): Request duration by operation
//   - wpgql_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, graphql)
//
// Retry Metrics (pkg/graphql):
//   - wpgql_retries_total{error_class} (Counter): Retry attempts by error class
//   - wpgql_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - wpgql_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Handler Metrics (pkg/metrics):
//   - promhttp_metric_handler_requests_total{code} (Counter): Scrapes of /metrics
//
// Site Metrics (pkg/site):
//   - wpgql_pages_written_total{template} (Counter): Pages written by template
//   - wpgql_page_bytes_written_total (Counter): Bytes of HTML written
//   - wpgql_page_write_errors_total{template} (Counter): Pages that failed to render or write
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(wpgql_cache_hits_total[5m])) /
//   (sum(rate(wpgql_cache_hits_total[5m])) + sum(rate(wpgql_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(wpgql_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(wpgql_request_duration_seconds_bucket[5m]))
//
//   # Pages per build by template
//   increase(wpgql_pages_written_total[1h])
