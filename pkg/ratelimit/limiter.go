// Package ratelimit paces outgoing WPGraphQL requests so a build does not
// hammer a shared WordPress host.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wpgql_rate_limit_waits_total",
		Help: "Total number of requests delayed by the rate limiter",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wpgql_rate_limit_wait_seconds",
		Help:    "Time requests spent waiting for the rate limiter",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// Config holds limiter settings.
type Config struct {
	// RequestsPerSecond is the sustained request rate. Zero or less disables limiting.
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once (minimum 1).
	Burst int
}

// DefaultConfig returns a polite default for a single WordPress host.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		Burst:             1,
	}
}

// Limiter gates requests with a token bucket.
type Limiter struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewLimiter creates a limiter. A non-positive rate yields an unlimited limiter.
func NewLimiter(cfg Config, logger zerolog.Logger) *Limiter {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	if waited := time.Since(start); waited > time.Millisecond {
		rateLimitWaitsTotal.Inc()
		rateLimitWaitSeconds.Observe(waited.Seconds())
		l.logger.Debug().Dur("waited", waited).Msg("Request delayed by rate limiter")
	}
	return nil
}

// Limit returns the configured rate in requests per second.
func (l *Limiter) Limit() float64 {
	return float64(l.limiter.Limit())
}
