package graphql

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// BackoffJitter is the relative spread applied to every backoff.
const BackoffJitter = 0.2

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// forClass adjusts the backoff for the error class. Rate limited requests
// start with a longer wait.
func (rc RetryConfig) forClass(errorClass ErrorClass) RetryConfig {
	if errorClass == ErrorClassRateLimit {
		rc.InitialBackoff *= 5
		if rc.InitialBackoff > rc.MaxBackoff {
			rc.InitialBackoff = rc.MaxBackoff
		}
	}
	return rc
}

// MaxTotalBackoff returns the longest time all backoffs between attempts can
// add up to, jitter included.
func (rc RetryConfig) MaxTotalBackoff() time.Duration {
	rc = rc.normalized()
	perRetry := time.Duration(float64(rc.MaxBackoff) * (1 + BackoffJitter))
	return time.Duration(rc.MaxAttempts-1) * perRetry
}

func (rc RetryConfig) normalized() RetryConfig {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	if rc.BackoffMultiplier < 1 {
		rc.BackoffMultiplier = 1
	}
	if rc.MaxBackoff <= 0 {
		rc.MaxBackoff = rc.InitialBackoff
	}
	return rc
}

// retryWithBackoff executes fn with exponential backoff and ±BackoffJitter jitter.
// classify is consulted after every failure to decide whether to retry.
func retryWithBackoff(ctx context.Context, logger zerolog.Logger, cfg RetryConfig, fn func() error, classify func(error) ErrorClass) error {
	cfg = cfg.normalized()

	var (
		lastErr    error
		errorClass ErrorClass
		backoff    time.Duration
	)

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(errorClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		errorClass = classify(err)

		if !shouldRetry(errorClass) {
			return lastErr
		}

		if attempt >= cfg.MaxAttempts {
			break
		}

		if attempt == 1 {
			backoff = cfg.forClass(errorClass).InitialBackoff
		}

		retriesTotal.WithLabelValues(string(errorClass)).Inc()

		jitter := time.Duration(float64(backoff) * (1 - BackoffJitter + rand.Float64()*2*BackoffJitter))
		retryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(jitter.Seconds())

		logger.Warn().
			Err(err).
			Str("error_class", string(errorClass)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	retryExhaustedTotal.WithLabelValues(string(errorClass)).Inc()
	logger.Error().
		Str("error_class", string(errorClass)).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}
