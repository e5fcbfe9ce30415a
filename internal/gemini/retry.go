package gemini

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures exponential backoff with jitter.
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	BackoffFactor  float64
	JitterFraction float64 // 0.0 to 1.0, fraction of the delay to randomize
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries:     2,
	InitialDelay:   1 * time.Second,
	MaxDelay:       10 * time.Second,
	BackoffFactor:  2.0,
	JitterFraction: 0.2,
}

// withRetry runs fn until it succeeds, returns a non-retryable error, the
// context ends or the retries are exhausted.
func withRetry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt >= cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.delay(attempt)):
		}
	}
	return zero, lastErr
}

func (cfg RetryConfig) delay(attempt int) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	if cfg.JitterFraction > 0 {
		d += d * cfg.JitterFraction * (rand.Float64()*2 - 1)
		if d < 0 {
			d = float64(cfg.InitialDelay)
		}
	}
	return time.Duration(d)
}
