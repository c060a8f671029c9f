// Package retry provides a single cross-cutting retry/backoff helper used by
// every store operation that can fail connectively.
package retry

import (
    "context"
    "math"
    "time"

    "github.com/dirflash/fuse-pairing/pkg/errors"
    "github.com/dirflash/fuse-pairing/pkg/logger"
)

// Config controls the retry loop. BaseDelay*BackoffFactor^attempt is the
// sleep before each retry, capped implicitly by MaxAttempts.
type Config struct {
    MaxAttempts   int
    BaseDelay     time.Duration
    BackoffFactor float64
}

// Default sleeps 2^attempt seconds, up to 5 attempts.
func Default() Config {
    return Config{
        MaxAttempts:   5,
        BaseDelay:     1 * time.Second,
        BackoffFactor: 2,
    }
}

// Do runs fn, retrying on a retryable *errors.AppError up to cfg.MaxAttempts
// times with exponential backoff. A non-retryable error returns immediately.
// Exhausting the attempt budget escalates a TransientStore failure to
// StoreUnavailable.
func Do(ctx context.Context, cfg Config, op string, fn func() error) error {
    var lastErr error

    for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
        lastErr = fn()
        if lastErr == nil {
            return nil
        }

        appErr, ok := lastErr.(*errors.AppError)
        if !ok || !appErr.IsRetryable() {
            return lastErr
        }

        if attempt == cfg.MaxAttempts-1 {
            break
        }

        delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(cfg.BackoffFactor, float64(attempt)))
        logger.WithField("op", op).WithField("attempt", attempt+1).WithField("delay", delay.String()).
            Warn("store operation failed, retrying")

        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(delay):
        }
    }

    exhausted := errors.Wrap(lastErr, errors.ErrStoreUnavailable, op+" exhausted retry budget")
    // Wrap keeps the code of an existing *AppError, so set it explicitly.
    exhausted.Code = errors.ErrStoreUnavailable
    return exhausted.WithStatusCode(500)
}
