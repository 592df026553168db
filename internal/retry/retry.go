package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Do invokes op up to attempts times, sleeping baseDelay*2^(n-1) between
// failures. On exhaustion the last error is returned. This is the only place
// in the pipeline that sleeps for failure recovery; callers decide whether an
// exhausted retry degrades to a safe default or aborts.
func Do[T any](ctx context.Context, name string, attempts int, baseDelay time.Duration, op func() (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		backoff := baseDelay * (1 << uint(attempt-1))
		log.Warn().Err(err).Str("op", name).Int("attempt", attempt).Int("max", attempts).
			Dur("backoff", backoff).Msg("retrying")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return zero, fmt.Errorf("%s: all %d attempts failed: %w", name, attempts, lastErr)
}
