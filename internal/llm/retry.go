package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// retryPolicy bounds remote calls: a fixed attempt count, a total elapsed
// ceiling, and exponential backoff with a delay window. Every error is
// retryable until a budget runs out; then the last error surfaces.
type retryPolicy struct {
	maxAttempts int
	maxElapsed  time.Duration
	minDelay    time.Duration
	maxDelay    time.Duration
}

var (
	defaultChatRetry  = retryPolicy{maxAttempts: 3, maxElapsed: 90 * time.Second, minDelay: 2 * time.Second, maxDelay: 15 * time.Second}
	defaultEmbedRetry = retryPolicy{maxAttempts: 3, maxElapsed: 90 * time.Second, minDelay: 2 * time.Second, maxDelay: 30 * time.Second}
)

// do runs fn under the policy. The op name only feeds log output.
func (p retryPolicy) do(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	delay := p.minDelay

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == p.maxAttempts || time.Since(start)+delay > p.maxElapsed {
			break
		}

		log.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(lastErr).
			Msg("retrying model call")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}

	return fmt.Errorf("%s failed after retries: %w", op, lastErr)
}
