package retry

import (
	"context"
	"fmt"
	"time"

	"igfunnel/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Policy is a reusable retry policy: attempt budget, backoff strategy and
// a predicate deciding which errors are worth retrying. The same policy is
// used by every HTTP-calling component.
type Policy struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use between attempts
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called after each failed retryable attempt, before sleeping
	OnRetry func(attempt int, err error, delay time.Duration)
	// Logger for retry attempts
	Logger logger.Logger
	// Sleep waits out a delay; overridable in tests. Defaults to Wait.
	Sleep func(ctx context.Context, delay time.Duration) error
}

// Do executes an operation under the policy. Each failed retryable attempt
// sleeps its backoff delay, including the final one, mirroring the pacing
// the upstream rate limiter expects.
func (p *Policy) Do(ctx context.Context, op Operation) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Wait
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 && p.Logger != nil {
				p.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		if p.RetryIf != nil && !p.RetryIf(err) {
			return err
		}

		delay := p.Backoff.NextDelay(attempt)

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		if p.Logger != nil {
			p.Logger.WarnWithFields("backing off before retry", map[string]interface{}{
				"attempt":      attempt,
				"max_attempts": p.MaxAttempts,
				"delay":        delay,
				"error":        err.Error(),
			})
		}

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			if p.Logger != nil {
				p.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", p.MaxAttempts, lastErr)
		}
	}
}

// DoWithResult executes an operation that returns a result under the policy.
func DoWithResult[T any](ctx context.Context, p *Policy, op OperationWithResult[T]) (T, error) {
	var result T

	err := p.Do(ctx, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})

	return result, err
}
