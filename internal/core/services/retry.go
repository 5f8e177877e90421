package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// retryTransient runs op, retrying per the policy while transient
// reports the error as retryable. Fatal errors and context cancellation
// stop immediately.
func retryTransient(ctx context.Context, policy domain.RetryPolicy, logger *slog.Logger, name string, transient func(error) bool, op func() error) error {
	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !transient(err) || attempt == policy.MaxAttempts {
			return err
		}

		backoff := policy.Backoff(attempt)
		logger.Warn("retrying after transient failure",
			"op", name,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
