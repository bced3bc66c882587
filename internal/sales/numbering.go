package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const maxIssueAttempts = 3

// withIssueRetry runs fn in a fresh transaction until it stops failing with a
// number or child conflict, up to maxIssueAttempts times.
func (s *Service) withIssueRetry(ctx context.Context, op string, fn func(context.Context, TxRepository) error) error {
	var err error
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		err = s.repo.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDocNoConflict) && !errors.Is(err, ErrChildExists) {
			return err
		}
		s.metrics.numberConflict(op)
		s.logger.Warn("document number conflict, retrying",
			slog.String("op", op), slog.Int("attempt", attempt))
	}
	return fmt.Errorf("%s after %d attempts: %w", op, maxIssueAttempts, err)
}
