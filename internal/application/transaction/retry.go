package transaction

import (
	"context"
	"errors"

	"github.com/kolnet/backend/internal/domain/shared"
)

// ExecuteWithRetry runs fn in a fresh transaction up to attempts times,
// retrying only when the previous attempt lost an optimistic-lock or
// unique-key race (shared.ErrConflict). Every other error is returned as is.
// onRetry, when set, is called before each new attempt.
func ExecuteWithRetry(
	ctx context.Context,
	scope Scope,
	attempts int,
	onRetry func(attempt int, err error),
	fn func(repos Repositories) error,
) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && onRetry != nil {
			onRetry(attempt, err)
		}
		err = scope.Execute(ctx, fn)
		if err == nil || !errors.Is(err, shared.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}
	}
	return err
}
