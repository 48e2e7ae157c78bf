package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestExecuteWithRetry(t *testing.T) {
	ctx := context.Background()
	scope := NewNoOpScope(Set{})

	t.Run("retries conflicts until success", func(t *testing.T) {
		calls, retries := 0, 0
		err := ExecuteWithRetry(ctx, scope, 3, func(int, error) { retries++ }, func(Repositories) error {
			calls++
			if calls < 3 {
				return shared.NewConflictError("stale")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, retries)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(ctx, scope, 2, nil, func(Repositories) error {
			calls++
			return shared.NewConflictError("stale")
		})
		assert.True(t, errors.Is(err, shared.ErrConflict))
		assert.Equal(t, 2, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(ctx, scope, 5, nil, func(Repositories) error {
			calls++
			return shared.NewInternalError("db", errors.New("down"))
		})
		assert.Equal(t, shared.CodeInternal, shared.CodeOf(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		calls := 0
		assert.NoError(t, ExecuteWithRetry(ctx, scope, 0, nil, func(Repositories) error {
			calls++
			return nil
		}))
		assert.Equal(t, 1, calls)
	})
}
