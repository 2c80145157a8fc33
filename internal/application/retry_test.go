package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/waste3d/edemy-api/internal/domain"
)

func TestRetryPolicy(t *testing.T) {
	transient := domain.NewTransientStoreError(errors.New("deadlock"))

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := fastRetry().Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		calls := 0
		err := fastRetry().Do(context.Background(), func(context.Context) error {
			calls++
			return transient
		})
		assert.True(t, domain.IsTransient(err))
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		err := fastRetry().Do(context.Background(), func(context.Context) error {
			calls++
			return domain.ErrCourseNotFound
		})
		assert.ErrorIs(t, err, domain.ErrCourseNotFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		policy := RetryPolicy{Attempts: 5, BaseDelay: time.Hour}
		err := policy.Do(ctx, func(context.Context) error {
			calls++
			return transient
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
