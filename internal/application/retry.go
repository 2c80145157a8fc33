package application

import (
	"context"
	"math/rand"
	"time"

	"github.com/waste3d/edemy-api/internal/domain"
)

type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// Do runs op until it succeeds, fails with a non-transient error, or the
// attempts run out. Only *domain.TransientStoreError is retried.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err = op(ctx); err == nil || !domain.IsTransient(err) {
			return err
		}
		if attempt == p.Attempts {
			break
		}
		if serr := p.sleep(ctx, attempt); serr != nil {
			return err
		}
	}
	return err
}

func (p RetryPolicy) sleep(ctx context.Context, attempt int) error {
	d := p.BaseDelay * time.Duration(1<<(attempt-1))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.BaseDelay > 0 {
		d += time.Duration(rand.Int63n(int64(p.BaseDelay)))
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
