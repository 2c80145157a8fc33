package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/logger"
)

func TestReconcilerCompletesStuckPaidPurchases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.course(t, "edu_1", "10", 0)
	env.user(t, "u1", "Ann")
	id := beginPaid(t, env, "u1", c)

	// payment recorded, enrollment write never happened
	moved, err := env.purchases.Transition(ctx, id, domain.PurchasePending, domain.PurchasePaid)
	require.NoError(t, err)
	require.True(t, moved)

	r := NewReconciler(env.enrollment, env.purchases, logger.NewStdLogger(nil), ReconcilerConfig{PaidGrace: time.Minute})
	r.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	completed, expired, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Zero(t, expired)

	enrolled, err := env.enrollments.IsEnrolled(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
	assert.Len(t, env.mailer.Sent(), 1)

	// nothing left on the next pass
	completed, _, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, completed)
}

func TestReconcilerLeavesFreshPaidPurchases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.course(t, "edu_1", "10", 0)
	env.user(t, "u1", "Ann")
	id := beginPaid(t, env, "u1", c)
	_, err := env.purchases.Transition(ctx, id, domain.PurchasePending, domain.PurchasePaid)
	require.NoError(t, err)

	r := NewReconciler(env.enrollment, env.purchases, logger.NewStdLogger(nil), ReconcilerConfig{PaidGrace: time.Hour})
	completed, _, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, completed)
}

func TestReconcilerExpiresAbandonedCheckouts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.course(t, "edu_1", "10", 0)
	env.user(t, "u1", "Ann")
	id := beginPaid(t, env, "u1", c)

	r := NewReconciler(env.enrollment, env.purchases, logger.NewStdLogger(nil), ReconcilerConfig{})
	r.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, expired, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	p, err := env.purchases.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseFailed, p.Status)
}

func TestReconcilerStartRejectsBadSchedule(t *testing.T) {
	env := newTestEnv(t)
	r := NewReconciler(env.enrollment, env.purchases, logger.NewStdLogger(nil), ReconcilerConfig{Schedule: "not a schedule"})
	assert.Error(t, r.Start())

	ok := NewReconciler(env.enrollment, env.purchases, logger.NewStdLogger(nil), ReconcilerConfig{Schedule: "@every 1h"})
	require.NoError(t, ok.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok.Stop(ctx)
}
