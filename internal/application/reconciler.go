package application

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
	"github.com/waste3d/edemy-api/internal/logger"
)

type ReconcilerConfig struct {
	Schedule string
	// PaidGrace is how long a paid purchase may wait for its enrollment
	// before the reconciler completes it.
	PaidGrace time.Duration
	// PendingTTL expires checkouts that were never confirmed.
	PendingTTL time.Duration
	BatchSize  int
}

func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Schedule:   "@every 1m",
		PaidGrace:  time.Minute,
		PendingTTL: 24 * time.Hour,
		BatchSize:  100,
	}
}

// Reconciler closes the gap between a recorded payment and its enrollment,
// and expires abandoned checkouts.
type Reconciler struct {
	enrollments *EnrollmentUseCase
	purchases   *repository.PurchaseRepository
	log         logger.Logger
	cfg         ReconcilerConfig
	cron        *cron.Cron
	now         func() time.Time
}

func NewReconciler(eu *EnrollmentUseCase, pr *repository.PurchaseRepository, log logger.Logger, cfg ReconcilerConfig) *Reconciler {
	def := DefaultReconcilerConfig()
	if cfg.Schedule == "" {
		cfg.Schedule = def.Schedule
	}
	if cfg.PaidGrace <= 0 {
		cfg.PaidGrace = def.PaidGrace
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = def.PendingTTL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	return &Reconciler{
		enrollments: eu,
		purchases:   pr,
		log:         log,
		cfg:         cfg,
		cron:        cron.New(),
		now:         time.Now,
	}
}

func (r *Reconciler) Start() error {
	_, err := r.cron.AddFunc(r.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()
		if _, _, err := r.RunOnce(ctx); err != nil {
			r.log.Error("reconcile purchases", err)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info("purchase reconciler started, schedule " + r.cfg.Schedule)
	return nil
}

// Stop waits for a running pass to finish or ctx to end.
func (r *Reconciler) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce completes stuck paid purchases and expires stale pending ones.
func (r *Reconciler) RunOnce(ctx context.Context) (completed, expired int, err error) {
	now := r.now()

	paid, err := r.purchases.ListStale(ctx, domain.PurchasePaid, now.Add(-r.cfg.PaidGrace), r.cfg.BatchSize)
	if err != nil {
		return 0, 0, err
	}
	if len(paid) > 0 {
		r.log.Warn(fmt.Sprintf("%d paid purchases without enrollment", len(paid)))
	}
	for i := range paid {
		done, err := r.enrollments.complete(ctx, &paid[i])
		if err != nil {
			r.log.Error(fmt.Sprintf("complete purchase %s", paid[i].ID), err)
			continue
		}
		if done {
			completed++
		}
	}

	pending, err := r.purchases.ListStale(ctx, domain.PurchasePending, now.Add(-r.cfg.PendingTTL), r.cfg.BatchSize)
	if err != nil {
		return completed, 0, err
	}
	for _, p := range pending {
		moved, err := r.purchases.Transition(ctx, p.ID, domain.PurchasePending, domain.PurchaseFailed)
		if err != nil {
			r.log.Error(fmt.Sprintf("expire purchase %s", p.ID), err)
			continue
		}
		if moved {
			expired++
		}
	}
	return completed, expired, nil
}
