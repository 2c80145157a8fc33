package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/waste3d/edemy-api/internal/domain"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = domain.PurchasePending
	}
	return storeErr(r.db.WithContext(ctx).Create(p).Error, "create purchase")
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	var p domain.Purchase
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, storeErr(err, "get purchase")
	}
	return &p, nil
}

func (r *PurchaseRepository) SetSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	err := r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("id = ?", id).
		Update("session_id", sessionID).Error
	return storeErr(err, "set purchase session")
}

// Transition moves the purchase from one status to another and reports
// whether this call performed the move. A concurrent or repeated call sees false.
func (r *PurchaseRepository) Transition(ctx context.Context, id uuid.UUID, from, to domain.PurchaseStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, storeErr(res.Error, "transition purchase")
	}
	return res.RowsAffected > 0, nil
}

// Complete writes the enrollment of a paid purchase and marks the purchase
// completed in one transaction. It reports whether this call completed it.
func (r *PurchaseRepository) Complete(ctx context.Context, p *domain.Purchase) (bool, error) {
	var completed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchaseID := p.ID
		if _, err := insertEnrollment(tx, &domain.Enrollment{
			UserID:     p.UserID,
			CourseID:   p.CourseID,
			PurchaseID: &purchaseID,
		}); err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&domain.Purchase{}).
			Where("id = ? AND status = ?", p.ID, domain.PurchasePaid).
			Updates(map[string]interface{}{
				"status":       domain.PurchaseCompleted,
				"completed_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		completed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, storeErr(err, "complete purchase")
	}
	return completed, nil
}

// ListStale returns purchases in status that were last touched before cutoff.
func (r *PurchaseRepository) ListStale(ctx context.Context, status domain.PurchaseStatus, cutoff time.Time, limit int) ([]domain.Purchase, error) {
	var purchases []domain.Purchase
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status, cutoff).
		Order("updated_at asc").
		Limit(limit).
		Find(&purchases).Error
	return purchases, storeErr(err, "list stale purchases")
}

// Earnings sums the amounts of completed purchases of the given courses.
func (r *PurchaseRepository) Earnings(ctx context.Context, courseIDs []uuid.UUID) (decimal.Decimal, error) {
	if len(courseIDs) == 0 {
		return decimal.Zero, nil
	}
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("course_id IN ? AND status = ?", courseIDs, domain.PurchaseCompleted).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, storeErr(err, "sum earnings")
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}
