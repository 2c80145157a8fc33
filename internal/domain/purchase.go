package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PurchaseStatus string

// pending -> paid -> completed, or pending -> failed
const (
	PurchasePending   PurchaseStatus = "pending"
	PurchasePaid      PurchaseStatus = "paid"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// Purchase is a payment transaction. Its ID travels to the payment provider as
// metadata and comes back on the confirmation callback.
type Purchase struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"_id"`
	UserID      string            `gorm:"index;not null" json:"userId"`
	CourseID    uuid.UUID         `gorm:"type:uuid;index;not null" json:"courseId"`
	Amount      decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency    string            `gorm:"size:3;not null" json:"currency"`
	Status      PurchaseStatus    `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	SessionID   *string           `gorm:"uniqueIndex" json:"-"`
	Metadata    datatypes.JSONMap `json:"-"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
