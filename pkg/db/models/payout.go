package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// Payout snapshots a vendor payout summary at the moment an admin opens it.
type Payout struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID         uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderCount       int                `gorm:"column:order_count;not null"`
	GrossAmount      decimal.Decimal    `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	CommissionRate   decimal.Decimal    `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	CommissionAmount decimal.Decimal    `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	PayoutAmount     decimal.Decimal    `gorm:"column:payout_amount;type:numeric(12,2);not null"`
	Status           enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaidOn           *time.Time         `gorm:"column:paid_on"`
	UTRNumber        *string            `gorm:"column:utr_number"`
	CreatedBy        uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// PayoutLog is an append-only audit entry recorded against a payout.
type PayoutLog struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PayoutID    uuid.UUID          `gorm:"column:payout_id;type:uuid;not null;index"`
	Action      enums.PayoutAction `gorm:"column:action;type:text;not null"`
	AdminUserID uuid.UUID          `gorm:"column:admin_user_id;type:uuid;not null"`
	Note        *string            `gorm:"column:note"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
