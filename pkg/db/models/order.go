package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// Order represents one customer order against one vendor. Version increments
// on every persisted transition and guards conditional updates. PayoutID is
// set once the delivered order is settled into a payout.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	VendorID      uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	RefundStatus  enums.RefundStatus  `gorm:"column:refund_status;type:text;not null;default:'none'"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Notes         *string             `gorm:"column:notes"`
	Rating        *float64            `gorm:"column:rating;type:numeric(2,1)"`
	Review        *string             `gorm:"column:review"`
	RatedAt       *time.Time          `gorm:"column:rated_at"`
	IsRated       bool                `gorm:"column:is_rated;not null;default:false"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	DeliveredAt   *time.Time          `gorm:"column:delivered_at"`
	CancelledAt   *time.Time          `gorm:"column:cancelled_at"`
	PayoutID      *uuid.UUID          `gorm:"column:payout_id;type:uuid"`
	Version       int64               `gorm:"column:version;not null;default:1"`
	Items         []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
