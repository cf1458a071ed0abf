package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// LedgerEvent records an immutable money lifecycle event tied to an order or payout.
type LedgerEvent struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	PayoutID    *uuid.UUID            `gorm:"column:payout_id;type:uuid"`
	VendorID    uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null"`
	CustomerID  *uuid.UUID            `gorm:"column:customer_id;type:uuid"`
	ActorUserID uuid.UUID             `gorm:"column:actor_user_id;type:uuid;not null"`
	Type        enums.LedgerEventType `gorm:"column:type;type:text;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Metadata    json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
