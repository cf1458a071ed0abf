package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem captures the snapshot of each item within an order.
type OrderLineItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID   uuid.UUID       `gorm:"column:menu_item_id;type:uuid;not null"`
	Name         string          `gorm:"column:name;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	PriceAtOrder decimal.Decimal `gorm:"column:price_at_order;type:numeric(12,2);not null"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	Position     int             `gorm:"column:position;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
