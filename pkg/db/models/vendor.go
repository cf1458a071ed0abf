package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Vendor is a restaurant that accepts orders. A nil CommissionRate means the
// platform default applies.
type Vendor struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID    uuid.UUID        `gorm:"column:owner_user_id;type:uuid;not null"`
	Name           string           `gorm:"column:name;not null"`
	IsOpen         bool             `gorm:"column:is_open;not null"`
	CommissionRate *decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,4)"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}
