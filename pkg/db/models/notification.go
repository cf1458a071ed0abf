package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// Notification stores in-app notification payloads for a customer or vendor inbox.
type Notification struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientType enums.RecipientType     `gorm:"column:recipient_type;type:text;not null"`
	RecipientID   uuid.UUID               `gorm:"column:recipient_id;type:uuid;not null;index"`
	Event         enums.NotificationEvent `gorm:"column:event;type:text;not null"`
	OrderID       *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	Payload       json.RawMessage         `gorm:"column:payload;type:jsonb"`
	ReadAt        *time.Time              `gorm:"column:read_at"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
