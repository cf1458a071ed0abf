package models

import (
	"encoding/json"
	"time"
)

// IdempotencyKey persists the first outcome recorded for a client-supplied key.
type IdempotencyKey struct {
	Key         string          `gorm:"column:key;primaryKey"`
	Fingerprint string          `gorm:"column:fingerprint;not null"`
	State       string          `gorm:"column:state;not null"`
	Response    json.RawMessage `gorm:"column:response;type:jsonb"`
	ExpiresAt   time.Time       `gorm:"column:expires_at;not null;index"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
