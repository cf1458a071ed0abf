package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/platehub-backend/pkg/db"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
)

type dbStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBStore keeps records in the idempotency_keys table. It is used when
// Redis is not configured.
func NewDBStore(conn *gorm.DB) (Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("database required")
	}
	return &dbStore{db: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *dbStore) Claim(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, error) {
	now := s.now()
	claimed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Expired rows are dropped so the key can be claimed again.
		if err := tx.Where("key = ? AND expires_at <= ?", key, now).
			Delete(&models.IdempotencyKey{}).Error; err != nil {
			return err
		}
		row := models.IdempotencyKey{
			Key:         key,
			Fingerprint: fingerprint,
			State:       string(StatePending),
			ExpiresAt:   now.Add(ttl),
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			if db.IsUniqueViolation(result.Error, "") {
				return nil
			}
			return result.Error
		}
		claimed = result.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (s *dbStore) Complete(ctx context.Context, key string, record Record, ttl time.Duration) error {
	record.State = StateCompleted
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&models.IdempotencyKey{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"state":      string(StateCompleted),
			"response":   payload,
			"expires_at": s.now().Add(ttl),
			"updated_at": s.now(),
		}).Error
}

func (s *dbStore) Release(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("key = ? AND state = ?", key, string(StatePending)).
		Delete(&models.IdempotencyKey{}).Error
}

func (s *dbStore) Get(ctx context.Context, key string) (*Record, error) {
	var row models.IdempotencyKey
	err := s.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, s.now()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record := Record{Fingerprint: row.Fingerprint, State: State(row.State)}
	if len(row.Response) > 0 {
		if err := json.Unmarshal(row.Response, &record); err != nil {
			return nil, fmt.Errorf("decode idempotency record: %w", err)
		}
		record.State = State(row.State)
	}
	return &record, nil
}
