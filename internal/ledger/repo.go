package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// Repository manages persistence for ledger events. Events are append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.LedgerEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error)
	ListByPayoutID(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEvent, error)
	CountByOrderAndType(ctx context.Context, orderID uuid.UUID, eventType enums.LedgerEventType) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.LedgerEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error) {
	return r.list(ctx, "order_id = ?", orderID)
}

func (r *repository) ListByPayoutID(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEvent, error) {
	return r.list(ctx, "payout_id = ?", payoutID)
}

func (r *repository) CountByOrderAndType(ctx context.Context, orderID uuid.UUID, eventType enums.LedgerEventType) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEvent{}).
		Where("order_id = ? AND type = ?", orderID, eventType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) list(ctx context.Context, clause string, id uuid.UUID) ([]models.LedgerEvent, error) {
	var events []models.LedgerEvent
	if err := r.db.WithContext(ctx).
		Where(clause, id).
		Order("created_at ASC").
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
