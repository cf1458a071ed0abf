package payouts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// ErrStatusChanged is returned when a payout moved away from the status the
// caller loaded.
var ErrStatusChanged = errors.New("payout status changed")

// ErrOrdersSettled is returned when an order picked for a payout was
// assigned to another payout first.
var ErrOrdersSettled = errors.New("orders already settled")

// OrderAmount is the slice of an order that payout aggregation reads.
type OrderAmount struct {
	ID          uuid.UUID
	VendorID    uuid.UUID
	TotalAmount decimal.Decimal
}

// Repository defines persistence for payouts, their audit logs and the
// delivered-order amounts they are computed from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListDeliveredAmounts(ctx context.Context, vendorIDs []uuid.UUID) ([]OrderAmount, error)
	ListUnsettledAmounts(ctx context.Context, vendorID uuid.UUID) ([]OrderAmount, error)
	AssignOrders(ctx context.Context, payoutID uuid.UUID, orderIDs []uuid.UUID) error
	CreatePayout(ctx context.Context, payout *models.Payout) error
	GetPayout(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	ListPayouts(ctx context.Context, vendorID *uuid.UUID) ([]models.Payout, error)
	UpdatePayoutStatus(ctx context.Context, payout *models.Payout, expected enums.PayoutStatus) error
	CreateLog(ctx context.Context, entry *models.PayoutLog) error
	ListLogs(ctx context.Context, payoutID uuid.UUID) ([]models.PayoutLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payouts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListDeliveredAmounts reads every delivered order for the given vendors in
// a single statement so one summary never sees an order twice.
func (r *repository) ListDeliveredAmounts(ctx context.Context, vendorIDs []uuid.UUID) ([]OrderAmount, error) {
	if len(vendorIDs) == 0 {
		return nil, nil
	}
	var rows []OrderAmount
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("id", "vendor_id", "total_amount").
		Where("status = ?", enums.OrderStatusDelivered).
		Where("vendor_id IN ?", vendorIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListUnsettledAmounts reads the vendor's delivered orders that no payout
// covers yet.
func (r *repository) ListUnsettledAmounts(ctx context.Context, vendorID uuid.UUID) ([]OrderAmount, error) {
	var rows []OrderAmount
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("id", "vendor_id", "total_amount").
		Where("status = ?", enums.OrderStatusDelivered).
		Where("vendor_id = ?", vendorID).
		Where("payout_id IS NULL").
		Order("delivered_at ASC").
		Order("id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AssignOrders stamps payoutID on orders that are still unsettled. It
// returns ErrOrdersSettled unless every order was claimed.
func (r *repository) AssignOrders(ctx context.Context, payoutID uuid.UUID, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ?", orderIDs).
		Where("status = ? AND payout_id IS NULL", enums.OrderStatusDelivered).
		Update("payout_id", payoutID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(orderIDs)) {
		return ErrOrdersSettled
	}
	return nil
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) GetPayout(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListPayouts(ctx context.Context, vendorID *uuid.UUID) ([]models.Payout, error) {
	query := r.db.WithContext(ctx)
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}
	var payouts []models.Payout
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// UpdatePayoutStatus writes the settlement columns only while the stored
// status still equals expected.
func (r *repository) UpdatePayoutStatus(ctx context.Context, payout *models.Payout, expected enums.PayoutStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", payout.ID, expected).
		Updates(map[string]any{
			"status":     payout.Status,
			"paid_on":    payout.PaidOn,
			"utr_number": payout.UTRNumber,
			"updated_at": payout.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *repository) CreateLog(ctx context.Context, entry *models.PayoutLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListLogs(ctx context.Context, payoutID uuid.UUID) ([]models.PayoutLog, error) {
	var logs []models.PayoutLog
	if err := r.db.WithContext(ctx).
		Where("payout_id = ?", payoutID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
