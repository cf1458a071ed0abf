package vendors

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
)

// Repository manages persistence for vendors.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vendor *models.Vendor) error
	GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	ListVendors(ctx context.Context, includeDeleted bool) ([]models.Vendor, error)
	UpdateCommissionRate(ctx context.Context, id uuid.UUID, rate *decimal.Decimal) error
	UpdateOpen(ctx context.Context, id uuid.UUID, open bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vendor repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vendor *models.Vendor) error {
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(vendor).Error
}

// GetVendor includes soft-deleted rows so callers can tell deleted from
// unknown vendors.
func (r *repository) GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) ListVendors(ctx context.Context, includeDeleted bool) ([]models.Vendor, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var vendors []models.Vendor
	if err := query.
		Order("name ASC").
		Order("id ASC").
		Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *repository) UpdateCommissionRate(ctx context.Context, id uuid.UUID, rate *decimal.Decimal) error {
	return r.update(ctx, id, map[string]any{"commission_rate": rate})
}

func (r *repository) UpdateOpen(ctx context.Context, id uuid.UUID, open bool) error {
	return r.update(ctx, id, map[string]any{"is_open": open})
}

func (r *repository) update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
