package menu

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
)

// Repository manages persistence for menu items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.MenuItem) error
	GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MenuItem, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, availableOnly bool) ([]models.MenuItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a menu repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.MenuItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// GetMenuItems returns the requested items keyed by id. Unknown ids are
// simply absent from the result.
func (r *repository) GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MenuItem, error) {
	out := make(map[uuid.UUID]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, availableOnly bool) ([]models.MenuItem, error) {
	query := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}
	var items []models.MenuItem
	if err := query.Order("name ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
