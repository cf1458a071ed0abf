package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LoadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	items := order.Items
	order.Items = nil
	defer func() { order.Items = items }()

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) SaveOrder(ctx context.Context, order *models.Order, expectedVersion int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]any{
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
			"refund_status":  order.RefundStatus,
			"total_amount":   order.TotalAmount,
			"notes":          order.Notes,
			"rating":         order.Rating,
			"review":         order.Review,
			"rated_at":       order.RatedAt,
			"is_rated":       order.IsRated,
			"paid_at":        order.PaidAt,
			"delivered_at":   order.DeliveredAt,
			"cancelled_at":   order.CancelledAt,
			"updated_at":     order.UpdatedAt,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	return nil
}

func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderLineItem) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) DeleteOrder(ctx context.Context, orderID uuid.UUID, expectedVersion int64) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderLineItem{}).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", orderID, expectedVersion).
		Delete(&models.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *repository) FindOrdersByVendor(ctx context.Context, vendorID uuid.UUID, filters OrderFilters, params pagination.Params) (*OrderPage, error) {
	return r.listOrders(ctx, "vendor_id = ?", vendorID, filters, params)
}

func (r *repository) FindOrdersByCustomer(ctx context.Context, customerID uuid.UUID, filters OrderFilters, params pagination.Params) (*OrderPage, error) {
	return r.listOrders(ctx, "customer_id = ?", customerID, filters, params)
}

func (r *repository) listOrders(ctx context.Context, ownerClause string, ownerID uuid.UUID, filters OrderFilters, params pagination.Params) (*OrderPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(ownerClause, ownerID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}

	var rows []models.Order
	if err := query.
		Scopes(pagination.NewestFirst(cursor)).
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	orders, next := pagination.Trim(rows, params.Limit, func(order models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: order.CreatedAt, ID: order.ID}
	})
	page := &OrderPage{Orders: orders}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}
