package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	"github.com/angelmondragon/platehub-backend/pkg/pagination"
)

// ErrVersionConflict is returned by SaveOrder when the stored version moved.
var ErrVersionConflict = errors.New("order version conflict")

// Repository defines persistence operations for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LoadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	// SaveOrder writes the mutable order columns when the stored version
	// still equals expectedVersion and bumps the version on success.
	SaveOrder(ctx context.Context, order *models.Order, expectedVersion int64) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderLineItem) error
	// DeleteOrder removes the order and its lines when the stored version
	// still equals expectedVersion.
	DeleteOrder(ctx context.Context, orderID uuid.UUID, expectedVersion int64) error
	FindOrdersByVendor(ctx context.Context, vendorID uuid.UUID, filters OrderFilters, params pagination.Params) (*OrderPage, error)
	FindOrdersByCustomer(ctx context.Context, customerID uuid.UUID, filters OrderFilters, params pagination.Params) (*OrderPage, error)
}

// VendorDirectory resolves vendors. Deleted vendors are returned with
// DeletedAt set; unknown ids return gorm.ErrRecordNotFound.
type VendorDirectory interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

// MenuDirectory resolves menu items by id. Missing ids are absent from the map.
type MenuDirectory interface {
	GetMenuItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MenuItem, error)
}

// Notifier delivers best-effort order events.
type Notifier interface {
	NotifyCustomer(ctx context.Context, customerID uuid.UUID, event enums.NotificationEvent, payload any) error
	NotifyVendor(ctx context.Context, vendorID uuid.UUID, event enums.NotificationEvent, payload any) error
}

// LedgerRecorder appends money movements inside the caller's transaction.
type LedgerRecorder interface {
	RecordEvent(ctx context.Context, tx *gorm.DB, input ledger.RecordLedgerEventInput) (*models.LedgerEvent, error)
}

// IdempotencyGuard runs fn at most once per key.
type IdempotencyGuard interface {
	Do(ctx context.Context, key, fingerprint string, dst any, fn func(ctx context.Context) (any, error)) (bool, error)
}

// Metrics records operation outcomes.
type Metrics interface {
	Observe(operation string, started time.Time, err error)
	IncConflict(operation string)
	IncReplay(operation string)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
