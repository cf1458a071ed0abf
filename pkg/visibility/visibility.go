package visibility

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
)

// EnsureVendorOrderable enforces the rules a vendor must satisfy before a
// customer may place an order against it.
func EnsureVendorOrderable(vendor *models.Vendor) error {
	if vendor == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	if vendor.DeletedAt.Valid {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	if !vendor.IsOpen {
		return pkgerrors.New(pkgerrors.CodeVendorClosed, "vendor is not accepting orders").
			WithDetails(map[string]any{"vendor_id": vendor.ID})
	}
	return nil
}

// EnsureMenuItemOrderable checks that a menu item can be added to an order
// placed with vendorID.
func EnsureMenuItemOrderable(item *models.MenuItem, vendorID uuid.UUID) error {
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeMenuItemNotFound, "menu item not found")
	}
	if item.VendorID != vendorID {
		return pkgerrors.New(pkgerrors.CodeMenuItemNotFound, "menu item not found").
			WithDetails(map[string]any{"menu_item_id": item.ID})
	}
	if !item.IsAvailable {
		return pkgerrors.New(pkgerrors.CodeValidation, "menu item is not available").
			WithDetails(map[string]any{"menu_item_id": item.ID})
	}
	return nil
}
