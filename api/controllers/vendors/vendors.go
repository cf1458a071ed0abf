package vendors

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/platehub-backend/api/middleware"
	"github.com/angelmondragon/platehub-backend/api/responses"
	"github.com/angelmondragon/platehub-backend/api/validators"
	"github.com/angelmondragon/platehub-backend/internal/menu"
	internalvendors "github.com/angelmondragon/platehub-backend/internal/vendors"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

// MenuLister reads a vendor's menu.
type MenuLister interface {
	ListByVendor(ctx context.Context, vendorID uuid.UUID, availableOnly bool) ([]models.MenuItem, error)
}

type setOpenRequest struct {
	IsOpen *bool `json:"is_open" validate:"required"`
}

type commissionRateRequest struct {
	CommissionRate *decimal.Decimal `json:"commission_rate"`
}

// Detail returns a single active vendor.
func Detail(svc internalvendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := validators.ParseURLUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.GetVendor(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

// Menu lists a vendor's items. available=true hides unavailable items.
func Menu(svc internalvendors.Service, items MenuLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := validators.ParseURLUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		availableOnly, err := validators.ParseQueryBool(r, "available")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.GetVendor(r.Context(), vendorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := items.ListByVendor(r.Context(), vendorID, availableOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "list menu items"))
			return
		}
		responses.WriteSuccess(w, menu.ToDTOs(rows))
	}
}

// SetOpen toggles whether the calling vendor accepts new orders.
func SetOpen(svc internalvendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.VendorID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor membership required"))
			return
		}

		var req setOpenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.SetOpen(r.Context(), actor, *actor.VendorID, *req.IsOpen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

// AdminList returns all active vendors with their effective rates.
func AdminList(svc internalvendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendors, err := svc.ListVendors(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendors)
	}
}

// AdminSetCommissionRate sets or clears a vendor's commission override.
// Values above 1 are read as percentages.
func AdminSetCommissionRate(svc internalvendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseURLUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req commissionRateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.SetCommissionRate(r.Context(), actor, vendorID, req.CommissionRate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}
