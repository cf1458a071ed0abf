package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/api/middleware"
	"github.com/angelmondragon/platehub-backend/api/responses"
	"github.com/angelmondragon/platehub-backend/api/validators"
	"github.com/angelmondragon/platehub-backend/internal/authz"
	internalorders "github.com/angelmondragon/platehub-backend/internal/orders"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
	"github.com/angelmondragon/platehub-backend/pkg/pagination"
)

const maxEnumLength = 32

type createOrderRequest struct {
	VendorID      uuid.UUID                  `json:"vendor_id" validate:"required"`
	Items         []internalorders.ItemInput `json:"items"`
	PaymentMethod string                     `json:"payment_method,omitempty" validate:"omitempty,oneof=cash_on_delivery mock_online online"`
	Notes         *string                    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type reviseItemsRequest struct {
	Items []internalorders.ItemInput `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type rateOrderRequest struct {
	Rating float64 `json:"rating"`
	Review *string `json:"review,omitempty" validate:"omitempty,max=2000"`
}

// Create places a new order for the calling customer.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			VendorID: req.VendorID,
			Items:    req.Items,
			Notes:    req.Notes,
		}
		if req.PaymentMethod != "" {
			method, err := enums.ParsePaymentMethod(req.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method"))
				return
			}
			input.PaymentMethod = method
		}

		order, err := svc.CreateOrder(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// List returns the caller's order page: customers see their own orders,
// vendors their vendor's orders, admins any vendor via vendor_id.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseQueryUUID(r, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), actor, internalorders.ListOrdersInput{
			VendorID: vendorID,
			Filters:  filters,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one order visible to the caller.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ReviseItems replaces the items of a pending order.
func ReviseItems(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req reviseItemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ReviseItems(r.Context(), actor, internalorders.ReviseItemsInput{
			OrderID: orderID,
			Items:   req.Items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Delete removes an order that has not been paid.
func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteOrder(r.Context(), actor, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Cancel cancels a pending order on behalf of the customer.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateStatus moves the fulfillment axis.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(validators.SanitizeEnum(req.Status, maxEnumLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), actor, orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// PaymentAction applies start, succeed, fail, mark-paid or refund. The
// Idempotency-Key header is required and scoped to the caller.
func PaymentAction(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := parsePaymentAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ApplyPaymentAction(r.Context(), actor, action, internalorders.PaymentInput{
			OrderID:        orderID,
			IdempotencyKey: middleware.IdempotencyKeyFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Rate records the customer's rating of a delivered order.
func Rate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req rateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RateOrder(r.Context(), actor, internalorders.RateOrderInput{
			OrderID: orderID,
			Rating:  req.Rating,
			Review:  req.Review,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func actorAndOrder(r *http.Request) (authz.Actor, uuid.UUID, error) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		return actor, uuid.Nil, err
	}
	orderID, err := validators.ParseURLUUID(r, "orderId")
	if err != nil {
		return actor, uuid.Nil, err
	}
	return actor, orderID, nil
}

func parsePaymentAction(r *http.Request) (enums.PaymentAction, error) {
	raw := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "action")))
	action, err := enums.ParsePaymentAction(strings.ReplaceAll(raw, "-", "_"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment action").
			WithDetails(map[string]any{"action": raw})
	}
	return action, nil
}

func buildFilters(r *http.Request) (internalorders.OrderFilters, error) {
	var filters internalorders.OrderFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_status filter")
		}
		filters.PaymentStatus = &status
	}
	return filters, nil
}
