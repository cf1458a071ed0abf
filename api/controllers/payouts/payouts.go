package payouts

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/api/middleware"
	"github.com/angelmondragon/platehub-backend/api/responses"
	"github.com/angelmondragon/platehub-backend/api/validators"
	"github.com/angelmondragon/platehub-backend/internal/authz"
	internalpayouts "github.com/angelmondragon/platehub-backend/internal/payouts"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

// maxEnumLength bounds free-form enum input before parsing.
const maxEnumLength = 32

// Service is the payout surface used by the HTTP layer.
type Service interface {
	VendorPayoutSummary(ctx context.Context, actor authz.Actor, vendorID uuid.UUID) (*internalpayouts.Summary, error)
	AllVendorPayoutSummaries(ctx context.Context, actor authz.Actor) ([]internalpayouts.Summary, error)
	CreatePayout(ctx context.Context, actor authz.Actor, vendorID uuid.UUID) (*internalpayouts.PayoutDTO, error)
	RecordPayoutAction(ctx context.Context, actor authz.Actor, payoutID uuid.UUID, action enums.PayoutAction, note *string) (*internalpayouts.PayoutLogDTO, error)
	UpdatePayoutStatus(ctx context.Context, actor authz.Actor, payoutID uuid.UUID, input internalpayouts.UpdatePayoutInput) (*internalpayouts.PayoutDTO, error)
	ListPayouts(ctx context.Context, actor authz.Actor, vendorID *uuid.UUID) ([]internalpayouts.PayoutDTO, error)
	ListPayoutLogs(ctx context.Context, actor authz.Actor, payoutID uuid.UUID) ([]internalpayouts.PayoutLogDTO, error)
}

type createPayoutRequest struct {
	VendorID uuid.UUID `json:"vendor_id" validate:"required"`
}

type payoutLogRequest struct {
	Action string  `json:"action" validate:"required"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// VendorSummary returns the calling vendor's own payout summary.
func VendorSummary(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, vendorID, err := vendorActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.VendorPayoutSummary(r.Context(), actor, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// VendorPayouts lists the calling vendor's settlement records.
func VendorPayouts(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, vendorID, err := vendorActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payouts, err := svc.ListPayouts(r.Context(), actor, &vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts)
	}
}

// AdminSummaries returns a summary row for every active vendor.
func AdminSummaries(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summaries, err := svc.AllVendorPayoutSummaries(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summaries)
	}
}

// AdminVendorSummary returns one vendor's summary.
func AdminVendorSummary(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, vendorID, err := actorAndParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.VendorPayoutSummary(r.Context(), actor, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// AdminCreate snapshots a vendor's current totals into a pending payout.
func AdminCreate(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createPayoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.CreatePayout(r.Context(), actor, req.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payout)
	}
}

// AdminList lists payouts, optionally filtered by vendor_id.
func AdminList(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseQueryUUID(r, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payouts, err := svc.ListPayouts(r.Context(), actor, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts)
	}
}

// AdminUpdateStatus schedules or settles a payout.
func AdminUpdateStatus(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, payoutID, err := actorAndParam(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req internalpayouts.UpdatePayoutInput
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !req.Status.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status").
				WithDetails(map[string]any{"status": string(req.Status)}))
			return
		}

		payout, err := svc.UpdatePayoutStatus(r.Context(), actor, payoutID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// AdminRecordAction appends an audit entry to a payout.
func AdminRecordAction(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, payoutID, err := actorAndParam(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req payoutLogRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParsePayoutAction(validators.SanitizeEnum(req.Action, maxEnumLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout action"))
			return
		}

		entry, err := svc.RecordPayoutAction(r.Context(), actor, payoutID, action, req.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// AdminListLogs returns a payout's audit trail oldest first.
func AdminListLogs(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, payoutID, err := actorAndParam(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		logs, err := svc.ListPayoutLogs(r.Context(), actor, payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, logs)
	}
}

func vendorActor(r *http.Request) (authz.Actor, uuid.UUID, error) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		return actor, uuid.Nil, err
	}
	if actor.VendorID == nil || *actor.VendorID == uuid.Nil {
		return actor, uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor membership required")
	}
	return actor, *actor.VendorID, nil
}

func actorAndParam(r *http.Request, key string) (authz.Actor, uuid.UUID, error) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		return actor, uuid.Nil, err
	}
	id, err := validators.ParseURLUUID(r, key)
	if err != nil {
		return actor, uuid.Nil, err
	}
	return actor, id, nil
}
