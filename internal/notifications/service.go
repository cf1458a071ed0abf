package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/internal/authz"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/pagination"
)

// Service defines notification inbox operations for the calling actor.
type Service interface {
	List(ctx context.Context, actor authz.Actor, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, actor authz.Actor, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, actor authz.Actor) (int64, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

// RecipientFor maps an actor to the inbox it reads. Customers read their own
// inbox, vendor users read their vendor's inbox, admins have none.
func RecipientFor(actor authz.Actor) (Recipient, error) {
	switch actor.Role {
	case enums.ActorRoleCustomer:
		if actor.ID == uuid.Nil {
			return Recipient{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor id required")
		}
		return Recipient{Type: enums.RecipientTypeCustomer, ID: actor.ID}, nil
	case enums.ActorRoleVendor:
		if actor.VendorID == nil || *actor.VendorID == uuid.Nil {
			return Recipient{}, pkgerrors.New(pkgerrors.CodeForbidden, "vendor membership required")
		}
		return Recipient{Type: enums.RecipientTypeVendor, ID: *actor.VendorID}, nil
	default:
		return Recipient{}, pkgerrors.New(pkgerrors.CodeForbidden, "no notification inbox for role")
	}
}

func (s *service) List(ctx context.Context, actor authz.Actor, params ListParams) (*ListResult, error) {
	recipient, err := RecipientFor(actor)
	if err != nil {
		return nil, err
	}

	query := listNotificationsParams{
		Recipient:  recipient,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "list notifications")
	}

	encoded := ""
	if next != nil {
		encoded = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: encoded,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, actor authz.Actor, notificationID uuid.UUID) error {
	recipient, err := RecipientFor(actor)
	if err != nil {
		return err
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipient, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransient, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, actor authz.Actor) (int64, error) {
	recipient, err := RecipientFor(actor)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.MarkAllRead(ctx, recipient, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "mark notifications read")
	}
	return count, nil
}
