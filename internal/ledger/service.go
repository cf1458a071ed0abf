package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// Service defines operations that record ledger events.
type Service interface {
	RecordEvent(ctx context.Context, tx *gorm.DB, input RecordLedgerEventInput) (*models.LedgerEvent, error)
	HasEvent(ctx context.Context, orderID uuid.UUID, eventType enums.LedgerEventType) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error)
	ListByPayout(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEvent, error)
}

type service struct {
	repo Repository
}

// RecordLedgerEventInput captures the immutable data a ledger event requires.
// Order events carry OrderID and CustomerID; payout events carry PayoutID.
type RecordLedgerEventInput struct {
	OrderID     *uuid.UUID            `json:"order_id,omitempty"`
	PayoutID    *uuid.UUID            `json:"payout_id,omitempty"`
	VendorID    uuid.UUID             `json:"vendor_id"`
	CustomerID  *uuid.UUID            `json:"customer_id,omitempty"`
	ActorUserID uuid.UUID             `json:"actor_user_id"`
	Type        enums.LedgerEventType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Metadata    json.RawMessage       `json:"metadata"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// RecordEvent appends an event. A non-nil tx keeps the write inside the
// caller's transaction.
func (s *service) RecordEvent(ctx context.Context, tx *gorm.DB, input RecordLedgerEventInput) (*models.LedgerEvent, error) {
	if input.OrderID == nil && input.PayoutID == nil {
		return nil, fmt.Errorf("order id or payout id is required")
	}
	if input.OrderID != nil && *input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if input.VendorID == uuid.Nil {
		return nil, fmt.Errorf("vendor id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, fmt.Errorf("actor user id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger event type %q", input.Type)
	}
	if input.Amount.IsNegative() {
		return nil, fmt.Errorf("ledger amount must be non-negative")
	}

	event := &models.LedgerEvent{
		ID:          uuid.New(),
		OrderID:     input.OrderID,
		PayoutID:    input.PayoutID,
		VendorID:    input.VendorID,
		CustomerID:  input.CustomerID,
		ActorUserID: input.ActorUserID,
		Type:        input.Type,
		Amount:      RoundMoney(input.Amount),
		Metadata:    input.Metadata,
	}

	if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) HasEvent(ctx context.Context, orderID uuid.UUID, eventType enums.LedgerEventType) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("order id is required")
	}
	if !eventType.IsValid() {
		return false, fmt.Errorf("invalid ledger event type %q", eventType)
	}

	count, err := s.repo.CountByOrderAndType(ctx, orderID, eventType)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

func (s *service) ListByPayout(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEvent, error) {
	if payoutID == uuid.Nil {
		return nil, fmt.Errorf("payout id is required")
	}
	return s.repo.ListByPayoutID(ctx, payoutID)
}
