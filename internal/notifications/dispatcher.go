package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

// Publisher pushes a realtime copy of a notification to subscribers.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

// Dispatcher stores order events in the recipient's inbox and fans them out
// to the realtime channel when one is configured.
type Dispatcher struct {
	repo      Repository
	publisher Publisher
	logg      *logger.Logger
}

// NewDispatcher builds a dispatcher. publisher may be nil.
func NewDispatcher(repo Repository, publisher Publisher, logg *logger.Logger) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{repo: repo, publisher: publisher, logg: logg}, nil
}

// Message is the realtime envelope published for each delivered notification.
type Message struct {
	ID            uuid.UUID               `json:"id"`
	RecipientType enums.RecipientType     `json:"recipient_type"`
	RecipientID   uuid.UUID               `json:"recipient_id"`
	Event         enums.NotificationEvent `json:"event"`
	Payload       json.RawMessage         `json:"payload,omitempty"`
}

func (d *Dispatcher) NotifyCustomer(ctx context.Context, customerID uuid.UUID, event enums.NotificationEvent, payload any) error {
	return d.deliver(ctx, Recipient{Type: enums.RecipientTypeCustomer, ID: customerID}, event, payload)
}

func (d *Dispatcher) NotifyVendor(ctx context.Context, vendorID uuid.UUID, event enums.NotificationEvent, payload any) error {
	return d.deliver(ctx, Recipient{Type: enums.RecipientTypeVendor, ID: vendorID}, event, payload)
}

func (d *Dispatcher) deliver(ctx context.Context, recipient Recipient, event enums.NotificationEvent, payload any) error {
	if recipient.ID == uuid.Nil {
		return fmt.Errorf("recipient id required")
	}
	if !event.IsValid() {
		return fmt.Errorf("invalid notification event %q", event)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}

	row := &models.Notification{
		RecipientType: recipient.Type,
		RecipientID:   recipient.ID,
		Event:         event,
		OrderID:       orderIDFrom(raw),
		Payload:       raw,
	}

	var errs error
	if err := d.repo.Create(ctx, row); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("store notification: %w", err))
	}

	if d.publisher != nil {
		if err := d.publish(ctx, row); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("publish notification: %w", err))
		}
	}

	if errs == nil {
		d.logg.Info(d.logg.WithFields(ctx, map[string]any{
			"recipient_type": string(recipient.Type),
			"recipient_id":   recipient.ID.String(),
			"event":          string(event),
		}), "notification.delivered")
	}
	return errs
}

func (d *Dispatcher) publish(ctx context.Context, row *models.Notification) error {
	data, err := json.Marshal(Message{
		ID:            row.ID,
		RecipientType: row.RecipientType,
		RecipientID:   row.RecipientID,
		Event:         row.Event,
		Payload:       row.Payload,
	})
	if err != nil {
		return err
	}
	return d.publisher.Publish(ctx, data, map[string]string{
		"recipient_type": string(row.RecipientType),
		"recipient_id":   row.RecipientID.String(),
		"event":          string(row.Event),
	})
}

func orderIDFrom(raw []byte) *uuid.UUID {
	var envelope struct {
		OrderID *uuid.UUID `json:"order_id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	if envelope.OrderID == nil || *envelope.OrderID == uuid.Nil {
		return nil
	}
	return envelope.OrderID
}
