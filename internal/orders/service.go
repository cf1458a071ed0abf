package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/internal/authz"
	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/pkg/db"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
	"github.com/angelmondragon/platehub-backend/pkg/pagination"
	"github.com/angelmondragon/platehub-backend/pkg/visibility"
)

const (
	maxSaveAttempts = 2
	maxNotesLength  = 500
	maxOrderLines   = 50
)

// Service defines the order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, actor authz.Actor, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, actor authz.Actor, input ListOrdersInput) (*OrderList, error)
	UpdateStatus(ctx context.Context, actor authz.Actor, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	StartPayment(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error)
	SucceedPayment(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error)
	FailPayment(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error)
	MarkPaid(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error)
	Refund(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error)
	ApplyPaymentAction(ctx context.Context, actor authz.Actor, action enums.PaymentAction, input PaymentInput) (*OrderDTO, error)
	RateOrder(ctx context.Context, actor authz.Actor, input RateOrderInput) (*OrderDTO, error)
	CancelOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ReviseItems(ctx context.Context, actor authz.Actor, input ReviseItemsInput) (*OrderDTO, error)
	DeleteOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) error
}

// Options tunes timeouts applied by the service.
type Options struct {
	TransitionTimeout time.Duration
	NotifyTimeout     time.Duration
}

// Dependencies groups the collaborators the service needs.
type Dependencies struct {
	Repo     Repository
	Tx       txRunner
	Vendors  VendorDirectory
	Menu     MenuDirectory
	Notifier Notifier
	Ledger   LedgerRecorder
	Guard    IdempotencyGuard
	Metrics  Metrics
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	vendors  VendorDirectory
	menu     MenuDirectory
	notifier Notifier
	ledger   LedgerRecorder
	guard    IdempotencyGuard
	metrics  Metrics
	logg     *logger.Logger
	opts     Options
	now      func() time.Time
}

// afterSave runs inside the transaction once the order row was written.
type afterSave func(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order) error

// NewService builds the order lifecycle service.
func NewService(deps Dependencies, opts Options) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Vendors == nil {
		return nil, fmt.Errorf("vendor directory required")
	}
	if deps.Menu == nil {
		return nil, fmt.Errorf("menu directory required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("ledger recorder required")
	}
	if deps.Guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 3 * time.Second
	}
	return &service{
		repo:     deps.Repo,
		tx:       deps.Tx,
		vendors:  deps.Vendors,
		menu:     deps.Menu,
		notifier: deps.Notifier,
		ledger:   deps.Ledger,
		guard:    deps.Guard,
		metrics:  metrics,
		logg:     logg,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, actor authz.Actor, input CreateOrderInput) (dto *OrderDTO, err error) {
	defer s.observe("create_order", time.Now(), &err)

	if actor.Role != enums.ActorRoleCustomer || actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can place orders")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyOrder, "order must contain at least one item")
	}
	method := input.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodCashOnDelivery
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": method})
	}
	notes, err := normalizeNotes(input.Notes)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	vendor, err := s.vendors.GetVendor(ctx, input.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, mapError(err, "load vendor")
	}
	if err := visibility.EnsureVendorOrderable(vendor); err != nil {
		return nil, err
	}

	lines, err := s.priceLines(ctx, vendor, input.Items)
	if err != nil {
		return nil, err
	}
	total, err := SumLines(lines)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:            uuid.New(),
		CustomerID:    actor.ID,
		VendorID:      vendor.ID,
		Status:        enums.OrderStatusPending,
		PaymentMethod: method,
		PaymentStatus: enums.PaymentStatusUnpaid,
		RefundStatus:  enums.RefundStatusNone,
		TotalAmount:   total,
		Notes:         notes,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = order.ID
		lines[i].Position = i
		lines[i].CreatedAt = now
	}
	order.Items = lines

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateOrder(ctx, order)
	}); err != nil {
		return nil, mapError(err, "create order")
	}

	logCtx := s.logg.WithOrderID(s.logg.WithVendorID(ctx, vendor.ID.String()), order.ID.String())
	s.logg.Info(logCtx, "order.created")

	s.notify(ctx, enums.NotificationEventOrderCreated, order, actor)
	out := ToDTO(order)
	return &out, nil
}

func (s *service) GetOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	order, err := s.repo.LoadOrder(ctx, orderID)
	if err != nil {
		return nil, mapError(err, "load order")
	}
	if !authz.CanViewOrder(actor, ownership(order)) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
	}
	out := ToDTO(order)
	return &out, nil
}

func (s *service) ListOrders(ctx context.Context, actor authz.Actor, input ListOrdersInput) (*OrderList, error) {
	if input.Filters.Status != nil && !input.Filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if input.Filters.PaymentStatus != nil && !input.Filters.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter")
	}
	if _, err := pagination.ParseCursor(input.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		page *OrderPage
		err  error
	)
	switch actor.Role {
	case enums.ActorRoleCustomer:
		page, err = s.repo.FindOrdersByCustomer(ctx, actor.ID, input.Filters, params)
	case enums.ActorRoleVendor:
		if actor.VendorID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
		}
		page, err = s.repo.FindOrdersByVendor(ctx, *actor.VendorID, input.Filters, params)
	case enums.ActorRoleAdmin:
		if input.VendorID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor_id is required for admin listings")
		}
		page, err = s.repo.FindOrdersByVendor(ctx, *input.VendorID, input.Filters, params)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
	if err != nil {
		return nil, mapError(err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderDTO, 0, len(page.Orders)), NextCursor: page.NextCursor}
	for i := range page.Orders {
		list.Orders = append(list.Orders, ToDTO(&page.Orders[i]))
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor authz.Actor, orderID uuid.UUID, status enums.OrderStatus) (dto *OrderDTO, err error) {
	defer s.observe("update_status", time.Now(), &err)

	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"status": status})
	}

	order, err := s.transition(ctx, "update_status", orderID, func(order *models.Order, now time.Time) error {
		if !authz.CanTransitionFulfillment(actor, ownership(order)) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
		return ApplyFulfillment(order, status, now)
	}, nil)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, enums.NotificationEventOrderStatusChanged, order, actor)
	out := ToDTO(order)
	return &out, nil
}

func (s *service) StartPayment(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error) {
	return s.ApplyPaymentAction(ctx, actor, enums.PaymentActionStart, input)
}

func (s *service) SucceedPayment(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error) {
	return s.ApplyPaymentAction(ctx, actor, enums.PaymentActionSucceed, input)
}

func (s *service) FailPayment(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error) {
	return s.ApplyPaymentAction(ctx, actor, enums.PaymentActionFail, input)
}

func (s *service) MarkPaid(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error) {
	return s.ApplyPaymentAction(ctx, actor, enums.PaymentActionMarkPaid, input)
}

func (s *service) Refund(ctx context.Context, actor authz.Actor, input PaymentInput) (*OrderDTO, error) {
	return s.ApplyPaymentAction(ctx, actor, enums.PaymentActionRefund, input)
}

// ApplyPaymentAction runs one payment-axis move under the idempotency guard.
// The key is scoped to the actor so two users never share a stored response.
func (s *service) ApplyPaymentAction(ctx context.Context, actor authz.Actor, action enums.PaymentAction, input PaymentInput) (dto *OrderDTO, err error) {
	operation := "payment_" + string(action)
	defer s.observe(operation, time.Now(), &err)

	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	direction, ok := PaymentDirection(action)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment action").
			WithDetails(map[string]any{"action": action})
	}

	key := ""
	if trimmed := strings.TrimSpace(input.IdempotencyKey); trimmed != "" {
		key = actor.ID.String() + ":" + trimmed
	}
	fingerprint := string(action) + "|" + input.OrderID.String()

	var (
		out     OrderDTO
		changed *models.Order
	)
	replayed, err := s.guard.Do(ctx, key, fingerprint, &out, func(ctx context.Context) (any, error) {
		order, err := s.transition(ctx, operation, input.OrderID, func(order *models.Order, now time.Time) error {
			if !authz.CanTransitionPayment(actor, ownership(order), direction) {
				return pkgerrors.New(pkgerrors.CodeForbidden, "actor cannot change payment for this order")
			}
			return ApplyPayment(order, action, now)
		}, s.recordPaymentLedger(actor, action))
		if err != nil {
			return nil, err
		}
		changed = order
		return ToDTO(order), nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		s.metrics.IncReplay(operation)
		logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
		s.logg.Info(logCtx, "order.payment.replayed")
		return &out, nil
	}
	if changed != nil {
		s.notify(ctx, enums.NotificationEventPaymentStatusChanged, changed, actor)
	}
	return &out, nil
}

func (s *service) RateOrder(ctx context.Context, actor authz.Actor, input RateOrderInput) (dto *OrderDTO, err error) {
	defer s.observe("rate_order", time.Now(), &err)

	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.transition(ctx, "rate_order", input.OrderID, func(order *models.Order, now time.Time) error {
		if actor.Role != enums.ActorRoleCustomer || !authz.OwnsOrder(actor, ownership(order)) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the ordering customer can rate")
		}
		return ApplyRating(order, input.Rating, input.Review, now)
	}, nil)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, enums.NotificationEventOrderRated, order, actor)
	out := ToDTO(order)
	return &out, nil
}

func (s *service) CancelOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (dto *OrderDTO, err error) {
	defer s.observe("cancel_order", time.Now(), &err)

	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.transition(ctx, "cancel_order", orderID, func(order *models.Order, now time.Time) error {
		if actor.Role != enums.ActorRoleCustomer || !authz.OwnsOrder(actor, ownership(order)) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the ordering customer can cancel")
		}
		return ApplyCancel(order, now)
	}, nil)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, enums.NotificationEventOrderCancelled, order, actor)
	out := ToDTO(order)
	return &out, nil
}

func (s *service) ReviseItems(ctx context.Context, actor authz.Actor, input ReviseItemsInput) (dto *OrderDTO, err error) {
	defer s.observe("revise_items", time.Now(), &err)

	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyOrder, "order must contain at least one item")
	}
	if len(input.Items) > maxOrderLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many items").
			WithDetails(map[string]any{"max_items": maxOrderLines})
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	menuItems, err := s.menu.GetMenuItems(ctx, menuItemIDs(input.Items))
	if err != nil {
		return nil, mapError(err, "load menu items")
	}

	order, err := s.transition(ctx, "revise_items", input.OrderID, func(order *models.Order, now time.Time) error {
		if actor.Role != enums.ActorRoleCustomer || !authz.OwnsOrder(actor, ownership(order)) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the ordering customer can change items")
		}
		lines, err := buildLines(order.VendorID, menuItems, input.Items)
		if err != nil {
			return err
		}
		for i := range lines {
			lines[i].ID = uuid.New()
			lines[i].CreatedAt = now
		}
		return ReviseItems(order, lines)
	}, func(ctx context.Context, _ *gorm.DB, repo Repository, order *models.Order) error {
		return repo.ReplaceItems(ctx, order.ID, order.Items)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, enums.NotificationEventOrderStatusChanged, order, actor)
	out := ToDTO(order)
	return &out, nil
}

func (s *service) DeleteOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (err error) {
	defer s.observe("delete_order", time.Now(), &err)

	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.withRetry(ctx, "delete_order", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LoadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !authz.IsAdmin(actor) && (actor.Role != enums.ActorRoleCustomer || !authz.OwnsOrder(actor, ownership(order))) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
		}
		if order.PaymentStatus != enums.PaymentStatusUnpaid && order.PaymentStatus != enums.PaymentStatusFailed {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "orders with a started or settled payment cannot be deleted").
				WithDetails(map[string]any{"field": "payment_status", "from": order.PaymentStatus})
		}
		if order.PayoutID != nil {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "orders settled into a payout cannot be deleted").
				WithDetails(map[string]any{"payout_id": *order.PayoutID})
		}
		return repo.DeleteOrder(ctx, order.ID, order.Version)
	})
}

// transition runs load, mutate and a version-checked save in one
// transaction. A lost race is retried once against fresh state.
func (s *service) transition(ctx context.Context, operation string, orderID uuid.UUID, mutate func(order *models.Order, now time.Time) error, after afterSave) (*models.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var saved *models.Order
	err := s.withRetry(ctx, operation, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LoadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		expected := order.Version
		now := s.now()
		if err := mutate(order, now); err != nil {
			return err
		}
		order.UpdatedAt = now
		if err := repo.SaveOrder(ctx, order, expected); err != nil {
			return err
		}
		if after != nil {
			if err := after(ctx, tx, repo, order); err != nil {
				return err
			}
		}
		saved = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) withRetry(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err := s.tx.WithTx(ctx, fn)
		if errors.Is(err, ErrVersionConflict) {
			s.metrics.IncConflict(operation)
			logCtx := s.logg.WithField(ctx, "attempt", attempt+1)
			s.logg.Warn(logCtx, "order.version_conflict")
			continue
		}
		if err != nil {
			return mapError(err, operation)
		}
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
}

func (s *service) recordPaymentLedger(actor authz.Actor, action enums.PaymentAction) afterSave {
	return func(ctx context.Context, tx *gorm.DB, _ Repository, order *models.Order) error {
		var eventType enums.LedgerEventType
		switch order.PaymentStatus {
		case enums.PaymentStatusPaid:
			eventType = enums.LedgerEventTypePaymentCaptured
		case enums.PaymentStatusRefunded:
			eventType = enums.LedgerEventTypeRefund
		default:
			return nil
		}
		metadata, err := json.Marshal(map[string]any{
			"action":         action,
			"payment_method": order.PaymentMethod,
		})
		if err != nil {
			return err
		}
		orderID := order.ID
		customerID := order.CustomerID
		_, err = s.ledger.RecordEvent(ctx, tx, ledger.RecordLedgerEventInput{
			OrderID:     &orderID,
			VendorID:    order.VendorID,
			CustomerID:  &customerID,
			ActorUserID: actor.ID,
			Type:        eventType,
			Amount:      order.TotalAmount,
			Metadata:    metadata,
		})
		return err
	}
}

func (s *service) priceLines(ctx context.Context, vendor *models.Vendor, items []ItemInput) ([]models.OrderLineItem, error) {
	if len(items) > maxOrderLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many items").
			WithDetails(map[string]any{"max_items": maxOrderLines})
	}
	menuItems, err := s.menu.GetMenuItems(ctx, menuItemIDs(items))
	if err != nil {
		return nil, mapError(err, "load menu items")
	}
	return buildLines(vendor.ID, menuItems, items)
}

func buildLines(vendorID uuid.UUID, menuItems map[uuid.UUID]models.MenuItem, items []ItemInput) ([]models.OrderLineItem, error) {
	lines := make([]models.OrderLineItem, 0, len(items))
	for _, requested := range items {
		item, ok := menuItems[requested.MenuItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeMenuItemNotFound, "menu item not found").
				WithDetails(map[string]any{"menu_item_id": requested.MenuItemID})
		}
		if err := visibility.EnsureMenuItemOrderable(&item, vendorID); err != nil {
			return nil, err
		}
		line, err := BuildLine(item, requested.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// notify delivers the event to both parties after commit. It never fails
// the caller.
func (s *service) notify(ctx context.Context, event enums.NotificationEvent, order *models.Order, actor authz.Actor) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
	defer cancel()

	payload := StatusChangedEvent{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"event":    string(event),
	})
	if err := s.notifier.NotifyCustomer(notifyCtx, order.CustomerID, event, payload); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "order.notify_customer_failed")
	}
	if err := s.notifier.NotifyVendor(notifyCtx, order.VendorID, event, payload); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "order.notify_vendor_failed")
	}
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.TransitionTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= s.opts.TransitionTimeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.TransitionTimeout)
}

func (s *service) observe(operation string, started time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	s.metrics.Observe(operation, started, err)
}

// mapError turns persistence failures into the public taxonomy. Typed
// errors pass through unchanged.
func mapError(err error, action string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if db.IsCheckViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, action+" rejected by a data constraint")
	}
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, action+" references a missing record")
	}
	if db.IsTimeout(err) {
		return pkgerrors.Wrap(pkgerrors.CodeTransient, err, action+" timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransient, err, action)
}

func ownership(order *models.Order) authz.Ownership {
	return authz.Ownership{CustomerID: order.CustomerID, VendorID: order.VendorID}
}

func menuItemIDs(items []ItemInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.MenuItemID]; ok {
			continue
		}
		seen[item.MenuItemID] = struct{}{}
		ids = append(ids, item.MenuItemID)
	}
	return ids
}

func normalizeNotes(notes *string) (*string, error) {
	if notes == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxNotesLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notes are too long").
			WithDetails(map[string]any{"max_length": maxNotesLength})
	}
	return &trimmed, nil
}

type nopMetrics struct{}

func (nopMetrics) Observe(string, time.Time, error) {}
func (nopMetrics) IncConflict(string)               {}
func (nopMetrics) IncReplay(string)                 {}
