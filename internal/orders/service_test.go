package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/internal/authz"
	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/pagination"
)

type stubRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]models.Order

	loadErr error
	// steal bumps the stored version before the next N saves, as if another
	// writer committed first.
	steal int
	saves int
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: make(map[uuid.UUID]models.Order)}
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) put(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

func (s *stubRepo) get(id uuid.UUID) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *stubRepo) LoadOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := order
	clone.Items = append([]models.OrderLineItem(nil), order.Items...)
	return &clone, nil
}

func (s *stubRepo) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = *order
	return nil
}

func (s *stubRepo) SaveOrder(_ context.Context, order *models.Order, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	stored, ok := s.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if s.steal > 0 {
		s.steal--
		stored.Version++
		s.orders[order.ID] = stored
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	s.orders[order.ID] = *order
	return nil
}

func (s *stubRepo) ReplaceItems(_ context.Context, orderID uuid.UUID, items []models.OrderLineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.orders[orderID]
	order.Items = items
	s.orders[orderID] = order
	return nil
}

func (s *stubRepo) DeleteOrder(_ context.Context, orderID uuid.UUID, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[orderID]
	if !ok || stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	delete(s.orders, orderID)
	return nil
}

func (s *stubRepo) FindOrdersByVendor(_ context.Context, vendorID uuid.UUID, _ OrderFilters, _ pagination.Params) (*OrderPage, error) {
	return s.find(func(o models.Order) bool { return o.VendorID == vendorID }), nil
}

func (s *stubRepo) FindOrdersByCustomer(_ context.Context, customerID uuid.UUID, _ OrderFilters, _ pagination.Params) (*OrderPage, error) {
	return s.find(func(o models.Order) bool { return o.CustomerID == customerID }), nil
}

func (s *stubRepo) find(match func(models.Order) bool) *OrderPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := &OrderPage{}
	for _, order := range s.orders {
		if match(order) {
			page.Orders = append(page.Orders, order)
		}
	}
	return page
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type stubVendors struct {
	vendors map[uuid.UUID]*models.Vendor
}

func (s stubVendors) GetVendor(_ context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, ok := s.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vendor, nil
}

type stubMenu struct {
	items map[uuid.UUID]models.MenuItem
}

func (s stubMenu) GetMenuItems(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MenuItem, error) {
	out := make(map[uuid.UUID]models.MenuItem)
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

type sentNotification struct {
	recipient uuid.UUID
	event     enums.NotificationEvent
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (s *stubNotifier) NotifyCustomer(_ context.Context, customerID uuid.UUID, event enums.NotificationEvent, _ any) error {
	return s.record(customerID, event)
}

func (s *stubNotifier) NotifyVendor(_ context.Context, vendorID uuid.UUID, event enums.NotificationEvent, _ any) error {
	return s.record(vendorID, event)
}

func (s *stubNotifier) record(recipient uuid.UUID, event enums.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentNotification{recipient: recipient, event: event})
	return s.err
}

type stubLedger struct {
	mu     sync.Mutex
	events []ledger.RecordLedgerEventInput
}

func (s *stubLedger) RecordEvent(_ context.Context, _ *gorm.DB, input ledger.RecordLedgerEventInput) (*models.LedgerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, input)
	return &models.LedgerEvent{ID: uuid.New(), Type: input.Type, Amount: input.Amount}, nil
}

// passthroughGuard runs fn every time and copies the result into dst.
type passthroughGuard struct{}

func (passthroughGuard) Do(ctx context.Context, _, _ string, dst any, fn func(ctx context.Context) (any, error)) (bool, error) {
	result, err := fn(ctx)
	if err != nil {
		return false, err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return false, err
	}
	return false, json.Unmarshal(raw, dst)
}

type stubMetrics struct {
	mu        sync.Mutex
	conflicts int
	replays   int
	outcomes  map[string][]error
}

func (m *stubMetrics) Observe(operation string, _ time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string][]error)
	}
	m.outcomes[operation] = append(m.outcomes[operation], err)
}

func (m *stubMetrics) IncConflict(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *stubMetrics) IncReplay(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replays++
}

type fixture struct {
	svc      Service
	repo     *stubRepo
	notifier *stubNotifier
	ledger   *stubLedger
	metrics  *stubMetrics

	vendor   *models.Vendor
	burger   models.MenuItem
	customer authz.Actor
	owner    authz.Actor
	admin    authz.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vendorID := uuid.New()
	f := &fixture{
		repo:     newStubRepo(),
		notifier: &stubNotifier{},
		ledger:   &stubLedger{},
		metrics:  &stubMetrics{},
		vendor:   &models.Vendor{ID: vendorID, Name: "Noodle Bar", IsOpen: true},
		burger:   models.MenuItem{ID: uuid.New(), VendorID: vendorID, Name: "Burger", Price: decimal.RequireFromString("12.50"), IsAvailable: true},
		customer: authz.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer},
		owner:    authz.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &vendorID},
		admin:    authz.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin},
	}
	svc, err := NewService(Dependencies{
		Repo:     f.repo,
		Tx:       stubTx{},
		Vendors:  stubVendors{vendors: map[uuid.UUID]*models.Vendor{vendorID: f.vendor}},
		Menu:     stubMenu{items: map[uuid.UUID]models.MenuItem{f.burger.ID: f.burger}},
		Notifier: f.notifier,
		Ledger:   f.ledger,
		Guard:    passthroughGuard{},
		Metrics:  f.metrics,
	}, Options{TransitionTimeout: time.Second, NotifyTimeout: time.Second})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) seed(status enums.OrderStatus, method enums.PaymentMethod, payment enums.PaymentStatus) models.Order {
	order := models.Order{
		ID:            uuid.New(),
		CustomerID:    f.customer.ID,
		VendorID:      f.vendor.ID,
		Status:        status,
		PaymentMethod: method,
		PaymentStatus: payment,
		RefundStatus:  enums.RefundStatusNone,
		TotalAmount:   decimal.RequireFromString("25.00"),
		Version:       1,
	}
	f.repo.put(order)
	return order
}

func TestCreateOrderPricesFromMenu(t *testing.T) {
	f := newFixture(t)
	notes := "  no onions "

	dto, err := f.svc.CreateOrder(context.Background(), f.customer, CreateOrderInput{
		VendorID: f.vendor.ID,
		Items:    []ItemInput{{MenuItemID: f.burger.ID, Quantity: 2}},
		Notes:    &notes,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if dto.TotalAmount != "25.00" {
		t.Fatalf("expected total 25.00, got %s", dto.TotalAmount)
	}
	if dto.Status != enums.OrderStatusPending || dto.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("unexpected initial state %s/%s", dto.Status, dto.PaymentStatus)
	}
	if dto.PaymentMethod != enums.PaymentMethodCashOnDelivery {
		t.Fatalf("expected cash on delivery default, got %s", dto.PaymentMethod)
	}
	if dto.Notes == nil || *dto.Notes != "no onions" {
		t.Fatalf("expected trimmed notes, got %v", dto.Notes)
	}
	if len(dto.Items) != 1 || dto.Items[0].PriceAtOrder != "12.50" {
		t.Fatalf("unexpected items %+v", dto.Items)
	}
	if len(f.notifier.sent) != 2 || f.notifier.sent[0].event != enums.NotificationEventOrderCreated {
		t.Fatalf("expected customer and vendor notified, got %+v", f.notifier.sent)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateOrder(ctx, f.owner, CreateOrderInput{VendorID: f.vendor.ID, Items: []ItemInput{{MenuItemID: f.burger.ID, Quantity: 1}}}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for vendor actor, got %v", err)
	}
	if _, err := f.svc.CreateOrder(ctx, f.customer, CreateOrderInput{VendorID: f.vendor.ID}); !pkgerrors.IsCode(err, pkgerrors.CodeEmptyOrder) {
		t.Fatalf("expected empty order, got %v", err)
	}
	if _, err := f.svc.CreateOrder(ctx, f.customer, CreateOrderInput{VendorID: uuid.New(), Items: []ItemInput{{MenuItemID: f.burger.ID, Quantity: 1}}}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected vendor not found, got %v", err)
	}
	if _, err := f.svc.CreateOrder(ctx, f.customer, CreateOrderInput{VendorID: f.vendor.ID, Items: []ItemInput{{MenuItemID: uuid.New(), Quantity: 1}}}); !pkgerrors.IsCode(err, pkgerrors.CodeMenuItemNotFound) {
		t.Fatalf("expected menu item not found, got %v", err)
	}
	if _, err := f.svc.CreateOrder(ctx, f.customer, CreateOrderInput{VendorID: f.vendor.ID, Items: []ItemInput{{MenuItemID: f.burger.ID, Quantity: 1}}, PaymentMethod: "barter"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for payment method, got %v", err)
	}

	f.vendor.IsOpen = false
	if _, err := f.svc.CreateOrder(ctx, f.customer, CreateOrderInput{VendorID: f.vendor.ID, Items: []ItemInput{{MenuItemID: f.burger.ID, Quantity: 1}}}); !pkgerrors.IsCode(err, pkgerrors.CodeVendorClosed) {
		t.Fatalf("expected vendor closed, got %v", err)
	}
}

func TestUpdateStatusRequiresOwningVendor(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	otherVendorID := uuid.New()
	otherVendor := authz.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &otherVendorID}

	_, err := f.svc.UpdateStatus(context.Background(), otherVendor, order.ID, enums.OrderStatusAccepted)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), f.customer, order.ID, enums.OrderStatusAccepted); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for customer, got %v", err)
	}
	if stored := f.repo.get(order.ID); stored.Status != enums.OrderStatusPending || stored.Version != 1 {
		t.Fatalf("order changed after forbidden attempt: %+v", stored)
	}

	dto, err := f.svc.UpdateStatus(context.Background(), f.owner, order.ID, enums.OrderStatusAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if dto.Status != enums.OrderStatusAccepted || dto.Version != 2 {
		t.Fatalf("unexpected result %s v%d", dto.Status, dto.Version)
	}

	if _, err := f.svc.UpdateStatus(context.Background(), f.admin, order.ID, enums.OrderStatusReady); err != nil {
		t.Fatalf("admin ready: %v", err)
	}
}

func TestTransitionRetriesOnceAfterConflict(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	f.repo.steal = 1

	dto, err := f.svc.UpdateStatus(context.Background(), f.owner, order.ID, enums.OrderStatusAccepted)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if dto.Version != 3 {
		t.Fatalf("expected version 3 after stolen write and retry, got %d", dto.Version)
	}
	if f.metrics.conflicts != 1 {
		t.Fatalf("expected one conflict recorded, got %d", f.metrics.conflicts)
	}
}

func TestTransitionGivesUpAfterSecondConflict(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	f.repo.steal = 2

	_, err := f.svc.UpdateStatus(context.Background(), f.owner, order.ID, enums.OrderStatusAccepted)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.repo.saves != maxSaveAttempts {
		t.Fatalf("expected %d save attempts, got %d", maxSaveAttempts, f.repo.saves)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("expected no notifications on failure")
	}
	outcomes := f.metrics.outcomes["update_status"]
	if len(outcomes) != 1 || !pkgerrors.IsCode(outcomes[0], pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict outcome observed, got %v", outcomes)
	}
}

func TestStoreTimeoutMapsToTransient(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	f.repo.loadErr = context.DeadlineExceeded

	_, err := f.svc.UpdateStatus(context.Background(), f.owner, order.ID, enums.OrderStatusAccepted)
	if !pkgerrors.IsCode(err, pkgerrors.CodeTransient) {
		t.Fatalf("expected transient, got %v", err)
	}
	if !pkgerrors.Retryable(err) {
		t.Fatalf("expected transient to be retryable")
	}
}

func TestConstraintViolationsAreNotRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want pkgerrors.Code
	}{
		{name: "postgres check", err: &pgconn.PgError{Code: "23514", ConstraintName: "orders_rating_check"}, want: pkgerrors.CodeValidation},
		{name: "sqlite check", err: errors.New("CHECK constraint failed: status IN ('pending')"), want: pkgerrors.CodeValidation},
		{name: "postgres foreign key", err: &pgconn.PgError{Code: "23503", ConstraintName: "orders_vendor_id_fkey"}, want: pkgerrors.CodeNotFound},
		{name: "sqlite foreign key", err: errors.New("FOREIGN KEY constraint failed"), want: pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			order := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
			f.repo.loadErr = tc.err

			_, err := f.svc.UpdateStatus(context.Background(), f.owner, order.ID, enums.OrderStatusAccepted)
			if !pkgerrors.IsCode(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
			if pkgerrors.Retryable(err) {
				t.Fatalf("constraint violation must not be retryable")
			}
		})
	}
}

func TestUnknownOrderIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateStatus(context.Background(), f.owner, uuid.New(), enums.OrderStatusAccepted)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	f.notifier.err = errors.New("push gateway down")

	dto, err := f.svc.UpdateStatus(context.Background(), f.owner, order.ID, enums.OrderStatusAccepted)
	if err != nil {
		t.Fatalf("expected success despite notifier failure, got %v", err)
	}
	if dto.Status != enums.OrderStatusAccepted {
		t.Fatalf("unexpected status %s", dto.Status)
	}
	if len(f.notifier.sent) != 2 {
		t.Fatalf("expected both recipients attempted, got %d", len(f.notifier.sent))
	}
}

func TestMarkPaidRecordsLedgerEvent(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusDelivered, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)

	dto, err := f.svc.MarkPaid(context.Background(), f.owner, PaymentInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if dto.PaymentStatus != enums.PaymentStatusPaid || dto.PaidAt == nil {
		t.Fatalf("expected paid with timestamp, got %+v", dto)
	}
	if len(f.ledger.events) != 1 || f.ledger.events[0].Type != enums.LedgerEventTypePaymentCaptured {
		t.Fatalf("expected one payment_captured event, got %+v", f.ledger.events)
	}
	if !f.ledger.events[0].Amount.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected ledger amount %s", f.ledger.events[0].Amount)
	}

	if _, err := f.svc.Refund(context.Background(), f.owner, PaymentInput{OrderID: order.ID}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if len(f.ledger.events) != 2 || f.ledger.events[1].Type != enums.LedgerEventTypeRefund {
		t.Fatalf("expected refund event, got %+v", f.ledger.events)
	}
}

func TestPaymentDirectionAuthorization(t *testing.T) {
	f := newFixture(t)
	online := f.seed(enums.OrderStatusPending, enums.PaymentMethodMockOnline, enums.PaymentStatusUnpaid)
	cash := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	stranger := authz.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}
	ctx := context.Background()

	if _, err := f.svc.StartPayment(ctx, f.owner, PaymentInput{OrderID: online.ID}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("vendor cannot start payment, got %v", err)
	}
	if _, err := f.svc.StartPayment(ctx, stranger, PaymentInput{OrderID: online.ID}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("stranger cannot start payment, got %v", err)
	}
	if _, err := f.svc.MarkPaid(ctx, f.customer, PaymentInput{OrderID: cash.ID}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("customer cannot mark paid, got %v", err)
	}
	if _, err := f.svc.StartPayment(ctx, f.customer, PaymentInput{OrderID: cash.ID}); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("cash orders cannot start online payment, got %v", err)
	}

	dto, err := f.svc.StartPayment(ctx, f.customer, PaymentInput{OrderID: online.ID})
	if err != nil {
		t.Fatalf("start payment: %v", err)
	}
	if dto.PaymentStatus != enums.PaymentStatusProcessing {
		t.Fatalf("expected processing, got %s", dto.PaymentStatus)
	}
	if dto, err = f.svc.FailPayment(ctx, f.customer, PaymentInput{OrderID: online.ID}); err != nil || dto.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("fail payment: %v", err)
	}
	if len(f.ledger.events) != 0 {
		t.Fatalf("no ledger events expected before capture")
	}
}

func TestRateOrderOnlyOnceByCustomer(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusDelivered, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusPaid)
	ctx := context.Background()

	if _, err := f.svc.RateOrder(ctx, f.owner, RateOrderInput{OrderID: order.ID, Rating: 5}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("vendor cannot rate, got %v", err)
	}
	dto, err := f.svc.RateOrder(ctx, f.customer, RateOrderInput{OrderID: order.ID, Rating: 4})
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if !dto.IsRated || dto.Rating == nil || *dto.Rating != 4 {
		t.Fatalf("rating not returned: %+v", dto)
	}
	if _, err := f.svc.RateOrder(ctx, f.customer, RateOrderInput{OrderID: order.ID, Rating: 5}); !pkgerrors.IsCode(err, pkgerrors.CodeAlreadyRated) {
		t.Fatalf("expected already rated, got %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusPending, enums.PaymentMethodMockOnline, enums.PaymentStatusPaid)

	if _, err := f.svc.CancelOrder(context.Background(), f.owner, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("vendor cannot cancel on behalf of customer, got %v", err)
	}
	dto, err := f.svc.CancelOrder(context.Background(), f.customer, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if dto.Status != enums.OrderStatusRejected || dto.RefundStatus != enums.RefundStatusPending {
		t.Fatalf("unexpected cancel result %s/%s", dto.Status, dto.RefundStatus)
	}
}

func TestReviseItemsReplacesLines(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)

	dto, err := f.svc.ReviseItems(context.Background(), f.customer, ReviseItemsInput{
		OrderID: order.ID,
		Items:   []ItemInput{{MenuItemID: f.burger.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if dto.TotalAmount != "37.50" || len(dto.Items) != 1 {
		t.Fatalf("unexpected revision %+v", dto)
	}
	if stored := f.repo.get(order.ID); len(stored.Items) != 1 || stored.Items[0].Quantity != 3 {
		t.Fatalf("items not replaced: %+v", stored.Items)
	}
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	paid := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusPaid)
	unpaid := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	ctx := context.Background()

	if err := f.svc.DeleteOrder(ctx, f.customer, paid.ID); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected paid order kept, got %v", err)
	}
	if err := f.svc.DeleteOrder(ctx, f.owner, unpaid.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected vendor forbidden, got %v", err)
	}
	settled := f.seed(enums.OrderStatusDelivered, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	payoutID := uuid.New()
	settled.PayoutID = &payoutID
	f.repo.put(settled)
	if err := f.svc.DeleteOrder(ctx, f.admin, settled.ID); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected settled order kept, got %v", err)
	}
	if err := f.svc.DeleteOrder(ctx, f.customer, unpaid.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.GetOrder(ctx, f.customer, unpaid.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected deleted order missing, got %v", err)
	}
}

func TestListOrdersScopesByRole(t *testing.T) {
	f := newFixture(t)
	f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	f.repo.put(models.Order{ID: uuid.New(), CustomerID: uuid.New(), VendorID: uuid.New(), Version: 1})
	ctx := context.Background()

	list, err := f.svc.ListOrders(ctx, f.owner, ListOrdersInput{})
	if err != nil {
		t.Fatalf("vendor list: %v", err)
	}
	if len(list.Orders) != 1 {
		t.Fatalf("expected vendor to see one order, got %d", len(list.Orders))
	}
	if _, err := f.svc.ListOrders(ctx, f.admin, ListOrdersInput{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected admin to need vendor id, got %v", err)
	}
	list, err = f.svc.ListOrders(ctx, f.admin, ListOrdersInput{VendorID: &f.vendor.ID})
	if err != nil || len(list.Orders) != 1 {
		t.Fatalf("admin list: %v", err)
	}
	if _, err := f.svc.ListOrders(ctx, f.customer, ListOrdersInput{Cursor: "%%%"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected invalid cursor rejected, got %v", err)
	}
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture(t)
	order := f.seed(enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusUnpaid)
	stranger := authz.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}

	if _, err := f.svc.GetOrder(context.Background(), stranger, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	for _, actor := range []authz.Actor{f.customer, f.owner, f.admin} {
		if _, err := f.svc.GetOrder(context.Background(), actor, order.ID); err != nil {
			t.Fatalf("%s get: %v", actor.Role, err)
		}
	}
}
