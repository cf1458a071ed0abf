package payouts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/internal/authz"
	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/pkg/db"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

const maxNoteLength = 1000

// VendorDirectory lists the vendors payouts are computed for.
type VendorDirectory interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	ListVendors(ctx context.Context, includeDeleted bool) ([]models.Vendor, error)
}

// LedgerRecorder appends money movements inside the caller's transaction.
type LedgerRecorder interface {
	RecordEvent(ctx context.Context, tx *gorm.DB, input ledger.RecordLedgerEventInput) (*models.LedgerEvent, error)
}

// Metrics counts payout settlement activity.
type Metrics interface {
	IncStatus(status string)
	AddPaid(amount decimal.Decimal)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the payouts service.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Vendors     VendorDirectory
	Ledger      LedgerRecorder
	Metrics     Metrics
	Logger      *logger.Logger
	DefaultRate decimal.Decimal
}

// Service computes vendor payout summaries and manages payout settlement.
type Service struct {
	repo        Repository
	tx          txRunner
	vendors     VendorDirectory
	ledger      LedgerRecorder
	metrics     Metrics
	logg        *logger.Logger
	defaultRate decimal.Decimal
	now         func() time.Time
}

// NewService builds a payouts service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Vendors == nil {
		return nil, errors.New("vendor directory is required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger recorder is required")
	}
	if err := ledger.ValidateRate(params.DefaultRate); err != nil {
		return nil, err
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		repo:        params.Repo,
		tx:          params.Tx,
		vendors:     params.Vendors,
		ledger:      params.Ledger,
		metrics:     metrics,
		logg:        logg,
		defaultRate: params.DefaultRate,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// VendorPayoutSummary summarizes one vendor. Owning vendors and admins only.
func (s *Service) VendorPayoutSummary(ctx context.Context, actor authz.Actor, vendorID uuid.UUID) (*Summary, error) {
	entry, err := s.vendorTotals(ctx, actor, vendorID)
	if err != nil {
		return nil, err
	}
	summary := toSummary(entry.vendor, entry.totals)
	return &summary, nil
}

// AllVendorPayoutSummaries summarizes every active vendor, including those
// without delivered orders, ordered by vendor name then id.
func (s *Service) AllVendorPayoutSummaries(ctx context.Context, actor authz.Actor) ([]Summary, error) {
	if !authz.IsAdmin(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	vendors, err := s.vendors.ListVendors(ctx, false)
	if err != nil {
		return nil, mapError(err, "list vendors")
	}
	entries, err := s.summarize(ctx, vendors)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toSummary(entry.vendor, entry.totals))
	}
	return out, nil
}

type vendorTotals struct {
	vendor models.Vendor
	totals ledger.Totals
}

func (s *Service) vendorTotals(ctx context.Context, actor authz.Actor, vendorID uuid.UUID) (*vendorTotals, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if !authz.CanManageVendor(actor, vendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor not accessible")
	}
	vendor, err := s.vendors.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, mapError(err, "load vendor")
	}
	if vendor.DeletedAt.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	entries, err := s.summarize(ctx, []models.Vendor{*vendor})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// summarize is the single computation behind both summary views. Vendors are
// emitted in input order, once each.
func (s *Service) summarize(ctx context.Context, vendors []models.Vendor) ([]vendorTotals, error) {
	if len(vendors) == 0 {
		return nil, nil
	}
	accumulators := make(map[uuid.UUID]*ledger.Accumulator, len(vendors))
	unique := make([]models.Vendor, 0, len(vendors))
	ids := make([]uuid.UUID, 0, len(vendors))
	for _, vendor := range vendors {
		if _, dup := accumulators[vendor.ID]; dup {
			continue
		}
		accumulators[vendor.ID] = ledger.NewAccumulator(ledger.EffectiveRate(vendor.CommissionRate, s.defaultRate))
		unique = append(unique, vendor)
		ids = append(ids, vendor.ID)
	}

	amounts, err := s.repo.ListDeliveredAmounts(ctx, ids)
	if err != nil {
		return nil, mapError(err, "load delivered orders")
	}
	for _, amount := range amounts {
		if acc, ok := accumulators[amount.VendorID]; ok {
			acc.Add(amount.TotalAmount)
		}
	}

	out := make([]vendorTotals, 0, len(unique))
	for _, vendor := range unique {
		out = append(out, vendorTotals{vendor: vendor, totals: accumulators[vendor.ID].Totals()})
	}
	return out, nil
}

// CreatePayout settles the vendor's delivered orders that no earlier payout
// covers into one pending payout. The orders are assigned to the payout in
// the same transaction, so each order is paid out at most once.
func (s *Service) CreatePayout(ctx context.Context, actor authz.Actor, vendorID uuid.UUID) (*PayoutDTO, error) {
	if !authz.IsAdmin(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	vendor, err := s.vendors.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, mapError(err, "load vendor")
	}
	if vendor.DeletedAt.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	rate := ledger.EffectiveRate(vendor.CommissionRate, s.defaultRate)

	var payout *models.Payout
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		amounts, err := repo.ListUnsettledAmounts(ctx, vendorID)
		if err != nil {
			return err
		}
		if len(amounts) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor has no unsettled delivered orders").
				WithDetails(map[string]any{"vendor_id": vendorID})
		}
		acc := ledger.NewAccumulator(rate)
		orderIDs := make([]uuid.UUID, 0, len(amounts))
		for _, amount := range amounts {
			acc.Add(amount.TotalAmount)
			orderIDs = append(orderIDs, amount.ID)
		}
		totals := acc.Totals()

		now := s.now()
		payout = &models.Payout{
			ID:               uuid.New(),
			VendorID:         vendorID,
			OrderCount:       totals.Count,
			GrossAmount:      totals.Gross,
			CommissionRate:   totals.Rate,
			CommissionAmount: totals.Commission,
			PayoutAmount:     totals.Net,
			Status:           enums.PayoutStatusPending,
			CreatedBy:        actor.ID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := repo.CreatePayout(ctx, payout); err != nil {
			return err
		}
		return repo.AssignOrders(ctx, payout.ID, orderIDs)
	})
	if err != nil {
		return nil, mapError(err, "create payout")
	}
	s.metrics.IncStatus(string(payout.Status))

	logCtx := s.logg.WithVendorID(s.logg.WithUserID(ctx, actor.ID.String()), vendorID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"payout_id":   payout.ID.String(),
		"order_count": payout.OrderCount,
	})
	s.logg.Info(logCtx, "payout.created")
	dto := toPayoutDTO(payout)
	return &dto, nil
}

// RecordPayoutAction appends an audit entry. Entries are never edited.
func (s *Service) RecordPayoutAction(ctx context.Context, actor authz.Actor, payoutID uuid.UUID, action enums.PayoutAction, note *string) (*PayoutLogDTO, error) {
	if !authz.IsAdmin(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout action").
			WithDetails(map[string]any{"action": action})
	}
	cleaned, err := normalizeNote(note)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPayout(ctx, payoutID); err != nil {
		return nil, mapError(err, "load payout")
	}

	entry := &models.PayoutLog{
		ID:          uuid.New(),
		PayoutID:    payoutID,
		Action:      action,
		AdminUserID: actor.ID,
		Note:        cleaned,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateLog(ctx, entry); err != nil {
		return nil, mapError(err, "record payout action")
	}
	dto := toLogDTO(*entry)
	return &dto, nil
}

// UpdatePayoutStatus moves a payout along pending → scheduled → paid. Paying
// out records a vendor_payout ledger event and an audit entry in the same
// transaction.
func (s *Service) UpdatePayoutStatus(ctx context.Context, actor authz.Actor, payoutID uuid.UUID, input UpdatePayoutInput) (*PayoutDTO, error) {
	if !authz.IsAdmin(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status").
			WithDetails(map[string]any{"status": input.Status})
	}

	var updated *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payout, err := repo.GetPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		if !CanTransition(payout.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "payout status change not allowed").
				WithDetails(map[string]any{"field": "status", "from": payout.Status, "to": input.Status})
		}

		now := s.now()
		expected := payout.Status
		payout.Status = input.Status
		payout.UpdatedAt = now
		if input.UTRNumber != nil {
			if utr := strings.TrimSpace(*input.UTRNumber); utr != "" {
				payout.UTRNumber = &utr
			}
		}
		if input.Status == enums.PayoutStatusPaid {
			paidOn := now
			if input.PaidOn != nil {
				paidOn = input.PaidOn.UTC()
			}
			payout.PaidOn = &paidOn
		}
		if err := repo.UpdatePayoutStatus(ctx, payout, expected); err != nil {
			return err
		}

		if action, ok := logActionFor(payout.Status); ok {
			if err := repo.CreateLog(ctx, &models.PayoutLog{
				ID:          uuid.New(),
				PayoutID:    payout.ID,
				Action:      action,
				AdminUserID: actor.ID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}
		if payout.Status == enums.PayoutStatusPaid {
			if err := s.recordPayoutLedger(ctx, tx, actor, payout); err != nil {
				return err
			}
		}
		updated = payout
		return nil
	})
	if err != nil {
		return nil, mapError(err, "update payout status")
	}

	s.metrics.IncStatus(string(updated.Status))
	if updated.Status == enums.PayoutStatusPaid {
		s.metrics.AddPaid(updated.PayoutAmount)
	}
	logCtx := s.logg.WithVendorID(s.logg.WithUserID(ctx, actor.ID.String()), updated.VendorID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"payout_id": updated.ID.String(),
		"status":    string(updated.Status),
	})
	s.logg.Info(logCtx, "payout.status.updated")

	dto := toPayoutDTO(updated)
	return &dto, nil
}

// ListPayouts lists payouts newest first. Vendors see their own; admins may
// filter by vendor or see all.
func (s *Service) ListPayouts(ctx context.Context, actor authz.Actor, vendorID *uuid.UUID) ([]PayoutDTO, error) {
	switch {
	case authz.IsAdmin(actor):
	case actor.Role == enums.ActorRoleVendor && actor.VendorID != nil:
		if vendorID != nil && *vendorID != *actor.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor not accessible")
		}
		vendorID = actor.VendorID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payouts not accessible")
	}
	payouts, err := s.repo.ListPayouts(ctx, vendorID)
	if err != nil {
		return nil, mapError(err, "list payouts")
	}
	out := make([]PayoutDTO, 0, len(payouts))
	for i := range payouts {
		out = append(out, toPayoutDTO(&payouts[i]))
	}
	return out, nil
}

// ListPayoutLogs returns the audit trail oldest first.
func (s *Service) ListPayoutLogs(ctx context.Context, actor authz.Actor, payoutID uuid.UUID) ([]PayoutLogDTO, error) {
	if !authz.IsAdmin(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if _, err := s.repo.GetPayout(ctx, payoutID); err != nil {
		return nil, mapError(err, "load payout")
	}
	logs, err := s.repo.ListLogs(ctx, payoutID)
	if err != nil {
		return nil, mapError(err, "list payout logs")
	}
	out := make([]PayoutLogDTO, 0, len(logs))
	for _, entry := range logs {
		out = append(out, toLogDTO(entry))
	}
	return out, nil
}

func (s *Service) recordPayoutLedger(ctx context.Context, tx *gorm.DB, actor authz.Actor, payout *models.Payout) error {
	metadata, err := json.Marshal(map[string]any{
		"gross_amount":      payout.GrossAmount.StringFixed(ledger.MoneyPlaces),
		"commission_amount": payout.CommissionAmount.StringFixed(ledger.MoneyPlaces),
		"utr_number":        payout.UTRNumber,
	})
	if err != nil {
		return err
	}
	payoutID := payout.ID
	_, err = s.ledger.RecordEvent(ctx, tx, ledger.RecordLedgerEventInput{
		PayoutID:    &payoutID,
		VendorID:    payout.VendorID,
		ActorUserID: actor.ID,
		Type:        enums.LedgerEventTypeVendorPayout,
		Amount:      payout.PayoutAmount,
		Metadata:    metadata,
	})
	return err
}

func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note is too long").
			WithDetails(map[string]any{"max_length": maxNoteLength})
	}
	return &trimmed, nil
}

func mapError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "not found")
	case errors.Is(err, ErrStatusChanged):
		return pkgerrors.New(pkgerrors.CodeConflict, "payout was modified concurrently")
	case errors.Is(err, ErrOrdersSettled):
		return pkgerrors.New(pkgerrors.CodeConflict, "orders were settled by another payout")
	case db.IsCheckViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, action+" rejected by a data constraint")
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, action+" references a missing record")
	case db.IsTimeout(err):
		return pkgerrors.Wrap(pkgerrors.CodeTransient, err, action+" timed out")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeTransient, err, action)
	}
}

type nopMetrics struct{}

func (nopMetrics) IncStatus(string)        {}
func (nopMetrics) AddPaid(decimal.Decimal) {}
