package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/platehub-backend/internal/authz"
	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

// Service exposes vendor configuration operations.
type Service interface {
	GetVendor(ctx context.Context, vendorID uuid.UUID) (*VendorDTO, error)
	ListVendors(ctx context.Context, actor authz.Actor) ([]VendorDTO, error)
	SetCommissionRate(ctx context.Context, actor authz.Actor, vendorID uuid.UUID, rawRate *decimal.Decimal) (*VendorDTO, error)
	SetOpen(ctx context.Context, actor authz.Actor, vendorID uuid.UUID, open bool) (*VendorDTO, error)
}

type service struct {
	repo        Repository
	defaultRate decimal.Decimal
	logg        *logger.Logger
}

// NewService builds a vendor service. defaultRate is the platform fallback
// commission used when a vendor has none configured.
func NewService(repo Repository, defaultRate decimal.Decimal, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if err := ledger.ValidateRate(defaultRate); err != nil {
		return nil, err
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, defaultRate: defaultRate, logg: logg}, nil
}

func (s *service) GetVendor(ctx context.Context, vendorID uuid.UUID) (*VendorDTO, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	vendor, err := s.repo.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, mapError(err, "load vendor")
	}
	if vendor.DeletedAt.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	dto := toDTO(vendor, s.effectiveRate(vendor.CommissionRate))
	return &dto, nil
}

func (s *service) ListVendors(ctx context.Context, actor authz.Actor) ([]VendorDTO, error) {
	if !authz.IsAdmin(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	vendors, err := s.repo.ListVendors(ctx, false)
	if err != nil {
		return nil, mapError(err, "list vendors")
	}
	out := make([]VendorDTO, 0, len(vendors))
	for i := range vendors {
		out = append(out, toDTO(&vendors[i], s.effectiveRate(vendors[i].CommissionRate)))
	}
	return out, nil
}

// SetCommissionRate stores an admin supplied rate after percent-to-fraction
// normalization. A nil rate clears the override.
func (s *service) SetCommissionRate(ctx context.Context, actor authz.Actor, vendorID uuid.UUID, rawRate *decimal.Decimal) (*VendorDTO, error) {
	if !authz.IsAdmin(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	var rate *decimal.Decimal
	if rawRate != nil {
		normalized := ledger.NormalizeCommissionRate(*rawRate)
		rate = &normalized
	}
	if err := s.repo.UpdateCommissionRate(ctx, vendorID, rate); err != nil {
		return nil, mapError(err, "update commission rate")
	}

	logCtx := s.logg.WithVendorID(s.logg.WithUserID(ctx, actor.ID.String()), vendorID.String())
	if rate != nil {
		logCtx = s.logg.WithField(logCtx, "commission_rate", rate.String())
	}
	s.logg.Info(logCtx, "vendor.commission_rate.updated")
	return s.GetVendor(ctx, vendorID)
}

func (s *service) SetOpen(ctx context.Context, actor authz.Actor, vendorID uuid.UUID, open bool) (*VendorDTO, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if !authz.CanManageVendor(actor, vendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor not accessible")
	}
	if err := s.repo.UpdateOpen(ctx, vendorID, open); err != nil {
		return nil, mapError(err, "update vendor open flag")
	}
	return s.GetVendor(ctx, vendorID)
}

func (s *service) effectiveRate(rate *decimal.Decimal) string {
	return ledger.EffectiveRate(rate, s.defaultRate).String()
}

func mapError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	if db.IsCheckViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, action+" rejected by a data constraint")
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransient, err, action)
}
