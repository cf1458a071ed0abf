package payouts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// Summary is the payout view of one vendor's delivered orders.
type Summary struct {
	VendorID       uuid.UUID `json:"vendor_id"`
	VendorName     string    `json:"vendor_name"`
	PaidOrders     int       `json:"paid_orders"`
	GrossPaid      string    `json:"gross_paid"`
	CommissionRate string    `json:"commission_rate"`
	Commission     string    `json:"commission"`
	NetOwed        string    `json:"net_owed"`
}

// UpdatePayoutInput carries an admin settlement update.
type UpdatePayoutInput struct {
	Status    enums.PayoutStatus `json:"status" validate:"required"`
	PaidOn    *time.Time         `json:"paid_on,omitempty"`
	UTRNumber *string            `json:"utr_number,omitempty" validate:"omitempty,max=64"`
}

// PayoutDTO is the public shape of a payout.
type PayoutDTO struct {
	ID               uuid.UUID          `json:"id"`
	VendorID         uuid.UUID          `json:"vendor_id"`
	OrderCount       int                `json:"order_count"`
	GrossAmount      string             `json:"gross_amount"`
	CommissionRate   string             `json:"commission_rate"`
	CommissionAmount string             `json:"commission_amount"`
	PayoutAmount     string             `json:"payout_amount"`
	Status           enums.PayoutStatus `json:"status"`
	PaidOn           *time.Time         `json:"paid_on,omitempty"`
	UTRNumber        *string            `json:"utr_number,omitempty"`
	CreatedBy        uuid.UUID          `json:"created_by"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// PayoutLogDTO is the public shape of an audit entry.
type PayoutLogDTO struct {
	ID          uuid.UUID          `json:"id"`
	PayoutID    uuid.UUID          `json:"payout_id"`
	Action      enums.PayoutAction `json:"action"`
	AdminUserID uuid.UUID          `json:"admin_user_id"`
	Note        *string            `json:"note,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toSummary(vendor models.Vendor, totals ledger.Totals) Summary {
	return Summary{
		VendorID:       vendor.ID,
		VendorName:     vendor.Name,
		PaidOrders:     totals.Count,
		GrossPaid:      totals.Gross.StringFixed(ledger.MoneyPlaces),
		CommissionRate: totals.Rate.String(),
		Commission:     totals.Commission.StringFixed(ledger.MoneyPlaces),
		NetOwed:        totals.Net.StringFixed(ledger.MoneyPlaces),
	}
}

func toPayoutDTO(payout *models.Payout) PayoutDTO {
	return PayoutDTO{
		ID:               payout.ID,
		VendorID:         payout.VendorID,
		OrderCount:       payout.OrderCount,
		GrossAmount:      payout.GrossAmount.StringFixed(ledger.MoneyPlaces),
		CommissionRate:   payout.CommissionRate.String(),
		CommissionAmount: payout.CommissionAmount.StringFixed(ledger.MoneyPlaces),
		PayoutAmount:     payout.PayoutAmount.StringFixed(ledger.MoneyPlaces),
		Status:           payout.Status,
		PaidOn:           payout.PaidOn,
		UTRNumber:        payout.UTRNumber,
		CreatedBy:        payout.CreatedBy,
		CreatedAt:        payout.CreatedAt,
		UpdatedAt:        payout.UpdatedAt,
	}
}

func toLogDTO(entry models.PayoutLog) PayoutLogDTO {
	return PayoutLogDTO{
		ID:          entry.ID,
		PayoutID:    entry.PayoutID,
		Action:      entry.Action,
		AdminUserID: entry.AdminUserID,
		Note:        entry.Note,
		CreatedAt:   entry.CreatedAt,
	}
}
