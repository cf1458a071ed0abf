package vendors

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
)

// VendorDTO is the public shape of a vendor.
type VendorDTO struct {
	ID                      uuid.UUID `json:"id"`
	Name                    string    `json:"name"`
	IsOpen                  bool      `json:"is_open"`
	CommissionRate          *string   `json:"commission_rate,omitempty"`
	EffectiveCommissionRate string    `json:"effective_commission_rate"`
}

func toDTO(vendor *models.Vendor, effective string) VendorDTO {
	dto := VendorDTO{
		ID:                      vendor.ID,
		Name:                    vendor.Name,
		IsOpen:                  vendor.IsOpen,
		EffectiveCommissionRate: effective,
	}
	if vendor.CommissionRate != nil {
		rate := vendor.CommissionRate.String()
		dto.CommissionRate = &rate
	}
	return dto
}
