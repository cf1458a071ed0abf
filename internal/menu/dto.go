package menu

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
)

// ItemDTO is the public shape of a menu item.
type ItemDTO struct {
	ID          uuid.UUID `json:"id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	IsAvailable bool      `json:"is_available"`
}

// ToDTOs converts persisted menu items for the API.
func ToDTOs(items []models.MenuItem) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, ItemDTO{
			ID:          item.ID,
			VendorID:    item.VendorID,
			Name:        item.Name,
			Price:       item.Price.StringFixed(2),
			IsAvailable: item.IsAvailable,
		})
	}
	return out
}
