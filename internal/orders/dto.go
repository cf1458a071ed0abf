package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// OrderFilters describe the inputs supported by the order lists.
type OrderFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// OrderPage is one page of orders plus the cursor for the next one.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}

// CreateOrderInput carries the customer's order request.
type CreateOrderInput struct {
	VendorID      uuid.UUID
	Items         []ItemInput
	PaymentMethod enums.PaymentMethod
	Notes         *string
}

// ItemInput references a menu item and a quantity.
type ItemInput struct {
	MenuItemID uuid.UUID `json:"menu_item_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1,max=100"`
}

// ListOrdersInput narrows the list endpoint. VendorID is honoured for admins only.
type ListOrdersInput struct {
	VendorID *uuid.UUID
	Filters  OrderFilters
	Limit    int
	Cursor   string
}

// PaymentInput identifies a payment-axis request.
type PaymentInput struct {
	OrderID        uuid.UUID
	IdempotencyKey string
}

// RateOrderInput carries post-delivery feedback.
type RateOrderInput struct {
	OrderID uuid.UUID
	Rating  float64
	Review  *string
}

// ReviseItemsInput replaces the items of a pending order.
type ReviseItemsInput struct {
	OrderID uuid.UUID
	Items   []ItemInput
}

// OrderDTO is the public shape of an order.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	RefundStatus  enums.RefundStatus  `json:"refund_status"`
	TotalAmount   string              `json:"total_amount"`
	Notes         *string             `json:"notes,omitempty"`
	Rating        *float64            `json:"rating,omitempty"`
	Review        *string             `json:"review,omitempty"`
	RatedAt       *time.Time          `json:"rated_at,omitempty"`
	IsRated       bool                `json:"is_rated"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	DeliveredAt   *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	PayoutID      *uuid.UUID          `json:"payout_id,omitempty"`
	Version       int64               `json:"version"`
	Items         []LineItemDTO       `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// LineItemDTO is the public shape of an order line.
type LineItemDTO struct {
	ID           uuid.UUID `json:"id"`
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	PriceAtOrder string    `json:"price_at_order"`
	LineTotal    string    `json:"line_total"`
}

// OrderList wraps a page of orders for the API.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// StatusChangedEvent is the payload sent when either axis moves.
type StatusChangedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	ActorID       uuid.UUID           `json:"actor_id"`
	ActorRole     enums.ActorRole     `json:"actor_role"`
}

// ToDTO converts a persisted order.
func ToDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		VendorID:      order.VendorID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		RefundStatus:  order.RefundStatus,
		TotalAmount:   formatMoney(order.TotalAmount),
		Notes:         order.Notes,
		Rating:        order.Rating,
		Review:        order.Review,
		RatedAt:       order.RatedAt,
		IsRated:       order.IsRated,
		PaidAt:        order.PaidAt,
		DeliveredAt:   order.DeliveredAt,
		CancelledAt:   order.CancelledAt,
		PayoutID:      order.PayoutID,
		Version:       order.Version,
		Items:         make([]LineItemDTO, 0, len(order.Items)),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			ID:           item.ID,
			MenuItemID:   item.MenuItemID,
			Name:         item.Name,
			Quantity:     item.Quantity,
			PriceAtOrder: formatMoney(item.PriceAtOrder),
			LineTotal:    formatMoney(item.LineTotal),
		})
	}
	return dto
}

func formatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
