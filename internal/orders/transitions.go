package orders

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/platehub-backend/internal/authz"
	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
)

const (
	MinRating       = 1.0
	MaxRating       = 5.0
	ratingPlaces    = 1
	maxReviewLength = 2000
)

var fulfillmentEdges = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:  {enums.OrderStatusAccepted, enums.OrderStatusRejected},
	enums.OrderStatusAccepted: {enums.OrderStatusReady, enums.OrderStatusRejected},
	enums.OrderStatusReady:    {enums.OrderStatusDelivered},
}

type paymentRule struct {
	from      []enums.PaymentStatus
	to        enums.PaymentStatus
	direction authz.Direction
}

var paymentRules = map[enums.PaymentAction]paymentRule{
	enums.PaymentActionStart: {
		from:      []enums.PaymentStatus{enums.PaymentStatusUnpaid, enums.PaymentStatusFailed},
		to:        enums.PaymentStatusProcessing,
		direction: authz.DirectionCustomer,
	},
	enums.PaymentActionSucceed: {
		from:      []enums.PaymentStatus{enums.PaymentStatusProcessing},
		to:        enums.PaymentStatusPaid,
		direction: authz.DirectionCustomer,
	},
	enums.PaymentActionFail: {
		from:      []enums.PaymentStatus{enums.PaymentStatusProcessing},
		to:        enums.PaymentStatusFailed,
		direction: authz.DirectionCustomer,
	},
	enums.PaymentActionMarkPaid: {
		from:      []enums.PaymentStatus{enums.PaymentStatusUnpaid, enums.PaymentStatusProcessing, enums.PaymentStatusFailed},
		to:        enums.PaymentStatusPaid,
		direction: authz.DirectionVendor,
	},
	enums.PaymentActionRefund: {
		from:      []enums.PaymentStatus{enums.PaymentStatusPaid},
		to:        enums.PaymentStatusRefunded,
		direction: authz.DirectionVendor,
	},
}

// CanTransitionFulfillment reports whether target is one step from current.
func CanTransitionFulfillment(current, target enums.OrderStatus) bool {
	for _, next := range fulfillmentEdges[current] {
		if next == target {
			return true
		}
	}
	return false
}

// PaymentDirection reports who may request the action.
func PaymentDirection(action enums.PaymentAction) (authz.Direction, bool) {
	rule, ok := paymentRules[action]
	return rule.direction, ok
}

// ApplyFulfillment moves the order along the fulfillment axis.
func ApplyFulfillment(order *models.Order, target enums.OrderStatus, now time.Time) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": target})
	}
	if !CanTransitionFulfillment(order.Status, target) {
		return invalidTransition("status", string(order.Status), string(target))
	}
	order.Status = target
	if target == enums.OrderStatusDelivered {
		order.DeliveredAt = &now
	}
	return nil
}

// PaymentTarget resolves the status a payment action leads to from the
// order's current state without mutating it.
func PaymentTarget(order *models.Order, action enums.PaymentAction) (enums.PaymentStatus, error) {
	rule, ok := paymentRules[action]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown payment action").
			WithDetails(map[string]any{"action": action})
	}
	// Cash orders only settle through the vendor.
	if rule.direction == authz.DirectionCustomer && order.PaymentMethod.IsCashOnDelivery() {
		return "", invalidTransition("payment_status", string(order.PaymentStatus), string(rule.to)).
			WithDetails(map[string]any{
				"field":          "payment_status",
				"from":           order.PaymentStatus,
				"to":             rule.to,
				"payment_method": order.PaymentMethod,
			})
	}
	for _, from := range rule.from {
		if order.PaymentStatus == from {
			return rule.to, nil
		}
	}
	return "", invalidTransition("payment_status", string(order.PaymentStatus), string(rule.to))
}

// ApplyPayment moves the order along the payment axis.
func ApplyPayment(order *models.Order, action enums.PaymentAction, now time.Time) error {
	target, err := PaymentTarget(order, action)
	if err != nil {
		return err
	}
	order.PaymentStatus = target
	switch target {
	case enums.PaymentStatusPaid:
		order.PaidAt = &now
	case enums.PaymentStatusRefunded:
		order.RefundStatus = enums.RefundStatusSuccess
	}
	return nil
}

// ApplyRating records post-delivery feedback exactly once. The stored rating
// is rounded half away from zero to one decimal place.
func ApplyRating(order *models.Order, rating float64, review *string, now time.Time) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) || rating < MinRating || rating > MaxRating {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").
			WithDetails(map[string]any{"field": "rating", "min": MinRating, "max": MaxRating})
	}
	if review != nil && len(*review) > maxReviewLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "review is too long").
			WithDetails(map[string]any{"max_length": maxReviewLength})
	}
	if order.Status != enums.OrderStatusDelivered {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "only delivered orders can be rated").
			WithDetails(map[string]any{"field": "rating", "status": order.Status})
	}
	if order.IsRated {
		return pkgerrors.New(pkgerrors.CodeAlreadyRated, "order already rated")
	}

	value, _ := decimal.NewFromFloat(rating).Round(ratingPlaces).Float64()
	order.Rating = &value
	if review != nil {
		trimmed := strings.TrimSpace(*review)
		if trimmed != "" {
			order.Review = &trimmed
		}
	}
	order.RatedAt = &now
	order.IsRated = true
	return nil
}

// ApplyCancel withdraws a pending order. Paid orders are flagged for refund.
func ApplyCancel(order *models.Order, now time.Time) error {
	if order.Status != enums.OrderStatusPending {
		return invalidTransition("status", string(order.Status), string(enums.OrderStatusRejected)).
			WithDetails(map[string]any{"field": "status", "from": order.Status, "operation": "cancel"})
	}
	order.Status = enums.OrderStatusRejected
	order.CancelledAt = &now
	if order.PaymentStatus == enums.PaymentStatusPaid {
		order.RefundStatus = enums.RefundStatusPending
	}
	return nil
}

// ReviseItems replaces the line items and recomputes the total in one step.
func ReviseItems(order *models.Order, lines []models.OrderLineItem) error {
	if order.Status != enums.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "items can only change while the order is pending").
			WithDetails(map[string]any{"field": "items", "status": order.Status})
	}
	if order.PaymentStatus != enums.PaymentStatusUnpaid && order.PaymentStatus != enums.PaymentStatusFailed {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "items cannot change once payment started").
			WithDetails(map[string]any{"field": "items", "payment_status": order.PaymentStatus})
	}
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyOrder, "order must contain at least one item")
	}
	total, err := SumLines(lines)
	if err != nil {
		return err
	}
	for i := range lines {
		lines[i].OrderID = order.ID
		lines[i].Position = i
	}
	order.Items = lines
	order.TotalAmount = total
	return nil
}

// BuildLine prices a menu item snapshot into an order line.
func BuildLine(item models.MenuItem, quantity int) (models.OrderLineItem, error) {
	if quantity <= 0 {
		return models.OrderLineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"menu_item_id": item.ID, "quantity": quantity})
	}
	if item.Price.IsNegative() {
		return models.OrderLineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "menu item price is negative").
			WithDetails(map[string]any{"menu_item_id": item.ID})
	}
	price := ledger.RoundMoney(item.Price)
	return models.OrderLineItem{
		MenuItemID:   item.ID,
		Name:         item.Name,
		Quantity:     quantity,
		PriceAtOrder: price,
		LineTotal:    ledger.LineTotal(price, quantity),
	}, nil
}

// SumLines totals line items. The result is never negative.
func SumLines(lines []models.OrderLineItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(ledger.LineTotal(line.PriceAtOrder, line.Quantity))
	}
	if total.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative")
	}
	return ledger.RoundMoney(total), nil
}

func invalidTransition(field, from, to string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot move %s from %s to %s", field, from, to)).
		WithDetails(map[string]any{"field": field, "from": from, "to": to})
}
