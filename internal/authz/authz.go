// Package authz holds the role and ownership predicates shared by the order
// and payout services. Every function is pure; callers turn a false result
// into a FORBIDDEN error.
package authz

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

// Actor is the authenticated caller as resolved at the transport boundary.
type Actor struct {
	ID       uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
}

// Ownership is the pair of foreign keys that decide access to an order.
type Ownership struct {
	CustomerID uuid.UUID
	VendorID   uuid.UUID
}

// Direction separates customer-initiated payment moves from vendor-initiated ones.
type Direction int

const (
	DirectionCustomer Direction = iota
	DirectionVendor
)

// IsAdmin reports whether the actor carries the admin override.
func IsAdmin(actor Actor) bool {
	return actor.Role == enums.ActorRoleAdmin
}

// OwnsVendor reports whether the actor is the vendor identified by vendorID.
func OwnsVendor(actor Actor, vendorID uuid.UUID) bool {
	return actor.Role == enums.ActorRoleVendor &&
		actor.VendorID != nil &&
		*actor.VendorID != uuid.Nil &&
		*actor.VendorID == vendorID
}

// OwnsOrder reports whether the actor is the customer who placed the order.
func OwnsOrder(actor Actor, order Ownership) bool {
	return actor.ID != uuid.Nil && actor.ID == order.CustomerID
}

func CanTransitionFulfillment(actor Actor, order Ownership) bool {
	return IsAdmin(actor) || OwnsVendor(actor, order.VendorID)
}

func CanTransitionPayment(actor Actor, order Ownership, direction Direction) bool {
	switch direction {
	case DirectionCustomer:
		return OwnsOrder(actor, order)
	case DirectionVendor:
		return IsAdmin(actor) || OwnsVendor(actor, order.VendorID)
	default:
		return false
	}
}

func CanViewOrder(actor Actor, order Ownership) bool {
	return IsAdmin(actor) || OwnsOrder(actor, order) || OwnsVendor(actor, order.VendorID)
}

// CanManageVendor covers vendor-scoped settings such as the open flag.
func CanManageVendor(actor Actor, vendorID uuid.UUID) bool {
	return IsAdmin(actor) || OwnsVendor(actor, vendorID)
}
