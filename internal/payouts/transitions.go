package payouts

import (
	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

var statusEdges = map[enums.PayoutStatus][]enums.PayoutStatus{
	enums.PayoutStatusPending:   {enums.PayoutStatusScheduled, enums.PayoutStatusPaid},
	enums.PayoutStatusScheduled: {enums.PayoutStatusPaid},
}

// CanTransition reports whether a payout may move from current to target.
// Paid is terminal.
func CanTransition(current, target enums.PayoutStatus) bool {
	for _, next := range statusEdges[current] {
		if next == target {
			return true
		}
	}
	return false
}

// logActionFor names the audit entry written alongside a status change.
func logActionFor(status enums.PayoutStatus) (enums.PayoutAction, bool) {
	switch status {
	case enums.PayoutStatusScheduled:
		return enums.PayoutActionScheduled, true
	case enums.PayoutStatusPaid:
		return enums.PayoutActionPaid, true
	default:
		return "", false
	}
}
