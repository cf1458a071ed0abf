package enums

import "fmt"

// PayoutAction labels an entry in the payout audit trail.
type PayoutAction string

const (
	PayoutActionScheduled PayoutAction = "scheduled"
	PayoutActionPaid      PayoutAction = "paid"
	PayoutActionNote      PayoutAction = "note"
)

var validPayoutActions = []PayoutAction{
	PayoutActionScheduled,
	PayoutActionPaid,
	PayoutActionNote,
}

// IsValid reports whether the value is a known PayoutAction.
func (a PayoutAction) IsValid() bool {
	for _, candidate := range validPayoutActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParsePayoutAction converts raw input into a PayoutAction.
func ParsePayoutAction(value string) (PayoutAction, error) {
	for _, candidate := range validPayoutActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout action %q", value)
}
