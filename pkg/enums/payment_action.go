package enums

import "fmt"

// PaymentAction names a requested move on the payment axis.
type PaymentAction string

const (
	PaymentActionStart    PaymentAction = "start"
	PaymentActionSucceed  PaymentAction = "succeed"
	PaymentActionFail     PaymentAction = "fail"
	PaymentActionMarkPaid PaymentAction = "mark_paid"
	PaymentActionRefund   PaymentAction = "refund"
)

var validPaymentActions = []PaymentAction{
	PaymentActionStart,
	PaymentActionSucceed,
	PaymentActionFail,
	PaymentActionMarkPaid,
	PaymentActionRefund,
}

// String implements fmt.Stringer.
func (a PaymentAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known PaymentAction.
func (a PaymentAction) IsValid() bool {
	for _, candidate := range validPaymentActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParsePaymentAction converts raw input into a PaymentAction.
func ParsePaymentAction(value string) (PaymentAction, error) {
	for _, candidate := range validPaymentActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment action %q", value)
}
