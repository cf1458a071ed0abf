package enums

import "fmt"

// LedgerEventType maps to the ledger_event_type column.
type LedgerEventType string

const (
	LedgerEventTypePaymentCaptured LedgerEventType = "payment_captured"
	LedgerEventTypeRefund          LedgerEventType = "refund"
	LedgerEventTypeVendorPayout    LedgerEventType = "vendor_payout"
)

var validLedgerEventTypes = []LedgerEventType{
	LedgerEventTypePaymentCaptured,
	LedgerEventTypeRefund,
	LedgerEventTypeVendorPayout,
}

// IsValid reports whether the value is a known LedgerEventType.
func (t LedgerEventType) IsValid() bool {
	for _, candidate := range validLedgerEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEventType converts raw input into a LedgerEventType.
func ParseLedgerEventType(value string) (LedgerEventType, error) {
	for _, candidate := range validLedgerEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger event type %q", value)
}
