package enums

import "fmt"

// NotificationEvent maps to the notifications.event column.
type NotificationEvent string

const (
	NotificationEventOrderCreated         NotificationEvent = "order_created"
	NotificationEventOrderStatusChanged   NotificationEvent = "order_status_changed"
	NotificationEventPaymentStatusChanged NotificationEvent = "payment_status_changed"
	NotificationEventOrderCancelled       NotificationEvent = "order_cancelled"
	NotificationEventOrderRated           NotificationEvent = "order_rated"
)

var validNotificationEvents = []NotificationEvent{
	NotificationEventOrderCreated,
	NotificationEventOrderStatusChanged,
	NotificationEventPaymentStatusChanged,
	NotificationEventOrderCancelled,
	NotificationEventOrderRated,
}

// String implements fmt.Stringer.
func (e NotificationEvent) String() string {
	return string(e)
}

// IsValid reports whether the value is a known NotificationEvent.
func (e NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw input into a NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}
