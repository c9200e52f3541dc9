package subscription

import (
	"time"
)

// EventType is the normalized billing event vocabulary. Provider strings are
// mapped here at ingestion; anything unmapped flows through as-is and is
// ignored by the transition function, so a growing provider vocabulary can
// never break ingestion.
type EventType string

const (
	EventPaymentConfirmed     EventType = "payment_confirmed"
	EventPaymentReceived      EventType = "payment_received"
	EventPaymentOverdue       EventType = "payment_overdue"
	EventPaymentRefunded      EventType = "payment_refunded"
	EventSubscriptionDeleted  EventType = "subscription_deleted"
	EventSubscriptionCanceled EventType = "subscription_canceled"
)

// Event is a provider-originated billing notification, normalized.
type Event struct {
	Type                   EventType
	ProviderEvent          string // original provider event name
	ExternalSubscriptionID string
	PaymentID              string // opaque, used for dedup and audit
	ReceivedAt             time.Time
}

// Confirmation reports whether the event settles a payment.
func (e Event) Confirmation() bool {
	return e.Type == EventPaymentConfirmed || e.Type == EventPaymentReceived
}

// Terminal reports whether the event ends the subscription.
func (e Event) Terminal() bool {
	switch e.Type {
	case EventPaymentRefunded, EventSubscriptionDeleted, EventSubscriptionCanceled:
		return true
	}
	return false
}

// dedupKey identifies one logical delivery: the same payment produces
// distinct confirmed/received events, so the type participates in the key.
func (e Event) dedupKey() string {
	return string(e.Type) + ":" + e.PaymentID
}

// mapEventType normalizes the provider's event names.
func mapEventType(providerEvent string) EventType {
	switch providerEvent {
	case "PAYMENT_CONFIRMED":
		return EventPaymentConfirmed
	case "PAYMENT_RECEIVED":
		return EventPaymentReceived
	case "PAYMENT_OVERDUE":
		return EventPaymentOverdue
	case "PAYMENT_REFUNDED":
		return EventPaymentRefunded
	case "SUBSCRIPTION_DELETED":
		return EventSubscriptionDeleted
	case "SUBSCRIPTION_CANCELED", "SUBSCRIPTION_CANCELLED":
		return EventSubscriptionCanceled
	default:
		return EventType(providerEvent)
	}
}
