package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/liguepro/billing/pkg/plan"
)

// Kind identifies a billing lifecycle notification.
type Kind string

const (
	KindActivated Kind = "subscription_activated"
	KindOverdue   Kind = "payment_overdue"
	KindCanceled  Kind = "subscription_canceled"
)

// Notification describes a billing state change worth telling the user about.
type Notification struct {
	Kind      Kind
	AccountID uuid.UUID
	Tier      plan.Tier
}

// Notifier delivers billing notifications. Implementations must be safe for
// concurrent use; delivery failures are the caller's to log, never to retry
// inside a state transition.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// RecipientResolver maps an account id to its contact email, typically the
// billing contact captured at checkout.
type RecipientResolver func(ctx context.Context, accountID uuid.UUID) (string, error)
