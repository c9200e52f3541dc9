package gateway

import (
	"context"
	"time"
)

// Provider is the payment-gateway boundary the billing engine drives.
//
// Implementations talk to the external provider; any transport or
// provider-side failure surfaces as an error joined with ErrUnavailable so
// callers can treat it as retryable. The engine never lets a provider
// failure disturb already-committed local state.
type Provider interface {
	// CreateCustomer registers the account at the provider and returns the
	// provider's opaque customer id. Called at most once per account.
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)

	// CreateSubscription opens a recurring subscription for the customer and
	// returns the provider's opaque subscription id.
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (string, error)

	// PendingPaymentLink returns the payment URL for the subscription's open
	// charge, or "" when nothing is awaiting payment.
	PendingPaymentLink(ctx context.Context, subscriptionID string) (string, error)

	// DeleteSubscription cancels the subscription at the provider.
	// Must return an error when the provider did not confirm the deletion.
	DeleteSubscription(ctx context.Context, subscriptionID string) error
}

// Cycle is the provider-side billing cadence.
type Cycle string

const CycleMonthly Cycle = "MONTHLY"

// CustomerRequest carries the fields the provider needs to register a payer.
type CustomerRequest struct {
	Name  string
	Email string
	Phone string
	TaxID string // CPF/CNPJ or equivalent fiscal id
}

// SubscriptionRequest describes the recurring charge to open.
type SubscriptionRequest struct {
	CustomerID  string
	PlanID      string // internal tier name, used by providers that map to catalog prices
	AmountCents int64
	Currency    string
	Cycle       Cycle
	StartDate   time.Time // first due date
}
