package subscription

import "errors"

var (
	// ErrUnauthorized means the webhook credential check failed. Permanent:
	// the caller should not re-drive the delivery.
	ErrUnauthorized = errors.New("webhook credential rejected")

	// ErrMalformedEvent means the webhook payload could not be decoded at all.
	// Unknown event *types* are not malformed; they are acknowledged and ignored.
	ErrMalformedEvent = errors.New("malformed webhook payload")

	// ErrCheckoutConflict means a checkout for a different tier is already pending.
	ErrCheckoutConflict = errors.New("checkout already pending for a different tier")

	// ErrGatewayFailed wraps payment-provider failures surfaced from
	// StartCheckout and Cancel; local state is unchanged and the caller may retry.
	ErrGatewayFailed = errors.New("payment gateway call failed")
)
