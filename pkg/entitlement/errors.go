package entitlement

import "errors"

var (
	// ErrFeatureBlocked means the current plan does not include the feature.
	// User-visible; the UI renders an upsell prompt, not an error page.
	ErrFeatureBlocked = errors.New("feature not included in current plan")

	ErrUnknownFeature = errors.New("unknown feature")
)
