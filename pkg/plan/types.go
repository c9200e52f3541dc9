package plan

import "strings"

// Tier identifies a subscription plan tier.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// Valid reports whether the tier is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierPremium:
		return true
	}
	return false
}

// Paid reports whether the tier requires a billing subscription.
func (t Tier) Paid() bool {
	return t == TierPro || t == TierPremium
}

// ParseTier converts external input into a Tier, case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrUnknownTier
	}
	return t, nil
}

const (
	// Unlimited indicates no limit for a metered entitlement (-1 chosen for SQL compatibility)
	Unlimited int64 = -1
)

// SpotlightLevel controls how prominently a profile is ranked in search results.
type SpotlightLevel string

const (
	SpotlightNone   SpotlightLevel = "none"
	SpotlightMedium SpotlightLevel = "medium"
	SpotlightHigh   SpotlightLevel = "high"
)

// MetricsLevel controls which analytics dashboards a profile can access.
type MetricsLevel string

const (
	MetricsNone     MetricsLevel = "none"
	MetricsBasic    MetricsLevel = "basic"
	MetricsAdvanced MetricsLevel = "advanced"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, R$49.90 would be Amount: 4990, Currency: "BRL".
type Money struct {
	Amount   int64  `yaml:"amount"`   // Amount in smallest currency unit (cents)
	Currency string `yaml:"currency"` // ISO 4217 currency code
}

// BillingInterval represents the billing frequency for a subscription plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free tier with no billing
	BillingIntervalMonthly BillingInterval = "monthly"
)
