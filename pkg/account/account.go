package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/liguepro/billing/pkg/plan"
)

// Status represents the billing subscription state of an account.
type Status string

const (
	StatusNone     Status = "none"
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusOverdue  Status = "overdue"
	StatusCanceled Status = "canceled"
)

// Account is the billable record whose plan tier and subscription status the
// billing engine owns. Signup creates it as free/none; it is mutated in place
// for the account's entire lifetime and never deleted here.
type Account struct {
	ID                     uuid.UUID
	Email                  string // billing contact, captured at checkout
	PlanTier               plan.Tier
	SubscriptionStatus     Status
	ExternalCustomerID     string     // provider customer id, created at most once, never changes once set
	ExternalSubscriptionID string     // provider subscription id, cleared on cancellation
	PendingTier            plan.Tier  // tier requested at checkout, cleared on activation or cancellation
	PlanValidUntil         *time.Time // meaningful only while active or overdue
	LeadQuotaUsed          int64
	LeadQuotaPeriod        string    // calendar-month token YYYY-MM the counter applies to
	LastEventAt            time.Time // receivedAt of the last applied billing event
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// New returns a fresh free-tier account record, the state signup hands over.
func New(id uuid.UUID) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:                 id,
		PlanTier:           plan.TierFree,
		SubscriptionStatus: StatusNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// HasSubscription reports whether a provider subscription is attached.
func (a *Account) HasSubscription() bool {
	return a.ExternalSubscriptionID != ""
}

// Entitled reports whether the account's paid tier is currently honored.
// Overdue accounts keep their entitlements until PlanValidUntil passes.
func (a *Account) Entitled(now time.Time) bool {
	switch a.SubscriptionStatus {
	case StatusActive, StatusOverdue:
		return a.PlanValidUntil == nil || now.Before(*a.PlanValidUntil)
	}
	return false
}

// EffectiveTier returns the tier whose entitlements apply right now.
// Canceled and never-subscribed accounts, and paid accounts past their
// validity window, evaluate as free.
func (a *Account) EffectiveTier(now time.Time) plan.Tier {
	if a.PlanTier.Paid() && a.Entitled(now) {
		return a.PlanTier
	}
	return plan.TierFree
}

// DaysRemainingAt returns whole days left on the paid window at a given time.
// Returns 0 when there is no window or it has passed.
func (a *Account) DaysRemainingAt(now time.Time) int {
	if a.PlanValidUntil == nil {
		return 0
	}
	remaining := a.PlanValidUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}
	// Round up partial days so the UI never shows 0 while still entitled.
	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// Clone returns a deep copy of the record.
func (a *Account) Clone() *Account {
	cp := *a
	if a.PlanValidUntil != nil {
		t := *a.PlanValidUntil
		cp.PlanValidUntil = &t
	}
	return &cp
}
