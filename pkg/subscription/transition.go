package subscription

import (
	"time"

	"github.com/liguepro/billing/pkg/account"
	"github.com/liguepro/billing/pkg/plan"
)

// validityWindow is how long one settled payment keeps the plan honored.
const validityWindow = 30 * 24 * time.Hour

// Change classifies the observable effect of an applied event.
type Change string

const (
	ChangeNone      Change = ""
	ChangeActivated Change = "activated" // first confirmation or overdue recovery
	ChangeRenewed   Change = "renewed"   // confirmation while already active
	ChangeOverdue   Change = "overdue"
	ChangeCanceled  Change = "canceled"
)

// Outcome reports what Apply did with an event.
type Outcome struct {
	Applied bool
	Change  Change
	Reason  string // set when ignored
}

func applied(change Change) Outcome {
	return Outcome{Applied: true, Change: change}
}

func ignored(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Apply is the transition function: a pure function of (record, event) that
// mutates the record in place and reports the outcome. It never fails;
// events with no path from the current status, unknown event types, and
// events superseded by a newer applied event are ignored untouched.
//
// Replaying any event is safe: the resulting state depends only on the
// record and the event's own ReceivedAt, never on the wall clock, so a
// second application reproduces the first bit for bit.
func Apply(a *account.Account, ev Event) Outcome {
	// Events older than the newest applied one are already superseded.
	// Recency decides races between confirmations and cancellations.
	if ev.ReceivedAt.Before(a.LastEventAt) {
		return ignored("superseded by a newer event")
	}

	switch {
	case ev.Confirmation():
		return applyConfirmation(a, ev)

	case ev.Type == EventPaymentOverdue:
		if a.SubscriptionStatus != account.StatusActive {
			return ignored("overdue only applies to active subscriptions")
		}
		a.SubscriptionStatus = account.StatusOverdue
		a.LastEventAt = ev.ReceivedAt
		return applied(ChangeOverdue)

	case ev.Terminal():
		cancelLocally(a, ev.ReceivedAt)
		return applied(ChangeCanceled)

	default:
		return ignored("unknown event type")
	}
}

func applyConfirmation(a *account.Account, ev Event) Outcome {
	switch a.SubscriptionStatus {
	case account.StatusPending, account.StatusActive, account.StatusOverdue:
	default:
		// A confirmation cannot resurrect a canceled or never-started
		// subscription; cancellation stays authoritative.
		return ignored("no confirmation path from status " + string(a.SubscriptionStatus))
	}

	change := ChangeRenewed
	if a.SubscriptionStatus != account.StatusActive {
		change = ChangeActivated
	}

	// Promote exactly once, on the first confirmation out of the free tier.
	// The tier requested at checkout is authoritative; the legacy records
	// that predate stored checkout intent fall back to the entry paid tier.
	// A renewal never regrades an already-paid tier.
	if !a.PlanTier.Paid() {
		promote := a.PendingTier
		if !promote.Paid() {
			promote = plan.TierPro
		}
		a.PlanTier = promote
	}

	until := ev.ReceivedAt.Add(validityWindow)
	a.SubscriptionStatus = account.StatusActive
	a.PendingTier = ""
	a.PlanValidUntil = &until
	a.LastEventAt = ev.ReceivedAt
	return applied(change)
}

// cancelLocally forces the terminal shape: free tier, canceled status, no
// provider subscription, no validity window, no pending checkout intent.
func cancelLocally(a *account.Account, at time.Time) {
	a.SubscriptionStatus = account.StatusCanceled
	a.PlanTier = plan.TierFree
	a.PendingTier = ""
	a.PlanValidUntil = nil
	a.ExternalSubscriptionID = ""
	a.LastEventAt = at
}
