package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/liguepro/billing/pkg/account"
	"github.com/liguepro/billing/pkg/plan"
)

// PeriodToken returns the calendar-month window token (YYYY-MM) for t in UTC.
func PeriodToken(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Usage is a point-in-time view of the monthly lead counter.
type Usage struct {
	Used   int64
	Limit  int64 // -1 when unlimited
	Period string
}

// Counter tracks monthly metered usage against an entitlement limit.
//
// The whole reconcile-compare-increment sequence runs inside a single
// Store.Update call, so it is atomic with respect to concurrent reservations
// and webhook transitions for the same account.
type Counter struct {
	store account.Store
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Counter.
type Option func(*Counter)

// WithClock overrides the wall clock, used by tests to pin the period.
func WithClock(now func() time.Time) Option {
	return func(c *Counter) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for reset events.
func WithLogger(log *slog.Logger) Option {
	return func(c *Counter) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCounter creates a monthly usage counter over the account store.
// Panics if store is nil to fail fast during initialization.
func NewCounter(store account.Store, opts ...Option) *Counter {
	if store == nil {
		panic("quota: account.Store is required")
	}
	c := &Counter{
		store: store,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAndReserve consumes one unit of the monthly lead quota.
//
// The stored period is reconciled to the current calendar month first: a
// stale period resets the counter to zero before the limit check, so a new
// month always starts fresh and the reset happens at most once no matter how
// many callers race over the month boundary. A limit of -1 always succeeds
// and never increments. On a full counter it fails with ErrQuotaExceeded and
// leaves the stored value unchanged.
func (c *Counter) CheckAndReserve(ctx context.Context, accountID uuid.UUID, limit int64) error {
	_, err := c.store.Update(ctx, accountID, func(a *account.Account) error {
		c.reconcile(ctx, a)

		if limit == plan.Unlimited {
			return nil
		}
		if a.LeadQuotaUsed >= limit {
			return ErrQuotaExceeded
		}
		a.LeadQuotaUsed++
		return nil
	})
	return err
}

// Release returns one unit to the quota, used when a reserved lead is rolled
// back by the caller. Never drops below zero and never crosses periods.
func (c *Counter) Release(ctx context.Context, accountID uuid.UUID) error {
	_, err := c.store.Update(ctx, accountID, func(a *account.Account) error {
		if a.LeadQuotaPeriod == PeriodToken(c.now()) && a.LeadQuotaUsed > 0 {
			a.LeadQuotaUsed--
		}
		return nil
	})
	return err
}

// Current returns the reconciled usage without consuming anything.
// The reconciliation is persisted so dashboard reads also roll the period.
func (c *Counter) Current(ctx context.Context, accountID uuid.UUID, limit int64) (Usage, error) {
	a, err := c.store.Update(ctx, accountID, func(a *account.Account) error {
		c.reconcile(ctx, a)
		return nil
	})
	if err != nil {
		return Usage{}, err
	}
	return Usage{Used: a.LeadQuotaUsed, Limit: limit, Period: a.LeadQuotaPeriod}, nil
}

// reconcile rolls the counter forward when the wall-clock month has advanced
// past the stored period. Must run inside a Store.Update mutator.
func (c *Counter) reconcile(ctx context.Context, a *account.Account) {
	period := PeriodToken(c.now())
	if a.LeadQuotaPeriod == period {
		return
	}
	if a.LeadQuotaUsed != 0 {
		c.log.DebugContext(ctx, "resetting monthly quota",
			"account_id", a.ID,
			"previous_period", a.LeadQuotaPeriod,
			"period", period,
			"previous_used", a.LeadQuotaUsed,
		)
	}
	a.LeadQuotaUsed = 0
	a.LeadQuotaPeriod = period
}
