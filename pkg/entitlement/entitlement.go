package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/liguepro/billing/pkg/account"
	"github.com/liguepro/billing/pkg/plan"
	"github.com/liguepro/billing/pkg/quota"
)

// Feature is a gateable capability derived from the plan's entitlement set.
type Feature string

const (
	FeatureSpotlight       Feature = "spotlight"
	FeatureMetrics         Feature = "metrics"
	FeatureAdvancedMetrics Feature = "advanced_metrics"
	FeatureTop10           Feature = "top10"
	FeatureExtraCities     Feature = "extra_cities"
)

// Gate answers "is operation X allowed right now for this account" for the
// request-handling middleware. It combines the immutable plan catalog with
// the account's effective tier and the monthly quota counter, and fails
// closed: any uncertainty denies.
type Gate struct {
	catalog *plan.Catalog
	store   account.Store
	counter *quota.Counter
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the gate logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGate creates the entitlement gate.
// Panics if required dependencies are nil to fail fast during initialization.
func NewGate(catalog *plan.Catalog, store account.Store, counter *quota.Counter, opts ...Option) *Gate {
	if catalog == nil {
		panic("entitlement: plan.Catalog is required")
	}
	if store == nil {
		panic("entitlement: account.Store is required")
	}
	if counter == nil {
		panic("entitlement: quota.Counter is required")
	}

	g := &Gate{
		catalog: catalog,
		store:   store,
		counter: counter,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EntitlementsFor is the pure evaluator: tier in, capability set out.
func (g *Gate) EntitlementsFor(tier plan.Tier) plan.Entitlements {
	return g.catalog.EntitlementsFor(tier)
}

// Effective returns the entitlement set the account enjoys right now,
// honoring the paid window and degrading everything else to free.
func (g *Gate) Effective(ctx context.Context, accountID uuid.UUID) (plan.Entitlements, error) {
	a, err := g.store.GetByID(ctx, accountID)
	if err != nil {
		return plan.Entitlements{}, err
	}
	return g.catalog.EntitlementsFor(a.EffectiveTier(g.now().UTC())), nil
}

// Allow checks a boolean capability. A denial is ErrFeatureBlocked so the
// caller can render an upsell prompt, distinct from a spent quota.
func (g *Gate) Allow(ctx context.Context, accountID uuid.UUID, feature Feature) error {
	ent, err := g.Effective(ctx, accountID)
	if err != nil {
		return err
	}

	allowed := false
	switch feature {
	case FeatureSpotlight:
		allowed = ent.Spotlight != plan.SpotlightNone
	case FeatureMetrics:
		allowed = ent.Metrics != plan.MetricsNone
	case FeatureAdvancedMetrics:
		allowed = ent.Metrics == plan.MetricsAdvanced
	case FeatureTop10:
		allowed = ent.Top10Eligible
	case FeatureExtraCities:
		allowed = ent.ExtraCities > 0
	default:
		return ErrUnknownFeature
	}

	if !allowed {
		return ErrFeatureBlocked
	}
	return nil
}

// ReserveLead consumes one unit of the account's monthly lead quota under
// its effective entitlements. Returns quota.ErrQuotaExceeded when spent.
func (g *Gate) ReserveLead(ctx context.Context, accountID uuid.UUID) error {
	ent, err := g.Effective(ctx, accountID)
	if err != nil {
		return err
	}
	return g.counter.CheckAndReserve(ctx, accountID, ent.MaxLeadsPerMonth)
}

// LeadUsage reports the reconciled monthly lead counter for dashboards.
func (g *Gate) LeadUsage(ctx context.Context, accountID uuid.UUID) (quota.Usage, error) {
	ent, err := g.Effective(ctx, accountID)
	if err != nil {
		return quota.Usage{}, err
	}
	return g.counter.Current(ctx, accountID, ent.MaxLeadsPerMonth)
}
