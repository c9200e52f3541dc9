package plan

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// Source defines how plans are loaded into the catalog.
type Source interface {
	Load(ctx context.Context) (map[Tier]Plan, error)
}

// Catalog is the immutable tier-to-plan mapping loaded once at process start.
// It is safe for concurrent use: the underlying map is never mutated after construction.
type Catalog struct {
	plans map[Tier]Plan
}

// NewCatalog loads plans from the source and validates the result.
// Every known tier must be present so downstream lookups cannot miss.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("plan: Source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	return &Catalog{plans: maps.Clone(plans)}, nil
}

// Get returns the plan for the given tier.
func (c *Catalog) Get(tier Tier) (Plan, error) {
	p, ok := c.plans[tier]
	if !ok {
		return Plan{}, ErrUnknownTier
	}
	return p, nil
}

// EntitlementsFor returns the entitlement set for a tier.
// Unknown tiers fall back to the free tier so a corrupted record
// degrades to the least-privileged capability set instead of failing open.
func (c *Catalog) EntitlementsFor(tier Tier) Entitlements {
	if p, ok := c.plans[tier]; ok {
		return p.Entitlements
	}
	return c.plans[TierFree].Entitlements
}

// Tiers returns all tiers present in the catalog.
func (c *Catalog) Tiers() []Tier {
	tiers := make([]Tier, 0, len(c.plans))
	for t := range c.plans {
		tiers = append(tiers, t)
	}
	return tiers
}

func validatePlans(plans map[Tier]Plan) error {
	for _, required := range []Tier{TierFree, TierPro, TierPremium} {
		if _, ok := plans[required]; !ok {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("catalog is missing tier %q", required))
		}
	}

	for tier, p := range plans {
		if p.Tier != tier {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("tier mismatch: map key %s != plan.Tier %s", tier, p.Tier))
		}
		if !tier.Valid() {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("unknown tier %q in catalog", tier))
		}
		if p.Price.Amount < 0 {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("tier %s has negative price: %d", tier, p.Price.Amount))
		}
		if tier.Paid() && p.Price.Amount == 0 {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("paid tier %s has zero price", tier))
		}
		if e := p.Entitlements; e.MaxLeadsPerMonth < Unlimited {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("tier %s has invalid lead limit: %d", tier, e.MaxLeadsPerMonth))
		}
	}
	return nil
}
