package plan

import "context"

// inMemSource implements Source over a static plan map.
type inMemSource struct {
	plans map[Tier]Plan
}

// NewInMemSource returns a Source backed by the given plans.
func NewInMemSource(plans map[Tier]Plan) Source {
	plansCopy := make(map[Tier]Plan, len(plans))
	for tier, p := range plans {
		plansCopy[tier] = p
	}
	return &inMemSource{plans: plansCopy}
}

func (s *inMemSource) Load(ctx context.Context) (map[Tier]Plan, error) {
	plansCopy := make(map[Tier]Plan, len(s.plans))
	for tier, p := range s.plans {
		plansCopy[tier] = p
	}
	return plansCopy, nil
}

// DefaultSource returns the built-in catalog used when no external plan
// configuration is provided. Prices are in BRL cents.
func DefaultSource() Source {
	return NewInMemSource(map[Tier]Plan{
		TierFree: {
			Tier:     TierFree,
			Name:     "Gratuito",
			Interval: BillingIntervalNone,
			Entitlements: Entitlements{
				Spotlight:        SpotlightNone,
				RadiusKm:         10,
				ExtraCities:      0,
				MaxPhotos:        3,
				MaxLeadsPerMonth: 3,
				Metrics:          MetricsNone,
				Top10Eligible:    false,
			},
		},
		TierPro: {
			Tier:     TierPro,
			Name:     "Pro",
			Price:    Money{Amount: 4990, Currency: "BRL"},
			Interval: BillingIntervalMonthly,
			Entitlements: Entitlements{
				Spotlight:        SpotlightMedium,
				RadiusKm:         30,
				ExtraCities:      2,
				MaxPhotos:        10,
				MaxLeadsPerMonth: 30,
				Metrics:          MetricsBasic,
				Top10Eligible:    false,
			},
		},
		TierPremium: {
			Tier:     TierPremium,
			Name:     "Premium",
			Price:    Money{Amount: 9990, Currency: "BRL"},
			Interval: BillingIntervalMonthly,
			Entitlements: Entitlements{
				Spotlight:        SpotlightHigh,
				RadiusKm:         100,
				ExtraCities:      5,
				MaxPhotos:        25,
				MaxLeadsPerMonth: Unlimited,
				Metrics:          MetricsAdvanced,
				Top10Eligible:    true,
			},
		},
	})
}
