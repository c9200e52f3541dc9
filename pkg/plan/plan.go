package plan

// Entitlements is the concrete capability set a tier grants.
// MaxLeadsPerMonth uses -1 for unlimited; all other numeric fields are absolute caps.
type Entitlements struct {
	Spotlight        SpotlightLevel `yaml:"spotlight"`
	RadiusKm         int            `yaml:"radius_km"`
	ExtraCities      int            `yaml:"extra_cities"`
	MaxPhotos        int            `yaml:"max_photos"`
	MaxLeadsPerMonth int64          `yaml:"max_leads_per_month"`
	Metrics          MetricsLevel   `yaml:"metrics"`
	Top10Eligible    bool           `yaml:"top10_eligible"`
}

// Plan describes a subscription tier and its price and entitlement set.
type Plan struct {
	Tier         Tier            `yaml:"tier"`
	Name         string          `yaml:"name"`
	Price        Money           `yaml:"price"`
	Interval     BillingInterval `yaml:"interval"`
	Entitlements Entitlements    `yaml:"entitlements"`
}

// Free reports whether the plan carries no billing subscription.
func (p Plan) Free() bool {
	return p.Interval == BillingIntervalNone || p.Price.Amount == 0
}
