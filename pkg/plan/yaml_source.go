package plan

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSource loads the plan catalog from a YAML file.
//
// Expected document shape:
//
//	plans:
//	  - tier: pro
//	    name: Pro
//	    price: {amount: 4990, currency: BRL}
//	    interval: monthly
//	    entitlements:
//	      spotlight: medium
//	      radius_km: 30
//	      extra_cities: 2
//	      max_photos: 10
//	      max_leads_per_month: 30
//	      metrics: basic
//	      top10_eligible: false
type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source that reads plans from the given file path.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) (map[Tier]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes a plan catalog document.
// Exposed separately so callers can load catalog bytes from embedded files
// or remote configuration without going through the filesystem.
func ParseYAML(raw []byte) (map[Tier]Plan, error) {
	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	plans := make(map[Tier]Plan, len(doc.Plans))
	for _, p := range doc.Plans {
		if _, dup := plans[p.Tier]; dup {
			return nil, errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("duplicate tier %q in catalog document", p.Tier))
		}
		plans[p.Tier] = p
	}
	return plans, nil
}
