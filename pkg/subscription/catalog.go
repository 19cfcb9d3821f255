package subscription

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Tier describes the allotment and provider mapping for one plan.
type Tier struct {
	Plan         Plan     `yaml:"plan"`
	MonthlyQuota int64    `yaml:"monthly_quota"`
	PriceIDs     []string `yaml:"price_ids"` // provider price ids that map to this tier
}

// Catalog maps plans to their tier definitions.
type Catalog map[Plan]Tier

// DefaultCatalog returns the built-in tier table: free users get no quota,
// the starter tier gets 200 units per month.
func DefaultCatalog() Catalog {
	return Catalog{
		PlanFree:    {Plan: PlanFree, MonthlyQuota: 0},
		PlanStarter: {Plan: PlanStarter, MonthlyQuota: 200},
	}
}

// QuotaFor returns the monthly allotment for a plan. Unknown plans get zero.
func (c Catalog) QuotaFor(plan Plan) int64 {
	return c[plan].MonthlyQuota
}

// PlanForPriceID resolves a provider price id to a plan. Checkout events
// carry the purchased price id, not our plan name. Returns PlanStarter when
// the price id is unmapped so a mis-configured catalog upgrades rather than
// locks out a paying customer.
func (c Catalog) PlanForPriceID(priceID string) Plan {
	for plan, tier := range c {
		for _, id := range tier.PriceIDs {
			if id == priceID {
				return plan
			}
		}
	}
	return PlanStarter
}

// LoadCatalog reads tier definitions from a YAML file:
//
//	tiers:
//	  - plan: free
//	    monthly_quota: 0
//	  - plan: starter
//	    monthly_quota: 200
//	    price_ids: ["pri_starter_monthly"]
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	var file struct {
		Tiers []Tier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	catalog := make(Catalog, len(file.Tiers))
	for _, tier := range file.Tiers {
		if !tier.Plan.Valid() {
			return nil, errors.Join(ErrFailedToLoadCatalog, ErrInvalidPlan)
		}
		catalog[tier.Plan] = tier
	}

	return catalog, nil
}
