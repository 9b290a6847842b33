package lifecycle

import (
	"tangible/internal/campaign/models"
	"tangible/internal/ledger"
	id "tangible/pkg/domain"
)

// DerivedFlags are recomputed from the snapshot on every read. They are
// never stored as client-settable fields; exports and reports call
// Derive so every surface shows the same numbers.
type DerivedFlags struct {
	CapacityUtilization    float64  `json:"capacity_utilization"`
	IsNearCapacity         bool     `json:"is_near_capacity"`
	IsOverCapacity         bool     `json:"is_over_capacity"`
	ConsumptionPercentage  *float64 `json:"consumption_percentage,omitempty"`
	RemainingCredits       *float64 `json:"remaining_credits,omitempty"`
	BudgetRemaining        float64  `json:"budget_remaining"`
	IsHighValue            bool     `json:"is_high_value"`
	UpsellOpportunityScore float64  `json:"upsell_opportunity_score"`
}

// modelWeights feed the upsell score: commitment-bearing models convert
// to expansion revenue more readily than negotiated deals.
var modelWeights = map[id.PricingModel]float64{
	id.PricingModelIAAS:    1.0,
	id.PricingModelCredits: 0.8,
	id.PricingModelSeats:   0.7,
	id.PricingModelBundle:  0.5,
	id.PricingModelCustom:  0.3,
}

// highValueUpsellCutoff marks a campaign high value on upsell score
// alone, independent of the budget floor.
const highValueUpsellCutoff = 0.75

// Derive computes the derived commercial flags for a campaign snapshot.
// The formula is the single shared definition; no caller computes its
// own variant.
//
// upsell = 0.5*min(util,1.5)/1.5 + 0.3*min(budget/floor,1) + 0.2*modelWeight
func Derive(c models.Campaign, policy Policy) DerivedFlags {
	util := ledger.Utilization(c.CurrentVolunteers, c.TargetVolunteers)

	utilComponent := util
	if utilComponent > 1.5 {
		utilComponent = 1.5
	}
	utilComponent /= 1.5

	budgetComponent := 0.0
	if policy.HighValueBudgetFloor > 0 {
		budgetComponent = c.BudgetAllocated / policy.HighValueBudgetFloor
		if budgetComponent > 1 {
			budgetComponent = 1
		}
	}

	upsell := 0.5*utilComponent + 0.3*budgetComponent + 0.2*modelWeights[c.PricingModel]

	var consumption *float64
	if commitment := c.CommitmentUnits(); commitment != nil {
		consumption = ledger.ConsumptionPercentage(c.PricingModel, c.ConsumedUnits(), *commitment)
	}

	return DerivedFlags{
		CapacityUtilization:    util,
		IsNearCapacity:         ledger.IsNearCapacity(util, policy.NearCapacityThreshold),
		IsOverCapacity:         ledger.IsOverCapacity(util),
		ConsumptionPercentage:  consumption,
		RemainingCredits:       ledger.RemainingCredits(c.CreditAllocation(), c.CreditsConsumed),
		BudgetRemaining:        ledger.BudgetRemaining(c.BudgetAllocated, c.BudgetSpent),
		IsHighValue:            c.BudgetAllocated >= policy.HighValueBudgetFloor || upsell >= highValueUpsellCutoff,
		UpsellOpportunityScore: upsell,
	}
}
