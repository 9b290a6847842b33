package models

import (
	"time"

	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// Campaign is the commercial contract linking a program template, a
// beneficiary group, and a company.
//
// Invariants enforced at construction:
//   - BudgetSpent <= BudgetAllocated, both non-negative
//   - StartDate < EndDate (strict, [start, end) range)
//   - exactly one pricing config, tagged with the campaign's pricing model
//   - volunteer/beneficiary counts non-negative
//
// Status changes go through the lifecycle package only. Budget and
// consumption counters are updated only by ledger-driven rollups, never
// by transitions. Campaigns are never deleted while evidence references
// them; archival sets IsArchived.
type Campaign struct {
	ID                 id.CampaignID
	CompanyID          id.CompanyID
	ProgramTemplateID  id.ProgramTemplateID
	BeneficiaryGroupID id.BeneficiaryGroupID
	Name               string
	ProgramType        id.ProgramType
	ProgramConfig      ProgramConfig
	Overrides          ConfigOverrides

	Status       CampaignStatus
	StatusReason string

	PricingModel id.PricingModel
	Pricing      PricingConfig

	TargetVolunteers     int
	CurrentVolunteers    int
	TargetBeneficiaries  int
	CurrentBeneficiaries int

	BudgetAllocated float64
	BudgetSpent     float64

	// Rollup-maintained consumption counters, re-derived from instance
	// aggregation. Never mutated by transitions.
	CreditsConsumed float64
	LearnersServed  int

	StartDate time.Time
	EndDate   time.Time

	IsArchived bool

	// Version backs the optimistic concurrency check on updates.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCampaignParams carries the validated primitives needed to build a
// draft campaign. ProgramTemplateID and BeneficiaryGroupID may be nil in
// draft; the draft->planned precondition requires them.
type NewCampaignParams struct {
	CompanyID            id.CompanyID
	ProgramTemplateID    id.ProgramTemplateID
	BeneficiaryGroupID   id.BeneficiaryGroupID
	Name                 string
	ProgramType          id.ProgramType
	ProgramConfig        ProgramConfig
	Overrides            ConfigOverrides
	PricingModel         id.PricingModel
	Pricing              PricingConfig
	TargetVolunteers     int
	TargetBeneficiaries  int
	BudgetAllocated      float64
	BudgetSpent          float64
	StartDate            time.Time
	EndDate              time.Time
}

// NewCampaign builds a draft campaign, enforcing all cross-field
// invariants. Refinements are rejected here, never coerced.
func NewCampaign(p NewCampaignParams, now time.Time) (*Campaign, error) {
	if p.CompanyID.IsNil() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "company_id is required")
	}
	if p.Name == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "name cannot be empty")
	}
	if !p.ProgramType.IsValid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "invalid program type")
	}
	if p.ProgramConfig == nil || p.ProgramConfig.Type() != p.ProgramType {
		return nil, derrors.New(derrors.CodeInvariantViolation, "program config must match program type")
	}
	if err := validateProgramConfig(p.ProgramConfig); err != nil {
		return nil, err
	}
	if !p.PricingModel.IsValid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "invalid pricing model")
	}
	if p.Pricing == nil || p.Pricing.Model() != p.PricingModel {
		return nil, derrors.New(derrors.CodeInvariantViolation, "pricing config must match pricing model")
	}
	if err := validatePricing(p.Pricing); err != nil {
		return nil, err
	}
	if p.BudgetAllocated < 0 || p.BudgetSpent < 0 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "budget amounts cannot be negative")
	}
	if p.BudgetSpent > p.BudgetAllocated {
		return nil, derrors.New(derrors.CodeInvariantViolation, "budget_spent cannot exceed budget_allocated")
	}
	if p.TargetVolunteers < 0 || p.TargetBeneficiaries < 0 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "target counts cannot be negative")
	}
	if !p.StartDate.Before(p.EndDate) {
		return nil, derrors.New(derrors.CodeInvariantViolation, "start_date must be strictly before end_date")
	}

	return &Campaign{
		ID:                  id.NewCampaignID(),
		CompanyID:           p.CompanyID,
		ProgramTemplateID:   p.ProgramTemplateID,
		BeneficiaryGroupID:  p.BeneficiaryGroupID,
		Name:                p.Name,
		ProgramType:         p.ProgramType,
		ProgramConfig:       p.ProgramConfig,
		Overrides:           p.Overrides,
		Status:              StatusDraft,
		PricingModel:        p.PricingModel,
		Pricing:             p.Pricing,
		TargetVolunteers:    p.TargetVolunteers,
		TargetBeneficiaries: p.TargetBeneficiaries,
		BudgetAllocated:     p.BudgetAllocated,
		BudgetSpent:         p.BudgetSpent,
		StartDate:           p.StartDate,
		EndDate:             p.EndDate,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// CommitmentUnits returns the pricing commitment for the active model,
// nil when the model has none.
func (c *Campaign) CommitmentUnits() *float64 {
	return CommitmentUnits(c.Pricing)
}

// CreditAllocation returns the credit allocation when the campaign is
// credit-priced, nil otherwise.
func (c *Campaign) CreditAllocation() *float64 {
	return CreditAllocation(c.Pricing)
}

// ConsumedUnits returns consumption in the unit the pricing model
// commits to: learners for iaas, credits for credits, volunteers
// recruited for seats.
func (c *Campaign) ConsumedUnits() float64 {
	switch c.PricingModel {
	case id.PricingModelIAAS:
		return float64(c.LearnersServed)
	case id.PricingModelCredits:
		return c.CreditsConsumed
	case id.PricingModelSeats:
		return float64(c.CurrentVolunteers)
	default:
		return 0
	}
}

// InstanceConfig returns the denormalized program config an instance of
// this campaign runs with: template merged with campaign overrides.
func (c *Campaign) InstanceConfig() ProgramConfig {
	return MergeConfig(c.ProgramConfig, c.Overrides)
}
