package models

import (
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// PricingConfig is the sealed variant type for pricing-model-specific
// configuration. A campaign carries exactly one config and its tag must
// match the campaign's pricing model; NewCampaign enforces that.
//
// The marker method keeps the set of variants closed to this package so
// switches over configs stay exhaustive.
type PricingConfig interface {
	Model() id.PricingModel
	pricingConfig()
}

// SeatsPricing bills per committed volunteer seat.
type SeatsPricing struct {
	CommittedSeats int
	PricePerSeat   float64
}

// CreditsPricing bills against a prepaid credit allocation.
type CreditsPricing struct {
	CreditAllocation float64
	PricePerCredit   float64
}

// BundlePricing covers a negotiated multi-program bundle with no unit
// commitment.
type BundlePricing struct {
	Programs   []id.ProgramType
	TotalPrice float64
}

// OutcomeGuarantee is one contractual outcome floor in an IAAS deal:
// at least MinLearnerShare of served learners must reach MinScore on
// the dimension.
type OutcomeGuarantee struct {
	Dimension       id.OutcomeDimension
	MinScore        float64
	MinLearnerShare float64
}

// IAASPricing bills per learner outcome guarantee
// ("Impact-as-a-Service").
type IAASPricing struct {
	LearnersCommitted int
	PricePerLearner   float64
	Guarantees        []OutcomeGuarantee
}

// CustomPricing covers bespoke contracts described only by their terms.
type CustomPricing struct {
	Terms string
}

func (SeatsPricing) Model() id.PricingModel   { return id.PricingModelSeats }
func (CreditsPricing) Model() id.PricingModel { return id.PricingModelCredits }
func (BundlePricing) Model() id.PricingModel  { return id.PricingModelBundle }
func (IAASPricing) Model() id.PricingModel    { return id.PricingModelIAAS }
func (CustomPricing) Model() id.PricingModel  { return id.PricingModelCustom }

func (SeatsPricing) pricingConfig()   {}
func (CreditsPricing) pricingConfig() {}
func (BundlePricing) pricingConfig()  {}
func (IAASPricing) pricingConfig()    {}
func (CustomPricing) pricingConfig()  {}

// validate checks variant-local invariants.
func validatePricing(p PricingConfig) error {
	switch cfg := p.(type) {
	case SeatsPricing:
		if cfg.CommittedSeats < 0 {
			return derrors.New(derrors.CodeInvariantViolation, "committed_seats cannot be negative")
		}
	case CreditsPricing:
		if cfg.CreditAllocation < 0 {
			return derrors.New(derrors.CodeInvariantViolation, "credit_allocation cannot be negative")
		}
	case IAASPricing:
		if cfg.LearnersCommitted < 0 {
			return derrors.New(derrors.CodeInvariantViolation, "learners_committed cannot be negative")
		}
		for _, g := range cfg.Guarantees {
			if !g.Dimension.IsValid() {
				return derrors.New(derrors.CodeInvariantViolation, "outcome guarantee has invalid dimension")
			}
			if g.MinScore < 0 || g.MinScore > 1 {
				return derrors.New(derrors.CodeInvariantViolation, "outcome guarantee min_score must be in [0,1]")
			}
			if g.MinLearnerShare < 0 || g.MinLearnerShare > 1 {
				return derrors.New(derrors.CodeInvariantViolation, "outcome guarantee min_learner_share must be in [0,1]")
			}
		}
	case BundlePricing:
		for _, p := range cfg.Programs {
			if !p.IsValid() {
				return derrors.New(derrors.CodeInvariantViolation, "bundle references invalid program type")
			}
		}
	case CustomPricing:
		if cfg.Terms == "" {
			return derrors.New(derrors.CodeInvariantViolation, "custom pricing requires terms")
		}
	}
	return nil
}

// CommitmentUnits returns the contractual unit commitment for pricing
// models that have one (seats, credits, iaas), nil otherwise.
func CommitmentUnits(p PricingConfig) *float64 {
	var units float64
	switch cfg := p.(type) {
	case SeatsPricing:
		units = float64(cfg.CommittedSeats)
	case CreditsPricing:
		units = cfg.CreditAllocation
	case IAASPricing:
		units = float64(cfg.LearnersCommitted)
	default:
		return nil
	}
	return &units
}

// CreditAllocation returns the credit allocation for credit-priced
// campaigns and nil for every other model, mirroring the "nullable
// means not applicable" contract of the capacity ledger.
func CreditAllocation(p PricingConfig) *float64 {
	if cfg, ok := p.(CreditsPricing); ok {
		allocation := cfg.CreditAllocation
		return &allocation
	}
	return nil
}
