package domain

import derrors "tangible/pkg/domain-errors"

// PricingModel identifies how a campaign's commercial commitment is
// denominated. The campaign must carry exactly one pricing config whose
// tag matches this model.
type PricingModel string

const (
	PricingModelSeats   PricingModel = "seats"
	PricingModelCredits PricingModel = "credits"
	PricingModelBundle  PricingModel = "bundle"
	PricingModelIAAS    PricingModel = "iaas"
	PricingModelCustom  PricingModel = "custom"
)

var validPricingModels = map[PricingModel]bool{
	PricingModelSeats:   true,
	PricingModelCredits: true,
	PricingModelBundle:  true,
	PricingModelIAAS:    true,
	PricingModelCustom:  true,
}

// ParsePricingModel constructs a PricingModel from external input.
func ParsePricingModel(s string) (PricingModel, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "pricing model cannot be empty")
	}
	m := PricingModel(s)
	if !m.IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid pricing model")
	}
	return m, nil
}

// IsValid checks if the pricing model is one of the supported enum values.
func (m PricingModel) IsValid() bool {
	return validPricingModels[m]
}

// HasCommitment reports whether the model declares a unit commitment
// that consumption can be measured against. Bundle and custom deals are
// negotiated without a unit commitment, so consumption percentage is
// not applicable for them.
func (m PricingModel) HasCommitment() bool {
	switch m {
	case PricingModelSeats, PricingModelCredits, PricingModelIAAS:
		return true
	}
	return false
}

// String returns the string representation of the pricing model.
func (m PricingModel) String() string {
	return string(m)
}
