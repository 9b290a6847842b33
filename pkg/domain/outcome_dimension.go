package domain

import derrors "tangible/pkg/domain-errors"

// OutcomeDimension names one model-scored outcome axis. Every
// OutcomeScore carries exactly one dimension; metrics aggregate scores
// within a single dimension.
type OutcomeDimension string

const (
	DimensionConfidence     OutcomeDimension = "confidence"
	DimensionBelonging      OutcomeDimension = "belonging"
	DimensionLangLevelProxy OutcomeDimension = "lang_level_proxy"
	DimensionJobReadiness   OutcomeDimension = "job_readiness"
	DimensionWellBeing      OutcomeDimension = "well_being"
)

var validOutcomeDimensions = map[OutcomeDimension]bool{
	DimensionConfidence:     true,
	DimensionBelonging:      true,
	DimensionLangLevelProxy: true,
	DimensionJobReadiness:   true,
	DimensionWellBeing:      true,
}

// ParseOutcomeDimension constructs an OutcomeDimension from external input.
func ParseOutcomeDimension(s string) (OutcomeDimension, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "outcome dimension cannot be empty")
	}
	d := OutcomeDimension(s)
	if !d.IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid outcome dimension")
	}
	return d, nil
}

// IsValid checks if the dimension is one of the supported enum values.
func (d OutcomeDimension) IsValid() bool {
	return validOutcomeDimensions[d]
}

// String returns the string representation of the dimension.
func (d OutcomeDimension) String() string {
	return string(d)
}
