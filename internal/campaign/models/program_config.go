package models

import (
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// ProgramConfig is the sealed variant type for program-type-specific
// configuration. The campaign stores the template config merged with
// campaign-level overrides; program instances receive a denormalized
// copy when they are planned.
type ProgramConfig interface {
	Type() id.ProgramType
	programConfig()
}

// MentorshipConfig configures one-to-one mentorship programs.
type MentorshipConfig struct {
	SessionsPerMonth  int
	SessionMinutes    int
	PairingRatio      int // mentees per mentor, 1 for strict pairs
	RequiresScreening bool
}

// LanguageConfig configures language training programs.
type LanguageConfig struct {
	TargetLevel    string // CEFR label, e.g. "B1"
	GroupSize      int
	WeeklySessions int
}

// BuddyConfig configures social buddy programs.
type BuddyConfig struct {
	ActivitiesPerMonth int
	GroupOutings       bool
}

// UpskillingConfig configures vocational upskilling programs.
type UpskillingConfig struct {
	Track          string
	MinGroupSize   int
	MaxGroupSize   int
	CertificateFee float64
}

// WEEIConfig configures Women Economic Empowerment Initiative programs.
type WEEIConfig struct {
	CohortSize      int
	MentoringWeeks  int
	StipendPerMonth float64
}

func (MentorshipConfig) Type() id.ProgramType { return id.ProgramTypeMentorship }
func (LanguageConfig) Type() id.ProgramType   { return id.ProgramTypeLanguage }
func (BuddyConfig) Type() id.ProgramType      { return id.ProgramTypeBuddy }
func (UpskillingConfig) Type() id.ProgramType { return id.ProgramTypeUpskilling }
func (WEEIConfig) Type() id.ProgramType       { return id.ProgramTypeWEEI }

func (MentorshipConfig) programConfig() {}
func (LanguageConfig) programConfig()   {}
func (BuddyConfig) programConfig()      {}
func (UpskillingConfig) programConfig() {}
func (WEEIConfig) programConfig()       {}

func validateProgramConfig(c ProgramConfig) error {
	switch cfg := c.(type) {
	case MentorshipConfig:
		if cfg.PairingRatio < 1 {
			return derrors.New(derrors.CodeInvariantViolation, "pairing_ratio must be at least 1")
		}
	case LanguageConfig:
		if cfg.GroupSize < 1 {
			return derrors.New(derrors.CodeInvariantViolation, "group_size must be at least 1")
		}
	case UpskillingConfig:
		if cfg.MinGroupSize > cfg.MaxGroupSize {
			return derrors.New(derrors.CodeInvariantViolation, "min_group_size cannot exceed max_group_size")
		}
	case WEEIConfig:
		if cfg.CohortSize < 1 {
			return derrors.New(derrors.CodeInvariantViolation, "cohort_size must be at least 1")
		}
	}
	return nil
}

// ConfigOverrides are campaign-level adjustments applied on top of the
// program template when instances are planned. Nil fields keep the
// template value.
type ConfigOverrides struct {
	SessionsPerMonth *int
	GroupSize        *int
	CohortSize       *int
}

// MergeConfig returns the template config with campaign overrides
// applied. The variant type never changes; overrides that do not apply
// to the variant are ignored.
func MergeConfig(template ProgramConfig, ov ConfigOverrides) ProgramConfig {
	switch cfg := template.(type) {
	case MentorshipConfig:
		if ov.SessionsPerMonth != nil {
			cfg.SessionsPerMonth = *ov.SessionsPerMonth
		}
		return cfg
	case LanguageConfig:
		if ov.GroupSize != nil {
			cfg.GroupSize = *ov.GroupSize
		}
		return cfg
	case WEEIConfig:
		if ov.CohortSize != nil {
			cfg.CohortSize = *ov.CohortSize
		}
		return cfg
	default:
		return template
	}
}
