package models

import (
	"time"

	campaignmodels "tangible/internal/campaign/models"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// InstanceStatus is the lifecycle state of a program instance. Narrower
// than the campaign machine: instances have no closed state, they
// complete or are completed by a cascade from the parent campaign.
type InstanceStatus string

const (
	StatusPlanned   InstanceStatus = "planned"
	StatusActive    InstanceStatus = "active"
	StatusPaused    InstanceStatus = "paused"
	StatusCompleted InstanceStatus = "completed"
)

var validInstanceStatuses = map[InstanceStatus]bool{
	StatusPlanned:   true,
	StatusActive:    true,
	StatusPaused:    true,
	StatusCompleted: true,
}

// ParseInstanceStatus constructs an InstanceStatus from external input.
func ParseInstanceStatus(s string) (InstanceStatus, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "instance status cannot be empty")
	}
	st := InstanceStatus(s)
	if !st.IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid instance status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s InstanceStatus) IsValid() bool {
	return validInstanceStatuses[s]
}

// String returns the string representation of the status.
func (s InstanceStatus) String() string {
	return string(s)
}

// ProgramInstance is one scheduled execution of a campaign's program,
// e.g. one cohort. Config is denormalized from the campaign at planning
// time. Counters and metrics are owned by the rollup job; transitions
// never touch them.
type ProgramInstance struct {
	ID         id.InstanceID
	CampaignID id.CampaignID

	Status       InstanceStatus
	StatusReason string

	ProgramType id.ProgramType
	Config      campaignmodels.ProgramConfig

	StartDate time.Time
	EndDate   time.Time

	EnrolledVolunteers    int
	EnrolledBeneficiaries int

	// Pair/group counters are only meaningful for pairing-style
	// programs; nil means not applicable, not zero.
	ActivePairs  *int
	ActiveGroups *int

	TotalSessionsHeld int
	TotalHoursLogged  float64

	// Nullable until the first metrics rollup.
	SROIScore       *float64
	AverageVISScore *float64

	// OutcomeScores maps dimension -> score in [0,1], produced by the
	// metrics rollup from model-scored evidence.
	OutcomeScores map[id.OutcomeDimension]float64

	VolunteersConsumed int
	CreditsConsumed    float64
	LearnersServed     int

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProgramInstanceParams carries the inputs for planning an instance.
type NewProgramInstanceParams struct {
	CampaignID  id.CampaignID
	ProgramType id.ProgramType
	Config      campaignmodels.ProgramConfig
	StartDate   time.Time
	EndDate     time.Time
}

// NewProgramInstance plans an instance under a campaign. The config
// passed in must already be the campaign's merged instance config.
func NewProgramInstance(p NewProgramInstanceParams, now time.Time) (*ProgramInstance, error) {
	if p.CampaignID.IsNil() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "campaign_id is required")
	}
	if !p.ProgramType.IsValid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "invalid program type")
	}
	if p.Config == nil || p.Config.Type() != p.ProgramType {
		return nil, derrors.New(derrors.CodeInvariantViolation, "config must match program type")
	}
	if !p.StartDate.Before(p.EndDate) {
		return nil, derrors.New(derrors.CodeInvariantViolation, "start_date must be strictly before end_date")
	}

	inst := &ProgramInstance{
		ID:          id.NewInstanceID(),
		CampaignID:  p.CampaignID,
		Status:      StatusPlanned,
		ProgramType: p.ProgramType,
		Config:      p.Config,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.ProgramType.IsPairing() {
		zero := 0
		inst.ActivePairs = &zero
	}
	return inst, nil
}
