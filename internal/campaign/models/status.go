package models

import derrors "tangible/pkg/domain-errors"

// CampaignStatus is the lifecycle state of a campaign. Transitions are
// governed by the lifecycle package; nothing else may change the status.
type CampaignStatus string

const (
	StatusDraft      CampaignStatus = "draft"
	StatusPlanned    CampaignStatus = "planned"
	StatusRecruiting CampaignStatus = "recruiting"
	StatusActive     CampaignStatus = "active"
	StatusPaused     CampaignStatus = "paused"
	StatusCompleted  CampaignStatus = "completed"
	StatusClosed     CampaignStatus = "closed"
)

var validCampaignStatuses = map[CampaignStatus]bool{
	StatusDraft:      true,
	StatusPlanned:    true,
	StatusRecruiting: true,
	StatusActive:     true,
	StatusPaused:     true,
	StatusCompleted:  true,
	StatusClosed:     true,
}

// ParseCampaignStatus constructs a CampaignStatus from external input.
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "campaign status cannot be empty")
	}
	st := CampaignStatus(s)
	if !st.IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid campaign status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s CampaignStatus) IsValid() bool {
	return validCampaignStatuses[s]
}

// IsTerminal reports whether no further transitions are possible.
// Only closed is terminal; completed campaigns can still be closed.
func (s CampaignStatus) IsTerminal() bool {
	return s == StatusClosed
}

// InExecution reports whether program instances may run under the
// campaign. Only draft and closed block activation: instances exist
// from execution planning onward, so a planned parent already carries
// runnable instances.
func (s CampaignStatus) InExecution() bool {
	switch s {
	case StatusPlanned, StatusRecruiting, StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s CampaignStatus) String() string {
	return string(s)
}
