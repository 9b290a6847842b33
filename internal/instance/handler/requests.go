package handler

import (
	"encoding/json"
	"time"

	campaignmodels "tangible/internal/campaign/models"
	"tangible/internal/instance/lifecycle"
	"tangible/internal/instance/models"
	id "tangible/pkg/domain"
)

// planInstanceRequest is the boundary shape for planning an instance.
// The config is denormalized from the parent campaign server-side, so
// only the schedule is accepted here.
type planInstanceRequest struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// transitionRequest is the boundary shape for lifecycle transitions.
type transitionRequest struct {
	TargetStatus  string     `json:"target_status"`
	Reason        string     `json:"reason,omitempty"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

func (r transitionRequest) toRequest() (lifecycle.Request, error) {
	target, err := models.ParseInstanceStatus(r.TargetStatus)
	if err != nil {
		return lifecycle.Request{}, err
	}
	req := lifecycle.Request{Target: target, Reason: r.Reason}
	if r.EffectiveDate != nil {
		req.EffectiveDate = *r.EffectiveDate
	}
	return req, nil
}

// instanceResponse is the wire shape for a program instance. The config
// is carried as its tagged envelope, matching the campaign responses.
type instanceResponse struct {
	ID                    string                         `json:"id"`
	CampaignID            string                         `json:"campaign_id"`
	Status                string                         `json:"status"`
	StatusReason          string                         `json:"status_reason,omitempty"`
	ProgramType           string                         `json:"program_type"`
	Config                json.RawMessage                `json:"config"`
	StartDate             time.Time                      `json:"start_date"`
	EndDate               time.Time                      `json:"end_date"`
	EnrolledVolunteers    int                            `json:"enrolled_volunteers"`
	EnrolledBeneficiaries int                            `json:"enrolled_beneficiaries"`
	ActivePairs           *int                           `json:"active_pairs,omitempty"`
	ActiveGroups          *int                           `json:"active_groups,omitempty"`
	TotalSessionsHeld     int                            `json:"total_sessions_held"`
	TotalHoursLogged      float64                        `json:"total_hours_logged"`
	SROIScore             *float64                       `json:"sroi_score,omitempty"`
	AverageVISScore       *float64                       `json:"average_vis_score,omitempty"`
	OutcomeScores         map[id.OutcomeDimension]float64 `json:"outcome_scores,omitempty"`
	VolunteersConsumed    int                            `json:"volunteers_consumed"`
	CreditsConsumed       float64                        `json:"credits_consumed"`
	LearnersServed        int                            `json:"learners_served"`
	IsOverdue             bool                           `json:"is_overdue"`
	Version               int64                          `json:"version"`
	CreatedAt             time.Time                      `json:"created_at"`
	UpdatedAt             time.Time                      `json:"updated_at"`
}

func toInstanceResponse(inst models.ProgramInstance, now time.Time) (instanceResponse, error) {
	config, err := campaignmodels.EncodeProgramConfig(inst.Config)
	if err != nil {
		return instanceResponse{}, err
	}
	return instanceResponse{
		ID:                    inst.ID.String(),
		CampaignID:            inst.CampaignID.String(),
		Status:                string(inst.Status),
		StatusReason:          inst.StatusReason,
		ProgramType:           inst.ProgramType.String(),
		Config:                config,
		StartDate:             inst.StartDate,
		EndDate:               inst.EndDate,
		EnrolledVolunteers:    inst.EnrolledVolunteers,
		EnrolledBeneficiaries: inst.EnrolledBeneficiaries,
		ActivePairs:           inst.ActivePairs,
		ActiveGroups:          inst.ActiveGroups,
		TotalSessionsHeld:     inst.TotalSessionsHeld,
		TotalHoursLogged:      inst.TotalHoursLogged,
		SROIScore:             inst.SROIScore,
		AverageVISScore:       inst.AverageVISScore,
		OutcomeScores:         inst.OutcomeScores,
		VolunteersConsumed:    inst.VolunteersConsumed,
		CreditsConsumed:       inst.CreditsConsumed,
		LearnersServed:        inst.LearnersServed,
		IsOverdue:             lifecycle.IsOverdue(inst, now),
		Version:               inst.Version,
		CreatedAt:             inst.CreatedAt,
		UpdatedAt:             inst.UpdatedAt,
	}, nil
}
