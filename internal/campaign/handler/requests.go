package handler

import (
	"encoding/json"
	"time"

	"tangible/internal/campaign/lifecycle"
	"tangible/internal/campaign/models"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// createCampaignRequest is the boundary shape for campaign creation.
// Pricing and program config arrive as tagged envelopes matching the
// storage codec.
type createCampaignRequest struct {
	CompanyID          string          `json:"company_id"`
	ProgramTemplateID  string          `json:"program_template_id,omitempty"`
	BeneficiaryGroupID string          `json:"beneficiary_group_id,omitempty"`
	Name               string          `json:"name"`
	ProgramType        string          `json:"program_type"`
	ProgramConfig      json.RawMessage `json:"program_config"`
	Overrides          overridesDTO    `json:"overrides"`
	PricingModel       string          `json:"pricing_model"`
	Pricing            json.RawMessage `json:"pricing"`
	TargetVolunteers   int             `json:"target_volunteers"`
	TargetBeneficiaries int            `json:"target_beneficiaries"`
	BudgetAllocated    float64         `json:"budget_allocated"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
}

type overridesDTO struct {
	SessionsPerMonth *int `json:"sessions_per_month,omitempty"`
	GroupSize        *int `json:"group_size,omitempty"`
	CohortSize       *int `json:"cohort_size,omitempty"`
}

// toParams converts the request into validated constructor params.
// Format-level failures surface as invalid_input; cross-field
// invariants stay with the constructor.
func (r createCampaignRequest) toParams() (models.NewCampaignParams, error) {
	var params models.NewCampaignParams

	companyID, err := id.ParseCompanyID(r.CompanyID)
	if err != nil {
		return params, err
	}
	params.CompanyID = companyID

	if r.ProgramTemplateID != "" {
		templateID, err := id.ParseProgramTemplateID(r.ProgramTemplateID)
		if err != nil {
			return params, err
		}
		params.ProgramTemplateID = templateID
	}
	if r.BeneficiaryGroupID != "" {
		groupID, err := id.ParseBeneficiaryGroupID(r.BeneficiaryGroupID)
		if err != nil {
			return params, err
		}
		params.BeneficiaryGroupID = groupID
	}

	programType, err := id.ParseProgramType(r.ProgramType)
	if err != nil {
		return params, err
	}
	params.ProgramType = programType

	if len(r.ProgramConfig) == 0 {
		return params, derrors.New(derrors.CodeInvalidInput, "program_config is required")
	}
	programConfig, err := models.DecodeProgramConfig(r.ProgramConfig)
	if err != nil {
		return params, derrors.New(derrors.CodeInvalidInput, "malformed program_config")
	}
	params.ProgramConfig = programConfig

	pricingModel, err := id.ParsePricingModel(r.PricingModel)
	if err != nil {
		return params, err
	}
	params.PricingModel = pricingModel

	if len(r.Pricing) == 0 {
		return params, derrors.New(derrors.CodeInvalidInput, "pricing is required")
	}
	pricing, err := models.DecodePricing(r.Pricing)
	if err != nil {
		return params, derrors.New(derrors.CodeInvalidInput, "malformed pricing")
	}
	params.Pricing = pricing

	params.Name = r.Name
	params.Overrides = models.ConfigOverrides{
		SessionsPerMonth: r.Overrides.SessionsPerMonth,
		GroupSize:        r.Overrides.GroupSize,
		CohortSize:       r.Overrides.CohortSize,
	}
	params.TargetVolunteers = r.TargetVolunteers
	params.TargetBeneficiaries = r.TargetBeneficiaries
	params.BudgetAllocated = r.BudgetAllocated
	params.StartDate = r.StartDate
	params.EndDate = r.EndDate
	return params, nil
}

// transitionRequest is the boundary shape for lifecycle transitions.
type transitionRequest struct {
	TargetStatus  string     `json:"target_status"`
	Reason        string     `json:"reason,omitempty"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

func (r transitionRequest) toRequest() (lifecycle.Request, error) {
	target, err := models.ParseCampaignStatus(r.TargetStatus)
	if err != nil {
		return lifecycle.Request{}, err
	}
	req := lifecycle.Request{Target: target, Reason: r.Reason}
	if r.EffectiveDate != nil {
		req.EffectiveDate = *r.EffectiveDate
	}
	return req, nil
}

// campaignResponse is the wire shape for a campaign with its derived
// flags attached.
type campaignResponse struct {
	ID                   string                  `json:"id"`
	CompanyID            string                  `json:"company_id"`
	ProgramTemplateID    string                  `json:"program_template_id,omitempty"`
	BeneficiaryGroupID   string                  `json:"beneficiary_group_id,omitempty"`
	Name                 string                  `json:"name"`
	ProgramType          string                  `json:"program_type"`
	Status               string                  `json:"status"`
	StatusReason         string                  `json:"status_reason,omitempty"`
	PricingModel         string                  `json:"pricing_model"`
	TargetVolunteers     int                     `json:"target_volunteers"`
	CurrentVolunteers    int                     `json:"current_volunteers"`
	TargetBeneficiaries  int                     `json:"target_beneficiaries"`
	CurrentBeneficiaries int                     `json:"current_beneficiaries"`
	BudgetAllocated      float64                 `json:"budget_allocated"`
	BudgetSpent          float64                 `json:"budget_spent"`
	CreditsConsumed      float64                 `json:"credits_consumed"`
	LearnersServed       int                     `json:"learners_served"`
	StartDate            time.Time               `json:"start_date"`
	EndDate              time.Time               `json:"end_date"`
	IsArchived           bool                    `json:"is_archived"`
	Version              int64                   `json:"version"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
	Derived              lifecycle.DerivedFlags  `json:"derived"`
}

func toCampaignResponse(c models.Campaign, flags lifecycle.DerivedFlags) campaignResponse {
	resp := campaignResponse{
		ID:                   c.ID.String(),
		CompanyID:            c.CompanyID.String(),
		Name:                 c.Name,
		ProgramType:          c.ProgramType.String(),
		Status:               string(c.Status),
		StatusReason:         c.StatusReason,
		PricingModel:         c.PricingModel.String(),
		TargetVolunteers:     c.TargetVolunteers,
		CurrentVolunteers:    c.CurrentVolunteers,
		TargetBeneficiaries:  c.TargetBeneficiaries,
		CurrentBeneficiaries: c.CurrentBeneficiaries,
		BudgetAllocated:      c.BudgetAllocated,
		BudgetSpent:          c.BudgetSpent,
		CreditsConsumed:      c.CreditsConsumed,
		LearnersServed:       c.LearnersServed,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		IsArchived:           c.IsArchived,
		Version:              c.Version,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
		Derived:              flags,
	}
	if !c.ProgramTemplateID.IsNil() {
		resp.ProgramTemplateID = c.ProgramTemplateID.String()
	}
	if !c.BeneficiaryGroupID.IsNil() {
		resp.BeneficiaryGroupID = c.BeneficiaryGroupID.String()
	}
	return resp
}
