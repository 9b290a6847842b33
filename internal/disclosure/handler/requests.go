package handler

import (
	"time"

	"tangible/internal/disclosure/models"
	id "tangible/pkg/domain"
)

// generatePackRequest is the boundary shape for requesting a pack.
// EvidenceScope lists "framework:code" refs to exclude; GeneratedAt is
// optional and defaults to the server clock.
type generatePackRequest struct {
	CompanyID     string     `json:"company_id"`
	PeriodStart   time.Time  `json:"period_start"`
	PeriodEnd     time.Time  `json:"period_end"`
	Frameworks    []string   `json:"frameworks"`
	EvidenceScope []string   `json:"evidence_scope,omitempty"`
	GeneratedAt   *time.Time `json:"generated_at,omitempty"`
}

func (r generatePackRequest) toRequest() (models.GenerateRequest, error) {
	companyID, err := id.ParseCompanyID(r.CompanyID)
	if err != nil {
		return models.GenerateRequest{}, err
	}
	frameworks := make([]models.Framework, 0, len(r.Frameworks))
	for _, raw := range r.Frameworks {
		fw, err := models.ParseFramework(raw)
		if err != nil {
			return models.GenerateRequest{}, err
		}
		frameworks = append(frameworks, fw)
	}

	req := models.GenerateRequest{
		CompanyID:   companyID,
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
		Frameworks:  frameworks,
	}
	if len(r.EvidenceScope) > 0 {
		req.EvidenceScope = make(map[string]bool, len(r.EvidenceScope))
		for _, ref := range r.EvidenceScope {
			req.EvidenceScope[ref] = true
		}
	}
	if r.GeneratedAt != nil {
		req.GeneratedAt = *r.GeneratedAt
	}
	return req, nil
}

// generateAcceptedResponse acknowledges an asynchronous generation.
type generateAcceptedResponse struct {
	PackID string `json:"pack_id"`
	Status string `json:"status"`
}

type statusResponse struct {
	PackID string `json:"pack_id"`
	Status string `json:"status"`
}

// packResponse is the wire shape for a pack. Summary, sections and gap
// items carry their own JSON tags.
type packResponse struct {
	ID          string               `json:"id"`
	CompanyID   string               `json:"company_id"`
	PeriodStart time.Time            `json:"period_start"`
	PeriodEnd   time.Time            `json:"period_end"`
	Frameworks  []string             `json:"frameworks"`
	Status      string               `json:"status"`
	GeneratedAt *time.Time           `json:"generated_at,omitempty"`
	Summary     models.PackSummary   `json:"summary"`
	Sections    []models.PackSection `json:"sections"`
	Gaps        []models.GapItem     `json:"gaps"`
	FailReason  string               `json:"fail_reason,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func toPackResponse(p models.RegulatoryPack) packResponse {
	frameworks := make([]string, 0, len(p.Frameworks))
	for _, fw := range p.Frameworks {
		frameworks = append(frameworks, fw.String())
	}
	resp := packResponse{
		ID:          p.ID.String(),
		CompanyID:   p.CompanyID.String(),
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		Frameworks:  frameworks,
		Status:      string(p.Status),
		Summary:     p.Summary,
		Sections:    p.Sections,
		Gaps:        p.Gaps,
		FailReason:  p.FailReason,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if !p.GeneratedAt.IsZero() {
		generatedAt := p.GeneratedAt
		resp.GeneratedAt = &generatedAt
	}
	if resp.Sections == nil {
		resp.Sections = []models.PackSection{}
	}
	if resp.Gaps == nil {
		resp.Gaps = []models.GapItem{}
	}
	return resp
}
