// Package lifecycle implements the campaign status state machine and
// the derived commercial flags.
//
// Transition is a pure function of the current snapshot: it returns a
// new campaign value and never mutates its input, budget, or
// consumption fields. The caller owns the compare-and-swap against the
// store (version check), so two racing transitions cannot both win.
package lifecycle

import (
	"time"

	"tangible/internal/campaign/models"
	derrors "tangible/pkg/domain-errors"
)

// Policy carries the operator-tunable lifecycle thresholds. Surfaced
// as configuration on purpose; the defaults are named constants so
// tests and reports pin the same values.
type Policy struct {
	// MinViableVolunteers gates recruiting -> active.
	MinViableVolunteers int
	// NearCapacityThreshold is the lower bound of the near-capacity band.
	NearCapacityThreshold float64
	// HighValueBudgetFloor is the allocated budget at which a campaign
	// counts as high value regardless of its upsell score.
	HighValueBudgetFloor float64
}

const (
	DefaultMinViableVolunteers  = 5
	DefaultHighValueBudgetFloor = 50000
)

// DefaultPolicy returns the documented default thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinViableVolunteers:   DefaultMinViableVolunteers,
		NearCapacityThreshold: 0.8,
		HighValueBudgetFloor:  DefaultHighValueBudgetFloor,
	}
}

// Request describes one requested transition.
type Request struct {
	Target        models.CampaignStatus
	Reason        string
	EffectiveDate time.Time // zero means "now" as supplied by the caller
}

// transitions is the authoritative table. closed is additionally
// reachable from any non-closed state and handled separately.
var transitions = map[models.CampaignStatus][]models.CampaignStatus{
	models.StatusDraft:      {models.StatusPlanned},
	models.StatusPlanned:    {models.StatusRecruiting},
	models.StatusRecruiting: {models.StatusActive},
	models.StatusActive:     {models.StatusPaused, models.StatusCompleted},
	models.StatusPaused:     {models.StatusActive, models.StatusCompleted},
	models.StatusCompleted:  {},
	models.StatusClosed:     {},
}

func allowed(from, to models.CampaignStatus) bool {
	if to == models.StatusClosed {
		return from != models.StatusClosed
	}
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CanTransition reports whether the table allows from -> to, ignoring
// preconditions.
func CanTransition(from, to models.CampaignStatus) bool {
	return allowed(from, to)
}

// Transition applies req to a copy of c and returns it. The input is
// never mutated. Self-transitions are rejected like any other pair
// missing from the table.
//
// Errors: CodeInvalidTransition when the pair is not in the table,
// CodePreconditionNotMet when a guard fails.
func Transition(c models.Campaign, req Request, policy Policy, now time.Time) (models.Campaign, error) {
	if !req.Target.IsValid() {
		return models.Campaign{}, derrors.New(derrors.CodeInvalidInput, "invalid target status")
	}
	if !allowed(c.Status, req.Target) {
		return models.Campaign{}, derrors.Newf(derrors.CodeInvalidTransition,
			"cannot transition campaign from %s to %s", c.Status, req.Target)
	}

	if err := checkPrecondition(&c, req.Target, policy); err != nil {
		return models.Campaign{}, err
	}

	effective := req.EffectiveDate
	if effective.IsZero() {
		effective = now
	}

	next := c
	next.Status = req.Target
	next.StatusReason = req.Reason
	next.UpdatedAt = effective
	return next, nil
}

func checkPrecondition(c *models.Campaign, target models.CampaignStatus, policy Policy) error {
	switch target {
	case models.StatusPlanned:
		if c.ProgramTemplateID.IsNil() {
			return derrors.New(derrors.CodePreconditionNotMet, "program_template_id must be set before planning")
		}
		if c.BeneficiaryGroupID.IsNil() {
			return derrors.New(derrors.CodePreconditionNotMet, "beneficiary_group_id must be set before planning")
		}
		if c.BudgetAllocated <= 0 {
			return derrors.New(derrors.CodePreconditionNotMet, "budget_allocated must be set before planning")
		}
	case models.StatusActive:
		// Guard applies only on first activation; resuming from paused
		// does not re-check recruitment.
		if c.Status == models.StatusRecruiting && c.CurrentVolunteers < policy.MinViableVolunteers {
			return derrors.Newf(derrors.CodePreconditionNotMet,
				"campaign needs at least %d volunteers to activate, has %d",
				policy.MinViableVolunteers, c.CurrentVolunteers)
		}
	}
	return nil
}
