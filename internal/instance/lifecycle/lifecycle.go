// Package lifecycle implements the program instance state machine.
//
// The machine is planned -> active <-> paused -> completed. There is no
// closed state: an instance ends by completing, or by the cascade
// applied when its parent campaign reaches completed or closed. The
// cascade arrives as an external event (CascadeFromCampaign); the
// instance machine never re-derives the parent's state on its own.
package lifecycle

import (
	"time"

	campaignmodels "tangible/internal/campaign/models"
	"tangible/internal/instance/models"
	derrors "tangible/pkg/domain-errors"
)

// Request describes one requested instance transition.
type Request struct {
	Target        models.InstanceStatus
	Reason        string
	EffectiveDate time.Time
}

var transitions = map[models.InstanceStatus][]models.InstanceStatus{
	models.StatusPlanned:   {models.StatusActive},
	models.StatusActive:    {models.StatusPaused, models.StatusCompleted},
	models.StatusPaused:    {models.StatusActive, models.StatusCompleted},
	models.StatusCompleted: {},
}

func allowed(from, to models.InstanceStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CanComplete reports whether the instance may be completed now.
func CanComplete(inst models.ProgramInstance) bool {
	return inst.Status == models.StatusActive || inst.Status == models.StatusPaused
}

// IsOverdue reports an instance that ran past its end date without
// completing. Read-only: an overdue instance must still be explicitly
// transitioned by the scheduler, there is no silent auto-completion.
func IsOverdue(inst models.ProgramInstance, now time.Time) bool {
	return inst.Status != models.StatusCompleted && now.After(inst.EndDate)
}

// Transition applies req to a copy of inst. The parent campaign's
// status gates activation: an instance cannot run under a draft or
// closed campaign.
//
// Errors: CodeInvalidTransition for pairs outside the table,
// CodePreconditionNotMet when the parent gate fails.
func Transition(inst models.ProgramInstance, parent campaignmodels.CampaignStatus, req Request, now time.Time) (models.ProgramInstance, error) {
	if !req.Target.IsValid() {
		return models.ProgramInstance{}, derrors.New(derrors.CodeInvalidInput, "invalid target status")
	}
	if !allowed(inst.Status, req.Target) {
		return models.ProgramInstance{}, derrors.Newf(derrors.CodeInvalidTransition,
			"cannot transition instance from %s to %s", inst.Status, req.Target)
	}

	if req.Target == models.StatusActive && !parent.InExecution() {
		return models.ProgramInstance{}, derrors.Newf(derrors.CodePreconditionNotMet,
			"instance cannot activate while campaign is %s", parent)
	}

	effective := req.EffectiveDate
	if effective.IsZero() {
		effective = now
	}

	next := inst
	next.Status = req.Target
	next.StatusReason = req.Reason
	next.UpdatedAt = effective
	return next, nil
}

// CascadeFromCampaign completes a running instance because its parent
// campaign reached completed or closed. Instances already completed are
// returned unchanged; planned instances are completed as well since the
// parent can no longer execute them.
func CascadeFromCampaign(inst models.ProgramInstance, parent campaignmodels.CampaignStatus, now time.Time) (models.ProgramInstance, bool) {
	if parent != campaignmodels.StatusCompleted && parent != campaignmodels.StatusClosed {
		return inst, false
	}
	if inst.Status == models.StatusCompleted {
		return inst, false
	}

	next := inst
	next.Status = models.StatusCompleted
	next.StatusReason = "campaign " + parent.String()
	next.UpdatedAt = now
	return next, true
}
