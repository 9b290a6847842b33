// Package replay recomputes instance counters from the activity log.
//
// Replay is a pure fold over the full log: counters reset to zero and
// re-accumulate, so re-running a rollup on the same snapshot and
// entries yields an identical result. No clock, no randomness.
package replay

import (
	instancemodels "tangible/internal/instance/models"
	"tangible/internal/rollup/models"
)

// Replay recomputes an instance's activity-derived counters from the
// full log. Scores and pair/group counters are owned by other pipelines
// and pass through untouched.
func Replay(inst instancemodels.ProgramInstance, entries []models.ActivityEntry) instancemodels.ProgramInstance {
	inst.EnrolledVolunteers = 0
	inst.EnrolledBeneficiaries = 0
	inst.TotalSessionsHeld = 0
	inst.TotalHoursLogged = 0
	inst.VolunteersConsumed = 0
	inst.CreditsConsumed = 0
	inst.LearnersServed = 0

	for _, entry := range entries {
		switch entry.Kind {
		case models.ActivitySessionHeld:
			inst.TotalSessionsHeld++
			inst.TotalHoursLogged += entry.Hours
		case models.ActivityVolunteerJoined:
			inst.EnrolledVolunteers++
			inst.VolunteersConsumed++
		case models.ActivityBeneficiaryJoined:
			inst.EnrolledBeneficiaries++
		case models.ActivityCreditConsumed:
			inst.CreditsConsumed += entry.Credits
		case models.ActivityLearnerServed:
			inst.LearnersServed++
		}
	}
	return inst
}
