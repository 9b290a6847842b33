package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaignmodels "tangible/internal/campaign/models"
	instancemodels "tangible/internal/instance/models"
	"tangible/internal/rollup/models"
	id "tangible/pkg/domain"
)

func sampleInstance(t *testing.T) instancemodels.ProgramInstance {
	t.Helper()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inst, err := instancemodels.NewProgramInstance(instancemodels.NewProgramInstanceParams{
		CampaignID:  id.NewCampaignID(),
		ProgramType: id.ProgramTypeLanguage,
		Config:      campaignmodels.LanguageConfig{TargetLevel: "B1", GroupSize: 8, WeeklySessions: 2},
		StartDate:   start,
		EndDate:     start.AddDate(0, 3, 0),
	}, start)
	require.NoError(t, err)
	return *inst
}

func entry(t *testing.T, instanceID id.InstanceID, kind models.ActivityKind, hours, credits float64) models.ActivityEntry {
	t.Helper()
	occurred := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	e, err := models.NewActivityEntry(instanceID, kind, hours, credits, occurred, occurred)
	require.NoError(t, err)
	return *e
}

func TestReplayDerivesCounters(t *testing.T) {
	inst := sampleInstance(t)
	entries := []models.ActivityEntry{
		entry(t, inst.ID, models.ActivitySessionHeld, 1.5, 0),
		entry(t, inst.ID, models.ActivitySessionHeld, 2, 0),
		entry(t, inst.ID, models.ActivityVolunteerJoined, 0, 0),
		entry(t, inst.ID, models.ActivityVolunteerJoined, 0, 0),
		entry(t, inst.ID, models.ActivityBeneficiaryJoined, 0, 0),
		entry(t, inst.ID, models.ActivityCreditConsumed, 0, 12.5),
		entry(t, inst.ID, models.ActivityLearnerServed, 0, 0),
	}

	replayed := Replay(inst, entries)

	assert.Equal(t, 2, replayed.TotalSessionsHeld)
	assert.Equal(t, 3.5, replayed.TotalHoursLogged)
	assert.Equal(t, 2, replayed.EnrolledVolunteers)
	assert.Equal(t, 2, replayed.VolunteersConsumed)
	assert.Equal(t, 1, replayed.EnrolledBeneficiaries)
	assert.Equal(t, 12.5, replayed.CreditsConsumed)
	assert.Equal(t, 1, replayed.LearnersServed)
}

func TestReplayIsIdempotent(t *testing.T) {
	inst := sampleInstance(t)
	entries := []models.ActivityEntry{
		entry(t, inst.ID, models.ActivitySessionHeld, 1, 0),
		entry(t, inst.ID, models.ActivityCreditConsumed, 0, 3),
	}

	once := Replay(inst, entries)
	twice := Replay(once, entries)

	assert.Equal(t, once, twice)
}

func TestReplayResetsStaleCounters(t *testing.T) {
	inst := sampleInstance(t)
	inst.TotalSessionsHeld = 40
	inst.CreditsConsumed = 99

	replayed := Replay(inst, nil)

	assert.Zero(t, replayed.TotalSessionsHeld)
	assert.Zero(t, replayed.CreditsConsumed)
}

func TestReplayLeavesScoresUntouched(t *testing.T) {
	inst := sampleInstance(t)
	sroi := 3.2
	inst.SROIScore = &sroi
	inst.OutcomeScores = map[id.OutcomeDimension]float64{id.DimensionConfidence: 0.7}

	replayed := Replay(inst, []models.ActivityEntry{
		entry(t, inst.ID, models.ActivityLearnerServed, 0, 0),
	})

	assert.Equal(t, &sroi, replayed.SROIScore)
	assert.Equal(t, 0.7, replayed.OutcomeScores[id.DimensionConfidence])
}
