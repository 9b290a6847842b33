//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	campaignmodels "tangible/internal/campaign/models"
	"tangible/internal/instance/models"
	"tangible/internal/instance/store/postgres"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
	"tangible/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "program_instances"))
}

func newTestInstance(s *PostgresStoreSuite, campaignID id.CampaignID, createdAt time.Time) *models.ProgramInstance {
	s.T().Helper()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inst, err := models.NewProgramInstance(models.NewProgramInstanceParams{
		CampaignID:  campaignID,
		ProgramType: id.ProgramTypeLanguage,
		Config:      campaignmodels.LanguageConfig{TargetLevel: "B1", GroupSize: 8, WeeklySessions: 2},
		StartDate:   start,
		EndDate:     start.AddDate(0, 3, 0),
	}, createdAt)
	s.Require().NoError(err)
	return inst
}

func (s *PostgresStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	inst := newTestInstance(s, id.NewCampaignID(), time.Now().UTC())
	sroi := 2.4
	inst.SROIScore = &sroi
	inst.OutcomeScores = map[id.OutcomeDimension]float64{id.DimensionConfidence: 0.8}
	s.Require().NoError(s.store.Create(ctx, inst))

	got, err := s.store.Get(ctx, inst.ID)
	s.Require().NoError(err)
	s.Equal(inst.ID, got.ID)
	s.Equal(inst.CampaignID, got.CampaignID)
	s.Equal(campaignmodels.LanguageConfig{TargetLevel: "B1", GroupSize: 8, WeeklySessions: 2}, got.Config)
	s.Require().NotNil(got.SROIScore)
	s.Equal(2.4, *got.SROIScore)
	s.Equal(0.8, got.OutcomeScores[id.DimensionConfidence])
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), id.NewInstanceID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateVersionMismatch() {
	ctx := context.Background()
	inst := newTestInstance(s, id.NewCampaignID(), time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, inst))

	next := *inst
	next.TotalSessionsHeld = 3
	next.Version = inst.Version + 1
	s.Require().ErrorIs(s.store.Update(ctx, &next, inst.Version+5), sentinel.ErrVersionMismatch)
}

func (s *PostgresStoreSuite) TestListByCampaignOrdersByCreation() {
	ctx := context.Background()
	campaignID := id.NewCampaignID()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	second := newTestInstance(s, campaignID, base.Add(time.Hour))
	first := newTestInstance(s, campaignID, base)
	unrelated := newTestInstance(s, id.NewCampaignID(), base)

	for _, inst := range []*models.ProgramInstance{second, first, unrelated} {
		s.Require().NoError(s.store.Create(ctx, inst))
	}

	instances, err := s.store.ListByCampaign(ctx, campaignID)
	s.Require().NoError(err)
	s.Require().Len(instances, 2)
	s.Equal(first.ID, instances[0].ID)
	s.Equal(second.ID, instances[1].ID)
}
