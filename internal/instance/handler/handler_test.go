package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	campaignmodels "tangible/internal/campaign/models"
	"tangible/internal/instance/handler/mocks"
	"tangible/internal/instance/lifecycle"
	"tangible/internal/instance/models"
	"tangible/internal/instance/store"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/instance-mocks.go -package=mocks Service
type InstanceHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *InstanceHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestInstanceHandlerSuite(t *testing.T) {
	suite.Run(t, new(InstanceHandlerSuite))
}

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, logger, nil, nil)
	r := chi.NewRouter()
	handler.Register(r)
	return handler, mockService
}

func sampleInstance() models.ProgramInstance {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return models.ProgramInstance{
		ID:          id.NewInstanceID(),
		CampaignID:  id.NewCampaignID(),
		Status:      models.StatusPlanned,
		ProgramType: id.ProgramTypeLanguage,
		Config:      campaignmodels.LanguageConfig{TargetLevel: "B1", GroupSize: 8, WeeklySessions: 2},
		StartDate:   start,
		EndDate:     start.AddDate(0, 3, 0),
		Version:     1,
		CreatedAt:   start,
		UpdatedAt:   start,
	}
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func (s *InstanceHandlerSuite) TestHandlePlan() {
	handler, mockService := newTestHandler(s.T())
	inst := sampleInstance()

	mockService.EXPECT().Plan(gomock.Any(), inst.CampaignID, inst.StartDate, inst.EndDate).Return(&inst, nil)

	raw, err := json.Marshal(planInstanceRequest{StartDate: inst.StartDate, EndDate: inst.EndDate})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/campaigns/"+inst.CampaignID.String()+"/instances", bytes.NewReader(raw))
	req = withURLParam(req, "campaignID", inst.CampaignID.String())
	w := httptest.NewRecorder()
	handler.handlePlan(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), inst.ID.String(), resp["id"])
	assert.Equal(s.T(), "planned", resp["status"])
	config := resp["config"].(map[string]any)
	assert.Equal(s.T(), "language", config["type"])
}

func (s *InstanceHandlerSuite) TestHandlePlan_TerminalCampaign() {
	handler, mockService := newTestHandler(s.T())
	campaignID := id.NewCampaignID()

	mockService.EXPECT().Plan(gomock.Any(), campaignID, gomock.Any(), gomock.Any()).
		Return(nil, derrors.New(derrors.CodePreconditionNotMet, "cannot plan an instance under a closed campaign"))

	raw, err := json.Marshal(planInstanceRequest{
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/campaigns/"+campaignID.String()+"/instances", bytes.NewReader(raw))
	req = withURLParam(req, "campaignID", campaignID.String())
	w := httptest.NewRecorder()
	handler.handlePlan(w, req)

	assert.Equal(s.T(), http.StatusPreconditionFailed, w.Code)
}

func (s *InstanceHandlerSuite) TestHandleGet() {
	handler, mockService := newTestHandler(s.T())
	inst := sampleInstance()

	mockService.EXPECT().Get(gomock.Any(), inst.ID).Return(&inst, nil)

	req := httptest.NewRequest(http.MethodGet, "/instances/"+inst.ID.String(), nil)
	req = withURLParam(req, "instanceID", inst.ID.String())
	w := httptest.NewRecorder()
	handler.handleGet(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), inst.CampaignID.String(), resp["campaign_id"])
}

func (s *InstanceHandlerSuite) TestHandleGet_NotFound() {
	handler, mockService := newTestHandler(s.T())
	instanceID := id.NewInstanceID()

	mockService.EXPECT().Get(gomock.Any(), instanceID).
		Return(nil, derrors.New(derrors.CodeNotFound, "instance not found"))

	req := httptest.NewRequest(http.MethodGet, "/instances/"+instanceID.String(), nil)
	req = withURLParam(req, "instanceID", instanceID.String())
	w := httptest.NewRecorder()
	handler.handleGet(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *InstanceHandlerSuite) TestHandleList_OverdueFilter() {
	handler, mockService := newTestHandler(s.T())
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }
	overdue := sampleInstance()
	overdue.Status = models.StatusActive

	mockService.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter store.ListFilter) ([]models.ProgramInstance, int, error) {
			require.NotNil(s.T(), filter.OverdueAsOf)
			assert.True(s.T(), filter.OverdueAsOf.Equal(now))
			return []models.ProgramInstance{overdue}, 1, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/instances?overdue=true", nil)
	w := httptest.NewRecorder()
	handler.handleList(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["items"].([]any)
	require.Len(s.T(), items, 1)
	item := items[0].(map[string]any)
	assert.Equal(s.T(), true, item["is_overdue"])
}

func (s *InstanceHandlerSuite) TestHandleList_CampaignFilter() {
	handler, mockService := newTestHandler(s.T())
	inst := sampleInstance()

	mockService.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter store.ListFilter) ([]models.ProgramInstance, int, error) {
			require.NotNil(s.T(), filter.CampaignID)
			assert.Equal(s.T(), inst.CampaignID, *filter.CampaignID)
			return []models.ProgramInstance{inst}, 1, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/instances?campaignId="+inst.CampaignID.String(), nil)
	w := httptest.NewRecorder()
	handler.handleList(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *InstanceHandlerSuite) TestHandleTransition() {
	handler, mockService := newTestHandler(s.T())
	inst := sampleInstance()
	inst.Status = models.StatusActive
	inst.Version = 2

	mockService.EXPECT().Transition(gomock.Any(), inst.ID, lifecycle.Request{Target: models.StatusActive}).
		Return(&inst, nil)

	raw, err := json.Marshal(map[string]any{"target_status": "active"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/instances/"+inst.ID.String()+"/transition", bytes.NewReader(raw))
	req = withURLParam(req, "instanceID", inst.ID.String())
	w := httptest.NewRecorder()
	handler.handleTransition(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "active", resp["status"])
	assert.Equal(s.T(), float64(2), resp["version"])
}

func (s *InstanceHandlerSuite) TestHandleTransition_ParentGate() {
	handler, mockService := newTestHandler(s.T())
	instanceID := id.NewInstanceID()

	mockService.EXPECT().Transition(gomock.Any(), instanceID, gomock.Any()).
		Return(nil, derrors.New(derrors.CodePreconditionNotMet, "instance cannot activate while campaign is draft"))

	raw, err := json.Marshal(map[string]any{"target_status": "active"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/instances/"+instanceID.String()+"/transition", bytes.NewReader(raw))
	req = withURLParam(req, "instanceID", instanceID.String())
	w := httptest.NewRecorder()
	handler.handleTransition(w, req)

	assert.Equal(s.T(), http.StatusPreconditionFailed, w.Code)
}

func (s *InstanceHandlerSuite) TestHandleTransition_UnknownStatus() {
	handler, _ := newTestHandler(s.T())
	instanceID := id.NewInstanceID()

	raw, err := json.Marshal(map[string]any{"target_status": "closed"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/instances/"+instanceID.String()+"/transition", bytes.NewReader(raw))
	req = withURLParam(req, "instanceID", instanceID.String())
	w := httptest.NewRecorder()
	handler.handleTransition(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}
