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

	"tangible/internal/rollup/handler/mocks"
	"tangible/internal/rollup/models"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/rollup-mocks.go -package=mocks Service
type RollupHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *RollupHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestRollupHandlerSuite(t *testing.T) {
	suite.Run(t, new(RollupHandlerSuite))
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

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func (s *RollupHandlerSuite) TestHandleLogActivity() {
	handler, mockService := newTestHandler(s.T())
	instanceID := id.NewInstanceID()
	occurred := time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC)

	mockService.EXPECT().
		Log(gomock.Any(), instanceID, models.ActivitySessionHeld, 1.5, 0.0, occurred).
		Return(&models.ActivityEntry{
			ID:         id.NewActivityEntryID(),
			InstanceID: instanceID,
			Kind:       models.ActivitySessionHeld,
			Hours:      1.5,
			OccurredAt: occurred,
			CreatedAt:  occurred,
		}, nil)

	raw, err := json.Marshal(logActivityRequest{
		Kind:       "session_held",
		Hours:      1.5,
		OccurredAt: &occurred,
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/instances/"+instanceID.String()+"/activity", bytes.NewReader(raw))
	req = withURLParam(req, "instanceID", instanceID.String())
	w := httptest.NewRecorder()
	handler.handleLogActivity(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), instanceID.String(), resp["instance_id"])
	assert.Equal(s.T(), "session_held", resp["kind"])
	assert.Equal(s.T(), 1.5, resp["hours"])
}

func (s *RollupHandlerSuite) TestHandleLogActivity_BadKind() {
	handler, _ := newTestHandler(s.T())
	instanceID := id.NewInstanceID()

	raw, err := json.Marshal(logActivityRequest{Kind: "coffee_break"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/instances/"+instanceID.String()+"/activity", bytes.NewReader(raw))
	req = withURLParam(req, "instanceID", instanceID.String())
	w := httptest.NewRecorder()
	handler.handleLogActivity(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *RollupHandlerSuite) TestHandleLogActivity_BadInstanceID() {
	handler, _ := newTestHandler(s.T())

	raw, err := json.Marshal(logActivityRequest{Kind: "session_held"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/instances/not-a-uuid/activity", bytes.NewReader(raw))
	req = withURLParam(req, "instanceID", "not-a-uuid")
	w := httptest.NewRecorder()
	handler.handleLogActivity(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *RollupHandlerSuite) TestHandleLogActivity_UnknownInstance() {
	handler, mockService := newTestHandler(s.T())
	instanceID := id.NewInstanceID()

	mockService.EXPECT().
		Log(gomock.Any(), instanceID, models.ActivityVolunteerJoined, 0.0, 0.0, time.Time{}).
		Return(nil, derrors.New(derrors.CodeNotFound, "instance not found"))

	raw, err := json.Marshal(logActivityRequest{Kind: "volunteer_joined"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/instances/"+instanceID.String()+"/activity", bytes.NewReader(raw))
	req = withURLParam(req, "instanceID", instanceID.String())
	w := httptest.NewRecorder()
	handler.handleLogActivity(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *RollupHandlerSuite) TestHandleRun() {
	handler, mockService := newTestHandler(s.T())
	mockService.EXPECT().Run(gomock.Any()).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/rollup/run", nil)
	w := httptest.NewRecorder()
	handler.handleRun(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "completed", resp["status"])
}

func (s *RollupHandlerSuite) TestHandleRun_Failure() {
	handler, mockService := newTestHandler(s.T())
	mockService.EXPECT().Run(gomock.Any()).
		Return(derrors.New(derrors.CodeInternal, "rollup sweep failed"))

	req := httptest.NewRequest(http.MethodPost, "/rollup/run", nil)
	w := httptest.NewRecorder()
	handler.handleRun(w, req)

	assert.Equal(s.T(), http.StatusInternalServerError, w.Code)
}
