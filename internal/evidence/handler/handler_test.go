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

	"tangible/internal/evidence/handler/mocks"
	"tangible/internal/evidence/lineage"
	"tangible/internal/evidence/models"
	"tangible/internal/evidence/service"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/evidence-mocks.go -package=mocks Service
type EvidenceHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *EvidenceHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestEvidenceHandlerSuite(t *testing.T) {
	suite.Run(t, new(EvidenceHandlerSuite))
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

func (s *EvidenceHandlerSuite) TestHandleIngest() {
	handler, mockService := newTestHandler(s.T())
	submittedAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	hash := models.HashContent("the program changed how I see my neighborhood")

	mockService.EXPECT().Ingest(gomock.Any(), service.IngestParams{
		Content:     "the program changed how I see my neighborhood",
		SourceType:  models.SourceSurvey,
		ProgramType: id.ProgramTypeBuddy,
	}).Return(&models.EvidenceSnippet{
		SnippetHash: hash,
		SourceType:  models.SourceSurvey,
		ProgramType: id.ProgramTypeBuddy,
		SubmittedAt: submittedAt,
	}, nil)

	raw, err := json.Marshal(ingestRequest{
		Content:     "the program changed how I see my neighborhood",
		SourceType:  "survey",
		ProgramType: "buddy",
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/evidence/snippets", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler.handleIngest(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), hash, resp["snippet_hash"])
	// Raw content never appears in the response.
	_, hasContent := resp["content"]
	assert.False(s.T(), hasContent)
}

func (s *EvidenceHandlerSuite) TestHandleIngest_Duplicate() {
	handler, mockService := newTestHandler(s.T())

	mockService.EXPECT().Ingest(gomock.Any(), gomock.Any()).
		Return(nil, derrors.New(derrors.CodeConflict, "duplicate evidence snippet"))

	raw, err := json.Marshal(ingestRequest{Content: "dup", SourceType: "survey", ProgramType: "buddy"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/evidence/snippets", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler.handleIngest(w, req)

	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *EvidenceHandlerSuite) TestHandleIngest_BadSourceType() {
	handler, _ := newTestHandler(s.T())

	raw, err := json.Marshal(ingestRequest{Content: "x", SourceType: "tiktok", ProgramType: "buddy"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/evidence/snippets", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler.handleIngest(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *EvidenceHandlerSuite) TestHandleAddScore() {
	handler, mockService := newTestHandler(s.T())
	hash := models.HashContent("score target")
	scoredAt := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	scoreID := id.NewOutcomeScoreID()

	mockService.EXPECT().AddScore(gomock.Any(), hash, id.DimensionConfidence, 0.72, 0.9, "scorer-v2").
		Return(&models.OutcomeScore{
			ID:          scoreID,
			SnippetHash: hash,
			Dimension:   id.DimensionConfidence,
			Score:       0.72,
			Confidence:  0.9,
			ScoredAt:    scoredAt,
			ModelTag:    "scorer-v2",
		}, nil)

	raw, err := json.Marshal(addScoreRequest{Dimension: "confidence", Score: 0.72, Confidence: 0.9, ModelTag: "scorer-v2"})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/evidence/snippets/"+hash+"/scores", bytes.NewReader(raw))
	req = withURLParam(req, "snippetHash", hash)
	w := httptest.NewRecorder()
	handler.handleAddScore(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), scoreID.String(), resp["id"])
	assert.Equal(s.T(), "confidence", resp["dimension"])
}

func (s *EvidenceHandlerSuite) TestHandleAddScore_UnknownSnippet() {
	handler, mockService := newTestHandler(s.T())
	hash := models.HashContent("never seen")

	mockService.EXPECT().AddScore(gomock.Any(), hash, id.DimensionConfidence, 0.5, 0.5, "").
		Return(nil, derrors.New(derrors.CodePreconditionNotMet, "snippet does not exist"))

	raw, err := json.Marshal(addScoreRequest{Dimension: "confidence", Score: 0.5, Confidence: 0.5})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/evidence/snippets/"+hash+"/scores", bytes.NewReader(raw))
	req = withURLParam(req, "snippetHash", hash)
	w := httptest.NewRecorder()
	handler.handleAddScore(w, req)

	assert.Equal(s.T(), http.StatusPreconditionFailed, w.Code)
}

func (s *EvidenceHandlerSuite) TestHandleListScores() {
	handler, mockService := newTestHandler(s.T())
	hash := models.HashContent("listed")

	mockService.EXPECT().ListScores(gomock.Any(), hash).Return([]models.OutcomeScore{
		{ID: id.NewOutcomeScoreID(), SnippetHash: hash, Dimension: id.DimensionBelonging, Score: 0.4, Confidence: 0.8},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/evidence/snippets/"+hash+"/scores", nil)
	req = withURLParam(req, "snippetHash", hash)
	w := httptest.NewRecorder()
	handler.handleListScores(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["items"].([]any)
	require.Len(s.T(), items, 1)
}

func (s *EvidenceHandlerSuite) TestHandleResolveLineage() {
	handler, mockService := newTestHandler(s.T())
	periodStart := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 3, 0)

	mockService.EXPECT().ResolveLineage(gomock.Any(), lineage.Metric{
		ID:          "confidence-2026-q2",
		Dimension:   id.DimensionConfidence,
		Value:       0.7,
		Method:      lineage.MethodAvg,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}).Return(&lineage.Lineage{
		MetricID:           "confidence-2026-q2",
		EvidenceChain:      []lineage.Entry{{Level: lineage.LevelMetric, Type: "metric", ID: "confidence-2026-q2", ContributionWeight: 0.7}},
		TotalEvidenceCount: 0,
	}, nil)

	raw, err := json.Marshal(resolveLineageRequest{
		MetricID:    "confidence-2026-q2",
		Dimension:   "confidence",
		Value:       0.7,
		Method:      "avg",
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/evidence/lineage", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler.handleResolveLineage(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "confidence-2026-q2", resp["metric_id"])
}

func (s *EvidenceHandlerSuite) TestHandleResolveLineage_BadMethod() {
	handler, _ := newTestHandler(s.T())
	periodStart := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	raw, err := json.Marshal(resolveLineageRequest{
		MetricID:    "m1",
		Dimension:   "confidence",
		Method:      "median",
		PeriodStart: periodStart,
		PeriodEnd:   periodStart.AddDate(0, 1, 0),
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/evidence/lineage", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler.handleResolveLineage(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}
