package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tangible/internal/evidence/lineage"
	"tangible/internal/evidence/models"
	"tangible/internal/evidence/service"
	"tangible/internal/platform/metrics"
	"tangible/internal/platform/middleware"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/httputil"
)

// Service defines the interface for evidence operations.
type Service interface {
	Ingest(ctx context.Context, params service.IngestParams) (*models.EvidenceSnippet, error)
	AddScore(ctx context.Context, snippetHash string, dimension id.OutcomeDimension, score, confidence float64, modelTag string) (*models.OutcomeScore, error)
	ListScores(ctx context.Context, snippetHash string) ([]models.OutcomeScore, error)
	ResolveLineage(ctx context.Context, metric lineage.Metric) (*lineage.Lineage, error)
}

// Handler handles evidence endpoints.
type Handler struct {
	logger       *slog.Logger
	evidence     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new evidence Handler.
func New(
	evidence Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		evidence:     evidence,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the evidence routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(evidenceRouter chi.Router) {
		evidenceRouter.Use(middleware.Recovery(h.logger))
		evidenceRouter.Use(middleware.RequestID)
		evidenceRouter.Use(middleware.Logger(h.logger))
		evidenceRouter.Use(middleware.Timeout(30 * time.Second))
		evidenceRouter.Use(middleware.ContentTypeJSON)
		evidenceRouter.Use(middleware.LatencyMiddleware(h.metrics))
		evidenceRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		evidenceRouter.Post("/evidence/snippets", h.handleIngest)
		evidenceRouter.Post("/evidence/snippets/{snippetHash}/scores", h.handleAddScore)
		evidenceRouter.Get("/evidence/snippets/{snippetHash}/scores", h.handleListScores)
		evidenceRouter.Post("/evidence/lineage", h.handleResolveLineage)
	})
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	params, err := req.toParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	snip, err := h.evidence.Ingest(ctx, params)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to ingest snippet",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSnippetResponse(*snip))
}

func (h *Handler) handleAddScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snippetHash := chi.URLParam(r, "snippetHash")

	var req addScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	dimension, err := id.ParseOutcomeDimension(req.Dimension)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sc, err := h.evidence.AddScore(ctx, snippetHash, dimension, req.Score, req.Confidence, req.ModelTag)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to add outcome score",
				"request_id", middleware.GetRequestID(ctx),
				"snippet_hash", snippetHash,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toScoreResponse(*sc))
}

func (h *Handler) handleListScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snippetHash := chi.URLParam(r, "snippetHash")

	scores, err := h.evidence.ListScores(ctx, snippetHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items := make([]scoreResponse, 0, len(scores))
	for _, sc := range scores {
		items = append(items, toScoreResponse(sc))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) handleResolveLineage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resolveLineageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	metric, err := req.toMetric()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	chain, err := h.evidence.ResolveLineage(ctx, metric)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to resolve lineage",
				"request_id", middleware.GetRequestID(ctx),
				"metric_id", metric.ID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, chain)
}
