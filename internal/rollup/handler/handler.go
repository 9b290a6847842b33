package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tangible/internal/platform/metrics"
	"tangible/internal/platform/middleware"
	"tangible/internal/rollup/models"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/httputil"
)

// Service defines the interface for rollup operations.
type Service interface {
	Log(ctx context.Context, instanceID id.InstanceID, kind models.ActivityKind, hours, credits float64, occurredAt time.Time) (*models.ActivityEntry, error)
	Run(ctx context.Context) error
}

// Handler handles activity log and rollup endpoints.
type Handler struct {
	logger       *slog.Logger
	rollup       Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new rollup Handler.
func New(
	rollup Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		rollup:       rollup,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the rollup routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(rollupRouter chi.Router) {
		rollupRouter.Use(middleware.Recovery(h.logger))
		rollupRouter.Use(middleware.RequestID)
		rollupRouter.Use(middleware.Logger(h.logger))
		rollupRouter.Use(middleware.Timeout(30 * time.Second))
		rollupRouter.Use(middleware.ContentTypeJSON)
		rollupRouter.Use(middleware.LatencyMiddleware(h.metrics))
		rollupRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		rollupRouter.Post("/instances/{instanceID}/activity", h.handleLogActivity)
		rollupRouter.Post("/rollup/run", h.handleRun)
	})
}

func (h *Handler) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instanceID, err := id.ParseInstanceID(chi.URLParam(r, "instanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req logActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	kind, err := models.ParseActivityKind(req.Kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var occurredAt time.Time
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	entry, err := h.rollup.Log(ctx, instanceID, kind, req.Hours, req.Credits, occurredAt)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to log activity",
				"request_id", middleware.GetRequestID(ctx),
				"instance_id", instanceID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEntryResponse(*entry))
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.rollup.Run(ctx); err != nil {
		h.logger.ErrorContext(ctx, "rollup run failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, runResponse{Status: "completed"})
}
