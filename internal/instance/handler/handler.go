package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tangible/internal/instance/lifecycle"
	"tangible/internal/instance/models"
	"tangible/internal/instance/store"
	"tangible/internal/platform/metrics"
	"tangible/internal/platform/middleware"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/httputil"
)

// Service defines the interface for program instance operations.
type Service interface {
	Plan(ctx context.Context, campaignID id.CampaignID, startDate, endDate time.Time) (*models.ProgramInstance, error)
	Get(ctx context.Context, instanceID id.InstanceID) (*models.ProgramInstance, error)
	List(ctx context.Context, filter store.ListFilter) ([]models.ProgramInstance, int, error)
	Transition(ctx context.Context, instanceID id.InstanceID, req lifecycle.Request) (*models.ProgramInstance, error)
}

// Handler handles program instance endpoints.
type Handler struct {
	logger       *slog.Logger
	instances    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	now          func() time.Time
}

// New creates a new instance Handler.
func New(
	instances Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		instances:    instances,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		now:          time.Now,
	}
}

// Register registers the instance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(instanceRouter chi.Router) {
		instanceRouter.Use(middleware.Recovery(h.logger))
		instanceRouter.Use(middleware.RequestID)
		instanceRouter.Use(middleware.Logger(h.logger))
		instanceRouter.Use(middleware.Timeout(30 * time.Second))
		instanceRouter.Use(middleware.ContentTypeJSON)
		instanceRouter.Use(middleware.LatencyMiddleware(h.metrics))
		instanceRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		instanceRouter.Post("/campaigns/{campaignID}/instances", h.handlePlan)
		instanceRouter.Get("/instances", h.handleList)
		instanceRouter.Get("/instances/{instanceID}", h.handleGet)
		instanceRouter.Post("/instances/{instanceID}/transition", h.handleTransition)
	})
}

var instanceSorts = map[string]bool{
	store.SortByCreatedAt: true,
	store.SortByStartDate: true,
	store.SortByEndDate:   true,
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req planInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	inst, err := h.instances.Plan(ctx, campaignID, req.StartDate, req.EndDate)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to plan instance",
				"request_id", middleware.GetRequestID(ctx),
				"campaign_id", campaignID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	h.writeInstance(w, r, http.StatusCreated, *inst)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instanceID, err := id.ParseInstanceID(chi.URLParam(r, "instanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	inst, err := h.instances.Get(ctx, instanceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeInstance(w, r, http.StatusOK, *inst)
}

type listResponse struct {
	Items      []instanceResponse  `json:"items"`
	Pagination httputil.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := httputil.ParseListParams(r, instanceSorts, store.SortByCreatedAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filter := store.ListFilter{
		Limit:     params.Limit,
		Offset:    params.Offset,
		SortBy:    params.SortBy,
		SortOrder: params.SortOrder,
	}
	if raw := r.URL.Query().Get("campaignId"); raw != "" {
		campaignID, err := id.ParseCampaignID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.CampaignID = &campaignID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseInstanceStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = &status
	}
	if r.URL.Query().Get("overdue") == "true" {
		asOf := h.now()
		filter.OverdueAsOf = &asOf
	}

	items, total, err := h.instances.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list instances",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := listResponse{
		Items:      make([]instanceResponse, 0, len(items)),
		Pagination: httputil.NewPagination(total, params.Limit, params.Offset),
	}
	now := h.now()
	for _, inst := range items {
		item, err := toInstanceResponse(inst, now)
		if err != nil {
			httputil.WriteError(w, derrors.Wrap(err, derrors.CodeInternal, "failed to encode instance"))
			return
		}
		resp.Items = append(resp.Items, item)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instanceID, err := id.ParseInstanceID(chi.URLParam(r, "instanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	lifecycleReq, err := req.toRequest()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	inst, err := h.instances.Transition(ctx, instanceID, lifecycleReq)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "instance transition failed",
				"request_id", middleware.GetRequestID(ctx),
				"instance_id", instanceID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	h.writeInstance(w, r, http.StatusOK, *inst)
}

func (h *Handler) writeInstance(w http.ResponseWriter, r *http.Request, status int, inst models.ProgramInstance) {
	resp, err := toInstanceResponse(inst, h.now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode instance",
			"request_id", middleware.GetRequestID(r.Context()),
			"instance_id", inst.ID,
			"error", err.Error(),
		)
		httputil.WriteError(w, derrors.Wrap(err, derrors.CodeInternal, "failed to encode instance"))
		return
	}
	httputil.WriteJSON(w, status, resp)
}
