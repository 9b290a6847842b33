package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tangible/internal/campaign/lifecycle"
	"tangible/internal/campaign/models"
	"tangible/internal/campaign/store"
	"tangible/internal/platform/metrics"
	"tangible/internal/platform/middleware"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/httputil"
)

// Service defines the interface for campaign operations.
type Service interface {
	Create(ctx context.Context, params models.NewCampaignParams) (*models.Campaign, error)
	Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, *lifecycle.DerivedFlags, error)
	List(ctx context.Context, filter store.ListFilter) ([]models.Campaign, int, error)
	Flags(c models.Campaign) lifecycle.DerivedFlags
	Transition(ctx context.Context, campaignID id.CampaignID, req lifecycle.Request) (*models.Campaign, error)
	Archive(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
}

// Handler handles campaign endpoints.
type Handler struct {
	logger       *slog.Logger
	campaigns    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new campaign Handler.
func New(
	campaigns Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		campaigns:    campaigns,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the campaign routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(campaignRouter chi.Router) {
		campaignRouter.Use(middleware.Recovery(h.logger))
		campaignRouter.Use(middleware.RequestID)
		campaignRouter.Use(middleware.Logger(h.logger))
		campaignRouter.Use(middleware.Timeout(30 * time.Second))
		campaignRouter.Use(middleware.ContentTypeJSON)
		campaignRouter.Use(middleware.LatencyMiddleware(h.metrics))
		campaignRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		campaignRouter.Post("/campaigns", h.handleCreate)
		campaignRouter.Get("/campaigns", h.handleList)
		campaignRouter.Get("/campaigns/{campaignID}", h.handleGet)
		campaignRouter.Post("/campaigns/{campaignID}/transition", h.handleTransition)
		campaignRouter.Post("/campaigns/{campaignID}/archive", h.handleArchive)
	})
}

var campaignSorts = map[string]bool{
	store.SortByCreatedAt: true,
	store.SortByName:      true,
	store.SortByStartDate: true,
	store.SortByBudget:    true,
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid create campaign request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	params, err := req.toParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.campaigns.Create(ctx, params)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to create campaign",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCampaignResponse(*c, h.campaigns.Flags(*c)))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, flags, err := h.campaigns.Get(ctx, campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCampaignResponse(*c, *flags))
}

type listResponse struct {
	Items      []campaignResponse  `json:"items"`
	Pagination httputil.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := httputil.ParseListParams(r, campaignSorts, store.SortByCreatedAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filter := store.ListFilter{
		Limit:           params.Limit,
		Offset:          params.Offset,
		SortBy:          params.SortBy,
		SortOrder:       params.SortOrder,
		IncludeArchived: r.URL.Query().Get("includeArchived") == "true",
	}
	if raw := r.URL.Query().Get("companyId"); raw != "" {
		companyID, err := id.ParseCompanyID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.CompanyID = &companyID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseCampaignStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = &status
	}

	items, total, err := h.campaigns.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list campaigns",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := listResponse{
		Items:      make([]campaignResponse, 0, len(items)),
		Pagination: httputil.NewPagination(total, params.Limit, params.Offset),
	}
	for _, c := range items {
		resp.Items = append(resp.Items, toCampaignResponse(c, h.campaigns.Flags(c)))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
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

	c, err := h.campaigns.Transition(ctx, campaignID, lifecycleReq)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "campaign transition failed",
				"request_id", middleware.GetRequestID(ctx),
				"campaign_id", campaignID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCampaignResponse(*c, h.campaigns.Flags(*c)))
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.campaigns.Archive(ctx, campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCampaignResponse(*c, h.campaigns.Flags(*c)))
}
