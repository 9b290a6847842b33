package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tangible/internal/disclosure/models"
	"tangible/internal/disclosure/store"
	"tangible/internal/platform/metrics"
	"tangible/internal/platform/middleware"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/httputil"
)

// Service defines the interface for disclosure pack operations.
type Service interface {
	Generate(ctx context.Context, req models.GenerateRequest) (*models.RegulatoryPack, error)
	Get(ctx context.Context, packID id.PackID) (*models.RegulatoryPack, error)
	Status(ctx context.Context, packID id.PackID) (models.PackStatus, error)
	List(ctx context.Context, filter store.ListFilter) ([]models.RegulatoryPack, int, error)
}

// Handler handles disclosure pack endpoints.
type Handler struct {
	logger       *slog.Logger
	packs        Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new disclosure Handler.
func New(
	packs Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		packs:        packs,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the disclosure routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(packRouter chi.Router) {
		packRouter.Use(middleware.Recovery(h.logger))
		packRouter.Use(middleware.RequestID)
		packRouter.Use(middleware.Logger(h.logger))
		packRouter.Use(middleware.Timeout(30 * time.Second))
		packRouter.Use(middleware.ContentTypeJSON)
		packRouter.Use(middleware.LatencyMiddleware(h.metrics))
		packRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		packRouter.Post("/disclosure/packs", h.handleGenerate)
		packRouter.Get("/disclosure/packs", h.handleList)
		packRouter.Get("/disclosure/packs/{packID}", h.handleGet)
		packRouter.Get("/disclosure/packs/{packID}/status", h.handleStatus)
	})
}

var packSorts = map[string]bool{
	store.SortByCreatedAt:   true,
	store.SortByPeriodStart: true,
	store.SortByGeneratedAt: true,
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generatePackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	generateReq, err := req.toRequest()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	pack, err := h.packs.Generate(ctx, generateReq)
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to request pack generation",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, generateAcceptedResponse{
		PackID: pack.ID.String(),
		Status: string(pack.Status),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	packID, err := id.ParsePackID(chi.URLParam(r, "packID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	pack, err := h.packs.Get(ctx, packID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPackResponse(*pack))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	packID, err := id.ParsePackID(chi.URLParam(r, "packID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.packs.Status(ctx, packID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		PackID: packID.String(),
		Status: string(status),
	})
}

type listResponse struct {
	Items      []packResponse      `json:"items"`
	Pagination httputil.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := httputil.ParseListParams(r, packSorts, store.SortByCreatedAt)
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
	if raw := r.URL.Query().Get("companyId"); raw != "" {
		companyID, err := id.ParseCompanyID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.CompanyID = &companyID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.PackStatus(raw)
		switch status {
		case models.PackPending, models.PackGenerating, models.PackCompleted, models.PackFailed:
		default:
			httputil.WriteError(w, derrors.New(derrors.CodeInvalidInput, "invalid pack status"))
			return
		}
		filter.Status = &status
	}

	items, total, err := h.packs.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list packs",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := listResponse{
		Items:      make([]packResponse, 0, len(items)),
		Pagination: httputil.NewPagination(total, params.Limit, params.Offset),
	}
	for _, p := range items {
		resp.Items = append(resp.Items, toPackResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
