package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/auth"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/service"
	"go.uber.org/zap"
)

// DashboardHandler handles HTTP requests for dashboards
type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler instance
func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Create godoc
// @Summary Create a dashboard
// @Tags Dashboards
// @Accept json
// @Produce json
// @Param request body domain.CreateDashboardRequest true "Dashboard"
// @Success 201 {object} domain.Dashboard
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /dashboards [post]
func (h *DashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.CreateDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	dashboard, err := h.dashboardService.Create(r.Context(), userCtx.AccessScope(), &req)
	if err != nil {
		h.logger.Error("failed to create dashboard", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dashboard)
}

// List godoc
// @Summary List dashboards
// @Tags Dashboards
// @Produce json
// @Success 200 {array} domain.Dashboard
// @Security BearerAuth
// @Router /dashboards [get]
func (h *DashboardHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	dashboards, err := h.dashboardService.List(r.Context(), userCtx.AccessScope())
	if err != nil {
		h.logger.Error("failed to list dashboards", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboards)
}

// GetByID godoc
// @Summary Get a dashboard with its placements
// @Tags Dashboards
// @Produce json
// @Param id path string true "Dashboard ID"
// @Success 200 {object} domain.Dashboard
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /dashboards/{id} [get]
func (h *DashboardHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid dashboard ID")
		return
	}

	dashboard, err := h.dashboardService.GetByID(r.Context(), userCtx.AccessScope(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// Update godoc
// @Summary Rename a dashboard
// @Tags Dashboards
// @Accept json
// @Produce json
// @Param id path string true "Dashboard ID"
// @Param request body domain.UpdateDashboardRequest true "Dashboard"
// @Success 200 {object} domain.Dashboard
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /dashboards/{id} [put]
func (h *DashboardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid dashboard ID")
		return
	}

	var req domain.UpdateDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	dashboard, err := h.dashboardService.Update(r.Context(), userCtx.AccessScope(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// Delete godoc
// @Summary Delete a dashboard
// @Tags Dashboards
// @Param id path string true "Dashboard ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /dashboards/{id} [delete]
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid dashboard ID")
		return
	}

	if err := h.dashboardService.Delete(r.Context(), userCtx.AccessScope(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// ReplacePlacements godoc
// @Summary Replace a dashboard's report placements
// @Tags Dashboards
// @Accept json
// @Produce json
// @Param id path string true "Dashboard ID"
// @Param request body domain.ReplacePlacementsRequest true "Placements"
// @Success 200 {object} domain.Dashboard
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /dashboards/{id}/placements [put]
func (h *DashboardHandler) ReplacePlacements(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid dashboard ID")
		return
	}

	var req domain.ReplacePlacementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	dashboard, err := h.dashboardService.ReplacePlacements(r.Context(), userCtx.AccessScope(), id, &req)
	if err != nil {
		h.logger.Error("failed to replace placements", zap.Error(err), zap.String("dashboard_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}
