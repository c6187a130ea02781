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

// ReportHandler handles HTTP requests for report generation and saved reports
type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

// NewReportHandler creates a new ReportHandler instance
func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Generate godoc
// @Summary Generate an ad-hoc report
// @Description Run a report config through the aggregation engine without saving it
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body domain.GenerateReportRequest true "Report config"
// @Success 200 {object} report.Result
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/generate [post]
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.reportService.Generate(r.Context(), userCtx.AccessScope(), req.Config)
	if err != nil {
		h.logger.Error("failed to generate report", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create a saved report
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body domain.CreateReportRequest true "Report definition"
// @Success 201 {object} domain.Report
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /reports [post]
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	rpt, err := h.reportService.Create(r.Context(), userCtx.AccessScope(), &req)
	if err != nil {
		h.logger.Error("failed to create report", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, rpt)
}

// List godoc
// @Summary List saved reports
// @Tags Reports
// @Produce json
// @Param folderId query string false "Filter by folder"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.ListResponse
// @Security BearerAuth
// @Router /reports [get]
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())
	page, pageSize := parsePagination(r)

	query := &domain.ListReportsQuery{Page: page, PageSize: pageSize}
	if folderID := r.URL.Query().Get("folderId"); folderID != "" {
		query.FolderID = &folderID
	}

	reports, total, err := h.reportService.List(r.Context(), userCtx.AccessScope(), query)
	if err != nil {
		h.logger.Error("failed to list reports", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.ListResponse{
		Items:      reports,
		TotalItems: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetByID godoc
// @Summary Get a saved report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} domain.Report
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/{id} [get]
func (h *ReportHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	rpt, err := h.reportService.GetByID(r.Context(), userCtx.AccessScope(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rpt)
}

// Update godoc
// @Summary Update a saved report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param request body domain.UpdateReportRequest true "Report definition"
// @Success 200 {object} domain.Report
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	var req domain.UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	rpt, err := h.reportService.Update(r.Context(), userCtx.AccessScope(), id, &req)
	if err != nil {
		h.logger.Error("failed to update report", zap.Error(err), zap.String("report_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rpt)
}

// Delete godoc
// @Summary Delete a saved report
// @Tags Reports
// @Param id path string true "Report ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	if err := h.reportService.Delete(r.Context(), userCtx.AccessScope(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Results godoc
// @Summary Get results for a saved report
// @Description Replays the stored report config through the aggregation engine
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Group keys per page (max 200)" default(20)
// @Success 200 {object} report.Result
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/{id}/results [get]
func (h *ReportHandler) Results(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	page, pageSize := parsePagination(r)

	result, err := h.reportService.Results(r.Context(), userCtx.AccessScope(), id, page, pageSize)
	if err != nil {
		h.logger.Error("failed to get report results", zap.Error(err), zap.String("report_id", id.String()))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Export godoc
// @Summary Export a saved report as CSV
// @Description Generates the full unpaginated series and streams it as CSV
// @Tags Reports
// @Produce text/csv
// @Param id path string true "Report ID"
// @Success 200 {string} string "CSV content"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/{id}/export [get]
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	export, err := h.reportService.Export(r.Context(), userCtx.AccessScope(), id)
	if err != nil {
		h.logger.Error("failed to export report", zap.Error(err), zap.String("report_id", id.String()))
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

// Fields godoc
// @Summary List reportable fields for an entity
// @Description Returns the dimension, measure and filter field whitelists
// @Tags Reports
// @Produce json
// @Param entity path string true "Entity name" Enums(activities, leads, persons, organizations)
// @Success 200 {object} service.FieldCatalog
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/fields/{entity} [get]
func (h *ReportHandler) Fields(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.reportService.Fields(chi.URLParam(r, "entity"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, catalog)
}
