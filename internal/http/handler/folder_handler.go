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

// FolderHandler handles HTTP requests for report folders
type FolderHandler struct {
	folderService *service.FolderService
	logger        *zap.Logger
}

// NewFolderHandler creates a new FolderHandler instance
func NewFolderHandler(folderService *service.FolderService, logger *zap.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// Create godoc
// @Summary Create a report folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param request body domain.CreateFolderRequest true "Folder"
// @Success 201 {object} domain.Folder
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /folders [post]
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	var req domain.CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	folder, err := h.folderService.Create(r.Context(), userCtx.AccessScope(), &req)
	if err != nil {
		h.logger.Error("failed to create folder", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, folder)
}

// List godoc
// @Summary List report folders
// @Tags Folders
// @Produce json
// @Success 200 {array} domain.Folder
// @Security BearerAuth
// @Router /folders [get]
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	folders, err := h.folderService.List(r.Context(), userCtx.AccessScope())
	if err != nil {
		h.logger.Error("failed to list folders", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, folders)
}

// Update godoc
// @Summary Rename or move a folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param id path string true "Folder ID"
// @Param request body domain.UpdateFolderRequest true "Folder"
// @Success 200 {object} domain.Folder
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /folders/{id} [put]
func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}

	var req domain.UpdateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	folder, err := h.folderService.Update(r.Context(), userCtx.AccessScope(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, folder)
}

// Delete godoc
// @Summary Delete a folder
// @Description Deletes a folder; reports inside it are detached, not deleted
// @Tags Folders
// @Param id path string true "Folder ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /folders/{id} [delete]
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}

	if err := h.folderService.Delete(r.Context(), userCtx.AccessScope(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
