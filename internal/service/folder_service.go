package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/report"
	"github.com/straye-as/insight-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FolderService manages the saved report folder tree
type FolderService struct {
	folderRepo *repository.FolderRepository
	logger     *zap.Logger
}

func NewFolderService(folderRepo *repository.FolderRepository, logger *zap.Logger) *FolderService {
	return &FolderService{
		folderRepo: folderRepo,
		logger:     logger,
	}
}

func (s *FolderService) Create(ctx context.Context, scope report.AccessScope, req *domain.CreateFolderRequest) (*domain.Folder, error) {
	folder := &domain.Folder{
		Name:    req.Name,
		OwnerID: scope.OwnerID,
	}

	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid parent id", ErrInvalidInput)
		}
		if _, err := s.GetByID(ctx, scope, parentID); err != nil {
			return nil, err
		}
		folder.ParentID = &parentID
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return folder, nil
}

func (s *FolderService) GetByID(ctx context.Context, scope report.AccessScope, id uuid.UUID) (*domain.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return folder, nil
}

func (s *FolderService) List(ctx context.Context, scope report.AccessScope) ([]domain.Folder, error) {
	folders, err := s.folderRepo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

func (s *FolderService) Update(ctx context.Context, scope report.AccessScope, id uuid.UUID, req *domain.UpdateFolderRequest) (*domain.Folder, error) {
	folder, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	folder.Name = req.Name
	folder.ParentID = nil
	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid parent id", ErrInvalidInput)
		}
		if parentID == id {
			return nil, fmt.Errorf("%w: folder cannot be its own parent", ErrInvalidInput)
		}
		if _, err := s.GetByID(ctx, scope, parentID); err != nil {
			return nil, err
		}
		folder.ParentID = &parentID
	}

	if err := s.folderRepo.Update(ctx, scope, folder); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}

	return folder, nil
}

// Delete removes a folder. Reports inside it are detached, not deleted.
func (s *FolderService) Delete(ctx context.Context, scope report.AccessScope, id uuid.UUID) error {
	if err := s.folderRepo.Delete(ctx, scope, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	s.logger.Info("folder deleted", zap.String("folder_id", id.String()))
	return nil
}
