package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/report"
	"gorm.io/gorm"
)

// FolderRepository handles database operations for report folders.
type FolderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

func (r *FolderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	return r.db.WithContext(ctx).Create(folder).Error
}

func (r *FolderRepository) GetByID(ctx context.Context, scope report.AccessScope, id uuid.UUID) (*domain.Folder, error) {
	var folder domain.Folder
	query := r.db.WithContext(ctx).Preload("Reports").Where("id = ?", id)
	query = ApplyAccessScope(query, scope)
	if err := query.First(&folder).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

// List returns the caller's folders, roots first, children ordered by name.
func (r *FolderRepository) List(ctx context.Context, scope report.AccessScope) ([]domain.Folder, error) {
	var folders []domain.Folder
	query := r.db.WithContext(ctx).
		Order("CASE WHEN parent_id IS NULL THEN 0 ELSE 1 END, name ASC")
	query = ApplyAccessScope(query, scope)
	err := query.Find(&folders).Error
	return folders, err
}

func (r *FolderRepository) Update(ctx context.Context, scope report.AccessScope, folder *domain.Folder) error {
	existing, err := r.GetByID(ctx, scope, folder.ID)
	if err != nil {
		return fmt.Errorf("folder not found: %w", err)
	}
	folder.CreatedAt = existing.CreatedAt
	folder.OwnerID = existing.OwnerID
	return r.db.WithContext(ctx).Omit("Reports").Save(folder).Error
}

// Delete removes a folder. Reports inside it are detached, not deleted.
func (r *FolderRepository) Delete(ctx context.Context, scope report.AccessScope, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Report{}).
			Where("folder_id = ?", id).
			Update("folder_id", nil).Error; err != nil {
			return fmt.Errorf("detaching reports: %w", err)
		}
		result := ApplyAccessScope(tx.Where("id = ?", id), scope).Delete(&domain.Folder{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
