package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/report"
	"gorm.io/gorm"
)

// ReportRepository handles database operations for saved reports.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rpt *domain.Report) error {
	return r.db.WithContext(ctx).Create(rpt).Error
}

func (r *ReportRepository) GetByID(ctx context.Context, scope report.AccessScope, id uuid.UUID) (*domain.Report, error) {
	var rpt domain.Report
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyAccessScope(query, scope)
	if err := query.First(&rpt).Error; err != nil {
		return nil, err
	}
	return &rpt, nil
}

// List returns the caller's reports with pagination, optionally restricted
// to one folder.
func (r *ReportRepository) List(ctx context.Context, scope report.AccessScope, folderID *uuid.UUID, page, pageSize int) ([]domain.Report, int64, error) {
	var reports []domain.Report
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Report{})
	query = ApplyAccessScope(query, scope)
	if folderID != nil {
		query = query.Where("folder_id = ?", *folderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting reports: %w", err)
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).
		Order("updated_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, 0, fmt.Errorf("fetching reports: %w", err)
	}
	return reports, total, nil
}

func (r *ReportRepository) Update(ctx context.Context, scope report.AccessScope, rpt *domain.Report) error {
	existing, err := r.GetByID(ctx, scope, rpt.ID)
	if err != nil {
		return fmt.Errorf("report not found: %w", err)
	}

	// Preserve created_at and ownership from the original
	rpt.CreatedAt = existing.CreatedAt
	rpt.OwnerID = existing.OwnerID

	return r.db.WithContext(ctx).Save(rpt).Error
}

func (r *ReportRepository) Delete(ctx context.Context, scope report.AccessScope, id uuid.UUID) error {
	result := ApplyAccessScope(r.db.WithContext(ctx).Where("id = ?", id), scope).
		Delete(&domain.Report{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveSnapshot persists a freshly computed series snapshot on a report.
func (r *ReportRepository) SaveSnapshot(ctx context.Context, id uuid.UUID, snapshot string) error {
	return r.db.WithContext(ctx).Model(&domain.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"snapshot":     snapshot,
			"refreshed_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// ListAll returns every saved report regardless of owner. Used by the
// background jobs that refresh and mirror snapshots.
func (r *ReportRepository) ListAll(ctx context.Context) ([]domain.Report, error) {
	var reports []domain.Report
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&reports).Error
	return reports, err
}
