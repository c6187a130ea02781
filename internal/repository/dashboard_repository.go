package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/report"
	"gorm.io/gorm"
)

// DashboardRepository handles database operations for dashboards and their
// report placements.
type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) Create(ctx context.Context, dashboard *domain.Dashboard) error {
	return r.db.WithContext(ctx).Create(dashboard).Error
}

func (r *DashboardRepository) GetByID(ctx context.Context, scope report.AccessScope, id uuid.UUID) (*domain.Dashboard, error) {
	var dashboard domain.Dashboard
	query := r.db.WithContext(ctx).
		Preload("Placements").
		Preload("Placements.Report").
		Where("id = ?", id)
	query = ApplyAccessScope(query, scope)
	if err := query.First(&dashboard).Error; err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (r *DashboardRepository) List(ctx context.Context, scope report.AccessScope) ([]domain.Dashboard, error) {
	var dashboards []domain.Dashboard
	query := r.db.WithContext(ctx).Order("updated_at DESC")
	query = ApplyAccessScope(query, scope)
	err := query.Find(&dashboards).Error
	return dashboards, err
}

func (r *DashboardRepository) Update(ctx context.Context, scope report.AccessScope, dashboard *domain.Dashboard) error {
	existing, err := r.GetByID(ctx, scope, dashboard.ID)
	if err != nil {
		return fmt.Errorf("dashboard not found: %w", err)
	}
	dashboard.CreatedAt = existing.CreatedAt
	dashboard.OwnerID = existing.OwnerID
	return r.db.WithContext(ctx).Omit("Placements").Save(dashboard).Error
}

func (r *DashboardRepository) Delete(ctx context.Context, scope report.AccessScope, id uuid.UUID) error {
	result := ApplyAccessScope(r.db.WithContext(ctx).Where("id = ?", id), scope).
		Delete(&domain.Dashboard{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplacePlacements atomically swaps a dashboard's report placements.
func (r *DashboardRepository) ReplacePlacements(ctx context.Context, dashboardID uuid.UUID, placements []domain.ReportPlacement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dashboard_id = ?", dashboardID).Delete(&domain.ReportPlacement{}).Error; err != nil {
			return fmt.Errorf("clearing placements: %w", err)
		}
		for i := range placements {
			placements[i].DashboardID = dashboardID
		}
		if len(placements) == 0 {
			return nil
		}
		if err := tx.Create(&placements).Error; err != nil {
			return fmt.Errorf("saving placements: %w", err)
		}
		return nil
	})
}
