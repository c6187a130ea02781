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

// DashboardService manages dashboards and their report placements
type DashboardService struct {
	dashboardRepo *repository.DashboardRepository
	reportRepo    *repository.ReportRepository
	logger        *zap.Logger
}

func NewDashboardService(
	dashboardRepo *repository.DashboardRepository,
	reportRepo *repository.ReportRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		dashboardRepo: dashboardRepo,
		reportRepo:    reportRepo,
		logger:        logger,
	}
}

func (s *DashboardService) Create(ctx context.Context, scope report.AccessScope, req *domain.CreateDashboardRequest) (*domain.Dashboard, error) {
	dashboard := &domain.Dashboard{
		Name:    req.Name,
		OwnerID: scope.OwnerID,
	}

	if err := s.dashboardRepo.Create(ctx, dashboard); err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}

	s.logger.Info("dashboard created",
		zap.String("dashboard_id", dashboard.ID.String()),
		zap.String("owner_id", dashboard.OwnerID),
	)

	return dashboard, nil
}

func (s *DashboardService) GetByID(ctx context.Context, scope report.AccessScope, id uuid.UUID) (*domain.Dashboard, error) {
	dashboard, err := s.dashboardRepo.GetByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	return dashboard, nil
}

func (s *DashboardService) List(ctx context.Context, scope report.AccessScope) ([]domain.Dashboard, error) {
	dashboards, err := s.dashboardRepo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	return dashboards, nil
}

func (s *DashboardService) Update(ctx context.Context, scope report.AccessScope, id uuid.UUID, req *domain.UpdateDashboardRequest) (*domain.Dashboard, error) {
	dashboard, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	dashboard.Name = req.Name
	if err := s.dashboardRepo.Update(ctx, scope, dashboard); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update dashboard: %w", err)
	}

	return dashboard, nil
}

func (s *DashboardService) Delete(ctx context.Context, scope report.AccessScope, id uuid.UUID) error {
	if err := s.dashboardRepo.Delete(ctx, scope, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}
	return nil
}

// ReplacePlacements replaces a dashboard's placement grid. Every referenced
// report must be visible to the caller.
func (s *DashboardService) ReplacePlacements(ctx context.Context, scope report.AccessScope, id uuid.UUID, req *domain.ReplacePlacementsRequest) (*domain.Dashboard, error) {
	if _, err := s.GetByID(ctx, scope, id); err != nil {
		return nil, err
	}

	placements := make([]domain.ReportPlacement, 0, len(req.Placements))
	for _, p := range req.Placements {
		reportID, err := uuid.Parse(p.ReportID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid report id", ErrInvalidInput)
		}
		if _, err := s.reportRepo.GetByID(ctx, scope, reportID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: report %s not found", ErrInvalidInput, reportID)
			}
			return nil, fmt.Errorf("failed to check report: %w", err)
		}
		placements = append(placements, domain.ReportPlacement{
			DashboardID: id,
			ReportID:    reportID,
			Row:         p.Row,
			Col:         p.Col,
			Width:       p.Width,
			Height:      p.Height,
		})
	}

	if err := s.dashboardRepo.ReplacePlacements(ctx, id, placements); err != nil {
		return nil, fmt.Errorf("failed to replace placements: %w", err)
	}

	return s.GetByID(ctx, scope, id)
}
