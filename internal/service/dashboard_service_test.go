package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/repository"
	"github.com/straye-as/insight-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createDashboardService(t *testing.T, db *gorm.DB) *service.DashboardService {
	log := zap.NewNop()
	return service.NewDashboardService(
		repository.NewDashboardRepository(db),
		repository.NewReportRepository(db),
		log,
	)
}

func TestDashboardService_CRUD(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createDashboardService(t, db)
	ctx := context.Background()
	seedUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	seedUser(t, db, "user-2", "Ola Hansen", domain.RoleRep)

	dashboard, err := svc.Create(ctx, repScope("user-1"), &domain.CreateDashboardRequest{Name: "Sales"})
	require.NoError(t, err)
	assert.Equal(t, "Sales", dashboard.Name)
	assert.Equal(t, "user-1", dashboard.OwnerID)

	t.Run("list is scoped to the owner", func(t *testing.T) {
		mine, err := svc.List(ctx, repScope("user-1"))
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		theirs, err := svc.List(ctx, repScope("user-2"))
		require.NoError(t, err)
		assert.Empty(t, theirs)
	})

	t.Run("update renames", func(t *testing.T) {
		updated, err := svc.Update(ctx, repScope("user-1"), dashboard.ID, &domain.UpdateDashboardRequest{Name: "Sales Q3"})
		require.NoError(t, err)
		assert.Equal(t, "Sales Q3", updated.Name)
	})

	t.Run("another rep cannot update", func(t *testing.T) {
		_, err := svc.Update(ctx, repScope("user-2"), dashboard.ID, &domain.UpdateDashboardRequest{Name: "Hijacked"})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("delete removes it", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, repScope("user-1"), dashboard.ID))
		_, err := svc.GetByID(ctx, repScope("user-1"), dashboard.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestDashboardService_ReplacePlacements(t *testing.T) {
	db := setupServiceTestDB(t)
	dashboards := createDashboardService(t, db)
	reports := createReportService(t, db)
	ctx := context.Background()
	seedUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	seedUser(t, db, "user-2", "Ola Hansen", domain.RoleRep)

	dashboard, err := dashboards.Create(ctx, repScope("user-1"), &domain.CreateDashboardRequest{Name: "Sales"})
	require.NoError(t, err)

	first, err := reports.Create(ctx, repScope("user-1"), &domain.CreateReportRequest{
		Name: "Leads", Config: leadCountConfig(),
	})
	require.NoError(t, err)
	second, err := reports.Create(ctx, repScope("user-1"), &domain.CreateReportRequest{
		Name: "More leads", Config: leadCountConfig(),
	})
	require.NoError(t, err)

	t.Run("replaces the full set", func(t *testing.T) {
		updated, err := dashboards.ReplacePlacements(ctx, repScope("user-1"), dashboard.ID, &domain.ReplacePlacementsRequest{
			Placements: []domain.PlacementRequest{
				{ReportID: first.ID.String(), Row: 0, Col: 0, Width: 6, Height: 4},
				{ReportID: second.ID.String(), Row: 0, Col: 6, Width: 6, Height: 4},
			},
		})
		require.NoError(t, err)
		assert.Len(t, updated.Placements, 2)

		updated, err = dashboards.ReplacePlacements(ctx, repScope("user-1"), dashboard.ID, &domain.ReplacePlacementsRequest{
			Placements: []domain.PlacementRequest{
				{ReportID: second.ID.String(), Row: 0, Col: 0, Width: 12, Height: 6},
			},
		})
		require.NoError(t, err)
		require.Len(t, updated.Placements, 1)
		assert.Equal(t, second.ID, updated.Placements[0].ReportID)
		assert.Equal(t, 12, updated.Placements[0].Width)
	})

	t.Run("rejects a report the caller cannot see", func(t *testing.T) {
		foreign, err := reports.Create(ctx, repScope("user-2"), &domain.CreateReportRequest{
			Name: "Theirs", Config: leadCountConfig(),
		})
		require.NoError(t, err)

		_, err = dashboards.ReplacePlacements(ctx, repScope("user-1"), dashboard.ID, &domain.ReplacePlacementsRequest{
			Placements: []domain.PlacementRequest{
				{ReportID: foreign.ID.String(), Width: 6, Height: 4},
			},
		})
		assert.Error(t, err)
	})

	t.Run("rejects an unknown report id", func(t *testing.T) {
		_, err := dashboards.ReplacePlacements(ctx, repScope("user-1"), dashboard.ID, &domain.ReplacePlacementsRequest{
			Placements: []domain.PlacementRequest{
				{ReportID: uuid.NewString(), Width: 6, Height: 4},
			},
		})
		assert.Error(t, err)
	})
}
