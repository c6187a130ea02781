package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/repository"
	"github.com/straye-as/insight-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createFolderService(t *testing.T, db *gorm.DB) *service.FolderService {
	return service.NewFolderService(repository.NewFolderRepository(db), zap.NewNop())
}

func TestFolderService_CRUD(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createFolderService(t, db)
	ctx := context.Background()
	seedUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	seedUser(t, db, "user-2", "Ola Hansen", domain.RoleRep)

	root, err := svc.Create(ctx, repScope("user-1"), &domain.CreateFolderRequest{Name: "Sales reports"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", root.OwnerID)
	assert.Nil(t, root.ParentID)

	t.Run("nested folder", func(t *testing.T) {
		parentID := root.ID.String()
		child, err := svc.Create(ctx, repScope("user-1"), &domain.CreateFolderRequest{
			Name:     "Q3",
			ParentID: &parentID,
		})
		require.NoError(t, err)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)
	})

	t.Run("cannot nest under a foreign folder", func(t *testing.T) {
		parentID := root.ID.String()
		_, err := svc.Create(ctx, repScope("user-2"), &domain.CreateFolderRequest{
			Name:     "Sneaky",
			ParentID: &parentID,
		})
		assert.Error(t, err)
	})

	t.Run("cannot become its own parent", func(t *testing.T) {
		selfID := root.ID.String()
		_, err := svc.Update(ctx, repScope("user-1"), root.ID, &domain.UpdateFolderRequest{
			Name:     "Sales reports",
			ParentID: &selfID,
		})
		assert.Error(t, err)
	})

	t.Run("list is scoped to the owner", func(t *testing.T) {
		mine, err := svc.List(ctx, repScope("user-1"))
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		theirs, err := svc.List(ctx, repScope("user-2"))
		require.NoError(t, err)
		assert.Empty(t, theirs)
	})
}

func TestFolderService_DeleteDetachesReports(t *testing.T) {
	db := setupServiceTestDB(t)
	folders := createFolderService(t, db)
	reports := createReportService(t, db)
	ctx := context.Background()
	seedUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)

	folder, err := folders.Create(ctx, repScope("user-1"), &domain.CreateFolderRequest{Name: "Temp"})
	require.NoError(t, err)

	folderID := folder.ID.String()
	rpt, err := reports.Create(ctx, repScope("user-1"), &domain.CreateReportRequest{
		Name:     "Leads",
		Config:   leadCountConfig(),
		FolderID: &folderID,
	})
	require.NoError(t, err)
	require.NotNil(t, rpt.FolderID)

	require.NoError(t, folders.Delete(ctx, repScope("user-1"), folder.ID))

	// The report survives with no folder.
	got, err := reports.GetByID(ctx, repScope("user-1"), rpt.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)
}
