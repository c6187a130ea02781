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

func createNotificationService(t *testing.T, db *gorm.DB) *service.NotificationService {
	return service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())
}

func TestNotificationService(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := createNotificationService(t, db)
	ctx := context.Background()
	seedUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	seedUser(t, db, "user-2", "Ola Hansen", domain.RoleRep)

	entityID := uuid.New()
	require.NoError(t, svc.Notify(ctx, "user-1", domain.NotificationKindSnapshotFailed, "Snapshot refresh failed for Leads", &entityID))
	require.NoError(t, svc.Notify(ctx, "user-1", domain.NotificationKindReportShared, "Ola shared a report with you", nil))
	require.NoError(t, svc.Notify(ctx, "user-2", domain.NotificationKindReportShared, "Kari shared a report with you", nil))

	t.Run("list is per user", func(t *testing.T) {
		notifications, total, err := svc.List(ctx, "user-1", false, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, notifications, 2)
	})

	t.Run("unread count", func(t *testing.T) {
		count, err := svc.CountUnread(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("mark one read", func(t *testing.T) {
		notifications, _, err := svc.List(ctx, "user-1", false, 1, 20)
		require.NoError(t, err)

		require.NoError(t, svc.MarkRead(ctx, "user-1", notifications[0].ID))

		unread, total, err := svc.List(ctx, "user-1", true, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, unread, 1)
		assert.False(t, unread[0].Read)
	})

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		theirs, _, err := svc.List(ctx, "user-2", false, 1, 20)
		require.NoError(t, err)
		require.NotEmpty(t, theirs)

		err = svc.MarkRead(ctx, "user-1", theirs[0].ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("mark all read", func(t *testing.T) {
		updated, err := svc.MarkAllRead(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)

		count, err := svc.CountUnread(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
