package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSnapshotService struct {
	reports   []domain.Report
	listErr   error
	failNames map[string]bool
	refreshed []string
}

func (f *fakeSnapshotService) ListAll(ctx context.Context) ([]domain.Report, error) {
	return f.reports, f.listErr
}

func (f *fakeSnapshotService) RefreshSnapshot(ctx context.Context, rpt *domain.Report) error {
	if f.failNames[rpt.Name] {
		return errors.New("aggregation failed")
	}
	f.refreshed = append(f.refreshed, rpt.Name)
	return nil
}

type sentNotification struct {
	userID   string
	kind     domain.NotificationKind
	entityID *uuid.UUID
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Notify(ctx context.Context, userID string, kind domain.NotificationKind, message string, entityID *uuid.UUID) error {
	f.sent = append(f.sent, sentNotification{userID: userID, kind: kind, entityID: entityID})
	return nil
}

func testReport(name, ownerID string) domain.Report {
	return domain.Report{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Name:      name,
		Entity:    "leads",
		OwnerID:   ownerID,
	}
}

func TestSnapshotJob_RefreshesAllReports(t *testing.T) {
	svc := &fakeSnapshotService{
		reports: []domain.Report{
			testReport("Leads by status", "user-1"),
			testReport("Leads by source", "user-2"),
		},
	}
	notifier := &fakeNotifier{}

	job := NewSnapshotJob(svc, notifier, zap.NewNop(), time.Minute)
	job.Run()

	assert.Equal(t, []string{"Leads by status", "Leads by source"}, svc.refreshed)
	assert.Empty(t, notifier.sent)
}

func TestSnapshotJob_FailureNotifiesOwnerAndContinues(t *testing.T) {
	broken := testReport("Broken report", "user-1")
	svc := &fakeSnapshotService{
		reports: []domain.Report{
			broken,
			testReport("Working report", "user-2"),
		},
		failNames: map[string]bool{"Broken report": true},
	}
	notifier := &fakeNotifier{}

	job := NewSnapshotJob(svc, notifier, zap.NewNop(), time.Minute)
	job.Run()

	assert.Equal(t, []string{"Working report"}, svc.refreshed)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "user-1", notifier.sent[0].userID)
	assert.Equal(t, domain.NotificationKindSnapshotFailed, notifier.sent[0].kind)
	require.NotNil(t, notifier.sent[0].entityID)
	assert.Equal(t, broken.ID, *notifier.sent[0].entityID)
}

func TestSnapshotJob_ListFailureAborts(t *testing.T) {
	svc := &fakeSnapshotService{listErr: errors.New("db down")}
	notifier := &fakeNotifier{}

	job := NewSnapshotJob(svc, notifier, zap.NewNop(), time.Minute)
	job.Run()

	assert.Empty(t, svc.refreshed)
	assert.Empty(t, notifier.sent)
}

func TestScheduler_AddAndRemoveJobs(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("nightly", "0 2 * * *", func() {}))
	require.NoError(t, s.AddJob("hourly", "0 * * * *", func() {}))

	assert.ElementsMatch(t, []string{"nightly", "hourly"}, s.GetJobNames())

	require.NoError(t, s.RemoveJob("nightly"))
	assert.Equal(t, []string{"hourly"}, s.GetJobNames())

	assert.Error(t, s.RemoveJob("nightly"))
	assert.Error(t, s.AddJob("bad", "not a cron expr", func() {}))
}
