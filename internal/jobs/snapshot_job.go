package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"go.uber.org/zap"
)

// SnapshotJobName is the name of the report snapshot refresh job
const SnapshotJobName = "snapshot_refresh"

// SnapshotService refreshes saved report snapshots. The interface lets the
// job run without importing the service package directly.
type SnapshotService interface {
	ListAll(ctx context.Context) ([]domain.Report, error)
	RefreshSnapshot(ctx context.Context, rpt *domain.Report) error
}

// Notifier records snapshot outcomes as user notifications
type Notifier interface {
	Notify(ctx context.Context, userID string, kind domain.NotificationKind, message string, entityID *uuid.UUID) error
}

// SnapshotJob recomputes the stored series of every saved report so
// dashboards render without hitting the aggregation engine live.
type SnapshotJob struct {
	reports  SnapshotService
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration
}

// NewSnapshotJob creates a new snapshot refresh job.
// The timeout bounds one full refresh run across all reports.
func NewSnapshotJob(reports SnapshotService, notifier Notifier, logger *zap.Logger, timeout time.Duration) *SnapshotJob {
	return &SnapshotJob{
		reports:  reports,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run executes one snapshot refresh pass over all saved reports.
// A failing report is logged and skipped; the pass continues.
func (j *SnapshotJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting snapshot refresh job")

	reports, err := j.reports.ListAll(ctx)
	if err != nil {
		j.logger.Error("snapshot refresh failed to list reports", zap.Error(err))
		return
	}

	refreshed, failed := 0, 0
	for i := range reports {
		rpt := &reports[i]
		if err := j.reports.RefreshSnapshot(ctx, rpt); err != nil {
			failed++
			j.logger.Error("snapshot refresh failed",
				zap.Error(err),
				zap.String("report_id", rpt.ID.String()),
				zap.String("report_name", rpt.Name),
			)
			if j.notifier != nil {
				id := rpt.ID
				_ = j.notifier.Notify(ctx, rpt.OwnerID, domain.NotificationKindSnapshotFailed,
					"Snapshot refresh failed for report "+rpt.Name, &id)
			}
			continue
		}
		refreshed++
	}

	j.logger.Info("snapshot refresh job completed",
		zap.Int("refreshed", refreshed),
		zap.Int("failed", failed),
		zap.Int("total", len(reports)),
		zap.Duration("duration", time.Since(start)),
	)
}
