package jobs

import (
	"context"
	"time"

	"github.com/straye-as/insight-api/internal/warehouse"
	"go.uber.org/zap"
)

// WarehouseSyncJobName is the name of the warehouse mirror job
const WarehouseSyncJobName = "warehouse_sync"

// WarehouseSyncJob mirrors refreshed report snapshots into the MS SQL
// reporting warehouse. Reports without a snapshot are skipped.
type WarehouseSyncJob struct {
	reports   SnapshotService
	warehouse *warehouse.Client
	logger    *zap.Logger
	timeout   time.Duration
}

// NewWarehouseSyncJob creates a new warehouse sync job
func NewWarehouseSyncJob(reports SnapshotService, client *warehouse.Client, logger *zap.Logger, timeout time.Duration) *WarehouseSyncJob {
	return &WarehouseSyncJob{
		reports:   reports,
		warehouse: client,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run executes one warehouse mirror pass
func (j *WarehouseSyncJob) Run() {
	if !j.warehouse.IsEnabled() {
		j.logger.Debug("warehouse disabled, skipping sync")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting warehouse sync job")

	reports, err := j.reports.ListAll(ctx)
	if err != nil {
		j.logger.Error("warehouse sync failed to list reports", zap.Error(err))
		return
	}

	published, skipped, failed := 0, 0, 0
	for i := range reports {
		rpt := &reports[i]
		if rpt.Snapshot == "" || rpt.RefreshedAt == nil {
			skipped++
			continue
		}

		rec := &warehouse.SnapshotRecord{
			ReportID:    rpt.ID.String(),
			Name:        rpt.Name,
			Entity:      rpt.Entity,
			OwnerID:     rpt.OwnerID,
			Snapshot:    rpt.Snapshot,
			RefreshedAt: *rpt.RefreshedAt,
		}
		if err := j.warehouse.PublishSnapshot(ctx, rec); err != nil {
			failed++
			j.logger.Error("warehouse publish failed",
				zap.Error(err),
				zap.String("report_id", rpt.ID.String()),
			)
			continue
		}
		published++
	}

	j.logger.Info("warehouse sync job completed",
		zap.Int("published", published),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
}
