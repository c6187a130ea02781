package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/report"
	"github.com/straye-as/insight-api/internal/repository"
	"github.com/straye-as/insight-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportService orchestrates report generation, saved report CRUD, replay of
// stored configs and CSV exports.
type ReportService struct {
	engine     *report.Engine
	reportRepo *repository.ReportRepository
	store      storage.Storage
	logger     *zap.Logger
}

func NewReportService(
	engine *report.Engine,
	reportRepo *repository.ReportRepository,
	store storage.Storage,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		engine:     engine,
		reportRepo: reportRepo,
		store:      store,
		logger:     logger,
	}
}

// FieldCatalog is the whitelist of dimensions, measures and filterable fields
// for one entity, as consumed by the report builder UI.
type FieldCatalog struct {
	Entity       string               `json:"entity"`
	Dimensions   []string             `json:"dimensions"`
	Measures     []string             `json:"measures"`
	FilterFields []report.FilterField `json:"filterFields"`
}

// ExportResult is a generated CSV export artifact
type ExportResult struct {
	Filename    string `json:"filename"`
	StoragePath string `json:"storagePath"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// Generate runs an ad-hoc report from a raw config blob without saving it
func (s *ReportService) Generate(ctx context.Context, scope report.AccessScope, config json.RawMessage) (*report.Result, error) {
	spec, err := report.ParseSpec(string(config))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	result, err := s.engine.Generate(ctx, scope, spec)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return result, nil
}

// Create validates and saves a report definition.
// The config is parsed and re-serialized so only a canonical blob is stored.
func (s *ReportService) Create(ctx context.Context, scope report.AccessScope, req *domain.CreateReportRequest) (*domain.Report, error) {
	spec, err := report.ParseSpec(string(req.Config))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if _, err := s.engine.Registry().Get(spec.Entity); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	config, err := spec.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}

	chartType := req.ChartType
	if chartType == "" {
		chartType = "bar"
	}

	rpt := &domain.Report{
		Name:      req.Name,
		Entity:    spec.Entity,
		ChartType: chartType,
		Config:    config,
		OwnerID:   scope.OwnerID,
	}
	if req.FolderID != nil {
		folderID, err := uuid.Parse(*req.FolderID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid folder id", ErrInvalidInput)
		}
		rpt.FolderID = &folderID
	}

	if err := s.reportRepo.Create(ctx, rpt); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.logger.Info("report created",
		zap.String("report_id", rpt.ID.String()),
		zap.String("entity", rpt.Entity),
		zap.String("owner_id", rpt.OwnerID),
	)

	return rpt, nil
}

// GetByID fetches a saved report visible to the scope
func (s *ReportService) GetByID(ctx context.Context, scope report.AccessScope, id uuid.UUID) (*domain.Report, error) {
	rpt, err := s.reportRepo.GetByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rpt, nil
}

// List returns saved reports visible to the scope
func (s *ReportService) List(ctx context.Context, scope report.AccessScope, query *domain.ListReportsQuery) ([]domain.Report, int64, error) {
	var folderID *uuid.UUID
	if query.FolderID != nil {
		id, err := uuid.Parse(*query.FolderID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: invalid folder id", ErrInvalidInput)
		}
		folderID = &id
	}

	reports, total, err := s.reportRepo.List(ctx, scope, folderID, query.Page, query.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, total, nil
}

// Update replaces a saved report's definition. A changed config invalidates
// the stored snapshot.
func (s *ReportService) Update(ctx context.Context, scope report.AccessScope, id uuid.UUID, req *domain.UpdateReportRequest) (*domain.Report, error) {
	rpt, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	spec, err := report.ParseSpec(string(req.Config))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if _, err := s.engine.Registry().Get(spec.Entity); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	config, err := spec.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}

	if config != rpt.Config {
		rpt.Snapshot = ""
		rpt.RefreshedAt = nil
	}

	rpt.Name = req.Name
	rpt.Entity = spec.Entity
	rpt.Config = config
	if req.ChartType != "" {
		rpt.ChartType = req.ChartType
	}
	rpt.FolderID = nil
	if req.FolderID != nil {
		folderID, err := uuid.Parse(*req.FolderID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid folder id", ErrInvalidInput)
		}
		rpt.FolderID = &folderID
	}

	if err := s.reportRepo.Update(ctx, scope, rpt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	return rpt, nil
}

// Delete removes a saved report
func (s *ReportService) Delete(ctx context.Context, scope report.AccessScope, id uuid.UUID) error {
	if err := s.reportRepo.Delete(ctx, scope, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// Results replays a saved report's stored config through the engine.
// Page and pageSize override the per-request pagination; the stored config
// never carries pagination.
func (s *ReportService) Results(ctx context.Context, scope report.AccessScope, id uuid.UUID, page, pageSize int) (*report.Result, error) {
	rpt, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	spec, err := report.ParseSpec(rpt.Config)
	if err != nil {
		return nil, fmt.Errorf("stored config is not replayable: %w", err)
	}
	spec.Page = page
	spec.PageSize = pageSize

	result, err := s.engine.Generate(ctx, scope, spec)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return result, nil
}

// Export generates the full unpaginated series for a saved report and writes
// it to storage as CSV.
func (s *ReportService) Export(ctx context.Context, scope report.AccessScope, id uuid.UUID) (*ExportResult, error) {
	rpt, err := s.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	spec, err := report.ParseSpec(rpt.Config)
	if err != nil {
		return nil, fmt.Errorf("stored config is not replayable: %w", err)
	}

	result, err := s.engine.GenerateAll(ctx, scope, spec)
	if err != nil {
		return nil, mapEngineError(err)
	}

	data, err := renderCSV(spec, result)
	if err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.csv", sanitizeFilename(rpt.Name), time.Now().UTC().Format("20060102"))

	storagePath, size, err := s.store.Save(ctx, filename, "text/csv", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	s.logger.Info("report exported",
		zap.String("report_id", id.String()),
		zap.String("storage_path", storagePath),
		zap.Int64("size", size),
	)

	return &ExportResult{
		Filename:    filename,
		StoragePath: storagePath,
		Size:        size,
		Data:        data,
	}, nil
}

// Fields returns the dimension, measure and filter field whitelists for an entity
func (s *ReportService) Fields(entity string) (*FieldCatalog, error) {
	cfg, err := s.engine.Registry().Get(entity)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	return &FieldCatalog{
		Entity:       cfg.Entity,
		Dimensions:   cfg.DimensionKeys(),
		Measures:     cfg.MeasureKeys(),
		FilterFields: cfg.FilterFields,
	}, nil
}

// RefreshSnapshot recomputes and stores a report's full unpaginated series.
// The snapshot is generated with admin scope: it reflects all data, and
// row-level scoping is applied when the report is replayed live instead.
func (s *ReportService) RefreshSnapshot(ctx context.Context, rpt *domain.Report) error {
	spec, err := report.ParseSpec(rpt.Config)
	if err != nil {
		return fmt.Errorf("stored config is not replayable: %w", err)
	}

	result, err := s.engine.GenerateAll(ctx, report.AdminScope(), spec)
	if err != nil {
		return mapEngineError(err)
	}

	snapshot, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	if err := s.reportRepo.SaveSnapshot(ctx, rpt.ID, string(snapshot)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// ListAll returns every saved report, regardless of owner. Used by background jobs.
func (s *ReportService) ListAll(ctx context.Context) ([]domain.Report, error) {
	return s.reportRepo.ListAll(ctx)
}

// renderCSV writes a generated series as CSV. Flat series are two columns;
// segmented series get one column per segment label plus a total column.
func renderCSV(spec *report.Spec, result *report.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if spec.SegmentBy == "" {
		if err := w.Write([]string{spec.Dimension, spec.Measure}); err != nil {
			return nil, err
		}
		for _, point := range result.Series {
			if err := w.Write([]string{point.Label, formatFloat(point.Value)}); err != nil {
				return nil, err
			}
		}
	} else {
		// Collect segment labels in first-seen order for stable columns
		var segments []string
		seen := make(map[string]bool)
		for _, point := range result.Series {
			for _, seg := range point.Segments {
				if !seen[seg.LabelType] {
					seen[seg.LabelType] = true
					segments = append(segments, seg.LabelType)
				}
			}
		}

		header := append([]string{spec.Dimension}, segments...)
		header = append(header, "total")
		if err := w.Write(header); err != nil {
			return nil, err
		}

		for _, point := range result.Series {
			values := make(map[string]float64, len(point.Segments))
			for _, seg := range point.Segments {
				values[seg.LabelType] = seg.Value
			}
			row := make([]string, 0, len(segments)+2)
			row = append(row, point.Label)
			for _, seg := range segments {
				row = append(row, formatFloat(values[seg]))
			}
			row = append(row, formatFloat(point.TotalSegmentValue))
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// sanitizeFilename keeps export filenames to a safe character set
func sanitizeFilename(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ', r == '-', r == '_':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "report"
	}
	return string(out)
}

// mapEngineError translates engine validation errors to service errors so
// handlers can respond 400 instead of 500.
func mapEngineError(err error) error {
	switch {
	case errors.Is(err, report.ErrUnknownEntity),
		errors.Is(err, report.ErrUnknownDimension),
		errors.Is(err, report.ErrUnknownMeasure),
		errors.Is(err, report.ErrUnknownColumn),
		errors.Is(err, report.ErrInvalidFilter),
		errors.Is(err, report.ErrMissingDimension),
		errors.Is(err, report.ErrMissingMeasure):
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	default:
		return err
	}
}
