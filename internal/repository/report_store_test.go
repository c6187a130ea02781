package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/report"
	"github.com/straye-as/insight-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a per-test in-memory sqlite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&domain.User{},
		&domain.Organization{},
		&domain.Person{},
		&domain.Lead{},
		&domain.Activity{},
		&domain.Folder{},
		&domain.Report{},
		&domain.Dashboard{},
		&domain.ReportPlacement{},
		&domain.Notification{},
	)
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, id, name string, role domain.UserRoleType) *domain.User {
	user := &domain.User{
		ID:    id,
		Email: id + "@example.com",
		Name:  name,
		Role:  role,
		Team:  "Sales",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestLead(t *testing.T, db *gorm.DB, ownerID, status, source string, value float64, createdAt time.Time, converted bool) *domain.Lead {
	lead := &domain.Lead{
		Title:   "Lead " + uuid.NewString()[:8],
		Status:  domain.LeadStatus(status),
		Source:  source,
		Value:   value,
		OwnerID: ownerID,
	}
	lead.CreatedAt = createdAt
	lead.UpdatedAt = createdAt
	if converted {
		dealID := uuid.New()
		lead.ConvertedDealID = &dealID
		convertedAt := createdAt.Add(72 * time.Hour)
		lead.ConvertedAt = &convertedAt
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

func mustGenerate(t *testing.T, db *gorm.DB, scope report.AccessScope, spec *report.Spec) *report.Result {
	engine := report.NewEngine(repository.NewReportStore(db), report.DefaultRegistry(), zap.NewNop())
	result, err := engine.Generate(context.Background(), scope, spec)
	require.NoError(t, err)
	return result
}

func TestReportStore_Dialect(t *testing.T) {
	db := setupTestDB(t)
	store := repository.NewReportStore(db)
	assert.Equal(t, "sqlite", store.Dialect())
}

func TestReportStore_CountDistinct(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	now := time.Now().UTC()

	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-1", "new", "referral", 200, now, false)
	createTestLead(t, db, "user-1", "won", "web", 300, now, false)

	store := repository.NewReportStore(db)
	total, err := store.CountDistinct(context.Background(), report.CountQuery{
		Table: "leads",
		Expr:  "leads.status",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	total, err = store.CountDistinct(context.Background(), report.CountQuery{
		Table: "leads",
		Expr:  "leads.source",
		Where: report.Predicate{SQL: "leads.status = ?", Args: []interface{}{"new"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestReportStore_FindGrouped(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	now := time.Now().UTC()

	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-1", "new", "web", 150, now, false)
	createTestLead(t, db, "user-1", "won", "referral", 300, now, false)

	store := repository.NewReportStore(db)
	rows, err := store.FindGrouped(context.Background(), report.GroupQuery{
		Table: "leads",
		Selects: []string{
			"leads.status AS x_key",
			"leads.status AS x_label",
			"COALESCE(SUM(leads.value), 0) AS y_value",
		},
		GroupBy: []string{"leads.status"},
		Order:   "COALESCE(SUM(leads.value), 0) DESC",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "won", rows[0].XKey.String)
	assert.Equal(t, float64(300), rows[0].YValue.Float64)
	assert.Equal(t, "new", rows[1].XKey.String)
	assert.Equal(t, float64(250), rows[1].YValue.Float64)
}

func TestEngineOnSQLite_FlatCountWithScope(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	createTestUser(t, db, "user-2", "Ola Hansen", domain.RoleRep)
	now := time.Now().UTC()

	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-1", "won", "web", 100, now, false)
	createTestLead(t, db, "user-2", "new", "web", 100, now, false)

	spec := &report.Spec{Entity: "leads", Dimension: "status", Measure: "no of leads"}

	t.Run("rep sees only own records", func(t *testing.T) {
		result := mustGenerate(t, db, report.AccessScope{OwnerID: "user-1", Role: domain.RoleRep}, spec)
		require.Len(t, result.Series, 2)
		assert.Equal(t, "new", result.Series[0].Label)
		assert.Equal(t, float64(2), result.Series[0].Value)
		assert.Equal(t, float64(3), result.TotalValue)
		assert.Equal(t, int64(3), result.Summary.TotalRecords)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		result := mustGenerate(t, db, report.AdminScope(), spec)
		assert.Equal(t, float64(4), result.TotalValue)
		assert.Equal(t, int64(4), result.Summary.TotalRecords)
	})
}

func TestEngineOnSQLite_EmptyGroupKeyShowsUnknown(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	now := time.Now().UTC()

	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-1", "new", "", 100, now, false)

	result := mustGenerate(t, db, report.AdminScope(), &report.Spec{
		Entity: "leads", Dimension: "source", Measure: "no of leads",
	})

	labels := make([]string, 0, len(result.Series))
	for _, p := range result.Series {
		labels = append(labels, p.Label)
	}
	assert.ElementsMatch(t, []string{"web", report.UnknownLabel}, labels)
}

func TestEngineOnSQLite_SumMeasure(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	now := time.Now().UTC()

	createTestLead(t, db, "user-1", "new", "web", 1000, now, false)
	createTestLead(t, db, "user-1", "new", "web", 500, now, false)
	createTestLead(t, db, "user-1", "new", "referral", 200, now, false)

	result := mustGenerate(t, db, report.AdminScope(), &report.Spec{
		Entity: "leads", Dimension: "source", Measure: "value",
	})

	require.Len(t, result.Series, 2)
	assert.Equal(t, "web", result.Series[0].Label)
	assert.Equal(t, float64(1500), result.Series[0].Value)
	assert.Equal(t, float64(1700), result.TotalValue)
}

func TestEngineOnSQLite_ConversionRateGuardedZero(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	now := time.Now().UTC()

	// Two of four web leads converted; no referral leads converted.
	createTestLead(t, db, "user-1", "qualified", "web", 100, now, true)
	createTestLead(t, db, "user-1", "qualified", "web", 100, now, true)
	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-1", "new", "referral", 100, now, false)

	result := mustGenerate(t, db, report.AdminScope(), &report.Spec{
		Entity: "leads", Dimension: "source", Measure: "conversion rate",
	})

	byLabel := make(map[string]float64)
	for _, p := range result.Series {
		byLabel[p.Label] = p.Value
	}
	assert.Equal(t, float64(50), byLabel["web"])
	assert.Equal(t, float64(0), byLabel["referral"])
}

func TestEngineOnSQLite_MonthlyBucketsChronological(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)

	jan := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	// February has the most leads; order must still be chronological.
	createTestLead(t, db, "user-1", "new", "web", 100, jan, false)
	createTestLead(t, db, "user-1", "new", "web", 100, feb, false)
	createTestLead(t, db, "user-1", "new", "web", 100, feb, false)
	createTestLead(t, db, "user-1", "new", "web", 100, feb, false)
	createTestLead(t, db, "user-1", "new", "web", 100, mar, false)

	result := mustGenerate(t, db, report.AdminScope(), &report.Spec{
		Entity:     "leads",
		Dimension:  "createdAt",
		Measure:    "no of leads",
		DateBucket: report.BucketMonthly,
	})

	require.Len(t, result.Series, 3)
	assert.Equal(t, "01/2026", result.Series[0].Label)
	assert.Equal(t, "02/2026", result.Series[1].Label)
	assert.Equal(t, "03/2026", result.Series[2].Label)
	assert.Equal(t, float64(3), result.Series[1].Value)
}

func TestEngineOnSQLite_WeeklyBucketsUseISOWeeks(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)

	// Monday 2025-12-29 belongs to ISO week 1 of 2026, not week 52 of 2025.
	boundary := time.Date(2025, 12, 29, 12, 0, 0, 0, time.UTC)
	midJanuary := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	createTestLead(t, db, "user-1", "new", "web", 100, boundary, false)
	createTestLead(t, db, "user-1", "new", "web", 100, midJanuary, false)

	result := mustGenerate(t, db, report.AdminScope(), &report.Spec{
		Entity:     "leads",
		Dimension:  "createdAt",
		Measure:    "no of leads",
		DateBucket: report.BucketWeekly,
	})

	require.Len(t, result.Series, 2)
	assert.Equal(t, "w01 2026", result.Series[0].Label)
	assert.Equal(t, "w03 2026", result.Series[1].Label)
}

func TestEngineOnSQLite_SegmentedPagination(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	now := time.Now().UTC()

	// Three sources with distinct totals so the page split is deterministic.
	for i := 0; i < 5; i++ {
		createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	}
	for i := 0; i < 3; i++ {
		createTestLead(t, db, "user-1", "won", "referral", 100, now, false)
	}
	createTestLead(t, db, "user-1", "new", "event", 100, now, false)

	spec := &report.Spec{
		Entity:    "leads",
		Dimension: "source",
		Measure:   "no of leads",
		SegmentBy: "status",
		Page:      1,
		PageSize:  2,
	}

	result := mustGenerate(t, db, report.AdminScope(), spec)

	// Page one holds the two largest groups, each fully segmented.
	assert.Equal(t, int64(3), result.PageInfo.TotalItems)
	assert.Equal(t, 2, result.PageInfo.TotalPages)
	assert.True(t, result.PageInfo.HasNextPage)
	require.Len(t, result.Series, 2)
	assert.Equal(t, "web", result.Series[0].Label)
	assert.Equal(t, float64(5), result.Series[0].TotalSegmentValue)
	assert.Equal(t, "referral", result.Series[1].Label)

	// Page two holds the remaining group.
	spec.Page = 2
	result = mustGenerate(t, db, report.AdminScope(), spec)
	require.Len(t, result.Series, 1)
	assert.Equal(t, "event", result.Series[0].Label)
	assert.True(t, result.PageInfo.HasPrevPage)
	assert.False(t, result.PageInfo.HasNextPage)
}

func TestEngineOnSQLite_OwnerDimensionLabelsByName(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	createTestUser(t, db, "user-2", "Ola Hansen", domain.RoleRep)
	now := time.Now().UTC()

	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-1", "new", "web", 100, now, false)
	createTestLead(t, db, "user-2", "new", "web", 100, now, false)

	result := mustGenerate(t, db, report.AdminScope(), &report.Spec{
		Entity: "leads", Dimension: "owner", Measure: "no of leads",
	})

	require.Len(t, result.Series, 2)
	assert.Equal(t, "Kari Nordmann", result.Series[0].Label)
	assert.Equal(t, "user-1", result.Series[0].ID)
	assert.Equal(t, float64(2), result.Series[0].Value)
	assert.Equal(t, "Ola Hansen", result.Series[1].Label)
}

func TestEngineOnSQLite_ActivityDurationHours(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for _, hours := range []int{2, 4} {
		start := base
		end := base.Add(time.Duration(hours) * time.Hour)
		activity := &domain.Activity{
			Subject:   "Meeting",
			Type:      domain.ActivityTypeMeeting,
			Status:    domain.ActivityStatusDone,
			Done:      true,
			StartTime: &start,
			EndTime:   &end,
			OwnerID:   "user-1",
		}
		require.NoError(t, db.Create(activity).Error)
	}

	result := mustGenerate(t, db, report.AdminScope(), &report.Spec{
		Entity: "activities", Dimension: "type", Measure: "duration",
	})

	require.Len(t, result.Series, 1)
	assert.Equal(t, "meeting", result.Series[0].Label)
	assert.InDelta(t, 3.0, result.Series[0].Value, 0.01)
}

func TestEngineOnSQLite_FilterFold(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	now := time.Now().UTC()

	createTestLead(t, db, "user-1", "new", "web", 2000, now, false)
	createTestLead(t, db, "user-1", "new", "web", 50, now, false)
	createTestLead(t, db, "user-1", "won", "referral", 3000, now, false)
	createTestLead(t, db, "user-1", "lost", "event", 10, now, false)

	// (status = new AND value > 1000) OR status = won
	result := mustGenerate(t, db, report.AdminScope(), &report.Spec{
		Entity:    "leads",
		Dimension: "source",
		Measure:   "no of leads",
		Filter: &report.FilterSpec{
			Conditions: []report.Condition{
				{Column: "status", Operator: report.OpEquals, Value: "new"},
				{Column: "value", Operator: report.OpGreaterThan, Value: float64(1000)},
				{Column: "status", Operator: report.OpEquals, Value: "won"},
			},
			Connectors: []report.Connector{report.ConnectorAnd, report.ConnectorOr},
		},
	})

	labels := make([]string, 0, len(result.Series))
	for _, p := range result.Series {
		labels = append(labels, p.Label)
	}
	assert.ElementsMatch(t, []string{"web", "referral"}, labels)
	assert.Equal(t, float64(2), result.TotalValue)
}

func TestEngineOnSQLite_RepeatedReplayIsStable(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1", "Kari Nordmann", domain.RoleRep)
	now := time.Now().UTC()

	// Tied totals across sources so bucket ordering is actually exercised.
	createTestLead(t, db, "user-1", "new", "web", 500, now, false)
	createTestLead(t, db, "user-1", "won", "web", 1500, now, false)
	createTestLead(t, db, "user-1", "new", "referral", 2000, now, false)
	createTestLead(t, db, "user-1", "lost", "event", 2000, now, false)

	t.Run("segmented replay", func(t *testing.T) {
		spec := &report.Spec{
			Entity:    "leads",
			Dimension: "source",
			Measure:   "value",
			SegmentBy: "status",
		}

		first := mustGenerate(t, db, report.AdminScope(), spec)
		second := mustGenerate(t, db, report.AdminScope(), spec)

		assert.Equal(t, first.Series, second.Series)
		assert.Equal(t, first.TotalValue, second.TotalValue)
		assert.Equal(t, first.PageInfo, second.PageInfo)
		assert.Equal(t, first.Summary, second.Summary)
	})

	t.Run("flat replay", func(t *testing.T) {
		spec := &report.Spec{
			Entity:    "leads",
			Dimension: "status",
			Measure:   "no of leads",
		}

		first := mustGenerate(t, db, report.AdminScope(), spec)
		second := mustGenerate(t, db, report.AdminScope(), spec)

		assert.Equal(t, first, second)
	})
}
