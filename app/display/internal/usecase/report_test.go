package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/aggregate"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
	"github.com/iWorld-y/prospect_radar/app/display/internal/domain"
)

// mockReportRepo 模拟报告仓库
type mockReportRepo struct {
	history model.History
	cleared bool
	deleted []string
}

func (m *mockReportRepo) ListReports(ctx context.Context) (model.History, error) {
	return m.history, nil
}

func (m *mockReportRepo) GetReportByID(ctx context.Context, id string) (*model.AnalysisReport, error) {
	r, ok := m.history.Find(id)
	if !ok {
		return nil, errors.NotFound("REPORT_NOT_FOUND", "report not found")
	}
	return &r, nil
}

func (m *mockReportRepo) DeleteReport(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockReportRepo) ClearReports(ctx context.Context) error {
	m.cleared = true
	return nil
}

var testNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func report(id string, score int, date time.Time) model.AnalysisReport {
	r := model.AnalysisReport{ID: id, Date: date}
	r.OverallScore = score
	r.Classification = model.ClassificationNurture
	if score >= model.HotScoreThreshold {
		r.Classification = model.ClassificationHot
	}
	r.SuggestedNextAction = "Ligar amanhã"
	return r
}

func newReportUseCase(t *testing.T, h model.History) (*ReportUseCase, *mockReportRepo) {
	t.Helper()
	repo := &mockReportRepo{history: h}
	cfg := &config.Config{Report: config.ReportConfig{Timezone: "UTC", TrendDays: 7}}
	uc, err := NewReportUseCase(repo, cfg, log.DefaultLogger)
	require.NoError(t, err)
	uc.now = func() time.Time { return testNow }
	return uc, repo
}

func TestReportUseCase_List(t *testing.T) {
	h := model.History{
		report("r3", 90, testNow.Add(-time.Hour)),
		report("r2", 60, testNow.Add(-48*time.Hour)),
		report("r1", 85, testNow.Add(-40*24*time.Hour)),
	}
	uc, _ := newReportUseCase(t, h)

	page, err := uc.List(context.Background(), domain.ListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Reports, 2)
	assert.Equal(t, "r3", page.Reports[0].ID)
	assert.Equal(t, "r2", page.Reports[1].ID)
	assert.Equal(t, "10/05/2025 11:00", page.Reports[0].Date)

	page, err = uc.List(context.Background(), domain.ListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Reports, 1)
	assert.Equal(t, "r1", page.Reports[0].ID)

	page, err = uc.List(context.Background(), domain.ListQuery{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Reports)
	assert.Equal(t, 3, page.Total)
}

func TestReportUseCase_ListFiltered(t *testing.T) {
	h := model.History{
		report("r3", 90, testNow.Add(-time.Hour)),
		report("r2", 60, testNow.Add(-48*time.Hour)),
		report("r1", 85, testNow.Add(-40*24*time.Hour)),
	}
	uc, _ := newReportUseCase(t, h)

	page, err := uc.List(context.Background(), domain.ListQuery{
		Filter: aggregate.Filter{MinScore: 80, Period: aggregate.PeriodMonth},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "r3", page.Reports[0].ID)
	assert.Equal(t, defaultPageSize, page.PageSize)
}

func TestReportUseCase_GetDeleteClear(t *testing.T) {
	uc, repo := newReportUseCase(t, model.History{report("r1", 70, testNow)})
	ctx := context.Background()

	r, err := uc.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 70, r.OverallScore)

	_, err = uc.GetByID(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, uc.Delete(ctx, "r1"))
	assert.Equal(t, []string{"r1"}, repo.deleted)

	require.NoError(t, uc.Clear(ctx))
	assert.True(t, repo.cleared)
}

func TestReportUseCase_Dashboard(t *testing.T) {
	h := model.History{
		report("r3", 90, testNow.Add(-time.Hour)),
		report("r2", 60, testNow.Add(-24*time.Hour)),
		report("r1", 40, testNow.Add(-48*time.Hour)),
	}
	uc, _ := newReportUseCase(t, h)

	d, err := uc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, d.Stats.TotalAnalyzed)
	assert.Equal(t, 63, d.Stats.AverageScore)
	assert.Equal(t, 1, d.Stats.HotOpportunityCount)
	assert.Equal(t, 1, d.Distribution.Hot)
	assert.Len(t, d.Trend, 7)
	assert.Equal(t, "2025-05-10", d.Trend[6].Date)
	assert.Equal(t, 90, d.Trend[6].AverageScore)
	assert.Len(t, d.Criteria, len(model.Criteria))
}

func TestReportUseCase_DashboardEmpty(t *testing.T) {
	uc, _ := newReportUseCase(t, nil)

	d, err := uc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, d.Stats.TotalAnalyzed)
	assert.Equal(t, aggregate.NoImprovementArea, d.Stats.TopImprovementArea)
	assert.Equal(t, 0, d.ImprovementDelta)
}
