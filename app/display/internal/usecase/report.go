package usecase

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/aggregate"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
	"github.com/iWorld-y/prospect_radar/app/display/internal/domain"
	"github.com/iWorld-y/prospect_radar/app/display/internal/repo"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ReportUseCase 报告历史与统计
type ReportUseCase struct {
	repo      repo.ReportRepo
	loc       *time.Location
	trendDays int
	now       func() time.Time
	log       *log.Helper
}

// NewReportUseCase 创建报告业务逻辑实例
func NewReportUseCase(repo repo.ReportRepo, c *config.Config, logger log.Logger) (*ReportUseCase, error) {
	loc, err := c.Report.Location()
	if err != nil {
		return nil, err
	}
	return &ReportUseCase{
		repo:      repo,
		loc:       loc,
		trendDays: c.Report.TrendDays,
		now:       time.Now,
		log:       log.NewHelper(logger),
	}, nil
}

// List 按条件筛选后分页，保持新到旧的顺序
func (uc *ReportUseCase) List(ctx context.Context, q domain.ListQuery) (*domain.ReportPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	h, err := uc.repo.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	h = q.Filter.Apply(h, uc.now())

	page := &domain.ReportPage{
		Reports:  []*domain.ReportSummary{},
		Total:    len(h),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	start := (q.Page - 1) * q.PageSize
	if start >= len(h) {
		return page, nil
	}
	end := min(start+q.PageSize, len(h))
	for _, r := range h[start:end] {
		page.Reports = append(page.Reports, uc.summary(r))
	}
	return page, nil
}

func (uc *ReportUseCase) summary(r model.AnalysisReport) *domain.ReportSummary {
	return &domain.ReportSummary{
		ID:                  r.ID,
		Date:                r.Date.In(uc.loc).Format("02/01/2006 15:04"),
		OverallScore:        r.OverallScore,
		Classification:      r.Classification,
		SuggestedNextAction: r.SuggestedNextAction,
	}
}

// GetByID 根据ID获取报告详情
func (uc *ReportUseCase) GetByID(ctx context.Context, id string) (*model.AnalysisReport, error) {
	return uc.repo.GetReportByID(ctx, id)
}

// Delete 删除单条报告
func (uc *ReportUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.DeleteReport(ctx, id); err != nil {
		return err
	}
	uc.log.Infof("report deleted: %s", id)
	return nil
}

// Clear 清空历史
func (uc *ReportUseCase) Clear(ctx context.Context) error {
	if err := uc.repo.ClearReports(ctx); err != nil {
		return err
	}
	uc.log.Warn("report history cleared")
	return nil
}

// Dashboard 汇总仪表盘所需的全部统计
func (uc *ReportUseCase) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	h, err := uc.repo.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	trend, err := aggregate.Trend(h, uc.trendDays, aggregate.BucketDay, uc.now().In(uc.loc))
	if err != nil {
		return nil, err
	}
	return &domain.Dashboard{
		Stats:              aggregate.Summarize(h),
		ImprovementDelta:   aggregate.ImprovementDelta(h),
		ImprovementPercent: aggregate.ImprovementPercent(h),
		Distribution:       aggregate.Distribute(h),
		ScoreBands:         aggregate.ScoreBands(h),
		Criteria:           aggregate.CriterionAverages(h),
		Insights:           aggregate.CollectInsights(h),
		Trend:              trend,
	}, nil
}
