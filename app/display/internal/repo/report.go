package repo

import (
	"context"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// ReportRepo 报告仓库接口
type ReportRepo interface {
	// ListReports 按新到旧获取全部报告
	ListReports(ctx context.Context) (model.History, error)
	// GetReportByID 根据ID获取报告详情
	GetReportByID(ctx context.Context, id string) (*model.AnalysisReport, error)
	// DeleteReport 删除报告，ID 不存在时不报错
	DeleteReport(ctx context.Context, id string) error
	// ClearReports 清空历史
	ClearReports(ctx context.Context) error
}
