package domain

import (
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/aggregate"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// ReportSummary 报告摘要信息
type ReportSummary struct {
	ID                  string               `json:"id"`
	Date                string               `json:"date"`
	OverallScore        int                  `json:"overallScore"`
	Classification      model.Classification `json:"classification"`
	SuggestedNextAction string               `json:"suggestedNextAction"`
}

// ListQuery 列表查询条件
type ListQuery struct {
	Page     int
	PageSize int
	Filter   aggregate.Filter
}

// ReportPage 分页结果
type ReportPage struct {
	Reports  []*ReportSummary `json:"reports"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// Dashboard 仪表盘数据
type Dashboard struct {
	Stats              model.BusinessStats          `json:"stats"`
	ImprovementDelta   int                          `json:"improvementDelta"`
	ImprovementPercent float64                      `json:"improvementPercent"`
	Distribution       aggregate.Distribution       `json:"distribution"`
	ScoreBands         []aggregate.ScoreBand        `json:"scoreBands"`
	Criteria           []aggregate.CriterionAverage `json:"criteria"`
	Insights           aggregate.Insights           `json:"insights"`
	Trend              []aggregate.TrendPoint       `json:"trend"`
}
