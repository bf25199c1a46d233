package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// maxIDAttempts ID 冲突时最多重试的次数
const maxIDAttempts = 3

// StoreError 存储层失败
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("report store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ReportStore 报告存储，负责分配 ID 和时间
type ReportStore struct {
	repo  Repository
	now   func() time.Time
	newID func() (string, error)
}

// StoreOption 存储选项
type StoreOption func(*ReportStore)

// WithClock 替换时钟
func WithClock(now func() time.Time) StoreOption {
	return func(s *ReportStore) { s.now = now }
}

// WithIDGenerator 替换 ID 生成器
func WithIDGenerator(gen func() (string, error)) StoreOption {
	return func(s *ReportStore) { s.newID = gen }
}

// NewReportStore 创建报告存储
func NewReportStore(repo Repository, opts ...StoreOption) *ReportStore {
	s := &ReportStore{
		repo:  repo,
		now:   time.Now,
		newID: NewReportID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewReportID 生成形如 report_<uuidv7> 的报告 ID
func NewReportID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return "report_" + id.String(), nil
}

// NewReport 为分析结果分配 ID 和时间，不做持久化
func (s *ReportStore) NewReport(result model.AnalysisResult, conversation string) (model.AnalysisReport, error) {
	id, err := s.newID()
	if err != nil {
		return model.AnalysisReport{}, &StoreError{Op: "create", Err: err}
	}
	return model.AnalysisReport{
		AnalysisResult:       result,
		ID:                   id,
		Date:                 s.now(),
		OriginalConversation: conversation,
	}, nil
}

// Create 生成新报告并放到历史最前面
//
// 写入失败时返回 *StoreError，同时返回已分配 ID 的报告，调用方可以稍后用 Save 重试。
func (s *ReportStore) Create(ctx context.Context, result model.AnalysisResult, conversation string) (*model.AnalysisReport, error) {
	var (
		report  model.AnalysisReport
		lastErr error
	)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		var err error
		report, err = s.NewReport(result, conversation)
		if err != nil {
			return nil, err
		}

		err = s.repo.Prepend(ctx, report)
		if err == nil {
			logger.Log.Infof("报告已保存 [%s] score=%d", report.ID, report.OverallScore)
			return &report, nil
		}
		if !errors.Is(err, ErrDuplicateID) {
			return &report, &StoreError{Op: "create", Err: err}
		}
		logger.Log.Warnf("报告 ID 冲突，重新生成: %s", report.ID)
		lastErr = err
	}
	return &report, &StoreError{Op: "create", Err: lastErr}
}

// Save 保存已分配 ID 的报告，例如之前写入失败的报告
func (s *ReportStore) Save(ctx context.Context, report model.AnalysisReport) error {
	if err := s.repo.Prepend(ctx, report); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	return nil
}

// Prepend 把一组报告放到历史最前面，顺序保持不变
func (s *ReportStore) Prepend(ctx context.Context, reports model.History) error {
	if len(reports) == 0 {
		return nil
	}
	if err := s.repo.Prepend(ctx, reports...); err != nil {
		return &StoreError{Op: "prepend", Err: err}
	}
	return nil
}

// List 按新到旧返回全部报告
func (s *ReportStore) List(ctx context.Context) (model.History, error) {
	h, err := s.repo.List(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return h, nil
}

// Get 按 ID 获取报告
func (s *ReportStore) Get(ctx context.Context, id string) (model.AnalysisReport, bool, error) {
	h, err := s.List(ctx)
	if err != nil {
		return model.AnalysisReport{}, false, err
	}
	rep, ok := h.Find(id)
	return rep, ok, nil
}

// DeleteByID 删除指定报告，ID 不存在时什么也不做
func (s *ReportStore) DeleteByID(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

// Clear 清空历史
func (s *ReportStore) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return &StoreError{Op: "clear", Err: err}
	}
	return nil
}

// Close 关闭底层存储
func (s *ReportStore) Close() error {
	return s.repo.Close()
}
