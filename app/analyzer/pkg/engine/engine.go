package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/aggregate"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/backup"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/prompt"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/storage"
)

var (
	ErrEmptyConversation = errors.New("conversation is empty")
	ErrEmptyMessage      = errors.New("latest message is empty")
	ErrEmptyAudio        = errors.New("audio is empty")
	ErrAlreadyRunning    = errors.New("analysis of this conversation is already running")
)

// Extractor 结构化抽取
type Extractor interface {
	Analyze(ctx context.Context, promptText string) (*model.AnalysisResult, error)
	LiveSuggestion(ctx context.Context, history, latestMessage string) (*model.LiveSuggestion, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Engine 核心处理引擎
type Engine struct {
	prompts   *prompt.Builder
	extractor Extractor
	store     *storage.ReportStore
	codec     *backup.Codec
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
	pending  model.History // 分析成功但未能写入存储的报告，新到旧
}

// NewEngine 创建引擎实例
func NewEngine(prompts *prompt.Builder, extractor Extractor, store *storage.ReportStore, codec *backup.Codec) *Engine {
	return &Engine{
		prompts:   prompts,
		extractor: extractor,
		store:     store,
		codec:     codec,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}
}

// Analyze 分析一段对话并保存报告
//
// 同一段对话在上一次分析结束前不能再次提交。存储失败时报告留在待保存列表中，
// 与 *storage.StoreError 一起返回。
func (e *Engine) Analyze(ctx context.Context, conversation string) (*model.AnalysisReport, error) {
	conversation = strings.TrimSpace(conversation)
	if conversation == "" {
		return nil, ErrEmptyConversation
	}

	key := fingerprint(conversation)
	if !e.acquire(key) {
		return nil, ErrAlreadyRunning
	}
	defer e.release(key)

	logger.Log.Infof("开始分析对话 [%s]，长度 %d", key[:12], len([]rune(conversation)))

	result, err := e.extractor.Analyze(ctx, e.prompts.Build(conversation))
	if err != nil {
		logger.Log.Errorf("分析失败 [%s]: %v", key[:12], err)
		return nil, err
	}

	report, err := e.store.Create(ctx, *result, conversation)
	if err != nil {
		var se *storage.StoreError
		if errors.As(err, &se) && report != nil {
			logger.Log.Errorf("报告保存失败，已暂存 [%s]: %v", report.ID, err)
			e.mu.Lock()
			e.pending = append(model.History{*report}, e.pending...)
			e.mu.Unlock()
			return report, err
		}
		return nil, err
	}

	logger.Log.WithField("id", report.ID).WithField("score", report.OverallScore).
		Infof("分析完成: %s", report.Classification)
	return report, nil
}

// BatchResult 批量分析中单段对话的结果
type BatchResult struct {
	Index  int
	Report *model.AnalysisReport
	Err    error
}

// AnalyzeBatch 并发分析多段对话，单段失败不影响其他对话
func (e *Engine) AnalyzeBatch(ctx context.Context, conversations []string, workers int) []BatchResult {
	if workers <= 0 {
		workers = 1
	}
	results := make([]BatchResult, len(conversations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, conv := range conversations {
		g.Go(func() error {
			rep, err := e.Analyze(gctx, conv)
			results[i] = BatchResult{Index: i, Report: rep, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Log.Infof("批量分析完成: 成功 %d，失败 %d", len(results)-failed, failed)
	return results
}

func fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (e *Engine) acquire(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inflight[key]; ok {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	delete(e.inflight, key)
	e.mu.Unlock()
}

// Pending 返回未能写入存储的报告
func (e *Engine) Pending() model.History {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(model.History, len(e.pending))
	copy(out, e.pending)
	return out
}

// SavePending 重新写入暂存的报告，成功后清空暂存列表
func (e *Engine) SavePending(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) == 0 {
		return 0, nil
	}

	current, err := e.store.List(ctx)
	if err != nil {
		return 0, err
	}
	// 之前的写入可能部分成功
	_, fresh := backup.Merge(e.pending, current)
	if err := e.store.Prepend(ctx, fresh); err != nil {
		return 0, err
	}
	e.pending = nil
	logger.Log.Infof("暂存报告已保存: %d", len(fresh))
	return len(fresh), nil
}

// LiveSuggestion 针对对方最新的消息给出回复建议
func (e *Engine) LiveSuggestion(ctx context.Context, history, latestMessage string) (*model.LiveSuggestion, error) {
	latestMessage = strings.TrimSpace(latestMessage)
	if latestMessage == "" {
		return nil, ErrEmptyMessage
	}
	return e.extractor.LiveSuggestion(ctx, strings.TrimSpace(history), latestMessage)
}

// Transcribe 语音转文字
func (e *Engine) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if mimeType == "" {
		mimeType = "audio/ogg"
	}
	return e.extractor.Transcribe(ctx, audio, mimeType)
}

// History 返回全部报告，新到旧
func (e *Engine) History(ctx context.Context) (model.History, error) {
	return e.store.List(ctx)
}

// Report 按 ID 获取报告
func (e *Engine) Report(ctx context.Context, id string) (model.AnalysisReport, bool, error) {
	return e.store.Get(ctx, id)
}

// Stats 汇总指标
func (e *Engine) Stats(ctx context.Context) (model.BusinessStats, error) {
	h, err := e.store.List(ctx)
	if err != nil {
		return model.BusinessStats{}, err
	}
	return aggregate.Summarize(h), nil
}

// Delete 删除报告，ID 不存在时不报错
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.store.DeleteByID(ctx, id)
}

// Clear 清空历史
func (e *Engine) Clear(ctx context.Context) error {
	return e.store.Clear(ctx)
}

// Export 导出全部历史
func (e *Engine) Export(ctx context.Context) (backup.Document, error) {
	h, err := e.store.List(ctx)
	if err != nil {
		return backup.Document{}, err
	}
	return e.codec.Export(h, e.now()), nil
}

// Import 导入备份，只追加本地没有的报告，返回新增的报告
func (e *Engine) Import(ctx context.Context, data []byte) (model.History, error) {
	current, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}
	_, added, err := backup.Import(data, current)
	if err != nil {
		logger.Log.Warnf("备份格式错误: %v", err)
		return nil, err
	}
	if err := e.store.Prepend(ctx, added); err != nil {
		return nil, fmt.Errorf("import %d reports: %w", len(added), err)
	}
	logger.Log.Infof("导入完成: 新增 %d 条", len(added))
	return added, nil
}

// Codec 导出用的编解码器
func (e *Engine) Codec() *backup.Codec {
	return e.codec
}
