package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/backup"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/engine"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/extract"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/prompt"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/storage"
)

var errLLMDisabled = errors.New("llm is not configured for this command")

// offlineExtractor 不需要模型的命令使用
type offlineExtractor struct{}

func (offlineExtractor) Analyze(context.Context, string) (*model.AnalysisResult, error) {
	return nil, errLLMDisabled
}

func (offlineExtractor) LiveSuggestion(context.Context, string, string) (*model.LiveSuggestion, error) {
	return nil, errLLMDisabled
}

func (offlineExtractor) Transcribe(context.Context, []byte, string) (string, error) {
	return "", errLLMDisabled
}

type runtime struct {
	engine *engine.Engine
	loc    *time.Location
	close  func()
}

// openRuntime 按配置组装存储和引擎，withLLM 为 false 时不连接模型
func openRuntime(ctx context.Context, withLLM bool) (*runtime, error) {
	validate := cfg.ValidateStorage
	if withLLM {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("配置错误: %w", err)
	}

	loc, err := cfg.Report.Location()
	if err != nil {
		return nil, err
	}

	prompts, err := prompt.NewBuilderFromFile(cfg.Prompt.BusinessContextFile)
	if err != nil {
		return nil, err
	}

	var extractor engine.Extractor = offlineExtractor{}
	if withLLM {
		provider, err := extract.NewProvider(ctx, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		limiter := extract.NewLimiter(cfg.Concurrency)
		logger.Log.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limiter.Limit(), limiter.Burst())
		extractor = extract.NewClient(provider, prompts,
			extract.WithLimiter(limiter),
			extract.WithTimeout(time.Duration(cfg.LLM.Timeout)*time.Second),
		)
	}

	repo, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("无法连接存储: %w", err)
	}
	if cfg.Storage.Driver == "memory" {
		logger.Log.Warn("使用内存存储，进程退出后历史会丢失")
	}
	store := storage.NewReportStore(repo)

	return &runtime{
		engine: engine.NewEngine(prompts, extractor, store, backup.NewCodec(cfg.Backup.Source, loc)),
		loc:    loc,
		close: func() {
			if err := store.Close(); err != nil {
				logger.Log.Errorf("关闭存储失败: %v", err)
			}
		},
	}, nil
}
