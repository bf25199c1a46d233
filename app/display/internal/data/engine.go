package data

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/backup"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/engine"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/extract"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/prompt"
)

// NewEngine 组装分析引擎，与报告仓库共用同一个存储
func NewEngine(c *config.Config, d *Data) (*engine.Engine, error) {
	loc, err := c.Report.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	prompts, err := prompt.NewBuilderFromFile(c.Prompt.BusinessContextFile)
	if err != nil {
		return nil, err
	}

	provider, err := extract.NewProvider(context.Background(), c.LLM)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	limiter := extract.NewLimiter(c.Concurrency)
	logger.Log.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limiter.Limit(), limiter.Burst())

	client := extract.NewClient(provider, prompts,
		extract.WithLimiter(limiter),
		extract.WithTimeout(time.Duration(c.LLM.Timeout)*time.Second),
	)
	return engine.NewEngine(prompts, client, d.store, backup.NewCodec(c.Backup.Source, loc)), nil
}
