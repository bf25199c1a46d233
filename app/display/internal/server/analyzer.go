package server

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
	alogger "github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
	"github.com/iWorld-y/prospect_radar/app/display/internal/conf"
)

// NewAnalyzerConfig 把 conf.Analyzer 转换为 pkg/config.Config 并初始化分析器日志
func NewAnalyzerConfig(c *conf.Analyzer, logger log.Logger) (*config.Config, error) {
	if c == nil {
		return nil, fmt.Errorf("analyzer config is missing")
	}

	cfg := &config.Config{}
	if l := c.Llm; l != nil {
		cfg.LLM = config.LLMConfig{
			Provider:        l.Provider,
			BaseURL:         l.BaseUrl,
			APIKey:          l.ApiKey,
			Model:           l.Model,
			TranscribeModel: l.TranscribeModel,
			Timeout:         int(l.Timeout),
			MaxTokens:       int(l.MaxTokens),
		}
	}
	if cc := c.Concurrency; cc != nil {
		cfg.Concurrency = config.ConcurrencyConfig{
			QPS:     int(cc.Qps),
			RPM:     int(cc.Rpm),
			Workers: int(cc.Workers),
		}
	}
	if s := c.Storage; s != nil {
		cfg.Storage.Driver = s.Driver
		if s.Db != nil {
			cfg.Storage.DB = config.DBConfig{
				Host:     s.Db.Host,
				Port:     int(s.Db.Port),
				User:     s.Db.User,
				Password: s.Db.Password,
				Name:     s.Db.Name,
				SSLMode:  s.Db.SslMode,
			}
		}
		if s.Sqlite != nil {
			cfg.Storage.SQLite.Path = s.Sqlite.Path
		}
		if s.Redis != nil {
			cfg.Storage.Redis = config.RedisConfig{
				Addr:     s.Redis.Addr,
				Password: s.Redis.Password,
				DB:       int(s.Redis.Db),
				Prefix:   s.Redis.Prefix,
			}
		}
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	if c.Prompt != nil {
		cfg.Prompt.BusinessContextFile = c.Prompt.BusinessContextFile
	}
	if c.Backup != nil {
		cfg.Backup.Source = c.Backup.Source
	}
	if c.Report != nil {
		cfg.Report = config.ReportConfig{Timezone: c.Report.Timezone, TrendDays: int(c.Report.TrendDays)}
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analyzer config: %w", err)
	}

	if err := alogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init analyzer logger: %v", err)
		_ = alogger.InitLogger("info", "")
	}
	return cfg, nil
}
