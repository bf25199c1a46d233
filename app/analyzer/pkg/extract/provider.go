package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
)

// Request 一次结构化生成请求
type Request struct {
	Prompt      string
	Schema      *Schema // 为空时不要求 JSON 输出
	Temperature float32
}

// Provider 模型服务边界，返回模型的原始文本
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// NewProvider 根据配置创建模型服务
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key is missing", provider)
	}

	switch provider {
	case "openai":
		return NewOpenAIProvider(ctx, OpenAIOptions{
			BaseURL:         cfg.BaseURL,
			APIKey:          cfg.APIKey,
			Model:           cfg.Model,
			TranscribeModel: cfg.TranscribeModel,
			MaxTokens:       cfg.MaxTokens,
			Timeout:         time.Duration(cfg.Timeout) * time.Second,
		})

	case "anthropic":
		return NewAnthropicProvider(AnthropicOptions{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}), nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
