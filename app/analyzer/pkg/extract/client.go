package extract

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/prompt"
)

const (
	opAnalyze    = "analyze"
	opTranscribe = "transcribe"
	opLive       = "live_suggestion"

	analyzeTemperature = 0.5
	liveTemperature    = 0.7
)

// Client 结构化抽取客户端，失败不重试
type Client struct {
	provider Provider
	prompts  *prompt.Builder
	limiter  *rate.Limiter
	timeout  time.Duration
}

// Option 客户端选项
type Option func(*Client)

// WithLimiter 设置限流器
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithTimeout 设置单次调用超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewLimiter 按 RPM/QPS 创建限流器
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	limit := rate.Limit(float64(cfg.RPM) / 60.0)
	burst := cfg.QPS
	if cfg.RPM <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}

// NewClient 创建抽取客户端
func NewClient(provider Provider, prompts *prompt.Builder, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		prompts:  prompts,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze 对完整提示词执行分析，返回经过 schema 校验的结果
func (c *Client) Analyze(ctx context.Context, promptText string) (*model.AnalysisResult, error) {
	start := time.Now()
	raw, err := c.generate(ctx, opAnalyze, Request{
		Prompt:      promptText,
		Schema:      AnalysisSchema(),
		Temperature: analyzeTemperature,
	})
	if err == nil {
		var result model.AnalysisResult
		if err = decode(opAnalyze, raw, AnalysisSchema(), &result); err == nil {
			observe(opAnalyze, start, nil)
			return &result, nil
		}
	}
	observe(opAnalyze, start, err)
	return nil, err
}

// LiveSuggestion 针对最新一条对方消息给出实时建议
func (c *Client) LiveSuggestion(ctx context.Context, history, latestMessage string) (*model.LiveSuggestion, error) {
	start := time.Now()
	raw, err := c.generate(ctx, opLive, Request{
		Prompt:      c.prompts.BuildLive(history, latestMessage),
		Schema:      LiveSuggestionSchema(),
		Temperature: liveTemperature,
	})
	if err == nil {
		var s model.LiveSuggestion
		if err = decode(opLive, raw, LiveSuggestionSchema(), &s); err == nil {
			observe(opLive, start, nil)
			return &s, nil
		}
	}
	observe(opLive, start, err)
	return nil, err
}

// Transcribe 把语音转成文字
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	start := time.Now()
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		e := providerFailure(opTranscribe, err)
		observe(opTranscribe, start, e)
		return "", e
	}

	text, err := c.provider.Transcribe(ctx, audio, mimeType)
	if err != nil {
		logger.Log.Errorf("语音转写失败: %v", err)
		e := providerFailure(opTranscribe, err)
		observe(opTranscribe, start, e)
		return "", e
	}
	text = strings.TrimSpace(text)
	if text == "" {
		e := invalidResponse(opTranscribe, "empty transcription")
		observe(opTranscribe, start, e)
		return "", e
	}
	observe(opTranscribe, start, nil)
	return text, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) generate(ctx context.Context, op string, req Request) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", providerFailure(op, err)
	}

	raw, err := c.provider.Generate(ctx, req)
	if err != nil {
		logger.Log.Errorf("模型调用失败 [%s]: %v", op, err)
		return "", providerFailure(op, err)
	}
	logger.Log.Debugf("模型返回 [%s]: %d bytes", op, len(raw))
	return raw, nil
}

// decode 清理、校验并解析模型输出
func decode(op, raw string, s *Schema, v any) error {
	clean := CleanJSON(raw)
	if clean == "" {
		return invalidResponse(op, "empty response")
	}
	if err := s.Validate(clean); err != nil {
		logger.Log.Warnf("模型输出未通过校验 [%s]: %v", op, err)
		return &Error{Op: op, Kind: KindInvalidResponse, Message: err.Error(), Err: err}
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return &Error{Op: op, Kind: KindInvalidResponse, Message: err.Error(), Err: err}
	}
	return nil
}

// CleanJSON 去掉模型输出外层的代码块标记和多余文字
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
