package extract

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// errTranscribeUnsupported Anthropic 不支持音频输入
var errTranscribeUnsupported = errors.New("anthropic: audio transcription is not supported")

// AnthropicOptions Anthropic 配置
type AnthropicOptions struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// AnthropicProvider 基于 anthropic-sdk-go 的模型服务
type AnthropicProvider struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider 创建 Anthropic 模型服务，SDK 自带的重试被关闭
func NewAnthropicProvider(opts AnthropicOptions) *AnthropicProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicProvider{
		client:    sdk.NewClient(reqOpts...),
		model:     opts.Model,
		maxTokens: maxTokens,
	}
}

var _ Provider = (*AnthropicProvider)(nil)

// Generate implements Provider
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(p.model),
		MaxTokens:   p.maxTokens,
		System:      []sdk.TextBlockParam{{Text: systemMessage(req.Schema)}},
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
		Temperature: sdk.Float(float64(req.Temperature)),
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Transcribe implements Provider
func (p *AnthropicProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return "", errTranscribeUnsupported
}
