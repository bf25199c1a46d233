package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/prompt"
)

// generator 只用到 ChatModel 的 Generate
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OpenAIOptions OpenAI 兼容服务配置
type OpenAIOptions struct {
	BaseURL         string
	APIKey          string
	Model           string
	TranscribeModel string // 为空时与 Model 相同
	MaxTokens       int
	Timeout         time.Duration
}

// OpenAIProvider 基于 eino 的 OpenAI 兼容模型服务
type OpenAIProvider struct {
	structured generator // JSON 模式
	plain      generator // 自由文本，用于转写
}

// NewOpenAIProvider 创建 OpenAI 兼容模型服务
func NewOpenAIProvider(ctx context.Context, opts OpenAIOptions) (*OpenAIProvider, error) {
	var maxTokens *int
	if opts.MaxTokens > 0 {
		maxTokens = &opts.MaxTokens
	}

	structured, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   opts.BaseURL,
		APIKey:    opts.APIKey,
		Model:     opts.Model,
		Timeout:   opts.Timeout,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	transcribeModel := opts.TranscribeModel
	if transcribeModel == "" {
		transcribeModel = opts.Model
	}
	plain, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   opts.BaseURL,
		APIKey:    opts.APIKey,
		Model:     transcribeModel,
		Timeout:   opts.Timeout,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("转写模型初始化失败: %w", err)
	}

	return &OpenAIProvider{structured: structured, plain: plain}, nil
}

var _ Provider = (*OpenAIProvider)(nil)

// Generate implements Provider
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: systemMessage(req.Schema)},
		{Role: schema.User, Content: req.Prompt},
	}

	cm := p.plain
	if req.Schema != nil {
		cm = p.structured
	}
	resp, err := cm.Generate(ctx, messages, model.WithTemperature(req.Temperature))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Transcribe implements Provider
func (p *OpenAIProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(audio)
	messages := []*schema.Message{
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{
					Type: schema.ChatMessagePartTypeAudioURL,
					AudioURL: &schema.ChatMessageAudioURL{
						URL:      dataURL,
						MIMEType: mimeType,
					},
				},
				{Type: schema.ChatMessagePartTypeText, Text: prompt.TranscribeInstruction},
			},
		},
	}

	resp, err := p.plain.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// systemMessage 结构化请求时把 schema 写进系统消息
func systemMessage(s *Schema) string {
	if s == nil {
		return "Você é um assistente de vendas."
	}
	return "Você é um gerador de JSON. Responda apenas com um objeto JSON válido que siga este JSON Schema:\n" + s.JSON()
}
