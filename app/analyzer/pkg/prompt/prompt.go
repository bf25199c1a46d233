package prompt

import (
	"fmt"
	"os"
	"strings"
)

// TranscribeInstruction 语音转写指令
const TranscribeInstruction = "Transcreva este áudio em português de forma literal:"

// Builder 提示词构建器
//
// 构建结果只依赖输入文本，相同输入总是得到相同输出。
type Builder struct {
	AnalysisInstructions string
	LiveInstructions     string
	BusinessContext      string
}

// NewBuilder 使用内置指令创建构建器，businessContext 为空时使用默认业务背景
func NewBuilder(businessContext string) *Builder {
	if strings.TrimSpace(businessContext) == "" {
		businessContext = DefaultBusinessContext
	}
	return &Builder{
		AnalysisInstructions: AnalysisInstructions,
		LiveInstructions:     LiveInstructions,
		BusinessContext:      businessContext,
	}
}

// NewBuilderFromFile 从文件读取业务背景，path 为空时等同于 NewBuilder("")
func NewBuilderFromFile(path string) (*Builder, error) {
	if path == "" {
		return NewBuilder(""), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read business context: %w", err)
	}
	return NewBuilder(string(data)), nil
}

// Build 构建对话分析提示词
func (b *Builder) Build(conversation string) string {
	var sb strings.Builder
	sb.WriteString(b.AnalysisInstructions)
	sb.WriteString("\n\nCONTEXTO DE NEGÓCIO:\n")
	sb.WriteString(b.BusinessContext)
	sb.WriteString("\n\nCONVERSA PARA ANÁLISE:\n")
	writeFenced(&sb, conversation)
	return sb.String()
}

// BuildLive 构建实时教练提示词
func (b *Builder) BuildLive(history, latestMessage string) string {
	var sb strings.Builder
	sb.WriteString(b.LiveInstructions)
	sb.WriteString("\n\nCONTEXTO DE NEGÓCIO:\n")
	sb.WriteString(b.BusinessContext)
	sb.WriteString("\n\nHISTÓRICO DA CONVERSA ATÉ AGORA:\n")
	writeFenced(&sb, history)
	sb.WriteString("\n\nÚLTIMA MENSAGEM DO PROSPECT (para a qual você deve sugerir uma resposta):\n")
	writeFenced(&sb, latestMessage)
	return sb.String()
}

// writeFenced 把文本原样放进代码块，围栏长度始终大于文本中最长的反引号串
func writeFenced(sb *strings.Builder, text string) {
	fence := Fence(text)
	sb.WriteString(fence)
	sb.WriteByte('\n')
	sb.WriteString(text)
	sb.WriteByte('\n')
	sb.WriteString(fence)
}

// Fence 返回能安全包住 text 的反引号围栏，至少三个
func Fence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}
