package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

const (
	// DefaultSource 备份文件的来源标识
	DefaultSource = "Castiel Bits Backup"
	// Version 备份格式版本
	Version = "1.1"
)

// ErrInvalidFormat 备份内容既不是报告数组也不是带 history 的对象
var ErrInvalidFormat = errors.New("invalid backup format")

// FormatError 备份解析失败
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrInvalidFormat, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidFormat, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// Document 导出的备份文档
type Document struct {
	Source    string        `json:"source"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	History   model.History `json:"history"`
}

// Codec 备份编解码，source 和时区来自配置
type Codec struct {
	source string
	loc    *time.Location
}

// NewCodec 创建编解码器，loc 为空时使用 UTC
func NewCodec(source string, loc *time.Location) *Codec {
	if source == "" {
		source = DefaultSource
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Codec{source: source, loc: loc}
}

// Export 生成备份文档，不修改历史
func (c *Codec) Export(h model.History, now time.Time) Document {
	history := make(model.History, len(h))
	copy(history, h)
	return Document{
		Source:    c.source,
		Version:   Version,
		Timestamp: now.UTC(),
		History:   history,
	}
}

// Marshal 序列化为带缩进的 JSON
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Candidates 从备份中取出待导入的报告
//
// 接受裸数组或带 history 数组的对象，其他形状一律返回 *FormatError。
// 缺少 id 的条目会被丢弃，任一条目无法解析则整体失败。
func Candidates(data []byte) (model.History, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &FormatError{Reason: "empty document"}
	}

	var elems []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, &FormatError{Reason: "malformed list", Err: err}
		}
	case '{':
		var doc struct {
			History json.RawMessage `json:"history"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, &FormatError{Reason: "malformed document", Err: err}
		}
		raw := bytes.TrimSpace(doc.History)
		if len(raw) == 0 || raw[0] != '[' {
			return nil, &FormatError{Reason: "document has no history list"}
		}
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, &FormatError{Reason: "malformed history list", Err: err}
		}
	default:
		return nil, &FormatError{Reason: "expected a list of reports"}
	}

	out := make(model.History, 0, len(elems))
	for i, raw := range elems {
		var r model.AnalysisReport
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("entry %d", i), Err: err}
		}
		if r.ID == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Merge 把 current 中没有的候选报告按原顺序放到最前
//
// 已存在的报告不会被覆盖或移动，文档内重复的 id 只取第一条。
func Merge(candidates, current model.History) (merged, added model.History) {
	seen := current.IDs()
	added = model.History{}
	for _, r := range candidates {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		added = append(added, r)
	}

	merged = make(model.History, 0, len(added)+len(current))
	merged = append(merged, added...)
	merged = append(merged, current...)
	return merged, added
}

// Import 解析备份并与当前历史合并
func Import(data []byte, current model.History) (merged, added model.History, err error) {
	candidates, err := Candidates(data)
	if err != nil {
		return nil, nil, err
	}
	merged, added = Merge(candidates, current)
	return merged, added, nil
}
