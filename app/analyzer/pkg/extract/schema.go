package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// Schema 输出结构描述，同时用于提示模型和校验结果
type Schema struct {
	Name     string
	Document map[string]any

	once     sync.Once
	compiled *gojsonschema.Schema
	err      error
}

// NewSchema 创建 schema 描述
func NewSchema(name string, doc map[string]any) *Schema {
	return &Schema{Name: name, Document: doc}
}

// JSON 返回 schema 文本，供提供方写入系统消息
func (s *Schema) JSON() string {
	data, _ := json.MarshalIndent(s.Document, "", "  ")
	return string(data)
}

// Validate 按 schema 校验原始 JSON 文本
func (s *Schema) Validate(raw string) error {
	s.once.Do(func() {
		s.compiled, s.err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.Document))
	})
	if s.err != nil {
		return fmt.Errorf("compile schema %s: %w", s.Name, s.err)
	}

	result, err := s.compiled.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
}

func scoreItemSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":    map[string]any{"type": "integer", "minimum": 0, "maximum": model.MaxCriterionScore},
			"feedback": map[string]any{"type": "string"},
		},
		"required": []any{"score", "feedback"},
	}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

var analysisSchema = func() *Schema {
	scorecardProps := map[string]any{}
	required := make([]any, 0, len(model.Criteria))
	for _, c := range model.Criteria {
		scorecardProps[c.Key()] = scoreItemSchema()
		required = append(required, c.Key())
	}

	classes := make([]any, 0, len(model.Classifications))
	for _, c := range model.Classifications {
		classes = append(classes, string(c))
	}

	return NewSchema("analysis_result", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overallScore": map[string]any{"type": "integer", "minimum": 0, "maximum": model.MaxOverallScore},
			"scorecard": map[string]any{
				"type":                 "object",
				"properties":           scorecardProps,
				"required":             required,
				"additionalProperties": false,
			},
			"classification":      map[string]any{"type": "string", "enum": classes},
			"whatWentWell":        stringList(),
			"whatToImprove":       stringList(),
			"suggestedNextAction": map[string]any{"type": "string"},
			"improvedScript":      map[string]any{"type": "string"},
		},
		"required": []any{
			"overallScore", "scorecard", "classification", "whatWentWell",
			"whatToImprove", "suggestedNextAction", "improvedScript",
		},
	})
}()

var liveSuggestionSchema = NewSchema("live_suggestion", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"signal":            map[string]any{"type": "string"},
		"suggestedResponse": map[string]any{"type": "string"},
		"nextAction":        map[string]any{"type": "string"},
	},
	"required": []any{"signal", "suggestedResponse", "nextAction"},
})

// AnalysisSchema 对话分析结果的 schema
func AnalysisSchema() *Schema { return analysisSchema }

// LiveSuggestionSchema 实时建议的 schema
func LiveSuggestionSchema() *Schema { return liveSuggestionSchema }
