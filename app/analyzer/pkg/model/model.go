package model

import "time"

// HotScoreThreshold 热门机会的总分下限（含）
const HotScoreThreshold = 80

// WarmScoreThreshold 需要培育的机会的总分下限（含）
const WarmScoreThreshold = 60

// 单项与总分的取值范围
const (
	MaxCriterionScore = 20
	MaxOverallScore   = 100
)

// Classification 对话结论分类
type Classification string

const (
	ClassificationHot       Classification = "Oportunidade Quente"
	ClassificationNurture   Classification = "Nutrir Relacionamento"
	ClassificationLost      Classification = "Tentativa Válida (Perdido)"
	ClassificationToImprove Classification = "Abordagem a Melhorar"
)

// Classifications 全部合法分类，顺序固定
var Classifications = []Classification{
	ClassificationHot,
	ClassificationNurture,
	ClassificationLost,
	ClassificationToImprove,
}

// Valid 判断分类是否属于枚举
func (c Classification) Valid() bool {
	for _, v := range Classifications {
		if v == c {
			return true
		}
	}
	return false
}

// Criterion 评分维度
type Criterion int

const (
	Personalization Criterion = iota
	ValueProposition
	TimingFollowUp
	CTA
	ObjectionHandling
)

// Criteria 评分维度的固定顺序，平分时以此为准
var Criteria = []Criterion{
	Personalization,
	ValueProposition,
	TimingFollowUp,
	CTA,
	ObjectionHandling,
}

var criterionLabels = map[Criterion]string{
	Personalization:   "Personalização",
	ValueProposition:  "Proposta de Valor",
	TimingFollowUp:    "Timing & Follow-up",
	CTA:               "Chamada para Ação (CTA)",
	ObjectionHandling: "Gestão de Objeções",
}

var criterionKeys = map[Criterion]string{
	Personalization:   "personalizacao",
	ValueProposition:  "propostaDeValor",
	TimingFollowUp:    "timingFollowUp",
	CTA:               "cta",
	ObjectionHandling: "gestaoObjecoes",
}

// Label 面向用户的维度名称
func (c Criterion) Label() string {
	return criterionLabels[c]
}

// Key 维度在 JSON 中的字段名
func (c Criterion) Key() string {
	return criterionKeys[c]
}

// ScoreItem 单项评分
type ScoreItem struct {
	Score    int    `json:"score"`    // 0-20
	Feedback string `json:"feedback"` // 评分理由
}

// Scorecard 五维评分卡
type Scorecard struct {
	Personalization   ScoreItem `json:"personalizacao"`
	ValueProposition  ScoreItem `json:"propostaDeValor"`
	TimingFollowUp    ScoreItem `json:"timingFollowUp"`
	CTA               ScoreItem `json:"cta"`
	ObjectionHandling ScoreItem `json:"gestaoObjecoes"`
}

// Item 按维度取评分项
func (s Scorecard) Item(c Criterion) ScoreItem {
	switch c {
	case Personalization:
		return s.Personalization
	case ValueProposition:
		return s.ValueProposition
	case TimingFollowUp:
		return s.TimingFollowUp
	case CTA:
		return s.CTA
	case ObjectionHandling:
		return s.ObjectionHandling
	default:
		return ScoreItem{}
	}
}

// AnalysisResult 模型返回的结构化分析结果
type AnalysisResult struct {
	OverallScore        int            `json:"overallScore"` // 0-100，由模型给出，不做重算
	Scorecard           Scorecard      `json:"scorecard"`
	Classification      Classification `json:"classification"`
	WhatWentWell        []string       `json:"whatWentWell"`
	WhatToImprove       []string       `json:"whatToImprove"`
	SuggestedNextAction string         `json:"suggestedNextAction"`
	ImprovedScript      string         `json:"improvedScript"`
}

// IsHot 是否为热门机会
func (r AnalysisResult) IsHot() bool {
	return r.OverallScore >= HotScoreThreshold
}

// AnalysisReport 持久化后的分析报告
type AnalysisReport struct {
	AnalysisResult
	ID                   string    `json:"id"`
	Date                 time.Time `json:"date"`
	OriginalConversation string    `json:"originalConversation"`
}

// History 报告列表，最新的在前
type History []AnalysisReport

// IDs 返回报告 ID 集合
func (h History) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(h))
	for _, r := range h {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// Find 按 ID 查找报告
func (h History) Find(id string) (AnalysisReport, bool) {
	for _, r := range h {
		if r.ID == id {
			return r, true
		}
	}
	return AnalysisReport{}, false
}

// LiveSuggestion 实时教练建议
type LiveSuggestion struct {
	Signal            string `json:"signal"`
	SuggestedResponse string `json:"suggestedResponse"`
	NextAction        string `json:"nextAction"`
}

// BusinessStats 历史汇总指标
type BusinessStats struct {
	TotalAnalyzed       int    `json:"totalAnalyzed"`
	AverageScore        int    `json:"averageScore"`
	HotOpportunityCount int    `json:"hotOpportunityCount"`
	TopImprovementArea  string `json:"topImprovementArea"`
}
