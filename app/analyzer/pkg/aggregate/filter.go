package aggregate

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// Period 时间范围筛选
type Period string

const (
	PeriodAll   Period = "all"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod 解析时间范围，空串视为 all
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodWeek, PeriodMonth, PeriodYear:
		return Period(s), nil
	default:
		return "", fmt.Errorf("unknown period: %s", s)
	}
}

// Since 返回范围起点，all 时为零值
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour)
	case PeriodYear:
		return now.Add(-365 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// Filter 历史筛选条件，零值不过滤
type Filter struct {
	MinScore       int
	MaxScore       int // 0 表示不限
	Classification model.Classification
	Period         Period
}

// Apply 返回满足条件的报告，保持原有顺序
func (f Filter) Apply(h model.History, now time.Time) model.History {
	since := f.Period.Since(now)
	maxScore := f.MaxScore
	if maxScore == 0 {
		maxScore = model.MaxOverallScore
	}

	out := model.History{}
	for _, r := range h {
		if r.OverallScore < f.MinScore || r.OverallScore > maxScore {
			continue
		}
		if f.Classification != "" && r.Classification != f.Classification {
			continue
		}
		if !since.IsZero() && r.Date.Before(since) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Distribution 按热度分布
type Distribution struct {
	Hot  int `json:"hot"`  // >= 80
	Warm int `json:"warm"` // 60-79
	Cold int `json:"cold"` // < 60
}

// Distribute 统计热度分布
func Distribute(h model.History) Distribution {
	var d Distribution
	for _, r := range h {
		switch {
		case r.OverallScore >= model.HotScoreThreshold:
			d.Hot++
		case r.OverallScore >= model.WarmScoreThreshold:
			d.Warm++
		default:
			d.Cold++
		}
	}
	return d
}

// ScoreBand 分数区间及数量
type ScoreBand struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

var bandBounds = []struct {
	label    string
	min, max int // [min, max)
}{
	{"0-30", 0, 30},
	{"30-60", 30, 60},
	{"60-80", 60, 80},
	{"80-100", 80, model.MaxOverallScore + 1},
}

// ScoreBands 分数直方图
func ScoreBands(h model.History) []ScoreBand {
	out := make([]ScoreBand, len(bandBounds))
	for i, b := range bandBounds {
		out[i].Range = b.label
	}
	for _, r := range h {
		for i, b := range bandBounds {
			if r.OverallScore >= b.min && r.OverallScore < b.max {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// Mention 出现次数统计
type Mention struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Insights 高频优点、待改进点和建议动作
type Insights struct {
	Strengths  []Mention `json:"strengths"`
	Weaknesses []Mention `json:"weaknesses"`
	Actions    []Mention `json:"actions"`
}

const (
	topMentions     = 5
	actionPrefixLen = 50
)

// CollectInsights 统计各类出现最多的前五项，次数相同时先出现的在前
func CollectInsights(h model.History) Insights {
	var strengths, weaknesses, actions []string
	for _, r := range h {
		strengths = append(strengths, r.WhatWentWell...)
		weaknesses = append(weaknesses, r.WhatToImprove...)
		if r.SuggestedNextAction != "" {
			actions = append(actions, truncateRunes(r.SuggestedNextAction, actionPrefixLen))
		}
	}
	return Insights{
		Strengths:  topN(strengths, topMentions),
		Weaknesses: topN(weaknesses, topMentions),
		Actions:    topN(actions, topMentions),
	}
}

func topN(items []string, n int) []Mention {
	counts := map[string]int{}
	var order []string
	for _, it := range items {
		if _, ok := counts[it]; !ok {
			order = append(order, it)
		}
		counts[it]++
	}

	out := make([]Mention, 0, len(order))
	for _, it := range order {
		out = append(out, Mention{Text: it, Count: counts[it]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
