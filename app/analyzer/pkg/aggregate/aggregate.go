package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// NoImprovementArea 历史为空时的改进方向
const NoImprovementArea = "N/A"

// Bucketing 趋势分桶方式
type Bucketing string

// BucketDay 按自然日分桶，目前唯一支持的方式
const BucketDay Bucketing = "day"

// ErrUnsupportedBucketing 不支持的分桶方式
var ErrUnsupportedBucketing = errors.New("unsupported bucketing")

// TrendPoint 趋势中的一天
type TrendPoint struct {
	Date         string `json:"date"` // YYYY-MM-DD
	Count        int    `json:"count"`
	AverageScore int    `json:"averageScore"` // 无报告时为 0
}

// round 四舍五入，.5 远离零
func round(f float64) int {
	return int(math.Round(f))
}

func meanScore(h model.History) float64 {
	if len(h) == 0 {
		return 0
	}
	sum := 0
	for _, r := range h {
		sum += r.OverallScore
	}
	return float64(sum) / float64(len(h))
}

// Summarize 计算汇总指标
func Summarize(h model.History) model.BusinessStats {
	if len(h) == 0 {
		return model.BusinessStats{TopImprovementArea: NoImprovementArea}
	}

	hot := 0
	for _, r := range h {
		if r.IsHot() {
			hot++
		}
	}

	return model.BusinessStats{
		TotalAnalyzed:       len(h),
		AverageScore:        round(meanScore(h)),
		HotOpportunityCount: hot,
		TopImprovementArea:  weakestCriterion(h).Label(),
	}
}

// weakestCriterion 平均分最低的维度，平分时取固定顺序中靠前的
func weakestCriterion(h model.History) model.Criterion {
	avgs := criterionMeans(h)
	weakest := model.Criteria[0]
	for _, c := range model.Criteria[1:] {
		if avgs[c] < avgs[weakest] {
			weakest = c
		}
	}
	return weakest
}

func criterionMeans(h model.History) map[model.Criterion]float64 {
	sums := make(map[model.Criterion]int, len(model.Criteria))
	for _, r := range h {
		for _, c := range model.Criteria {
			sums[c] += r.Scorecard.Item(c).Score
		}
	}
	out := make(map[model.Criterion]float64, len(model.Criteria))
	for _, c := range model.Criteria {
		if len(h) > 0 {
			out[c] = float64(sums[c]) / float64(len(h))
		}
	}
	return out
}

// CriterionAverage 单个维度的平均分
type CriterionAverage struct {
	Criterion model.Criterion `json:"-"`
	Label     string          `json:"label"`
	Average   float64         `json:"average"` // 保留一位小数
}

// CriterionAverages 按固定顺序返回各维度平均分
func CriterionAverages(h model.History) []CriterionAverage {
	means := criterionMeans(h)
	out := make([]CriterionAverage, 0, len(model.Criteria))
	for _, c := range model.Criteria {
		out = append(out, CriterionAverage{
			Criterion: c,
			Label:     c.Label(),
			Average:   math.Round(means[c]*10) / 10,
		})
	}
	return out
}

// Trend 按天统计最近 windowDays 天（含 asOf 当天）的数量和平均分
//
// 日期以 asOf 所在时区的自然日计算，没有报告的日期也会出现，结果从旧到新。
func Trend(h model.History, windowDays int, bucketing Bucketing, asOf time.Time) ([]TrendPoint, error) {
	if bucketing != BucketDay {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBucketing, bucketing)
	}
	if windowDays <= 0 {
		return []TrendPoint{}, nil
	}

	loc := asOf.Location()
	const layout = "2006-01-02"

	y, m, d := asOf.Date()
	last := time.Date(y, m, d, 0, 0, 0, 0, loc)

	points := make([]TrendPoint, windowDays)
	index := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		day := last.AddDate(0, 0, i-windowDays+1)
		key := day.Format(layout)
		points[i] = TrendPoint{Date: key}
		index[key] = i
	}

	sums := make([]int, windowDays)
	for _, r := range h {
		key := r.Date.In(loc).Format(layout)
		i, ok := index[key]
		if !ok {
			continue
		}
		points[i].Count++
		sums[i] += r.OverallScore
	}
	for i := range points {
		if points[i].Count > 0 {
			points[i].AverageScore = round(float64(sums[i]) / float64(points[i].Count))
		}
	}
	return points, nil
}

// chronological 返回从旧到新排列的副本
func chronological(h model.History) model.History {
	out := make(model.History, len(h))
	// 历史本身新到旧，先反转，时间相同的保持插入顺序
	for i, r := range h {
		out[len(h)-1-i] = r
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// halves 按时间把历史分成较早和较新两半，奇数时较新一半多一条
func halves(h model.History) (older, newer model.History) {
	ordered := chronological(h)
	mid := len(ordered) / 2
	return ordered[:mid], ordered[mid:]
}

// ImprovementDelta 较新一半与较早一半的平均分之差（各自先取整）
func ImprovementDelta(h model.History) int {
	older, newer := halves(h)
	if len(older) == 0 || len(newer) == 0 {
		return 0
	}
	return round(meanScore(newer)) - round(meanScore(older))
}

// ImprovementPercent 相对较早一半平均分的提升百分比，保留一位小数
func ImprovementPercent(h model.History) float64 {
	older, _ := halves(h)
	olderAvg := round(meanScore(older))
	if len(older) == 0 || olderAvg == 0 {
		return 0
	}
	pct := float64(ImprovementDelta(h)) / float64(olderAvg) * 100
	return math.Round(pct*10) / 10
}
