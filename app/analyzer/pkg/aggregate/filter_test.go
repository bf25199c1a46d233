package aggregate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

func TestFilter_Apply(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	hot := report("hot", 85, now.AddDate(0, 0, -1))
	hot.Classification = model.ClassificationHot
	warm := report("warm", 65, now.AddDate(0, 0, -10))
	warm.Classification = model.ClassificationNurture
	cold := report("cold", 20, now.AddDate(0, 0, -100))
	cold.Classification = model.ClassificationLost
	h := model.History{hot, warm, cold}

	assert.Equal(t, []string{"hot", "warm", "cold"}, idsOf(Filter{}.Apply(h, now)))
	assert.Equal(t, []string{"hot", "warm"}, idsOf(Filter{MinScore: 60}.Apply(h, now)))
	assert.Equal(t, []string{"warm", "cold"}, idsOf(Filter{MaxScore: 70}.Apply(h, now)))
	assert.Equal(t, []string{"cold"}, idsOf(Filter{Classification: model.ClassificationLost}.Apply(h, now)))
	assert.Equal(t, []string{"hot"}, idsOf(Filter{Period: PeriodWeek}.Apply(h, now)))
	assert.Equal(t, []string{"hot", "warm"}, idsOf(Filter{Period: PeriodMonth}.Apply(h, now)))
	assert.Equal(t, []string{"hot", "warm", "cold"}, idsOf(Filter{Period: PeriodYear}.Apply(h, now)))
	assert.Empty(t, Filter{MinScore: 90}.Apply(h, now))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodAll, p)

	p, err = ParsePeriod("month")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	_, err = ParsePeriod("decade")
	assert.Error(t, err)
}

func TestDistributeAndBands(t *testing.T) {
	now := time.Now()
	h := model.History{
		report("a", 100, now), report("b", 80, now), report("c", 79, now),
		report("d", 60, now), report("e", 59, now), report("f", 30, now), report("g", 0, now),
	}

	assert.Equal(t, Distribution{Hot: 2, Warm: 2, Cold: 3}, Distribute(h))
	assert.Equal(t, []ScoreBand{
		{Range: "0-30", Count: 1},
		{Range: "30-60", Count: 2},
		{Range: "60-80", Count: 2},
		{Range: "80-100", Count: 2},
	}, ScoreBands(h))
}

func TestCollectInsights(t *testing.T) {
	mk := func(well, improve []string, action string) model.AnalysisReport {
		return model.AnalysisReport{AnalysisResult: model.AnalysisResult{
			WhatWentWell: well, WhatToImprove: improve, SuggestedNextAction: action,
		}}
	}
	long := strings.Repeat("á", 60)
	h := model.History{
		mk([]string{"rapport", "nome"}, []string{"cta"}, long),
		mk([]string{"nome"}, []string{"cta", "prova social"}, long+"x"),
		mk([]string{"a", "b", "c", "d"}, nil, ""),
	}

	in := CollectInsights(h)

	require.Len(t, in.Strengths, 5)
	assert.Equal(t, Mention{Text: "nome", Count: 2}, in.Strengths[0])
	assert.Equal(t, Mention{Text: "rapport", Count: 1}, in.Strengths[1])
	assert.Equal(t, "c", in.Strengths[4].Text)

	assert.Equal(t, []Mention{{Text: "cta", Count: 2}, {Text: "prova social", Count: 1}}, in.Weaknesses)

	require.Len(t, in.Actions, 1)
	assert.Equal(t, 2, in.Actions[0].Count)
	assert.Equal(t, 50, len([]rune(in.Actions[0].Text)))
}

func idsOf(h model.History) []string {
	out := []string{}
	for _, r := range h {
		out = append(out, r.ID)
	}
	return out
}
