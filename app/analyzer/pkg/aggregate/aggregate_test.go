package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

func report(id string, score int, date time.Time) model.AnalysisReport {
	return model.AnalysisReport{
		AnalysisResult: model.AnalysisResult{OverallScore: score},
		ID:             id,
		Date:           date,
	}
}

func scored(id string, p, v, t, c, o int) model.AnalysisReport {
	r := report(id, p+v+t+c+o, time.Now())
	r.Scorecard = model.Scorecard{
		Personalization:   model.ScoreItem{Score: p},
		ValueProposition:  model.ScoreItem{Score: v},
		TimingFollowUp:    model.ScoreItem{Score: t},
		CTA:               model.ScoreItem{Score: c},
		ObjectionHandling: model.ScoreItem{Score: o},
	}
	return r
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, model.BusinessStats{TopImprovementArea: "N/A"}, Summarize(nil))
	assert.Equal(t, model.BusinessStats{TopImprovementArea: "N/A"}, Summarize(model.History{}))
}

func TestSummarize_AverageScore(t *testing.T) {
	now := time.Now()
	h := model.History{report("a", 90, now), report("b", 55, now), report("c", 72, now)}

	stats := Summarize(h)

	assert.Equal(t, 3, stats.TotalAnalyzed)
	assert.Equal(t, 72, stats.AverageScore)
	assert.Equal(t, 1, stats.HotOpportunityCount)
}

func TestSummarize_HotThresholdIsNumeric(t *testing.T) {
	now := time.Now()
	notHot := report("a", 79, now)
	notHot.Classification = model.ClassificationHot
	hot := report("b", 80, now)
	hot.Classification = model.ClassificationLost

	assert.Equal(t, 1, Summarize(model.History{notHot, hot}).HotOpportunityCount)
}

func TestSummarize_RoundsHalfUp(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 73, Summarize(model.History{report("a", 72, now), report("b", 73, now)}).AverageScore)
}

func TestSummarize_TopImprovementArea(t *testing.T) {
	tied := model.History{scored("a", 10, 10, 10, 10, 10), scored("b", 12, 12, 12, 12, 12)}
	assert.Equal(t, "Personalização", Summarize(tied).TopImprovementArea)

	ctaWeak := model.History{scored("a", 15, 15, 15, 5, 15), scored("b", 15, 15, 15, 9, 15)}
	assert.Equal(t, "Chamada para Ação (CTA)", Summarize(ctaWeak).TopImprovementArea)

	lastTwoTied := model.History{scored("a", 15, 15, 15, 8, 8)}
	assert.Equal(t, "Chamada para Ação (CTA)", Summarize(lastTwoTied).TopImprovementArea)
}

func TestSummarize_DoesNotMutate(t *testing.T) {
	now := time.Now()
	h := model.History{report("b", 10, now), report("a", 90, now.Add(-time.Hour))}
	before := append(model.History(nil), h...)

	Summarize(h)
	ImprovementDelta(h)
	_, _ = Trend(h, 7, BucketDay, now)

	assert.Equal(t, before, h)
}

func TestCriterionAverages(t *testing.T) {
	h := model.History{scored("a", 10, 11, 12, 13, 14), scored("b", 11, 11, 12, 13, 14)}
	avgs := CriterionAverages(h)
	require.Len(t, avgs, 5)
	assert.Equal(t, "Personalização", avgs[0].Label)
	assert.Equal(t, 10.5, avgs[0].Average)
	assert.Equal(t, 14.0, avgs[4].Average)
}

func TestTrend(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	asOf := time.Date(2025, 3, 10, 20, 0, 0, 0, loc)

	h := model.History{
		// 2025-03-10 02:00 UTC 在 BRT 是 03-09 23:00
		report("late", 40, time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)),
		report("today1", 80, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)),
		report("today2", 91, time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)),
		report("old", 10, time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)),
	}

	points, err := Trend(h, 3, BucketDay, asOf)
	require.NoError(t, err)
	assert.Equal(t, []TrendPoint{
		{Date: "2025-03-08", Count: 0, AverageScore: 0},
		{Date: "2025-03-09", Count: 1, AverageScore: 40},
		{Date: "2025-03-10", Count: 2, AverageScore: 86},
	}, points)
}

func TestTrend_EdgeCases(t *testing.T) {
	_, err := Trend(nil, 7, "week", time.Now())
	assert.ErrorIs(t, err, ErrUnsupportedBucketing)

	points, err := Trend(nil, 0, BucketDay, time.Now())
	require.NoError(t, err)
	assert.Empty(t, points)

	points, err = Trend(nil, 30, BucketDay, time.Now())
	require.NoError(t, err)
	assert.Len(t, points, 30)
	for _, p := range points {
		assert.Zero(t, p.Count)
	}
}

func TestImprovementDelta(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	day := func(n int) time.Time { return base.AddDate(0, 0, n) }

	assert.Equal(t, 0, ImprovementDelta(nil))
	assert.Equal(t, 0, ImprovementDelta(model.History{report("a", 50, day(0))}))

	// 新到旧：70, 60 | 40, 30
	h := model.History{
		report("d", 70, day(3)), report("c", 60, day(2)),
		report("b", 40, day(1)), report("a", 30, day(0)),
	}
	assert.Equal(t, 30, ImprovementDelta(h))
	assert.Equal(t, 85.7, ImprovementPercent(h))

	// 奇数时较新的一半多一条：older=[30], newer=[40, 80]
	odd := model.History{report("c", 80, day(2)), report("b", 40, day(1)), report("a", 30, day(0))}
	assert.Equal(t, 30, ImprovementDelta(odd))

	// 顺序与时间不一致时按时间
	shuffled := model.History{report("a", 30, day(0)), report("d", 70, day(3)), report("b", 40, day(1)), report("c", 60, day(2))}
	assert.Equal(t, 30, ImprovementDelta(shuffled))

	declining := model.History{report("b", 40, day(1)), report("a", 80, day(0))}
	assert.Equal(t, -40, ImprovementDelta(declining))
	assert.Equal(t, -50.0, ImprovementPercent(declining))
}

func TestImprovementPercent_ZeroBase(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h := model.History{report("b", 50, base.Add(time.Hour)), report("a", 0, base)}
	assert.Equal(t, 0.0, ImprovementPercent(h))
}
