package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/ai/mock"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/storage/badger"
	"github.com/poiesic/trendline/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrend(sources ...string) *core.Trend {
	now := time.Now().UTC()
	return &core.Trend{
		ID:        "tr_1",
		Name:      "Y2K Fashion Revival",
		Category:  "streetwear",
		Scores:    core.Scores{Trend: 0.8, GrowthRate: 25, Sustainability: 0.4},
		Sources:   sources,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func setupAggregator(t *testing.T, opts ...Option) (*Aggregator, *mock.MockGenerator, *badger.TrendIndex) {
	t.Helper()
	index, _, backend, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	pool, err := workers.New(5)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	gen := mock.NewMockGenerator()
	opts = append([]Option{WithPool(pool)}, opts...)
	agg, err := NewAggregator(gen, index, opts...)
	require.NoError(t, err)
	return agg, gen, index
}

func TestAnalyzeTrend_AllFacets(t *testing.T) {
	agg, gen, _ := setupAggregator(t)

	report := agg.AnalyzeTrend(context.Background(), sampleTrend("instagram", "vogue"))

	assert.Equal(t, 5, gen.CallCount())
	for _, f := range core.Facets {
		res := report.Facet(f)
		assert.True(t, res.Available, f)
		assert.Contains(t, res.Text, "["+string(f)+"]")
	}
	assert.Equal(t, 100.0, report.Score.AnalysisQuality)
	assert.Equal(t, core.ConfidenceHigh, report.Score.Confidence)

	// 0.3*80 + 0.2*50 + 0.25*40 + 0.25*100
	assert.InDelta(t, 69.0, report.Score.Overall, 0.001)

	tasks := map[string]bool{}
	for _, p := range gen.Prompts() {
		tasks[p.Task] = true
		require.Len(t, p.Anchors, 1)
		assert.Equal(t, "streetwear", p.Anchors[0].Category)
	}
	assert.Len(t, tasks, 5)
}

func TestAnalyzeTrend_PartialFailure(t *testing.T) {
	agg, gen, _ := setupAggregator(t)
	gen.CompleteFunc = func(ctx context.Context, p ai.Prompt) (string, error) {
		switch core.Facet(p.Task) {
		case core.FacetMarket:
			return "", &core.GenerationError{Kind: core.GenRateLimited}
		case core.FacetLifespan:
			return "", &core.GenerationError{Kind: core.GenInvalidInput}
		}
		return "analysis of " + p.Task, nil
	}

	report := agg.AnalyzeTrend(context.Background(), sampleTrend("instagram", "vogue"))

	assert.Equal(t, 60.0, report.Score.AnalysisQuality)
	assert.NotEqual(t, core.ConfidenceHigh, report.Score.Confidence)
	assert.Equal(t, core.ConfidenceMedium, report.Score.Confidence)

	market := report.Facet(core.FacetMarket)
	assert.False(t, market.Available)
	assert.Equal(t, "Market analysis is unavailable right now.", market.Text)
	assert.Equal(t, "rate_limited", market.Error)
	assert.True(t, report.Facet(core.FacetStyling).Available)
}

func TestAnalyzeTrend_FacetTimeout(t *testing.T) {
	agg, gen, _ := setupAggregator(t, WithFacetTimeout(50*time.Millisecond))
	gen.CompleteFunc = func(ctx context.Context, p ai.Prompt) (string, error) {
		if core.Facet(p.Task) == core.FacetStyling {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "ok", nil
	}

	start := time.Now()
	report := agg.AnalyzeTrend(context.Background(), sampleTrend("instagram"))
	assert.Less(t, time.Since(start), 2*time.Second)

	styling := report.Facet(core.FacetStyling)
	assert.False(t, styling.Available)
	assert.Equal(t, "timeout", styling.Error)
	assert.Equal(t, 80.0, report.Score.AnalysisQuality)
}

func TestAnalyzeTrend_AllFail(t *testing.T) {
	agg, gen, _ := setupAggregator(t)
	gen.CompleteFunc = func(context.Context, ai.Prompt) (string, error) {
		return "", &core.GenerationError{Kind: core.GenUnavailable}
	}

	report := agg.AnalyzeTrend(context.Background(), sampleTrend("instagram", "vogue"))
	assert.Zero(t, report.Score.AnalysisQuality)
	assert.Equal(t, core.ConfidenceLow, report.Score.Confidence)
}

func TestAnalyze_ByID(t *testing.T) {
	agg, _, index := setupAggregator(t)
	require.NoError(t, index.Upsert(context.Background(), sampleTrend("vogue")))

	report, err := agg.Analyze(context.Background(), "tr_1")
	require.NoError(t, err)
	assert.Equal(t, "Y2K Fashion Revival", report.TrendName)
	assert.Equal(t, core.ConfidenceLow, report.Score.Confidence, "single source is never corroborated")

	_, err = agg.Analyze(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTrendNotFound)
}

func TestScore_Confidence(t *testing.T) {
	tests := []struct {
		name      string
		sources   []string
		succeeded int
		want      core.Confidence
	}{
		{"complete and corroborated", []string{"a", "b"}, 5, core.ConfidenceHigh},
		{"complete single source", []string{"a"}, 5, core.ConfidenceLow},
		{"partial corroborated", []string{"a", "b"}, 3, core.ConfidenceMedium},
		{"partial single source", []string{"a"}, 1, core.ConfidenceMedium},
		{"nothing generated", []string{"a", "b"}, 0, core.ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(sampleTrend(tt.sources...), tt.succeeded).Confidence)
		})
	}
}

func TestScore_Clamps(t *testing.T) {
	tr := sampleTrend("a", "b")
	tr.Scores.GrowthRate = 400
	s := Score(tr, 5)
	assert.Equal(t, 100.0, s.Growth)
	assert.LessOrEqual(t, s.Overall, 100.0)

	tr.Scores.GrowthRate = -30
	assert.Zero(t, Score(tr, 5).Growth)
}
