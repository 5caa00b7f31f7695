package normalize

import (
	"testing"
	"time"

	"github.com/poiesic/trendline/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestNormalizeClampsSustainability(t *testing.T) {
	n := New(WithClock(fixedClock))

	tr, q, err := n.Normalize(core.RawRecord{
		Source:              "vogue",
		Name:                "Quiet Luxury",
		Category:            "High Fashion",
		SustainabilityScore: core.Float(1.4),
		TrendScore:          core.Float(0.9),
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, tr.Scores.Sustainability)
	assert.Equal(t, 0.9, tr.Scores.Trend)
	assert.Equal(t, []string{"scores.sustainability"}, q.Clamped)
	assert.Equal(t, 1, q.Decrements())
	assert.Equal(t, "luxury", tr.Category)
	assert.Equal(t, fixedClock(), tr.CreatedAt)
	assert.Equal(t, []string{"vogue"}, tr.Sources)
	assert.NoError(t, core.ValidateTrend(&core.Trend{ID: "x", Name: tr.Name, Scores: tr.Scores, CreatedAt: tr.CreatedAt, UpdatedAt: tr.UpdatedAt}))
}

func TestNormalizePercentScale(t *testing.T) {
	n := New()
	tr, q, err := n.Normalize(core.RawRecord{
		Name:                "Y2K Revival",
		Scale:               core.ScalePercent,
		TrendScore:          core.Float(85),
		SustainabilityScore: core.Float(30),
		GrowthRate:          core.Float(156.7),
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.85, tr.Scores.Trend, 1e-9)
	assert.InDelta(t, 0.30, tr.Scores.Sustainability, 1e-9)
	assert.Equal(t, 156.7, tr.Scores.GrowthRate)
	assert.True(t, q.Clean())
}

func TestNormalizeRejectsMissingName(t *testing.T) {
	n := New()
	_, _, err := n.Normalize(core.RawRecord{Name: "   ", Category: "luxury"})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestNormalizeVocabularyPassthrough(t *testing.T) {
	n := New()
	tr, q, err := n.Normalize(core.RawRecord{
		Name:     "Cottagecore",
		Category: "Whimsical Romance",
		Regions:  []string{"usa", "Europe", "Atlantis", "US"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Whimsical Romance", tr.Category)
	assert.Equal(t, []string{"North America", "Europe", "Atlantis"}, tr.Regions)
	assert.Contains(t, q.Unmapped, "category")
	assert.Contains(t, q.Unmapped, "regions")
	assert.True(t, q.Clean(), "unmapped vocabulary is not a penalty")
}

func TestNormalizeGenderSplit(t *testing.T) {
	n := New()

	tr, q, err := n.Normalize(core.RawRecord{
		Name:        "Gorpcore",
		GenderSplit: map[string]int{"Female": 30, "male": 30},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"female": 50, "male": 50}, tr.Demographics.GenderSplit)
	assert.Equal(t, []string{"demographics.gender_split"}, q.Rescaled)

	tr, q, err = n.Normalize(core.RawRecord{
		Name:        "Balletcore",
		GenderSplit: map[string]int{"female": 1, "male": 1, "other": 1},
	})
	require.NoError(t, err)
	sum := 0
	for _, v := range tr.Demographics.GenderSplit {
		sum += v
	}
	assert.Equal(t, 100, sum)
	assert.Equal(t, 1, q.Decrements())

	tr, _, err = n.Normalize(core.RawRecord{
		Name:        "Preppy",
		GenderSplit: map[string]int{"female": 65, "male": 35},
	})
	require.NoError(t, err)
	assert.Equal(t, 65, tr.Demographics.GenderSplit["female"])
}

func TestNormalizeDatesAndCounts(t *testing.T) {
	n := New()

	tr, q, err := n.Normalize(core.RawRecord{
		Name:                "Mob Wife",
		PredictedPeak:       "2025-06-15T00:00:00",
		SocialMentions:      core.Int(-5),
		InfluencerAdoptions: core.Int(42),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), tr.PredictedPeak)
	assert.Equal(t, int64(0), tr.SocialMentions)
	assert.Equal(t, int64(42), tr.InfluencerAdoptions)
	assert.Equal(t, []string{"social_mentions"}, q.Clamped)

	tr, q, err = n.Normalize(core.RawRecord{Name: "Tomato Girl", PredictedPeak: "next summer"})
	require.NoError(t, err)
	assert.True(t, tr.PredictedPeak.IsZero())
	assert.Equal(t, []string{"predicted_peak"}, q.Invalid)
}

func TestNormalizeSetsAreDeduplicated(t *testing.T) {
	n := New()
	tr, _, err := n.Normalize(core.RawRecord{
		Name:   "  Barbiecore  ",
		Tags:   []string{"Pink", "pink", " PINK ", "bold"},
		Colors: []string{"#FF69B4", "#ff69b4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Barbiecore", tr.Name)
	assert.Equal(t, []string{"pink", "bold"}, tr.Tags)
	assert.Equal(t, []string{"#ff69b4"}, tr.ColorPalette)
}

func TestRenormalize(t *testing.T) {
	n := New()
	tr := &core.Trend{
		Name:     "Street Layers",
		Category: "street style",
		Regions:  []string{"uk", "Europe"},
		Scores:   core.Scores{Trend: 1.5},
	}
	assert.True(t, n.Renormalize(tr))
	assert.Equal(t, "streetwear", tr.Category)
	assert.Equal(t, []string{"Europe"}, tr.Regions)
	assert.Equal(t, 1.0, tr.Scores.Trend)
	assert.False(t, n.Renormalize(tr))
}
