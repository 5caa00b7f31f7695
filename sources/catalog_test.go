package sources

import (
	"strings"
	"testing"
	"time"

	"github.com/poiesic/trendline/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, []string{"vogue", "business_of_fashion", "who_what_wear", "instagram", "fast_fashion"}, c.Names())

	vogue, ok := c.Lookup("vogue")
	require.True(t, ok)
	assert.Equal(t, core.KindHTML, vogue.Kind)
	assert.Equal(t, 24*time.Hour, vogue.RefreshInterval())
	assert.Equal(t, 2160*time.Hour, vogue.Defaults.PeakIn)
	require.NotNil(t, vogue.Defaults.TrendScore)
	assert.Equal(t, 0.85, *vogue.Defaults.TrendScore)

	insta, ok := c.Lookup("instagram")
	require.True(t, ok)
	assert.Len(t, insta.Records, 2)
	assert.Equal(t, time.Duration(0), insta.RefreshInterval())

	descs := c.Descriptors()
	require.Len(t, descs, 5)
	assert.Equal(t, "Authoritative luxury fashion insights", descs[0].UniqueValue)
	assert.Equal(t, []string{"luxury", "runway", "high_fashion"}, descs[0].Categories)

	_, ok = c.Lookup("nope")
	assert.False(t, ok)
}

func TestParseCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "sources: []", "no sources"},
		{"duplicate", `
sources:
  - {name: a, kind: static, records: [{name: x}]}
  - {name: a, kind: static, records: [{name: y}]}`, "duplicate"},
		{"html without url", `
sources:
  - {name: a, kind: html}`, "needs a url"},
		{"unknown kind", `
sources:
  - {name: a, kind: carrier-pigeon}`, "unknown kind"},
		{"unknown field", `
sources:
  - {name: a, kind: static, records: [{name: x}], colour: red}`, "colour"},
		{"bad scale", `
sources:
  - {name: a, kind: static, score_scale: permille, records: [{name: x}]}`, "score_scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestToRawAppliesDefaults(t *testing.T) {
	cfg := Config{
		Source: core.Source{Name: "src"},
		Kind:   core.KindStatic,
		Scale:  core.ScalePercent,
		Defaults: RecordSpec{
			Category:   "luxury",
			Regions:    []string{"Global"},
			TrendScore: core.Float(70),
			PeakIn:     48 * time.Hour,
		},
	}
	observed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := cfg.toRaw(RecordSpec{Name: "Tabi Shoes", Category: "footwear"}, observed)

	assert.Equal(t, "src", raw.Source)
	assert.Equal(t, "footwear", raw.Category)
	assert.Equal(t, []string{"Global"}, raw.Regions)
	assert.Equal(t, 70.0, *raw.TrendScore)
	assert.Equal(t, core.ScalePercent, raw.Scale)
	assert.Equal(t, "2025-01-03T00:00:00Z", raw.PredictedPeak)
}
