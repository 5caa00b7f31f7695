package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceRefreshInterval(t *testing.T) {
	tests := []struct {
		freq string
		want time.Duration
	}{
		{"daily", 24 * time.Hour},
		{"Weekly", 7 * 24 * time.Hour},
		{"hourly", time.Hour},
		{"real-time", 0},
		{"90m", 90 * time.Minute},
		{"sometimes", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.freq, func(t *testing.T) {
			assert.Equal(t, tt.want, Source{UpdateFrequency: tt.freq}.RefreshInterval())
		})
	}
}

func TestJobSettle(t *testing.T) {
	job := &EnrichmentJob{
		Sources: []string{"a", "b"},
		Results: map[string]SourceResult{
			"a": {Done: true, Indexed: 2},
			"b": {Done: true, Skipped: true},
		},
	}
	assert.Equal(t, JobCompleted, job.Settle())

	job.Results["b"] = SourceResult{Done: true, Error: "fetch b: timeout"}
	assert.Equal(t, JobPartial, job.Settle())

	job.Results["a"] = SourceResult{Done: true, Error: "boom"}
	assert.Equal(t, JobFailed, job.Settle())

	// A source that never reported is not a success.
	delete(job.Results, "a")
	job.Results["b"] = SourceResult{Done: true}
	assert.Equal(t, JobPartial, job.Settle())
}

func TestJobCloneIsDeep(t *testing.T) {
	job := &EnrichmentJob{
		ID:      "j1",
		Sources: []string{"a"},
		Results: map[string]SourceResult{"a": {Fetched: 1}},
	}
	c := job.Clone()
	c.Results["a"] = SourceResult{Fetched: 9}
	c.Sources[0] = "z"

	assert.Equal(t, 1, job.Results["a"].Fetched)
	assert.Equal(t, "a", job.Sources[0])
	assert.True(t, job.Covers([]string{"a"}))
	assert.False(t, job.Covers([]string{"a", "b"}))
}

func TestTrendCloneAndCorroboration(t *testing.T) {
	tr := &Trend{
		Name:    "Y2K Revival",
		Source:  "instagram",
		Regions: []string{"North America"},
		Demographics: Demographics{
			GenderSplit: map[string]int{"female": 70, "male": 30},
		},
	}
	assert.Equal(t, 1, tr.Corroboration())

	c := tr.Clone()
	c.Regions[0] = "Europe"
	c.Demographics.GenderSplit["female"] = 0
	c.Sources = []string{"instagram", "vogue"}

	assert.Equal(t, "North America", tr.Regions[0])
	assert.Equal(t, 70, tr.Demographics.GenderSplit["female"])
	assert.Equal(t, 2, c.Corroboration())
	assert.True(t, tr.HasRegion("north america"))
}

func TestAnalysisReportFacets(t *testing.T) {
	var r AnalysisReport
	for _, f := range Facets {
		r.SetFacet(f, FacetResult{Text: string(f), Available: true})
	}
	require.Len(t, Facets, 5)
	assert.Equal(t, "market", r.Market.Text)
	assert.Equal(t, "lifespan", r.Facet(FacetLifespan).Text)
	assert.Equal(t, FacetResult{}, r.Facet("unknown"))
}

func TestErrorTaxonomy(t *testing.T) {
	fe := &FetchError{Source: "vogue", Cause: ErrTimeout}
	assert.True(t, fe.Timeout())
	assert.True(t, errors.Is(fe, ErrTimeout))

	wrapped := errors.Join(errors.New("ctx"), &GenerationError{Kind: GenRateLimited})
	assert.Equal(t, GenRateLimited, GenerationKindOf(wrapped))
	assert.Equal(t, GenerationKind(""), GenerationKindOf(fe))

	assert.True(t, IsIndexError(&IndexError{Op: "upsert", Cause: errors.New("disk")}))
}
