// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Scores holds the numeric signals attached to a trend.
// Trend and Sustainability are unit-interval values. GrowthRate is a percentage
// and may exceed 100 or be negative.
type Scores struct {
	Trend          float64 `json:"trend_score"`
	GrowthRate     float64 `json:"growth_rate"`
	Sustainability float64 `json:"sustainability_score"`
}

// Demographics describes who is adopting a trend.
// GenderSplit values are percentages that sum to 100 once normalized.
type Demographics struct {
	PrimaryAge   string         `json:"primary_age,omitempty"`
	SecondaryAge string         `json:"secondary_age,omitempty"`
	GenderSplit  map[string]int `json:"gender_split,omitempty"`
}

// IsZero reports whether no demographic data is present.
func (d Demographics) IsZero() bool {
	return d.PrimaryAge == "" && d.SecondaryAge == "" && len(d.GenderSplit) == 0
}

// Trend is a single fashion trend in the canonical shape stored in the index.
type Trend struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Brand               string            `json:"brand,omitempty"`
	Category            string            `json:"category"`
	Description         string            `json:"description,omitempty"`
	Regions             []string          `json:"regions,omitempty"`
	Source              string            `json:"source"`
	Sources             []string          `json:"sources,omitempty"`
	SourceURL           string            `json:"source_url,omitempty"`
	ImageURL            string            `json:"image_url,omitempty"`
	Stage               string            `json:"stage,omitempty"`
	Scores              Scores            `json:"scores"`
	Demographics        Demographics      `json:"demographics"`
	PredictedPeak       time.Time         `json:"predicted_peak,omitzero"`
	SocialMentions      int64             `json:"social_mentions,omitempty"`
	InfluencerAdoptions int64             `json:"influencer_adoptions,omitempty"`
	BrandAdoptions      []string          `json:"brand_adoptions,omitempty"`
	ColorPalette        []string          `json:"color_palette,omitempty"`
	Tags                []string          `json:"tags,omitempty"`
	Extensions          map[string]string `json:"extensions,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the trend.
func (t *Trend) Clone() *Trend {
	if t == nil {
		return nil
	}
	c := *t
	c.Regions = slices.Clone(t.Regions)
	c.Sources = slices.Clone(t.Sources)
	c.BrandAdoptions = slices.Clone(t.BrandAdoptions)
	c.ColorPalette = slices.Clone(t.ColorPalette)
	c.Tags = slices.Clone(t.Tags)
	c.Extensions = maps.Clone(t.Extensions)
	c.Demographics.GenderSplit = maps.Clone(t.Demographics.GenderSplit)
	return &c
}

// HasRegion reports whether the trend is observed in region (case-insensitive).
func (t *Trend) HasRegion(region string) bool {
	for _, r := range t.Regions {
		if strings.EqualFold(r, region) {
			return true
		}
	}
	return false
}

// Corroboration returns the number of distinct sources that reported the trend.
func (t *Trend) Corroboration() int {
	if len(t.Sources) == 0 && t.Source != "" {
		return 1
	}
	return len(t.Sources)
}

// Source describes an external origin of trend records.
type Source struct {
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	DataType        string   `json:"data_type" yaml:"data_type"`
	UniqueValue     string   `json:"unique_value" yaml:"unique_value"`
	Categories      []string `json:"categories" yaml:"categories"`
	UpdateFrequency string   `json:"update_frequency" yaml:"update_frequency"`
}

// RefreshInterval converts UpdateFrequency into the minimum age a previous
// successful refresh must reach before the source is fetched again without force.
// Unknown values and "real-time" yield zero (always refresh).
func (s Source) RefreshInterval() time.Duration {
	switch strings.ToLower(strings.TrimSpace(s.UpdateFrequency)) {
	case "", "real-time", "realtime", "live":
		return 0
	case "hourly":
		return time.Hour
	case "daily":
		return 24 * time.Hour
	case "weekly":
		return 7 * 24 * time.Hour
	}
	d, err := time.ParseDuration(s.UpdateFrequency)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// JobStatus is the lifecycle state of an enrichment job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobPartial   JobStatus = "partial"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobPartial || s == JobFailed
}

// SourceResult is the per-source outcome recorded on an enrichment job.
type SourceResult struct {
	Fetched  int    `json:"fetched"`
	Indexed  int    `json:"indexed"`
	Dropped  int    `json:"dropped"`
	Filtered int    `json:"filtered"`
	Clamped  int    `json:"clamped"`
	Attempts int    `json:"attempts"`
	Skipped  bool   `json:"skipped,omitempty"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Succeeded reports whether the source finished without error.
func (r SourceResult) Succeeded() bool {
	return r.Done && r.Error == ""
}

// EnrichmentJob tracks one enrichment request across its sources.
type EnrichmentJob struct {
	ID         string                  `json:"job_id"`
	Sources    []string                `json:"sources"`
	Categories []string                `json:"categories,omitempty"`
	Regions    []string                `json:"regions,omitempty"`
	Force      bool                    `json:"force_refresh"`
	Status     JobStatus               `json:"status"`
	Results    map[string]SourceResult `json:"results"`
	CreatedAt  time.Time               `json:"created_at"`
	StartedAt  time.Time               `json:"started_at,omitzero"`
	FinishedAt time.Time               `json:"finished_at,omitzero"`
}

// Clone returns a deep copy safe to hand to readers.
func (j *EnrichmentJob) Clone() *EnrichmentJob {
	if j == nil {
		return nil
	}
	c := *j
	c.Sources = slices.Clone(j.Sources)
	c.Categories = slices.Clone(j.Categories)
	c.Regions = slices.Clone(j.Regions)
	c.Results = maps.Clone(j.Results)
	return &c
}

// Covers reports whether the job requested every one of the given sources.
func (j *EnrichmentJob) Covers(sources []string) bool {
	for _, s := range sources {
		if !slices.Contains(j.Sources, s) {
			return false
		}
	}
	return true
}

// Settle derives the terminal status from the per-source results.
// All sources succeeded yields completed, some yields partial, none yields failed.
func (j *EnrichmentJob) Settle() JobStatus {
	ok, bad := 0, 0
	for _, s := range j.Sources {
		if j.Results[s].Succeeded() {
			ok++
		} else {
			bad++
		}
	}
	switch {
	case bad == 0:
		return JobCompleted
	case ok > 0:
		return JobPartial
	default:
		return JobFailed
	}
}

// Totals sums counters over every source result.
func (j *EnrichmentJob) Totals() SourceResult {
	var t SourceResult
	for _, r := range j.Results {
		t.Fetched += r.Fetched
		t.Indexed += r.Indexed
		t.Dropped += r.Dropped
		t.Filtered += r.Filtered
		t.Clamped += r.Clamped
		t.Attempts += r.Attempts
	}
	return t
}

// SourceState records the last successful refresh of a source.
type SourceState struct {
	Source      string    `json:"source"`
	LastSuccess time.Time `json:"last_success"`
	LastJobID   string    `json:"last_job_id"`
	LastIndexed int       `json:"last_indexed"`
}

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a chat session.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatContext is the state of one conversational session. Anchor trends are
// referenced by id only and resolved against the index at request time.
type ChatContext struct {
	SessionID      string    `json:"session_id"`
	Turns          []Turn    `json:"turns"`
	AnchorTrendIDs []string  `json:"anchor_trend_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the context.
func (c *ChatContext) Clone() *ChatContext {
	if c == nil {
		return nil
	}
	out := *c
	out.Turns = slices.Clone(c.Turns)
	out.AnchorTrendIDs = slices.Clone(c.AnchorTrendIDs)
	return &out
}

// Facet names one analysis dimension of a trend.
type Facet string

const (
	FacetPopularity     Facet = "popularity"
	FacetSustainability Facet = "sustainability"
	FacetMarket         Facet = "market"
	FacetStyling        Facet = "styling"
	FacetLifespan       Facet = "lifespan"
)

// Facets lists every analysis facet in report order.
var Facets = []Facet{FacetPopularity, FacetSustainability, FacetMarket, FacetStyling, FacetLifespan}

// FacetResult is the outcome of one facet generation. When Available is false
// Text holds placeholder content.
type FacetResult struct {
	Text      string `json:"text"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Confidence is the qualitative certainty attached to a comprehensive score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ComprehensiveScore combines trend signals with analysis quality. All numeric
// fields are on a 0-100 scale.
type ComprehensiveScore struct {
	Overall         float64    `json:"overall"`
	Popularity      float64    `json:"popularity"`
	Growth          float64    `json:"growth"`
	Sustainability  float64    `json:"sustainability"`
	AnalysisQuality float64    `json:"analysis_quality"`
	Confidence      Confidence `json:"confidence"`
}

// AnalysisReport is the multi-facet analysis of a single trend.
type AnalysisReport struct {
	TrendID        string             `json:"trend_id"`
	TrendName      string             `json:"trend_name"`
	Popularity     FacetResult        `json:"popularity"`
	Sustainability FacetResult        `json:"sustainability"`
	Market         FacetResult        `json:"market"`
	Styling        FacetResult        `json:"styling"`
	Lifespan       FacetResult        `json:"lifespan"`
	Score          ComprehensiveScore `json:"comprehensive_score"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// Facet returns the result for f.
func (r *AnalysisReport) Facet(f Facet) FacetResult {
	if p := r.slot(f); p != nil {
		return *p
	}
	return FacetResult{}
}

// SetFacet stores the result for f. Unknown facets are ignored.
func (r *AnalysisReport) SetFacet(f Facet, res FacetResult) {
	if p := r.slot(f); p != nil {
		*p = res
	}
}

func (r *AnalysisReport) slot(f Facet) *FacetResult {
	switch f {
	case FacetPopularity:
		return &r.Popularity
	case FacetSustainability:
		return &r.Sustainability
	case FacetMarket:
		return &r.Market
	case FacetStyling:
		return &r.Styling
	case FacetLifespan:
		return &r.Lifespan
	}
	return nil
}
