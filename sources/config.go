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

package sources

import (
	"maps"
	"slices"
	"time"

	"github.com/poiesic/trendline/core"
)

// DefaultLimit caps the records taken from one fetch when a source sets none.
const DefaultLimit = 10

// DefaultTimeout bounds a single fetch when a source sets none.
const DefaultTimeout = 15 * time.Second

// RecordSpec describes trend fields in the catalog, either as a static record
// or as defaults applied to whatever a fetched record leaves empty.
type RecordSpec struct {
	Name                string         `yaml:"name"`
	Brand               string         `yaml:"brand"`
	Category            string         `yaml:"category"`
	Description         string         `yaml:"description"`
	URL                 string         `yaml:"url"`
	ImageURL            string         `yaml:"image_url"`
	Stage               string         `yaml:"stage"`
	Regions             []string       `yaml:"regions"`
	Tags                []string       `yaml:"tags"`
	Colors              []string       `yaml:"color_palette"`
	BrandAdoptions      []string       `yaml:"brand_adoptions"`
	TrendScore          *float64       `yaml:"trend_score"`
	GrowthRate          *float64       `yaml:"growth_rate"`
	SustainabilityScore *float64       `yaml:"sustainability_score"`
	PrimaryAge          string         `yaml:"primary_age"`
	SecondaryAge        string         `yaml:"secondary_age"`
	GenderSplit         map[string]int `yaml:"gender_split"`
	PredictedPeak       string         `yaml:"predicted_peak"`
	// PeakIn sets the predicted peak relative to the observation time when
	// PredictedPeak is empty.
	PeakIn              time.Duration `yaml:"peak_in"`
	SocialMentions      *int64        `yaml:"social_mentions"`
	InfluencerAdoptions *int64        `yaml:"influencer_adoptions"`
}

// Config is the catalog entry for one source: its public descriptor plus
// how to fetch it.
type Config struct {
	core.Source `yaml:",inline"`

	Kind    core.RecordKind `yaml:"kind"`
	URL     string          `yaml:"url"`
	Limit   int             `yaml:"limit"`
	Timeout time.Duration   `yaml:"timeout"`
	Scale   core.ScoreScale `yaml:"score_scale"`

	// ArticleClasses restricts HTML sources to <article> elements whose class
	// attribute contains one of these substrings.
	ArticleClasses []string `yaml:"article_classes"`

	Defaults RecordSpec   `yaml:"defaults"`
	Records  []RecordSpec `yaml:"records"`
}

func (c Config) limit() int {
	if c.Limit > 0 {
		return c.Limit
	}
	return DefaultLimit
}

// FetchTimeout returns the per-fetch deadline for the source.
func (c Config) FetchTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// toRaw converts spec into a RawRecord for source cfg, filling empty fields
// from the source defaults.
func (c Config) toRaw(spec RecordSpec, observed time.Time) core.RawRecord {
	d := c.Defaults
	raw := core.RawRecord{
		Source:              c.Name,
		Kind:                c.Kind,
		ObservedAt:          observed,
		Name:                spec.Name,
		Brand:               or(spec.Brand, d.Brand),
		Category:            or(spec.Category, d.Category),
		Description:         or(spec.Description, d.Description),
		URL:                 or(spec.URL, d.URL),
		ImageURL:            or(spec.ImageURL, d.ImageURL),
		Stage:               or(spec.Stage, d.Stage),
		Regions:             orSlice(spec.Regions, d.Regions),
		Tags:                orSlice(spec.Tags, d.Tags),
		Colors:              orSlice(spec.Colors, d.Colors),
		BrandAdoptions:      orSlice(spec.BrandAdoptions, d.BrandAdoptions),
		Scale:               c.Scale,
		TrendScore:          orPtr(spec.TrendScore, d.TrendScore),
		GrowthRate:          orPtr(spec.GrowthRate, d.GrowthRate),
		SustainabilityScore: orPtr(spec.SustainabilityScore, d.SustainabilityScore),
		PrimaryAge:          or(spec.PrimaryAge, d.PrimaryAge),
		SecondaryAge:        or(spec.SecondaryAge, d.SecondaryAge),
		GenderSplit:         maps.Clone(spec.GenderSplit),
		PredictedPeak:       or(spec.PredictedPeak, d.PredictedPeak),
		SocialMentions:      orPtr(spec.SocialMentions, d.SocialMentions),
		InfluencerAdoptions: orPtr(spec.InfluencerAdoptions, d.InfluencerAdoptions),
	}
	if raw.GenderSplit == nil {
		raw.GenderSplit = maps.Clone(d.GenderSplit)
	}
	if raw.PredictedPeak == "" {
		peakIn := spec.PeakIn
		if peakIn == 0 {
			peakIn = d.PeakIn
		}
		if peakIn > 0 {
			raw.PredictedPeak = observed.Add(peakIn).Format(time.RFC3339)
		}
	}
	return raw
}

// applyDefaults fills fields of a fetched record that the source left empty.
func (c Config) applyDefaults(raw core.RawRecord) core.RawRecord {
	spec := RecordSpec{
		Name:                raw.Name,
		Brand:               raw.Brand,
		Category:            raw.Category,
		Description:         raw.Description,
		URL:                 raw.URL,
		ImageURL:            raw.ImageURL,
		Stage:               raw.Stage,
		Regions:             raw.Regions,
		Tags:                raw.Tags,
		Colors:              raw.Colors,
		BrandAdoptions:      raw.BrandAdoptions,
		TrendScore:          raw.TrendScore,
		GrowthRate:          raw.GrowthRate,
		SustainabilityScore: raw.SustainabilityScore,
		PrimaryAge:          raw.PrimaryAge,
		SecondaryAge:        raw.SecondaryAge,
		GenderSplit:         raw.GenderSplit,
		PredictedPeak:       raw.PredictedPeak,
		SocialMentions:      raw.SocialMentions,
		InfluencerAdoptions: raw.InfluencerAdoptions,
	}
	out := c.toRaw(spec, raw.ObservedAt)
	out.Kind = raw.Kind
	if raw.Scale != "" {
		out.Scale = raw.Scale
	}
	out.Extensions = maps.Clone(raw.Extensions)
	return out
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orSlice(v, def []string) []string {
	if len(v) > 0 {
		return slices.Clone(v)
	}
	return slices.Clone(def)
}

func orPtr[T any](v, def *T) *T {
	if v != nil {
		return v
	}
	return def
}
