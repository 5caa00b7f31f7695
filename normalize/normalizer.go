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

package normalize

import (
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/trendline/core"
)

// dateLayouts are tried in order when parsing predicted peak dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2006",
	"2006-01",
}

// Normalizer turns raw source records into canonical trends. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	vocab Vocabulary
	now   func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithVocabulary replaces the default category and region vocabulary.
func WithVocabulary(v Vocabulary) Option {
	return func(n *Normalizer) {
		n.vocab = v
	}
}

// WithClock sets the time source used for records without an observation time.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		vocab: DefaultVocabulary(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Vocabulary returns the vocabulary in use.
func (n *Normalizer) Vocabulary() Vocabulary {
	return n.vocab
}

// Normalize converts raw into a canonical trend and reports the adjustments
// made. The returned trend has no ID; identity is assigned by deduplication.
// A record without a name yields a *core.ValidationError.
func (n *Normalizer) Normalize(raw core.RawRecord) (core.Trend, Quality, error) {
	var q Quality

	name := collapse(raw.Name)
	if name == "" {
		return core.Trend{}, q, &core.ValidationError{Field: "name", Reason: core.ErrEmptyName.Error()}
	}

	observed := raw.ObservedAt.UTC()
	if raw.ObservedAt.IsZero() {
		observed = n.now()
	}

	t := core.Trend{
		Name:           name,
		Brand:          collapse(raw.Brand),
		Description:    strings.TrimSpace(raw.Description),
		Source:         raw.Source,
		SourceURL:      strings.TrimSpace(raw.URL),
		ImageURL:       strings.TrimSpace(raw.ImageURL),
		Stage:          strings.ToLower(strings.TrimSpace(raw.Stage)),
		Tags:           lowerSet(raw.Tags),
		ColorPalette:   lowerSet(raw.Colors),
		BrandAdoptions: trimSet(raw.BrandAdoptions),
		Extensions:     maps.Clone(raw.Extensions),
		CreatedAt:      observed,
		UpdatedAt:      observed,
	}
	if raw.Source != "" {
		t.Sources = []string{raw.Source}
	}

	if cat, ok := n.vocab.Category(raw.Category); ok {
		t.Category = cat
	} else {
		t.Category = cat
		q.Unmapped = append(q.Unmapped, "category")
	}

	for _, r := range raw.Regions {
		region, ok := n.vocab.Region(r)
		if region == "" {
			continue
		}
		if !ok {
			q.Unmapped = append(q.Unmapped, "regions")
		}
		if !slices.Contains(t.Regions, region) {
			t.Regions = append(t.Regions, region)
		}
	}

	t.Scores.Trend = unitScore(raw.TrendScore, raw.Scale, "scores.trend", &q)
	t.Scores.Sustainability = unitScore(raw.SustainabilityScore, raw.Scale, "scores.sustainability", &q)
	if raw.GrowthRate != nil {
		g := *raw.GrowthRate
		if math.IsNaN(g) || math.IsInf(g, 0) {
			q.Clamped = append(q.Clamped, "scores.growth_rate")
			g = 0
		}
		t.Scores.GrowthRate = g
	}

	t.Demographics = core.Demographics{
		PrimaryAge:   strings.TrimSpace(raw.PrimaryAge),
		SecondaryAge: strings.TrimSpace(raw.SecondaryAge),
		GenderSplit:  genderSplit(raw.GenderSplit, &q),
	}

	if raw.PredictedPeak != "" {
		if peak, ok := parseDate(raw.PredictedPeak); ok {
			t.PredictedPeak = peak
		} else {
			q.Invalid = append(q.Invalid, "predicted_peak")
		}
	}

	t.SocialMentions = count(raw.SocialMentions, "social_mentions", &q)
	t.InfluencerAdoptions = count(raw.InfluencerAdoptions, "influencer_adoptions", &q)

	return t, q, nil
}

// Renormalize re-applies vocabulary mapping and range clamping to a stored
// trend. It reports whether anything changed.
func (n *Normalizer) Renormalize(t *core.Trend) bool {
	changed := false
	if cat, _ := n.vocab.Category(t.Category); cat != t.Category && cat != "" {
		t.Category = cat
		changed = true
	}
	var regions []string
	for _, r := range t.Regions {
		region, _ := n.vocab.Region(r)
		if region != "" && !slices.Contains(regions, region) {
			regions = append(regions, region)
		}
	}
	if !slices.Equal(regions, t.Regions) {
		t.Regions = regions
		changed = true
	}
	if v := core.Clamp(t.Scores.Trend, 0, 1); v != t.Scores.Trend {
		t.Scores.Trend = v
		changed = true
	}
	if v := core.Clamp(t.Scores.Sustainability, 0, 1); v != t.Scores.Sustainability {
		t.Scores.Sustainability = v
		changed = true
	}
	return changed
}

func unitScore(v *float64, scale core.ScoreScale, field string, q *Quality) float64 {
	if v == nil {
		return 0
	}
	s := *v
	if scale == core.ScalePercent {
		s /= 100
	}
	c := core.Clamp(s, 0, 1)
	if c != s {
		q.Clamped = append(q.Clamped, field)
	}
	return c
}

func count(v *int64, field string, q *Quality) int64 {
	if v == nil {
		return 0
	}
	if *v < 0 {
		q.Clamped = append(q.Clamped, field)
		return 0
	}
	return *v
}

// genderSplit drops negative shares and rescales the rest to sum to 100. The
// largest share absorbs rounding error.
func genderSplit(raw map[string]int, q *Quality) map[string]int {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]int, len(raw))
	sum := 0
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if v < 0 {
			q.Clamped = append(q.Clamped, "demographics.gender_split")
			v = 0
		}
		out[key] += v
		sum += v
	}
	if sum == 0 {
		q.Invalid = append(q.Invalid, "demographics.gender_split")
		return nil
	}
	if sum == 100 {
		return out
	}

	q.Rescaled = append(q.Rescaled, "demographics.gender_split")
	keys := slices.Sorted(maps.Keys(out))
	total, largest := 0, keys[0]
	for _, k := range keys {
		out[k] = int(math.Round(float64(out[k]) * 100 / float64(sum)))
		total += out[k]
		if out[k] > out[largest] {
			largest = k
		}
	}
	out[largest] += 100 - total
	return out
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func lowerSet(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.ToLower(collapse(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func trimSet(in []string) []string {
	var out []string
	for _, s := range in {
		s = collapse(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
