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

package dedup

import (
	"slices"
	"strings"

	"github.com/poiesic/trendline/core"
)

// Scope selects which fields form the identity key.
type Scope int

const (
	// ScopeGlobal keys trends on name and brand, so reports of the same trend
	// from different sources corroborate one record.
	ScopeGlobal Scope = iota
	// ScopeSource additionally keys on the reporting source.
	ScopeSource
)

// CategoryPrecedence decides which category wins when two observations of a
// trend disagree.
type CategoryPrecedence int

const (
	// CategoryLatest keeps the most recently observed non-empty category.
	CategoryLatest CategoryPrecedence = iota
	// CategoryFirst keeps the category of the first observation.
	CategoryFirst
	// CategorySourceRank keeps the category reported by the highest ranked source.
	CategorySourceRank
)

// Action is the outcome of resolving an incoming trend against the index.
type Action int

const (
	ActionInsert Action = iota + 1
	ActionMerge
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionMerge:
		return "merge"
	}
	return "unknown"
}

// Decision is the result of Resolve. Trend is the record to write.
type Decision struct {
	Action Action
	Trend  core.Trend
}

// Deduplicator decides whether an incoming trend is new or merges into an
// existing record. It is stateless apart from its policy and safe for
// concurrent use.
type Deduplicator struct {
	scope      Scope
	category   CategoryPrecedence
	sourceRank []string
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithScope sets the identity key scope. Default is ScopeGlobal.
func WithScope(s Scope) Option {
	return func(d *Deduplicator) {
		d.scope = s
	}
}

// WithCategoryPrecedence sets the category conflict policy. Default is CategoryLatest.
func WithCategoryPrecedence(p CategoryPrecedence) Option {
	return func(d *Deduplicator) {
		d.category = p
	}
}

// WithSourceRank sets the source priority used by CategorySourceRank, highest first.
func WithSourceRank(sources ...string) Option {
	return func(d *Deduplicator) {
		d.sourceRank = slices.Clone(sources)
	}
}

// New creates a Deduplicator.
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Key returns the identity key for t under the configured scope.
func (d *Deduplicator) Key(t *core.Trend) string {
	if d.scope == ScopeSource {
		return IdentityKey(t.Name, t.Brand, t.Source)
	}
	return IdentityKey(t.Name, t.Brand, "")
}

// Resolve merges incoming into existing. A nil existing yields an insert.
//
// Merge rules:
//   - id and created_at always come from the existing record
//   - scalar fields take the incoming value when it is non-empty and at least
//     as recent as the existing record, otherwise the existing value is kept
//   - set-valued fields (regions, sources, tags, colors, brand adoptions) are unioned
//   - category follows the configured precedence
//   - updated_at is the later of the two observations
func (d *Deduplicator) Resolve(existing *core.Trend, incoming core.Trend) Decision {
	if existing == nil {
		t := *incoming.Clone()
		t.ID = d.Key(&incoming)
		if len(t.Sources) == 0 && t.Source != "" {
			t.Sources = []string{t.Source}
		}
		if t.UpdatedAt.Before(t.CreatedAt) {
			t.UpdatedAt = t.CreatedAt
		}
		return Decision{Action: ActionInsert, Trend: t}
	}

	out := *existing.Clone()
	newer := !incoming.UpdatedAt.Before(existing.UpdatedAt)

	pickString(&out.Name, incoming.Name, newer)
	pickString(&out.Brand, incoming.Brand, newer)
	pickString(&out.Description, incoming.Description, newer)
	pickString(&out.SourceURL, incoming.SourceURL, newer)
	pickString(&out.ImageURL, incoming.ImageURL, newer)
	pickString(&out.Stage, incoming.Stage, newer)
	pickString(&out.Source, incoming.Source, newer)
	pickString(&out.Demographics.PrimaryAge, incoming.Demographics.PrimaryAge, newer)
	pickString(&out.Demographics.SecondaryAge, incoming.Demographics.SecondaryAge, newer)

	pickFloat(&out.Scores.Trend, incoming.Scores.Trend, newer)
	pickFloat(&out.Scores.GrowthRate, incoming.Scores.GrowthRate, newer)
	pickFloat(&out.Scores.Sustainability, incoming.Scores.Sustainability, newer)
	pickInt(&out.SocialMentions, incoming.SocialMentions, newer)
	pickInt(&out.InfluencerAdoptions, incoming.InfluencerAdoptions, newer)

	if !incoming.PredictedPeak.IsZero() && (out.PredictedPeak.IsZero() || newer) {
		out.PredictedPeak = incoming.PredictedPeak
	}
	if len(incoming.Demographics.GenderSplit) > 0 && (len(out.Demographics.GenderSplit) == 0 || newer) {
		out.Demographics.GenderSplit = incoming.Clone().Demographics.GenderSplit
	}
	for k, v := range incoming.Extensions {
		if _, ok := out.Extensions[k]; ok && !newer {
			continue
		}
		if out.Extensions == nil {
			out.Extensions = make(map[string]string)
		}
		out.Extensions[k] = v
	}

	out.Category = d.mergeCategory(existing, &incoming, newer)

	out.Regions = union(out.Regions, incoming.Regions)
	out.Sources = union(out.Sources, incoming.Sources)
	if incoming.Source != "" {
		out.Sources = union(out.Sources, []string{incoming.Source})
	}
	out.Tags = union(out.Tags, incoming.Tags)
	out.ColorPalette = union(out.ColorPalette, incoming.ColorPalette)
	out.BrandAdoptions = union(out.BrandAdoptions, incoming.BrandAdoptions)

	out.ID = existing.ID
	out.CreatedAt = existing.CreatedAt
	if newer {
		out.UpdatedAt = incoming.UpdatedAt
	}
	if out.UpdatedAt.Before(out.CreatedAt) {
		out.UpdatedAt = out.CreatedAt
	}
	return Decision{Action: ActionMerge, Trend: out}
}

func (d *Deduplicator) mergeCategory(existing, incoming *core.Trend, newer bool) string {
	if incoming.Category == "" {
		return existing.Category
	}
	if existing.Category == "" {
		return incoming.Category
	}
	switch d.category {
	case CategoryFirst:
		return existing.Category
	case CategorySourceRank:
		if d.rank(incoming.Source) < d.rank(existing.Source) {
			return incoming.Category
		}
		return existing.Category
	default:
		if newer {
			return incoming.Category
		}
		return existing.Category
	}
}

// rank returns the priority of source; lower is better. Unranked sources sort last.
func (d *Deduplicator) rank(source string) int {
	for i, s := range d.sourceRank {
		if strings.EqualFold(s, source) {
			return i
		}
	}
	return len(d.sourceRank)
}

func pickString(dst *string, in string, newer bool) {
	if in != "" && (*dst == "" || newer) {
		*dst = in
	}
}

func pickFloat(dst *float64, in float64, newer bool) {
	if in != 0 && (*dst == 0 || newer) {
		*dst = in
	}
}

func pickInt(dst *int64, in int64, newer bool) {
	if in != 0 && (*dst == 0 || newer) {
		*dst = in
	}
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
