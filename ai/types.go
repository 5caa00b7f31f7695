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

package ai

import (
	"time"

	"github.com/poiesic/trendline/core"
)

// TrendFacts is the structured view of a trend handed to a generator.
// It travels separately from conversational text.
type TrendFacts struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Brand               string         `json:"brand,omitempty"`
	Category            string         `json:"category"`
	Description         string         `json:"description,omitempty"`
	Regions             []string       `json:"regions,omitempty"`
	Stage               string         `json:"stage,omitempty"`
	TrendScore          float64        `json:"trend_score"`
	GrowthRate          float64        `json:"growth_rate"`
	SustainabilityScore float64        `json:"sustainability_score"`
	Demographics        map[string]any `json:"demographics,omitempty"`
	PredictedPeak       string         `json:"predicted_peak,omitempty"`
	SocialMentions      int64          `json:"social_mentions,omitempty"`
	Tags                []string       `json:"tags,omitempty"`
	ColorPalette        []string       `json:"color_palette,omitempty"`
	Sources             []string       `json:"sources,omitempty"`
}

// FactsOf extracts the facts of t.
func FactsOf(t *core.Trend) TrendFacts {
	f := TrendFacts{
		ID:                  t.ID,
		Name:                t.Name,
		Brand:               t.Brand,
		Category:            t.Category,
		Description:         t.Description,
		Regions:             t.Regions,
		Stage:               t.Stage,
		TrendScore:          t.Scores.Trend,
		GrowthRate:          t.Scores.GrowthRate,
		SustainabilityScore: t.Scores.Sustainability,
		SocialMentions:      t.SocialMentions,
		Tags:                t.Tags,
		ColorPalette:        t.ColorPalette,
		Sources:             t.Sources,
	}
	if !t.PredictedPeak.IsZero() {
		f.PredictedPeak = t.PredictedPeak.Format(time.DateOnly)
	}
	if !t.Demographics.IsZero() {
		f.Demographics = map[string]any{
			"primary_age":   t.Demographics.PrimaryAge,
			"secondary_age": t.Demographics.SecondaryAge,
			"gender_split":  t.Demographics.GenderSplit,
		}
	}
	return f
}

// TrendSummary is the short form of a trend used for background catalogs.
type TrendSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	TrendScore float64 `json:"trend_score"`
	GrowthRate float64 `json:"growth_rate"`
}

// SummaryOf extracts the summary of t.
func SummaryOf(t *core.Trend) TrendSummary {
	return TrendSummary{
		ID:         t.ID,
		Name:       t.Name,
		Category:   t.Category,
		TrendScore: t.Scores.Trend,
		GrowthRate: t.Scores.GrowthRate,
	}
}

// Prompt is a structured generation request. Facts (Anchors, Catalog) and
// conversation (Turns, Message) are separate fields so a generator never
// has to recover one from the other.
type Prompt struct {
	// System holds the instructions for the model.
	System string
	// Task names what is being asked, e.g. "chat" or a facet name.
	Task string
	// Anchors are the trends the request is about.
	Anchors []TrendFacts
	// Catalog is background context used when there are no anchors.
	Catalog []TrendSummary
	// Turns is the prior conversation, oldest first.
	Turns []core.Turn
	// Message is the new user message.
	Message string
}
