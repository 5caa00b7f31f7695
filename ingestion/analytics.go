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

package ingestion

import (
	"context"
	"time"

	"github.com/poiesic/trendline/core"
)

// accuracyWindow is how many recent jobs feed the accuracy metric.
const accuracyWindow = 20

// SourceAnalytics aggregates the trends corroborated by one source.
type SourceAnalytics struct {
	Count         int     `json:"count"`
	AvgTrendScore float64 `json:"avg_trend_score"`
	AvgGrowthRate float64 `json:"avg_growth_rate"`
	sumTrendScore float64
	sumGrowthRate float64
}

// DataQuality holds the three data-quality ratios, each in [0,1].
type DataQuality struct {
	Completeness float64 `json:"completeness"`
	Freshness    float64 `json:"freshness"`
	Accuracy     float64 `json:"accuracy"`
}

// Analytics summarizes the indexed trends.
type Analytics struct {
	TotalTrends int                         `json:"total_trends"`
	Sources     map[string]*SourceAnalytics `json:"source_distribution"`
	Categories  map[string]int              `json:"category_distribution"`
	Regions     map[string]int              `json:"region_distribution"`
	Quality     DataQuality                 `json:"data_quality"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// Analytics scans the index and recent jobs to compute distributions and
// data-quality metrics.
func (o *Orchestrator) Analytics(ctx context.Context) (*Analytics, error) {
	now := o.now()
	a := &Analytics{
		Sources:     make(map[string]*SourceAnalytics),
		Categories:  make(map[string]int),
		Regions:     make(map[string]int),
		GeneratedAt: now.UTC(),
	}

	var completeness float64
	fresh := 0
	err := o.index.Scan(ctx, func(t *core.Trend) error {
		a.TotalTrends++
		completeness += completenessOf(t)
		if now.Sub(t.UpdatedAt) <= o.freshness {
			fresh++
		}
		if t.Category != "" {
			a.Categories[t.Category]++
		}
		for _, r := range t.Regions {
			a.Regions[r]++
		}
		names := t.Sources
		if len(names) == 0 && t.Source != "" {
			names = []string{t.Source}
		}
		for _, name := range names {
			s := a.Sources[name]
			if s == nil {
				s = &SourceAnalytics{}
				a.Sources[name] = s
			}
			s.Count++
			s.sumTrendScore += t.Scores.Trend
			s.sumGrowthRate += t.Scores.GrowthRate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, s := range a.Sources {
		s.AvgTrendScore = s.sumTrendScore / float64(s.Count)
		s.AvgGrowthRate = s.sumGrowthRate / float64(s.Count)
	}
	if a.TotalTrends > 0 {
		a.Quality.Completeness = completeness / float64(a.TotalTrends)
		a.Quality.Freshness = float64(fresh) / float64(a.TotalTrends)
	}

	a.Quality.Accuracy = 1
	jobs, err := o.jobs.RecentJobs(ctx, accuracyWindow)
	if err != nil {
		return nil, err
	}
	var fetched, lost int
	for _, j := range jobs {
		t := j.Totals()
		fetched += t.Fetched
		lost += t.Dropped + t.Clamped
	}
	if fetched > 0 {
		a.Quality.Accuracy = core.Clamp(1-float64(lost)/float64(fetched), 0, 1)
	}
	return a, nil
}

// completenessOf is the fraction of optional trend fields that are populated.
func completenessOf(t *core.Trend) float64 {
	fields := []bool{
		t.Brand != "",
		t.Category != "",
		t.Description != "",
		len(t.Regions) > 0,
		t.SourceURL != "",
		len(t.Tags) > 0,
		len(t.ColorPalette) > 0,
		!t.PredictedPeak.IsZero(),
		!t.Demographics.IsZero(),
		t.SocialMentions > 0,
	}
	n := 0
	for _, ok := range fields {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(fields))
}
