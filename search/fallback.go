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

package search

import (
	_ "embed"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/storage"
)

//go:embed fallback_trends.json
var fallbackJSON []byte

// Vocabulary listings served when the index cannot be reached.
var (
	fallbackCategories = []string{
		"luxury", "streetwear", "sustainable", "casual", "formal",
		"vintage", "minimalist", "maximalist", "athleisure", "avant-garde",
	}
	fallbackRegions = []string{
		"Global", "North America", "Europe", "Asia Pacific",
		"Australia", "Africa", "South America",
	}
)

type seedTrend struct {
	core.Trend
	PeakInDays int `json:"peak_in_days"`
}

// loadFallback decodes the built-in trends, stamping timestamps relative to now.
func loadFallback(now time.Time) ([]*core.Trend, error) {
	var seeds []seedTrend
	if err := json.Unmarshal(fallbackJSON, &seeds); err != nil {
		return nil, err
	}
	trends := make([]*core.Trend, 0, len(seeds))
	for _, s := range seeds {
		t := s.Trend
		t.CreatedAt = now
		t.UpdatedAt = now
		t.PredictedPeak = now.AddDate(0, 0, s.PeakInDays)
		trends = append(trends, &t)
	}
	return trends, nil
}

// queryFallback answers q from trends the same way the index would: filter,
// page and count facets.
func queryFallback(trends []*core.Trend, q storage.Query) *storage.QueryResult {
	q.Normalize()
	var matched []*core.Trend
	for _, t := range trends {
		if q.Category != "" && !strings.EqualFold(t.Category, q.Category) {
			continue
		}
		if q.Region != "" && !t.HasRegion(q.Region) {
			continue
		}
		if !matchesText(t, q.Text) {
			continue
		}
		matched = append(matched, t)
	}

	facets := make(map[string]map[string]int, len(q.Facets))
	for _, f := range q.Facets {
		counts := make(map[string]int)
		for _, t := range matched {
			switch f {
			case storage.FacetCategory:
				counts[t.Category]++
			case storage.FacetRegions:
				for _, r := range t.Regions {
					counts[r]++
				}
			case storage.FacetSource:
				counts[t.Source]++
			}
		}
		facets[f] = counts
	}

	start := min(q.Page*q.PerPage, len(matched))
	end := min(start+q.PerPage, len(matched))
	hits := make([]*core.Trend, 0, end-start)
	for _, t := range matched[start:end] {
		hits = append(hits, t.Clone())
	}
	return &storage.QueryResult{
		Hits:    hits,
		Total:   len(matched),
		Page:    q.Page,
		Pages:   (len(matched) + q.PerPage - 1) / q.PerPage,
		PerPage: q.PerPage,
		Facets:  facets,
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k, n := range m {
		if k != "" && n > 0 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
