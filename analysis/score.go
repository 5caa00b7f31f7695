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

package analysis

import (
	"math"

	"github.com/poiesic/trendline/core"
)

// Weights of the overall score.
const (
	weightPopularity     = 0.3
	weightGrowth         = 0.2
	weightSustainability = 0.25
	weightQuality        = 0.25
)

// growthScale maps a growth rate in percent onto the 0-100 growth component.
const growthScale = 2

// minCorroboration is the number of sources required for high confidence.
const minCorroboration = 2

// Score combines the trend's signals with the fraction of facets that were
// generated. succeeded must be between 0 and len(core.Facets).
//
// Confidence is high when every facet succeeded for a corroborated trend and
// medium when only some facets succeeded. Anything else is low, including a
// complete report on a single-source trend.
func Score(t *core.Trend, succeeded int) core.ComprehensiveScore {
	total := len(core.Facets)
	s := core.ComprehensiveScore{
		Popularity:      round1(core.Clamp(t.Scores.Trend*100, 0, 100)),
		Growth:          round1(core.Clamp(t.Scores.GrowthRate*growthScale, 0, 100)),
		Sustainability:  round1(core.Clamp(t.Scores.Sustainability*100, 0, 100)),
		AnalysisQuality: round1(100 * float64(succeeded) / float64(total)),
	}
	overall := weightPopularity*s.Popularity +
		weightGrowth*s.Growth +
		weightSustainability*s.Sustainability +
		weightQuality*s.AnalysisQuality
	s.Overall = round1(core.Clamp(overall, 0, 100))

	switch {
	case succeeded == total && t.Corroboration() >= minCorroboration:
		s.Confidence = core.ConfidenceHigh
	case succeeded > 0 && succeeded < total:
		s.Confidence = core.ConfidenceMedium
	default:
		s.Confidence = core.ConfidenceLow
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
