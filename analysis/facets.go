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

import "github.com/poiesic/trendline/core"

// facetInstructions are the system prompts per facet.
var facetInstructions = map[core.Facet]string{
	core.FacetPopularity: `Analyze the popularity and growth potential of the anchor trend.
Cover why it is gaining or losing popularity, the key drivers, the target audience,
the likely growth trajectory, and its viral potential on social media.
Use the trend score, growth rate, demographics and regions from the facts.`,

	core.FacetSustainability: `Analyze the sustainability impact of the anchor trend.
Cover its environmental impact, ethical production considerations, sustainable alternatives,
consumer choices, and where the industry is heading. Refer to the sustainability score in the facts.
Focus on practical advice for consumers.`,

	core.FacetMarket: `Analyze the market opportunity of the anchor trend.
Cover market size and potential, the competitive landscape including the brands that adopted it,
pricing strategy, target markets, and investment potential. Focus on actionable business insight.`,

	core.FacetStyling: `Write a styling guide for the anchor trend.
Give three to five complete outfits, accessories, seasonal adaptations, budget and luxury options,
and mix-and-match ideas. Use the color palette and tags from the facts.`,

	core.FacetLifespan: `Predict the lifespan of the anchor trend.
Cover expected duration, peak timing, how it will evolve, decline factors, revival chances,
and its influence on future trends. Use the stage, growth rate and predicted peak from the facts.`,
}

var facetTitles = map[core.Facet]string{
	core.FacetPopularity:     "Popularity analysis",
	core.FacetSustainability: "Sustainability analysis",
	core.FacetMarket:         "Market analysis",
	core.FacetStyling:        "Styling guide",
	core.FacetLifespan:       "Lifespan prediction",
}

// placeholder is the text shown for a facet that could not be generated.
func placeholder(f core.Facet) string {
	return facetTitles[f] + " is unavailable right now."
}
