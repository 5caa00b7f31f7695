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

import "strings"

// Vocabulary maps source-specific spellings of categories and regions onto
// canonical values. Keys are matched after lowercasing and collapsing
// whitespace, hyphens and underscores.
type Vocabulary struct {
	Categories map[string]string
	Regions    map[string]string
}

// DefaultVocabulary returns the category and region mapping used for the
// built-in fashion sources.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Categories: map[string]string{
			"luxury":          "luxury",
			"high fashion":    "luxury",
			"haute couture":   "luxury",
			"couture":         "luxury",
			"runway":          "runway",
			"catwalk":         "runway",
			"streetwear":      "streetwear",
			"street style":    "streetwear",
			"street":          "streetwear",
			"urban":           "streetwear",
			"sustainable":     "sustainable",
			"sustainability":  "sustainable",
			"eco":             "sustainable",
			"eco fashion":     "sustainable",
			"slow fashion":    "sustainable",
			"fast fashion":    "fast_fashion",
			"mass market":     "fast_fashion",
			"accessories":     "accessories",
			"accessory":       "accessories",
			"bags":            "accessories",
			"jewelry":         "accessories",
			"footwear":        "footwear",
			"shoes":           "footwear",
			"sneakers":        "footwear",
			"beauty":          "beauty",
			"makeup":          "beauty",
			"athleisure":      "athleisure",
			"activewear":      "athleisure",
			"sportswear":      "athleisure",
			"vintage":         "vintage",
			"retro":           "vintage",
			"thrift":          "vintage",
			"business":        "business",
			"industry":        "business",
			"viral":           "viral",
			"social media":    "viral",
			"menswear":        "menswear",
			"womenswear":      "womenswear",
			"minimalist":      "minimalism",
			"minimalism":      "minimalism",
			"quiet luxury":    "luxury",
			"celebrity":       "celebrity",
			"celebrity style": "celebrity",
		},
		Regions: map[string]string{
			"global":         "Global",
			"worldwide":      "Global",
			"north america":  "North America",
			"na":             "North America",
			"usa":            "North America",
			"us":             "North America",
			"united states":  "North America",
			"canada":         "North America",
			"europe":         "Europe",
			"eu":             "Europe",
			"uk":             "Europe",
			"united kingdom": "Europe",
			"france":         "Europe",
			"italy":          "Europe",
			"asia":           "Asia",
			"asia pacific":   "Asia Pacific",
			"apac":           "Asia Pacific",
			"japan":          "Asia",
			"korea":          "Asia",
			"south korea":    "Asia",
			"china":          "Asia",
			"latin america":  "Latin America",
			"latam":          "Latin America",
			"south america":  "Latin America",
			"middle east":    "Middle East",
			"mena":           "Middle East",
			"africa":         "Africa",
			"oceania":        "Oceania",
			"australia":      "Oceania",
		},
	}
}

// Category maps raw onto the canonical category. ok is false when raw is not in
// the vocabulary, in which case the trimmed input is returned unchanged.
func (v Vocabulary) Category(raw string) (string, bool) {
	return lookup(v.Categories, raw)
}

// Region maps raw onto the canonical region. ok is false when raw is not in
// the vocabulary, in which case the trimmed input is returned unchanged.
func (v Vocabulary) Region(raw string) (string, bool) {
	return lookup(v.Regions, raw)
}

func lookup(m map[string]string, raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", true
	}
	if canon, ok := m[vocabKey(trimmed)]; ok {
		return canon, true
	}
	return trimmed, false
}

func vocabKey(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
