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

package chat

import "strings"

// ResponseType labels what a chat exchange was about.
type ResponseType string

const (
	TypeTrendAnalysis ResponseType = "trend_analysis"
	TypeStyleAdvice   ResponseType = "style_advice"
	TypePrediction    ResponseType = "prediction"
	TypeGeneral       ResponseType = "general"
)

var intentKeywords = []struct {
	kind  ResponseType
	words []string
}{
	{TypeTrendAnalysis, []string{"analyze", "analysis", "insight", "about this trend"}},
	{TypeStyleAdvice, []string{"recommend", "style", "what should i wear", "outfit"}},
	{TypePrediction, []string{"predict", "future", "next", "coming", "will be"}},
}

// Classify labels message by keyword, first match wins.
func Classify(message string) ResponseType {
	lower := strings.ToLower(message)
	for _, intent := range intentKeywords {
		for _, w := range intent.words {
			if strings.Contains(lower, w) {
				return intent.kind
			}
		}
	}
	return TypeGeneral
}

// Suggestions are starter prompts offered to new sessions.
var Suggestions = []string{
	"Analyze the top trending fashion item",
	"What style would suit me for summer?",
	"Predict what will be popular next season",
	"How can I incorporate sustainable fashion?",
	"What are the key color trends right now?",
	"Show me styling tips for professional wear",
	"What's driving the Y2K revival trend?",
	"How do I build a capsule wardrobe?",
}

// SuggestionCategories group the starter prompts.
var SuggestionCategories = []string{
	"Trend Analysis",
	"Style Advice",
	"Future Predictions",
	"Sustainability",
	"Color Trends",
	"Professional Styling",
}
