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
	"strings"

	"github.com/poiesic/trendline/core"
)

// matchesText reports whether every query word occurs in the trend's name,
// description or category. Fallback data only; the index ranks its own matches.
func matchesText(t *core.Trend, query string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return true
	}
	doc := strings.ToLower(strings.Join([]string{t.Name, t.Description, t.Category}, " "))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"()[]{}")
		if w != "" && !strings.Contains(doc, w) {
			return false
		}
	}
	return true
}
