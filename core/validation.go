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

package core

import (
	"math"
	"strings"
)

// ValidateTrend checks the invariants every indexed trend must satisfy.
//
// Validation rules:
//   - ID and Name must not be empty
//   - Trend and Sustainability scores must lie in [0,1]
//   - a non-empty GenderSplit must sum to 100
//   - CreatedAt must not be after UpdatedAt
func ValidateTrend(t *Trend) error {
	if t == nil {
		return &ValidationError{Field: "trend", Reason: "is nil"}
	}
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Reason: "is empty"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Reason: ErrEmptyName.Error()}
	}
	if !InUnit(t.Scores.Trend) {
		return &ValidationError{Field: "scores.trend", Reason: "must be within [0,1]"}
	}
	if !InUnit(t.Scores.Sustainability) {
		return &ValidationError{Field: "scores.sustainability", Reason: "must be within [0,1]"}
	}
	if len(t.Demographics.GenderSplit) > 0 {
		sum := 0
		for _, v := range t.Demographics.GenderSplit {
			sum += v
		}
		if sum != 100 {
			return &ValidationError{Field: "demographics.gender_split", Reason: "must sum to 100"}
		}
	}
	if !t.CreatedAt.IsZero() && t.UpdatedAt.Before(t.CreatedAt) {
		return &ValidationError{Field: "updated_at", Reason: "precedes created_at"}
	}
	return nil
}

// InUnit reports whether v lies in [0,1].
func InUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Clamp bounds v to [lo,hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
