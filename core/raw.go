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

import "time"

// RecordKind tags which adapter variant produced a RawRecord.
type RecordKind string

const (
	KindHTML   RecordKind = "html"
	KindFeed   RecordKind = "feed"
	KindStatic RecordKind = "static"
)

// ScoreScale declares how numeric scores in a RawRecord are expressed.
type ScoreScale string

const (
	// ScaleUnit means scores are in [0,1].
	ScaleUnit ScoreScale = "unit"
	// ScalePercent means scores are in [0,100].
	ScalePercent ScoreScale = "percent"
)

// RawRecord is an unnormalized observation produced by a source adapter.
// Pointer fields are optional; a nil pointer means the source did not report
// the value. Fields the adapter does not recognize land in Extensions.
type RawRecord struct {
	Source     string
	Kind       RecordKind
	ObservedAt time.Time

	Name        string
	Brand       string
	Category    string
	Description string
	URL         string
	ImageURL    string
	Stage       string

	Regions        []string
	Tags           []string
	Colors         []string
	BrandAdoptions []string

	Scale               ScoreScale
	TrendScore          *float64
	GrowthRate          *float64
	SustainabilityScore *float64

	PrimaryAge   string
	SecondaryAge string
	GenderSplit  map[string]int

	PredictedPeak       string
	SocialMentions      *int64
	InfluencerAdoptions *int64

	Extensions map[string]string
}

// Float returns a pointer to v. Adapters use it to populate optional scores.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }
