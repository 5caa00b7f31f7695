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

package storage

import (
	"time"

	"github.com/poiesic/trendline/core"
)

// Facet attribute names supported by Query.
const (
	FacetCategory = "category"
	FacetRegions  = "regions"
	FacetSource   = "source"
)

// DefaultPerPage is used when a query does not specify a page size.
const DefaultPerPage = 20

// MaxPerPage bounds the page size of a single query.
const MaxPerPage = 1000

// Query describes a trend search. Page is zero-based.
type Query struct {
	Text     string
	Category string
	Region   string
	Page     int
	PerPage  int
	// Facets lists the attributes to count over the filtered set.
	// Empty means category and regions.
	Facets []string
}

// Normalize fills in defaults and bounds paging parameters.
func (q *Query) Normalize() {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	if len(q.Facets) == 0 {
		q.Facets = []string{FacetCategory, FacetRegions}
	}
}

// QueryResult is one page of a trend search.
type QueryResult struct {
	Hits           []*core.Trend             `json:"hits"`
	Total          int                       `json:"total"`
	Page           int                       `json:"page"`
	Pages          int                       `json:"pages"`
	PerPage        int                       `json:"per_page"`
	Facets         map[string]map[string]int `json:"facets"`
	ProcessingTime time.Duration             `json:"processing_time"`
}
