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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/normalize"
	"github.com/poiesic/trendline/storage"
)

// fallbackMessage labels results served without the index.
const fallbackMessage = "search index unavailable, showing sample trends"

// Request is a trend listing or search. Page is zero-based.
type Request struct {
	Text     string `json:"query"`
	Category string `json:"category,omitempty"`
	Region   string `json:"region,omitempty"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
}

// Result is one page of trends. Degraded is set when the page came from the
// built-in fallback set instead of the index.
type Result struct {
	storage.QueryResult
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

// Listing is a vocabulary listing.
type Listing struct {
	Values   []string `json:"values"`
	Degraded bool     `json:"degraded"`
}

// Stats summarizes the index.
type Stats struct {
	TotalTrends int  `json:"total_trends"`
	Categories  int  `json:"categories"`
	Regions     int  `json:"regions"`
	Degraded    bool `json:"degraded"`
}

// Searcher serves trend searches and vocabulary listings.
type Searcher struct {
	index    storage.TrendIndex
	vocab    normalize.Vocabulary
	fallback []*core.Trend
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets a custom logger for the searcher.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVocabulary sets the vocabulary used to canonicalize filters.
func WithVocabulary(v normalize.Vocabulary) Option {
	return func(s *Searcher) {
		s.vocab = v
	}
}

// WithFallback replaces the built-in trends served during index outages.
func WithFallback(trends []*core.Trend) Option {
	return func(s *Searcher) {
		s.fallback = trends
	}
}

// NewSearcher creates a new Searcher over index.
func NewSearcher(index storage.TrendIndex, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	s := &Searcher{
		index:  index,
		vocab:  normalize.DefaultVocabulary(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback == nil {
		trends, err := loadFallback(time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("loading fallback trends: %w", err)
		}
		s.fallback = trends
	}
	s.logger = s.logger.With("component", "searcher")
	return s, nil
}

// Search runs req against the index.
func (s *Searcher) Search(ctx context.Context, req Request) (*Result, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs req against the index with monitoring callbacks.
// When the index fails the fallback trends are filtered and paged instead,
// and the result is marked degraded. Cancellation is returned as an error.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if req.Page < 0 || req.PerPage < 0 {
		return nil, fmt.Errorf("%w: page and per_page must not be negative", ErrInvalidQuery)
	}
	req.Category, _ = s.vocab.Category(req.Category)
	req.Region, _ = s.vocab.Region(req.Region)

	start := time.Now()
	monitor.Start(req)

	q := storage.Query{
		Text:     req.Text,
		Category: req.Category,
		Region:   req.Region,
		Page:     req.Page,
		PerPage:  req.PerPage,
	}
	page, err := s.index.Query(ctx, q)
	var result *Result
	switch {
	case err == nil:
		monitor.AfterQuery(page)
		result = &Result{QueryResult: *page}
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case core.IsIndexError(err):
		s.logger.Warn("index query failed, serving fallback trends", "err", err)
		monitor.Fallback(err)
		result = &Result{
			QueryResult: *queryFallback(s.fallback, q),
			Degraded:    true,
			Error:       fallbackMessage,
		}
	default:
		return nil, err
	}
	result.ProcessingTime = time.Since(start)
	monitor.Finish(result)
	return result, nil
}

// Get returns the trend stored under id.
func (s *Searcher) Get(ctx context.Context, id string) (*core.Trend, error) {
	t, err := s.index.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTrendNotFound
	}
	return t, err
}

// Categories lists the categories present in the index. An empty index lists
// the canonical vocabulary; an unreachable one lists sample categories.
func (s *Searcher) Categories(ctx context.Context) (Listing, error) {
	return s.listing(ctx, storage.FacetCategory, s.vocab.Categories, fallbackCategories)
}

// Regions lists the regions present in the index, with the same fallbacks
// as Categories.
func (s *Searcher) Regions(ctx context.Context) (Listing, error) {
	return s.listing(ctx, storage.FacetRegions, s.vocab.Regions, fallbackRegions)
}

func (s *Searcher) listing(ctx context.Context, facet string, vocab map[string]string, sample []string) (Listing, error) {
	page, err := s.index.Query(ctx, storage.Query{PerPage: 1, Facets: []string{facet}})
	if err != nil {
		if ctx.Err() != nil || !core.IsIndexError(err) {
			return Listing{}, err
		}
		s.logger.Warn("index query failed, serving sample vocabulary", "facet", facet, "err", err)
		return Listing{Values: slices.Clone(sample), Degraded: true}, nil
	}
	if values := sortedKeys(page.Facets[facet]); len(values) > 0 {
		return Listing{Values: values}, nil
	}
	canon := make(map[string]int, len(vocab))
	for _, v := range vocab {
		canon[v] = 1
	}
	return Listing{Values: sortedKeys(canon)}, nil
}

// Stats counts trends, categories and regions in the index.
func (s *Searcher) Stats(ctx context.Context) (Stats, error) {
	q := storage.Query{PerPage: 1, Facets: []string{storage.FacetCategory, storage.FacetRegions}}
	page, err := s.index.Query(ctx, q)
	degraded := false
	if err != nil {
		if ctx.Err() != nil || !core.IsIndexError(err) {
			return Stats{}, err
		}
		s.logger.Warn("index query failed, serving fallback stats", "err", err)
		page = queryFallback(s.fallback, q)
		degraded = true
	}
	return Stats{
		TotalTrends: page.Total,
		Categories:  len(sortedKeys(page.Facets[storage.FacetCategory])),
		Regions:     len(sortedKeys(page.Facets[storage.FacetRegions])),
		Degraded:    degraded,
	}, nil
}
