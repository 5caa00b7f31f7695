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

package badger

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/storage"
)

// TrendIndex implements storage.TrendIndex for BadgerDB.
type TrendIndex struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.TrendIndex = (*TrendIndex)(nil)

// NewTrendIndex creates a trend index on backend.
func NewTrendIndex(backend *Backend) (*TrendIndex, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &TrendIndex{
		backend: backend,
		logger:  slog.Default().With("component", "trend-index"),
	}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *TrendIndex) Close() error {
	return nil
}

// Upsert writes trends by ID in a single transaction.
func (r *TrendIndex) Upsert(ctx context.Context, trends ...*core.Trend) error {
	if len(trends) == 0 {
		return nil
	}
	payloads := make([][]byte, len(trends))
	for i, t := range trends {
		if err := core.ValidateTrend(t); err != nil {
			return err
		}
		data, err := storage.MarshalTrend(t)
		if err != nil {
			return err
		}
		payloads[i] = data
	}

	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		for i, t := range trends {
			if err := tx.Set(makeTrendKey(t.ID), payloads[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &core.IndexError{Op: "upsert", Cause: err}
	}
	return nil
}

// Apply performs an atomic read-modify-write of the trend stored under id.
// Errors returned by fn and validation failures are returned unwrapped.
func (r *TrendIndex) Apply(ctx context.Context, id string, fn storage.MergeFunc) (*core.Trend, error) {
	if id == "" {
		return nil, storage.ErrEmptyID
	}

	var result *core.Trend
	var callerErr error
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		existing, err := getTrend(tx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		next, err := fn(existing.Clone())
		if err != nil {
			callerErr = err
			return err
		}
		if next == nil {
			result = existing
			return nil
		}
		next.ID = id
		if err := core.ValidateTrend(next); err != nil {
			callerErr = err
			return err
		}
		data, err := storage.MarshalTrend(next)
		if err != nil {
			return err
		}
		if err := tx.Set(makeTrendKey(id), data); err != nil {
			return err
		}
		result = next
		return nil
	})
	if callerErr != nil {
		return nil, callerErr
	}
	if err != nil {
		return nil, &core.IndexError{Op: "apply", Cause: err}
	}
	return result.Clone(), nil
}

// Get retrieves a trend by ID.
func (r *TrendIndex) Get(ctx context.Context, id string) (*core.Trend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var trend *core.Trend
	err := r.backend.View(func(tx *badger.Txn) error {
		var err error
		trend, err = getTrend(tx, id)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &core.IndexError{Op: "get", Cause: err}
	}
	return trend, nil
}

// Query filters, ranks, pages and facets trends.
//
// Filters are exact and case-insensitive on category and region. Free text
// must match every non-stop word somewhere in the trend's searchable fields.
// Hits whose name matches rank first, then by trend score, recency and ID.
func (r *TrendIndex) Query(ctx context.Context, q storage.Query) (*storage.QueryResult, error) {
	start := time.Now()
	q.Normalize()

	type hit struct {
		trend     *core.Trend
		nameMatch bool
	}
	var hits []hit
	facets := make(map[string]map[string]int, len(q.Facets))
	for _, f := range q.Facets {
		facets[f] = map[string]int{}
	}

	err := r.Scan(ctx, func(t *core.Trend) error {
		if q.Category != "" && !strings.EqualFold(t.Category, q.Category) {
			return nil
		}
		if q.Region != "" && !t.HasRegion(q.Region) {
			return nil
		}
		nameMatch := false
		if q.Text != "" {
			if !containsAllQueryWords(searchableText(t), q.Text) {
				return nil
			}
			nameMatch = containsAllQueryWords(t.Name, q.Text)
		}
		hits = append(hits, hit{trend: t, nameMatch: nameMatch})
		countFacets(facets, t)
		return nil
	})
	if err != nil {
		if core.IsIndexError(err) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &core.IndexError{Op: "query", Cause: err}
	}

	slices.SortFunc(hits, func(a, b hit) int {
		if a.nameMatch != b.nameMatch {
			if a.nameMatch {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(b.trend.Scores.Trend, a.trend.Scores.Trend); c != 0 {
			return c
		}
		if c := b.trend.UpdatedAt.Compare(a.trend.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.trend.ID, b.trend.ID)
	})

	total := len(hits)
	res := &storage.QueryResult{
		Hits:    []*core.Trend{},
		Total:   total,
		Page:    q.Page,
		Pages:   (total + q.PerPage - 1) / q.PerPage,
		PerPage: q.PerPage,
		Facets:  facets,
	}
	from := q.Page * q.PerPage
	if from < total {
		to := min(from+q.PerPage, total)
		for _, h := range hits[from:to] {
			res.Hits = append(res.Hits, h.trend)
		}
	}
	res.ProcessingTime = time.Since(start)
	return res, nil
}

// Scan calls fn for every stored trend in key order.
func (r *TrendIndex) Scan(ctx context.Context, fn func(*core.Trend) error) error {
	var fnErr error
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(trendPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var trend *core.Trend
			err := iter.Item().Value(func(val []byte) error {
				var err error
				trend, err = storage.UnmarshalTrend(val)
				return err
			})
			if err != nil {
				r.logger.Warn("skipping undecodable trend", "key", string(iter.Item().Key()), "err", err)
				continue
			}
			if err := fn(trend); err != nil {
				fnErr = err
				return err
			}
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &core.IndexError{Op: "scan", Cause: err}
	}
	return nil
}

// Count returns the number of stored trends.
func (r *TrendIndex) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(trendPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, &core.IndexError{Op: "count", Cause: err}
	}
	return n, nil
}

// getTrend loads a trend within tx. Returns storage.ErrNotFound when absent.
func getTrend(tx *badger.Txn, id string) (*core.Trend, error) {
	item, err := tx.Get(makeTrendKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var trend *core.Trend
	err = item.Value(func(val []byte) error {
		var err error
		trend, err = storage.UnmarshalTrend(val)
		return err
	})
	return trend, err
}

func countFacets(facets map[string]map[string]int, t *core.Trend) {
	if m, ok := facets[storage.FacetCategory]; ok && t.Category != "" {
		m[t.Category]++
	}
	if m, ok := facets[storage.FacetRegions]; ok {
		for _, region := range t.Regions {
			m[region]++
		}
	}
	if m, ok := facets[storage.FacetSource]; ok {
		for _, s := range t.Sources {
			m[s]++
		}
	}
}
