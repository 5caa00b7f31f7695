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
	"context"

	"github.com/poiesic/trendline/core"
)

// MergeFunc computes the record to store for a key from the current record,
// which is nil when the key is absent. Returning a nil trend leaves the key
// unchanged. The function may be invoked more than once when a write
// conflicts and is retried, so it must be free of side effects.
type MergeFunc func(existing *core.Trend) (*core.Trend, error)

// Repository is the lifecycle shared by every store.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// TrendIndex is the indexed store of canonical trends. Ranking of free-text
// matches belongs to the store.
type TrendIndex interface {
	Repository

	// Upsert writes trends by ID, replacing any existing record.
	// Re-upserting an identical trend leaves the index unchanged.
	Upsert(ctx context.Context, trends ...*core.Trend) error

	// Apply performs an atomic read-modify-write of the trend stored under id.
	// Concurrent Apply calls on the same id never lose updates.
	// Returns the stored trend (or the existing one when fn returns nil).
	Apply(ctx context.Context, id string, fn MergeFunc) (*core.Trend, error)

	// Get retrieves a trend by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*core.Trend, error)

	// Query runs a filtered, paginated search with facet counts.
	Query(ctx context.Context, q Query) (*QueryResult, error)

	// Scan calls fn for every stored trend in ID order. Returning an error
	// from fn stops the scan and is returned.
	Scan(ctx context.Context, fn func(*core.Trend) error) error

	// Count returns the number of stored trends.
	Count(ctx context.Context) (int, error)
}

// JobRepository persists enrichment jobs and per-source refresh state.
type JobRepository interface {
	Repository

	// SaveJob writes a snapshot of job.
	SaveJob(ctx context.Context, job *core.EnrichmentJob) error

	// LoadJob retrieves a job by ID. Returns ErrNotFound if it doesn't exist.
	LoadJob(ctx context.Context, id string) (*core.EnrichmentJob, error)

	// RecentJobs returns up to limit jobs, most recently created first.
	RecentJobs(ctx context.Context, limit int) ([]*core.EnrichmentJob, error)

	// SaveSourceState records the last successful refresh of a source.
	SaveSourceState(ctx context.Context, state *core.SourceState) error

	// LoadSourceState retrieves the refresh state of a source.
	// Returns nil, nil if the source has never been refreshed.
	LoadSourceState(ctx context.Context, source string) (*core.SourceState, error)
}
