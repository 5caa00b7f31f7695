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
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) *JobRepository {
	return &JobRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *JobRepository) Close() error {
	return nil
}

// SaveJob persists a snapshot of job and indexes it by creation time.
func (r *JobRepository) SaveJob(ctx context.Context, job *core.EnrichmentJob) error {
	if job.ID == "" {
		return storage.ErrEmptyID
	}
	value, err := storage.MarshalJob(job)
	if err != nil {
		return err
	}
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(job.ID), value); err != nil {
			return err
		}
		return tx.Set(makeJobTimeKey(job.CreatedAt, job.ID), nil)
	})
}

// LoadJob retrieves a job by ID.
func (r *JobRepository) LoadJob(ctx context.Context, id string) (*core.EnrichmentJob, error) {
	var job *core.EnrichmentJob
	err := r.backend.View(func(tx *badger.Txn) error {
		var err error
		job, err = loadJob(tx, id)
		return err
	})
	return job, err
}

// RecentJobs returns up to limit jobs, newest first.
func (r *JobRepository) RecentJobs(ctx context.Context, limit int) ([]*core.EnrichmentJob, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	jobs := make([]*core.EnrichmentJob, 0, limit)
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobTimePrefix)
		opts.PrefetchValues = false
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the largest possible key under the prefix.
		seek := append([]byte(jobTimePrefix), 0xFF)
		for iter.Seek(seek); iter.Valid() && len(jobs) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := jobIDFromTimeKey(iter.Item().Key())
			job, err := loadJob(tx, id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			jobs = append(jobs, job)
		}
		return nil
	})
	return jobs, err
}

// SaveSourceState persists the refresh state of a source.
func (r *JobRepository) SaveSourceState(ctx context.Context, state *core.SourceState) error {
	value, err := storage.MarshalSourceState(state)
	if err != nil {
		return err
	}
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		return tx.Set(makeSourceStateKey(state.Source), value)
	})
}

// LoadSourceState retrieves the refresh state of a source.
// Returns nil, nil if no state exists.
func (r *JobRepository) LoadSourceState(ctx context.Context, source string) (*core.SourceState, error) {
	var state *core.SourceState
	err := r.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSourceStateKey(source))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalSourceState(val)
			return unmarshalErr
		})
	})
	return state, err
}

func loadJob(tx *badger.Txn, id string) (*core.EnrichmentJob, error) {
	item, err := tx.Get(makeJobKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var job *core.EnrichmentJob
	err = item.Value(func(val []byte) error {
		var err error
		job, err = storage.UnmarshalJob(val)
		return err
	})
	return job, err
}
