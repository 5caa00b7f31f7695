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

// Package storage provides the storage abstraction layer for trendline.
//
// This package defines repository interfaces that decouple the enrichment,
// search and analysis services from the storage engine:
//
//   - TrendIndex: the indexed store of canonical trends (upsert, atomic
//     merge, filtered and faceted query, scan)
//   - JobRepository: enrichment job snapshots and per-source refresh state
//
// The badger sub-package implements both on BadgerDB. Records are stored as
// JSON so that the stored shape matches what the HTTP surface serves.
//
// # Error Handling
//
// Lookups of missing records return ErrNotFound. Engine failures are wrapped
// in *core.IndexError by the trend index so callers can distinguish an index
// outage from an absent record:
//
//	trend, err := index.Get(ctx, id)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // unknown trend
//	}
//	if core.IsIndexError(err) {
//	    // index unavailable; fall back
//	}
package storage
