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

package ingestion

import (
	"context"
	"strings"

	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/sources"
)

// filter holds the per-job record filters and refresh policy.
type filter struct {
	categories []string
	regions    []string
	force      bool
	jobID      string
}

func newFilter(job *core.EnrichmentJob) filter {
	return filter{categories: job.Categories, regions: job.Regions, force: job.Force, jobID: job.ID}
}

// signature identifies filters that produce identical refresh results.
func (f filter) signature() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.Join(f.categories, ",")))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.Join(f.regions, ",")))
	if f.force {
		b.WriteString("|force")
	}
	return b.String()
}

func (f filter) matches(t *core.Trend) bool {
	if len(f.categories) > 0 {
		found := false
		for _, c := range f.categories {
			if strings.EqualFold(c, t.Category) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.regions) > 0 {
		for _, r := range f.regions {
			if t.HasRegion(r) {
				return true
			}
		}
		return false
	}
	return true
}

type shared struct {
	signature string
	result    core.SourceResult
}

// refreshShared runs at most one refresh per source at a time. A caller that
// joins a refresh started with different filters tries again until it gets a
// result produced under its own filters.
func (o *Orchestrator) refreshShared(source string, f filter) core.SourceResult {
	sig := f.signature()
	for {
		v, _, _ := o.flight.Do(source, func() (any, error) {
			return shared{signature: sig, result: o.refresh(o.ctx, source, f)}, nil
		})
		if res := v.(shared); res.signature == sig {
			return res.result
		}
	}
}

// refresh fetches, normalizes, filters and merges one source's records.
func (o *Orchestrator) refresh(ctx context.Context, source string, f filter) core.SourceResult {
	logger := o.logger.With("source", source)
	var result core.SourceResult

	cfg, ok := o.catalog.Lookup(source)
	if !ok {
		result.Done = true
		result.Error = ErrUnknownSource.Error()
		return result
	}

	if !f.force && o.fresh(ctx, cfg) {
		logger.Debug("source refreshed recently, skipping")
		result.Skipped = true
		result.Done = true
		return result
	}

	var records []core.RawRecord
	err := RetryWithBackoff(ctx, func() error {
		result.Attempts++
		return o.pool.Do(ctx, func(ctx context.Context) error {
			var err error
			records, err = o.fetcher.Fetch(ctx, cfg)
			return err
		})
	}, o.maxAttempts, o.retryDelay)
	if err != nil {
		logger.Warn("source fetch failed", "attempt", result.Attempts, "err", err)
		result.Done = true
		result.Error = err.Error()
		return result
	}
	result.Fetched = len(records)

	for i := range records {
		trend, quality, err := o.normalizer.Normalize(records[i])
		if err != nil {
			logger.Debug("dropping record", "err", err)
			result.Dropped++
			continue
		}
		if !quality.Clean() {
			result.Clamped++
		}
		if !f.matches(&trend) {
			result.Filtered++
			continue
		}
		if err := o.merge(ctx, trend); err != nil {
			if core.IsValidation(err) {
				logger.Debug("dropping invalid trend", "name", trend.Name, "err", err)
				result.Dropped++
				continue
			}
			logger.Error("index write failed", "err", err)
			result.Error = err.Error()
			break
		}
		result.Indexed++
	}
	result.Done = true

	if result.Error == "" {
		state := &core.SourceState{
			Source:      source,
			LastSuccess: o.now().UTC(),
			LastJobID:   f.jobID,
			LastIndexed: result.Indexed,
		}
		if err := o.jobs.SaveSourceState(context.WithoutCancel(ctx), state); err != nil {
			logger.Warn("failed to save source state", "err", err)
		}
	}
	logger.Info("source refreshed", "fetched", result.Fetched, "indexed", result.Indexed,
		"dropped", result.Dropped, "filtered", result.Filtered)
	return result
}

// merge writes trend under its identity key, resolving against any stored
// record inside one atomic read-modify-write.
func (o *Orchestrator) merge(ctx context.Context, trend core.Trend) error {
	key := o.dedup.Key(&trend)
	_, err := o.index.Apply(ctx, key, func(existing *core.Trend) (*core.Trend, error) {
		decision := o.dedup.Resolve(existing, trend)
		return &decision.Trend, nil
	})
	return err
}

func (o *Orchestrator) fresh(ctx context.Context, cfg sources.Config) bool {
	interval := cfg.RefreshInterval()
	if interval <= 0 {
		return false
	}
	state, err := o.jobs.LoadSourceState(ctx, cfg.Name)
	if err != nil {
		o.logger.Warn("failed to load source state", "source", cfg.Name, "err", err)
		return false
	}
	if state == nil {
		return false
	}
	return o.now().Sub(state.LastSuccess) < interval
}
