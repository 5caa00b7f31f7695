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

package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/ingestion"
	"github.com/poiesic/trendline/normalize"
	"github.com/poiesic/trendline/storage"
)

// Config holds configuration for a reindex run.
type Config struct {
	// BatchSize is the number of trends written back per transaction
	BatchSize int

	// ReportInterval is how often to report progress (number of trends)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a failed batch write
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Summary reports what a run did.
type Summary struct {
	Scanned int
	Updated int
	Invalid int
}

// Reindexer renormalizes every stored trend.
type Reindexer struct {
	index      storage.TrendIndex
	normalizer *normalize.Normalizer
	config     *Config
	progress   io.Writer
	logger     *slog.Logger
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(index storage.TrendIndex, normalizer *normalize.Normalizer, config *Config, progress io.Writer, logger *slog.Logger) (*Reindexer, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if normalizer == nil {
		normalizer = normalize.New()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reindexer{
		index:      index,
		normalizer: normalizer,
		config:     config,
		progress:   progress,
		logger:     logger.With("component", "reindexer"),
	}, nil
}

type outcome int

const (
	unchanged outcome = iota
	rewritten
	rejected
)

// rewrite renormalizes the trend stored under id inside an atomic
// read-modify-write, so fields merged since the scan are kept. A trend that
// would become invalid is left as stored.
func (r *Reindexer) rewrite(ctx context.Context, id string) (outcome, error) {
	var result outcome
	err := ingestion.RetryWithBackoff(ctx, func() error {
		result = unchanged
		_, err := r.index.Apply(ctx, id, func(current *core.Trend) (*core.Trend, error) {
			if current == nil || !r.normalizer.Renormalize(current) {
				return nil, nil
			}
			if err := core.ValidateTrend(current); err != nil {
				r.logger.Warn("renormalized trend is invalid, leaving it as stored", "trend", id, "err", err)
				result = rejected
				return nil, nil
			}
			result = rewritten
			return current, nil
		})
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	return result, err
}

// Run renormalizes all stored trends and writes back the changed ones.
// A trend that no longer validates after renormalization is left untouched
// and counted as invalid.
func (r *Reindexer) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	total, err := r.index.Count(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count trends: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No trends found in index (0 trends)\n")
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d trends (batch size: %d)\n", total, r.config.BatchSize)
	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	iterator := NewTrendIterator(r.index, r.config.BatchSize)
	err = iterator.ForEach(ctx, func(batch []*core.Trend) error {
		for _, t := range batch {
			summary.Scanned++
			if !r.normalizer.Renormalize(t.Clone()) {
				continue
			}
			res, err := r.rewrite(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("failed to rewrite trend %s: %w", t.ID, err)
			}
			switch res {
			case rewritten:
				summary.Updated++
			case rejected:
				summary.Invalid++
			}
		}
		tracker.Update(summary.Scanned)
		return nil
	})
	if err != nil {
		return summary, err
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Scanned %d trends, updated %d in %v\n",
		summary.Scanned, summary.Updated, elapsed.Round(time.Millisecond))
	r.logger.Info("reindex finished", "scanned", summary.Scanned, "updated", summary.Updated, "invalid", summary.Invalid)
	return summary, nil
}
