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

	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/storage"
)

// DefaultBatchSize is the default number of trends handed to each batch.
const DefaultBatchSize = 100

// TrendIterator iterates over all stored trends in batches.
type TrendIterator struct {
	index     storage.TrendIndex
	batchSize int
}

// NewTrendIterator creates a new trend iterator.
// batchSize: number of trends per batch; non-positive values use DefaultBatchSize
func NewTrendIterator(index storage.TrendIndex, batchSize int) *TrendIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &TrendIterator{index: index, batchSize: batchSize}
}

// ForEach calls fn for each batch of trends in ID order. The index is read
// in full before the first batch so fn may write back to it.
// Iteration stops on the first error from fn or on context cancellation.
func (it *TrendIterator) ForEach(ctx context.Context, fn func([]*core.Trend) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var trends []*core.Trend
	err := it.index.Scan(ctx, func(t *core.Trend) error {
		trends = append(trends, t)
		return nil
	})
	if err != nil {
		return err
	}

	for i := 0; i < len(trends); i += it.batchSize {
		end := min(i+it.batchSize, len(trends))
		if err := fn(trends[i:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
