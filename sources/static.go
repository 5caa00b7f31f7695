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

package sources

import (
	"context"
	"time"

	"github.com/poiesic/trendline/core"
)

// StaticAdapter serves records declared directly in the catalog.
type StaticAdapter struct {
	now func() time.Time
}

var _ Adapter = (*StaticAdapter)(nil)

// NewStaticAdapter creates a static adapter.
func NewStaticAdapter(now func() time.Time) *StaticAdapter {
	return &StaticAdapter{now: now}
}

// Kind returns core.KindStatic.
func (a *StaticAdapter) Kind() core.RecordKind {
	return core.KindStatic
}

// Fetch returns the catalog records for cfg.
func (a *StaticAdapter) Fetch(ctx context.Context, cfg Config) ([]core.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.FetchError{Source: cfg.Name, Cause: err}
	}
	observed := a.now()
	out := make([]core.RawRecord, 0, len(cfg.Records))
	for _, spec := range cfg.Records {
		out = append(out, cfg.toRaw(spec, observed))
	}
	return out, nil
}
