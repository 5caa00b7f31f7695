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

package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/storage"
	"github.com/poiesic/trendline/workers"
)

// DefaultFacetTimeout bounds each facet generation.
const DefaultFacetTimeout = 45 * time.Second

// Aggregator produces multi-facet analysis reports.
type Aggregator struct {
	generator    ai.Generator
	index        storage.TrendIndex
	pool         *workers.Pool
	facetTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPool runs facet generations on pool.
func WithPool(pool *workers.Pool) Option {
	return func(a *Aggregator) {
		a.pool = pool
	}
}

// WithFacetTimeout sets the per-facet timeout.
func WithFacetTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.facetTimeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator creates an aggregator.
func NewAggregator(generator ai.Generator, index storage.TrendIndex, opts ...Option) (*Aggregator, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	a := &Aggregator{
		generator:    generator,
		index:        index,
		facetTimeout: DefaultFacetTimeout,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "analysis")
	return a, nil
}

// Analyze loads the trend by id and analyzes it.
func (a *Aggregator) Analyze(ctx context.Context, trendID string) (*core.AnalysisReport, error) {
	t, err := a.index.Get(ctx, trendID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTrendNotFound
	}
	if err != nil {
		return nil, err
	}
	return a.AnalyzeTrend(ctx, t), nil
}

type facetOutcome struct {
	facet core.Facet
	text  string
	err   error
}

// AnalyzeTrend issues every facet in parallel and combines the results once
// all of them have settled. A failed facet becomes a placeholder and lowers
// the analysis quality.
func (a *Aggregator) AnalyzeTrend(ctx context.Context, t *core.Trend) *core.AnalysisReport {
	facts := ai.FactsOf(t)
	outcomes := make(chan facetOutcome, len(core.Facets))
	for _, f := range core.Facets {
		go func() {
			text, err := a.facet(ctx, f, facts)
			outcomes <- facetOutcome{facet: f, text: text, err: err}
		}()
	}

	report := &core.AnalysisReport{TrendID: t.ID, TrendName: t.Name}
	succeeded := 0
	for range core.Facets {
		out := <-outcomes
		if out.err != nil {
			a.logger.Warn("facet failed", "trend", t.ID, "facet", out.facet, "err", out.err)
			report.SetFacet(out.facet, core.FacetResult{
				Text:  placeholder(out.facet),
				Error: failureKind(out.err),
			})
			continue
		}
		succeeded++
		report.SetFacet(out.facet, core.FacetResult{Text: out.text, Available: true})
	}

	report.Score = Score(t, succeeded)
	report.GeneratedAt = a.now().UTC()
	a.logger.Debug("analysis complete", "trend", t.ID, "succeeded", succeeded,
		"overall", report.Score.Overall, "confidence", report.Score.Confidence)
	return report
}

func (a *Aggregator) facet(ctx context.Context, f core.Facet, facts ai.TrendFacts) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.facetTimeout)
	defer cancel()

	prompt := ai.Prompt{
		System:  facetInstructions[f],
		Task:    string(f),
		Anchors: []ai.TrendFacts{facts},
	}
	if a.pool == nil {
		return a.generator.Complete(ctx, prompt)
	}
	var text string
	err := a.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		text, err = a.generator.Complete(ctx, prompt)
		return err
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return "", &core.GenerationError{Kind: core.GenTimeout, Cause: err}
	}
	return text, err
}

func failureKind(err error) string {
	if kind := core.GenerationKindOf(err); kind != "" {
		return string(kind)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return string(core.GenTimeout)
	}
	return string(core.GenUnavailable)
}
