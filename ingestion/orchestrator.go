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
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/dedup"
	"github.com/poiesic/trendline/normalize"
	"github.com/poiesic/trendline/sources"
	"github.com/poiesic/trendline/storage"
	"github.com/poiesic/trendline/workers"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxAttempts is one initial fetch plus two retries.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the delay before the first retry.
	DefaultRetryDelay = 500 * time.Millisecond
	// DefaultFreshnessWindow bounds how old a trend may be and still count as fresh.
	DefaultFreshnessWindow = 7 * 24 * time.Hour
)

// Fetcher retrieves raw records for one configured source.
// *sources.Registry is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, cfg sources.Config) ([]core.RawRecord, error)
}

// Publisher receives a snapshot every time a job changes state.
type Publisher interface {
	PublishJob(ctx context.Context, job *core.EnrichmentJob) error
}

// Request describes an enrichment run. Empty Sources means every catalog source.
type Request struct {
	Sources    []string `json:"sources,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Regions    []string `json:"regions,omitempty"`
	Force      bool     `json:"force_refresh"`
}

// Ack acknowledges an accepted request.
type Ack struct {
	JobID     string         `json:"job_id"`
	Status    core.JobStatus `json:"status"`
	Sources   []string       `json:"sources"`
	Coalesced bool           `json:"coalesced"`
}

// Orchestrator runs enrichment jobs. It is the only writer of job state:
// source workers report outcomes over a channel and the job's run loop
// applies them.
type Orchestrator struct {
	catalog    *sources.Catalog
	fetcher    Fetcher
	index      storage.TrendIndex
	jobs       storage.JobRepository
	pool       *workers.Pool
	normalizer *normalize.Normalizer
	dedup      *dedup.Deduplicator
	publisher  Publisher
	flight     singleflight.Group

	maxAttempts int
	retryDelay  time.Duration
	freshness   time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu     sync.RWMutex
	runs   map[string]*run
	latest string
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type run struct {
	job  *core.EnrichmentJob
	done chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithMaxAttempts sets the number of fetch attempts per source, including the first.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		o.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the base backoff delay between fetch attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) error {
		o.retryDelay = d
		return nil
	}
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *Orchestrator) error {
		if n != nil {
			o.normalizer = n
		}
		return nil
	}
}

// WithDeduplicator replaces the default deduplicator.
func WithDeduplicator(d *dedup.Deduplicator) Option {
	return func(o *Orchestrator) error {
		if d != nil {
			o.dedup = d
		}
		return nil
	}
}

// WithPublisher sets where job snapshots are pushed.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) error {
		o.publisher = p
		return nil
	}
}

// WithFreshnessWindow sets the window used by the freshness metric.
func WithFreshnessWindow(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d > 0 {
			o.freshness = d
		}
		return nil
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}

// NewOrchestrator creates an orchestrator over the given catalog and stores.
// External fetches run on pool, which the caller owns.
func NewOrchestrator(
	catalog *sources.Catalog,
	fetcher Fetcher,
	index storage.TrendIndex,
	jobs storage.JobRepository,
	pool *workers.Pool,
	opts ...Option,
) (*Orchestrator, error) {
	switch {
	case catalog == nil:
		return nil, ErrCatalogRequired
	case fetcher == nil:
		return nil, ErrFetcherRequired
	case index == nil:
		return nil, ErrIndexRequired
	case jobs == nil:
		return nil, ErrJobRepositoryRequired
	case pool == nil:
		return nil, ErrPoolRequired
	}

	o := &Orchestrator{
		catalog:     catalog,
		fetcher:     fetcher,
		index:       index,
		jobs:        jobs,
		pool:        pool,
		normalizer:  normalize.New(),
		dedup:       dedup.New(),
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		freshness:   DefaultFreshnessWindow,
		now:         time.Now,
		logger:      slog.Default(),
		runs:        make(map[string]*run),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "orchestrator")
	o.ctx, o.cancel = context.WithCancel(context.Background())
	return o, nil
}

// Start validates req and either joins an active job that already covers
// every requested source or creates a new one. The job runs in the
// background; poll Status or block on Wait for the outcome.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Ack, error) {
	names, err := o.resolve(req.Sources)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	for _, r := range o.runs {
		if r.job.Status.Terminal() || !r.job.Covers(names) {
			continue
		}
		ack := &Ack{JobID: r.job.ID, Status: r.job.Status, Sources: slices.Clone(r.job.Sources), Coalesced: true}
		o.mu.Unlock()
		o.logger.Info("coalesced enrichment request", "job", ack.JobID, "sources", names)
		return ack, nil
	}

	job := &core.EnrichmentJob{
		ID:         uuid.NewString(),
		Sources:    names,
		Categories: trimAll(req.Categories),
		Regions:    trimAll(req.Regions),
		Force:      req.Force,
		Status:     core.JobPending,
		Results:    make(map[string]core.SourceResult, len(names)),
		CreatedAt:  o.now().UTC(),
	}
	r := &run{job: job, done: make(chan struct{})}
	o.runs[job.ID] = r
	o.latest = job.ID
	snapshot := job.Clone()
	o.wg.Add(1)
	o.mu.Unlock()

	o.record(ctx, snapshot)
	o.logger.Info("enrichment job created", "job", job.ID, "sources", names, "force", req.Force)

	go o.execute(r)

	return &Ack{JobID: job.ID, Status: core.JobPending, Sources: slices.Clone(names)}, nil
}

// Status returns a snapshot of the job. An empty id selects the most
// recently created job.
func (o *Orchestrator) Status(ctx context.Context, id string) (*core.EnrichmentJob, error) {
	o.mu.RLock()
	if id == "" {
		id = o.latest
	}
	if r, ok := o.runs[id]; ok {
		snapshot := r.job.Clone()
		o.mu.RUnlock()
		return snapshot, nil
	}
	o.mu.RUnlock()

	if id == "" {
		recent, err := o.jobs.RecentJobs(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(recent) == 0 {
			return nil, ErrJobNotFound
		}
		return recent[0], nil
	}

	job, err := o.jobs.LoadJob(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

// Wait blocks until the job reaches a terminal state or ctx ends, then
// returns its snapshot.
func (o *Orchestrator) Wait(ctx context.Context, id string) (*core.EnrichmentJob, error) {
	o.mu.RLock()
	r, ok := o.runs[id]
	o.mu.RUnlock()
	if ok {
		select {
		case <-r.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return o.Status(ctx, id)
}

// History returns up to limit jobs, newest first.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]*core.EnrichmentJob, error) {
	return o.jobs.RecentJobs(ctx, limit)
}

// Sources returns the descriptors of every configured source.
func (o *Orchestrator) Sources() []core.Source {
	return o.catalog.Descriptors()
}

// Shutdown stops accepting requests and waits for running jobs. If ctx ends
// first, in-flight fetches are cancelled and ctx.Err() is returned.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.cancel()
		<-done
		return ctx.Err()
	}
}

func (o *Orchestrator) resolve(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return o.catalog.Names(), nil
	}
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(names, name) {
			continue
		}
		if _, ok := o.catalog.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return o.catalog.Names(), nil
	}
	return names, nil
}

type outcome struct {
	source string
	result core.SourceResult
}

// execute drives one job from pending to a terminal state. Source workers
// never touch the job; they send outcomes here.
func (o *Orchestrator) execute(r *run) {
	defer o.wg.Done()

	o.update(r, func(j *core.EnrichmentJob) {
		j.Status = core.JobRunning
		j.StartedAt = o.now().UTC()
	})

	f := newFilter(r.job)
	outcomes := make(chan outcome, len(r.job.Sources))
	for _, name := range r.job.Sources {
		go func() {
			outcomes <- outcome{source: name, result: o.refreshShared(name, f)}
		}()
	}

	for range r.job.Sources {
		out := <-outcomes
		o.update(r, func(j *core.EnrichmentJob) {
			j.Results[out.source] = out.result
		})
	}

	o.update(r, func(j *core.EnrichmentJob) {
		j.Status = j.Settle()
		j.FinishedAt = o.now().UTC()
	})

	o.mu.Lock()
	delete(o.runs, r.job.ID)
	totals := r.job.Totals()
	status := r.job.Status
	o.mu.Unlock()
	close(r.done)

	o.logger.Info("enrichment job finished", "job", r.job.ID, "status", status,
		"fetched", totals.Fetched, "indexed", totals.Indexed, "dropped", totals.Dropped)
}

// update applies fn to the job under the lock, then persists and publishes
// the resulting snapshot.
func (o *Orchestrator) update(r *run, fn func(*core.EnrichmentJob)) {
	o.mu.Lock()
	fn(r.job)
	snapshot := r.job.Clone()
	o.mu.Unlock()
	o.record(o.ctx, snapshot)
}

func (o *Orchestrator) record(ctx context.Context, job *core.EnrichmentJob) {
	ctx = context.WithoutCancel(ctx)
	if err := o.jobs.SaveJob(ctx, job); err != nil {
		o.logger.Warn("failed to persist job", "job", job.ID, "err", err)
	}
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishJob(ctx, job); err != nil {
		o.logger.Warn("failed to publish job", "job", job.ID, "err", err)
	}
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
