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

package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed indicates work was submitted after Release.
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool bounds the number of concurrent external calls (source fetches, text
// generations) across every component that shares it.
type Pool struct {
	pool   *ants.Pool
	slots  *semaphore.Weighted
	logger *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// DefaultSize is the pool size used when none is configured.
func DefaultSize() int {
	return max(4, runtime.NumCPU())
}

// New creates a pool running at most size tasks at once. Callers beyond that
// wait for a free slot, or for their context to end.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		size = DefaultSize()
	}
	p := &Pool{
		logger: slog.Default().With("component", "workers"),
	}
	for _, opt := range opts {
		opt(p)
	}

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(v any) {
		p.logger.Error("worker panic", "panic", v)
	}))
	if err != nil {
		return nil, err
	}
	p.pool = pool
	p.slots = semaphore.NewWeighted(int64(size))
	return p, nil
}

// Do runs fn on a pool worker and waits for it to finish. Waiting for a free
// slot ends with ctx.Err() when ctx ends first. The context is passed through
// to fn; if ctx ends while fn runs Do returns ctx.Err() and fn keeps its slot
// until it observes the cancellation.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan error, 1)
	err := p.pool.Submit(func() {
		defer p.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("task panicked: %v", r)
			}
		}()
		done <- fn(ctx)
	})
	if err != nil {
		p.slots.Release(1)
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Cap returns the pool capacity.
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Release stops accepting work. Running tasks finish normally.
func (p *Pool) Release() {
	p.pool.Release()
}
