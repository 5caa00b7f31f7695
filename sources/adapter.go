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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/trendline/core"
)

// maxBodyBytes caps how much of a source response is read.
const maxBodyBytes = 4 << 20

// userAgent is sent with every source request.
const userAgent = "trendline/1.0 (+https://github.com/poiesic/trendline)"

// Adapter fetches raw records for one kind of source. Adapters hold no
// per-fetch state; everything a fetch needs arrives in cfg, so one adapter
// instance serves any number of concurrent fetches.
type Adapter interface {
	// Kind returns the source kind the adapter handles.
	Kind() core.RecordKind

	// Fetch retrieves records for the source described by cfg.
	// Failures are reported as *core.FetchError.
	Fetch(ctx context.Context, cfg Config) ([]core.RawRecord, error)
}

// Registry dispatches fetches to the adapter registered for a source's kind
// and enforces the per-fetch deadline.
type Registry struct {
	adapters map[core.RecordKind]Adapter
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithAdapter registers a, replacing any adapter of the same kind.
func WithAdapter(a Adapter) Option {
	return func(r *Registry) {
		r.adapters[a.Kind()] = a
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry with the HTML, feed and static adapters.
// A nil client uses a client with no overall timeout; deadlines come from
// each source's configuration.
func NewRegistry(client *http.Client, opts ...Option) *Registry {
	if client == nil {
		client = &http.Client{}
	}
	now := func() time.Time { return time.Now().UTC() }
	r := &Registry{
		adapters: map[core.RecordKind]Adapter{},
		now:      now,
		logger:   slog.Default().With("component", "sources"),
	}
	for _, a := range []Adapter{NewHTMLAdapter(client, now), NewFeedAdapter(client, now), NewStaticAdapter(now)} {
		r.adapters[a.Kind()] = a
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch retrieves records for cfg within the source's fetch timeout. An
// expired deadline is reported as a FetchError wrapping core.ErrTimeout.
func (r *Registry) Fetch(ctx context.Context, cfg Config) ([]core.RawRecord, error) {
	a, ok := r.adapters[cfg.Kind]
	if !ok {
		return nil, &core.FetchError{Source: cfg.Name, Cause: fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)}
	}

	fctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout())
	defer cancel()

	start := time.Now()
	records, err := a.Fetch(fctx, cfg)
	if err != nil {
		if errors.Is(fctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = &core.FetchError{Source: cfg.Name, Cause: fmt.Errorf("%w after %s", core.ErrTimeout, cfg.FetchTimeout())}
		}
		var fe *core.FetchError
		if !errors.As(err, &fe) {
			err = &core.FetchError{Source: cfg.Name, Cause: err}
		}
		r.logger.Debug("fetch failed", "source", cfg.Name, "err", err)
		return nil, err
	}
	r.logger.Debug("fetched source", "source", cfg.Name, "records", len(records), "elapsed", time.Since(start))
	return records, nil
}

// get performs a GET against url and returns the (size-limited) body.
func get(ctx context.Context, client *http.Client, source, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &core.FetchError{Source: source, Cause: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &core.FetchError{Source: source, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &core.FetchError{Source: source, Cause: fmt.Errorf("%w: %d", core.ErrUnexpectedStatus, resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &core.FetchError{Source: source, Cause: err}
	}
	return body, nil
}
