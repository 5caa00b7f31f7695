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

package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/storage"
	"github.com/poiesic/trendline/workers"
)

// DefaultCatalogSize is how many top trends back a request without anchors.
const DefaultCatalogSize = 5

// unavailableReply is returned in place of generated text when generation fails.
const unavailableReply = "The trend assistant is unavailable right now. The trend data shown is still current; please try again shortly."

// Request is one chat message. An empty SessionID starts a new session.
// AnchorTrendIDs, when set, replace the session's anchors.
type Request struct {
	SessionID      string   `json:"session_id,omitempty"`
	Message        string   `json:"message"`
	AnchorTrendIDs []string `json:"anchor_trend_ids,omitempty"`
}

// Response is the reply to a Request.
type Response struct {
	SessionID      string       `json:"session_id"`
	Response       string       `json:"response"`
	Type           ResponseType `json:"type"`
	AnchorTrendIDs []string     `json:"anchor_trend_ids,omitempty"`
	Degraded       bool         `json:"degraded"`
	Error          string       `json:"error,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// Service answers chat messages grounded in indexed trends.
type Service struct {
	store       *Store
	assembler   *Assembler
	generator   ai.Generator
	index       storage.TrendIndex
	pool        *workers.Pool
	catalogSize int
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAssembler replaces the default assembler.
func WithAssembler(a *Assembler) Option {
	return func(s *Service) {
		if a != nil {
			s.assembler = a
		}
	}
}

// WithStore replaces the default session store.
func WithStore(store *Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPool runs generations on pool.
func WithPool(pool *workers.Pool) Option {
	return func(s *Service) {
		s.pool = pool
	}
}

// WithCatalogSize sets how many top trends back a request without anchors.
func WithCatalogSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.catalogSize = n
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a chat service.
func NewService(generator ai.Generator, index storage.TrendIndex, opts ...Option) (*Service, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	s := &Service{
		store:       NewStore(),
		assembler:   NewAssembler(),
		generator:   generator,
		index:       index,
		catalogSize: DefaultCatalogSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chat")
	return s, nil
}

// Sessions exposes the session store.
func (s *Service) Sessions() *Store {
	return s.store
}

// Chat answers req. Generation failures are not errors: the response carries
// a placeholder and Degraded is set. A reset of the session while the request
// is in flight returns ErrSessionReset.
func (s *Service) Chat(ctx context.Context, req Request) (*Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	id := req.SessionID
	if id == "" {
		id = s.store.Create().SessionID
	}
	reqCtx, state, t, release, err := s.store.begin(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	var anchorIDs []string
	if len(req.AnchorTrendIDs) > 0 {
		anchorIDs = firstN(req.AnchorTrendIDs, s.assembler.MaxAnchors())
		state.AnchorTrendIDs = anchorIDs
	}
	anchors := s.resolve(reqCtx, state.AnchorTrendIDs)
	prompt := s.assembler.Assemble(state, anchors, message)
	if len(prompt.Anchors) == 0 {
		prompt.Catalog = s.catalog(reqCtx)
	}

	resp := &Response{
		SessionID:      id,
		Type:           Classify(message),
		AnchorTrendIDs: state.AnchorTrendIDs,
	}

	text, err := s.generate(reqCtx, prompt)
	switch {
	case err == nil:
		resp.Response = text
	case !s.store.current(t):
		return nil, ErrSessionReset
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		s.logger.Warn("chat generation failed", "session", id, "err", err)
		resp.Response = unavailableReply
		resp.Degraded = true
		if kind := core.GenerationKindOf(err); kind != "" {
			resp.Error = string(kind)
		} else {
			resp.Error = string(core.GenUnavailable)
		}
	}

	now := time.Now().UTC()
	resp.Timestamp = now
	err = s.store.commit(t, anchorIDs,
		core.Turn{Role: core.RoleUser, Text: message, Timestamp: now},
		core.Turn{Role: core.RoleAssistant, Text: resp.Response, Timestamp: now},
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	if s.pool == nil {
		return s.generator.Complete(ctx, prompt)
	}
	var text string
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		text, err = s.generator.Complete(ctx, prompt)
		return err
	})
	return text, err
}

// resolve loads anchor trends by id. Missing trends are skipped.
func (s *Service) resolve(ctx context.Context, ids []string) []*core.Trend {
	var trends []*core.Trend
	for _, id := range ids {
		t, err := s.index.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("failed to load anchor trend", "trend", id, "err", err)
			}
			continue
		}
		trends = append(trends, t)
	}
	return trends
}

// catalog returns summaries of the top trends by score.
func (s *Service) catalog(ctx context.Context) []ai.TrendSummary {
	if s.catalogSize == 0 {
		return nil
	}
	res, err := s.index.Query(ctx, storage.Query{PerPage: s.catalogSize})
	if err != nil {
		s.logger.Warn("failed to load trend catalog", "err", err)
		return nil
	}
	out := make([]ai.TrendSummary, 0, len(res.Hits))
	for _, t := range res.Hits {
		out = append(out, ai.SummaryOf(t))
	}
	return out
}

func firstN(ids []string, n int) []string {
	var out []string
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && len(out) < n {
			out = append(out, id)
		}
	}
	return out
}
