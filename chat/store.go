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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/trendline/core"
)

const (
	// DefaultSessionTTL is how long an idle session survives.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultHistoryLimit caps the turns retained per session.
	DefaultHistoryLimit = 50
)

// Store is the keyed lifecycle store for chat sessions. Callers only ever
// receive copies of a session's ChatContext.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	history  int
	now      func() time.Time
	logger   *slog.Logger
}

type session struct {
	state    *core.ChatContext
	epoch    uint64
	inflight map[uint64]context.CancelFunc
	nextReq  uint64
	lastUsed time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSessionTTL sets the idle lifetime of a session. Zero disables expiry.
func WithSessionTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = d
	}
}

// WithHistoryLimit caps the turns retained per session.
func WithHistoryLimit(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.history = n
		}
	}
}

// WithStoreClock overrides time.Now.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStoreLogger sets a custom logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates an empty session store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*session),
		ttl:      DefaultSessionTTL,
		history:  DefaultHistoryLimit,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chat-store")
	return s
}

// Create starts a new session.
func (s *Store) Create() *core.ChatContext {
	now := s.now().UTC()
	state := &core.ChatContext{
		SessionID: uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[state.SessionID] = &session{
		state:    state,
		inflight: make(map[uint64]context.CancelFunc),
		lastUsed: now,
	}
	s.mu.Unlock()
	s.logger.Debug("session created", "session", state.SessionID)
	return state.Clone()
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (*core.ChatContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.state.Clone(), nil
}

// Reset clears the session's turns and anchors and cancels any request in
// flight for it. The session ID is kept.
func (s *Store) Reset(id string) (*core.ChatContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	cancelled := len(sess.inflight)
	sess.cancelAll()
	sess.epoch++
	now := s.now().UTC()
	sess.state = &core.ChatContext{SessionID: id, CreatedAt: now, UpdatedAt: now}
	sess.lastUsed = now
	s.logger.Debug("session reset", "session", id, "cancelled", cancelled)
	return sess.state.Clone(), nil
}

// Delete ends the session and cancels any request in flight for it.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.cancelAll()
	delete(s.sessions, id)
	return nil
}

// Expire removes every session idle for longer than the TTL and returns how
// many were removed.
func (s *Store) Expire() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.ttl {
			sess.cancelAll()
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Debug("expired sessions", "count", n)
	}
	return n
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ticket ties an in-flight request to the session epoch it started in.
type ticket struct {
	id    string
	epoch uint64
	req   uint64
}

// begin registers a request against the session. The returned context is
// cancelled by Reset, Delete or Expire; release must be called when the
// request ends.
func (s *Store) begin(parent context.Context, id string) (context.Context, *core.ChatContext, ticket, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, nil, ticket{}, nil, err
	}
	ctx, cancel := context.WithCancel(parent)
	sess.nextReq++
	t := ticket{id: id, epoch: sess.epoch, req: sess.nextReq}
	sess.inflight[t.req] = cancel
	release := func() {
		s.mu.Lock()
		delete(sess.inflight, t.req)
		s.mu.Unlock()
		cancel()
	}
	return ctx, sess.state.Clone(), t, release, nil
}

// commit appends turns to the session's current history unless the session
// was reset or removed since t was issued. Requests that overlap on one
// session each keep their turns. A non-nil anchors replaces the session's
// anchor trends.
func (s *Store) commit(t ticket, anchors []string, turns ...core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[t.id]
	if !ok {
		return ErrSessionNotFound
	}
	if sess.epoch != t.epoch {
		return ErrSessionReset
	}
	state := sess.state.Clone()
	if anchors != nil {
		state.AnchorTrendIDs = append([]string(nil), anchors...)
	}
	state.Turns = append(state.Turns, turns...)
	if over := len(state.Turns) - s.history; over > 0 {
		state.Turns = state.Turns[over:]
	}
	state.UpdatedAt = s.now().UTC()
	sess.state = state
	sess.lastUsed = state.UpdatedAt
	return nil
}

// current reports whether t still belongs to the live session epoch.
func (s *Store) current(t ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[t.id]
	return ok && sess.epoch == t.epoch
}

func (s *Store) lookup(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.ttl > 0 && s.now().Sub(sess.lastUsed) > s.ttl {
		sess.cancelAll()
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess.lastUsed = s.now()
	return sess, nil
}

func (sess *session) cancelAll() {
	for req, cancel := range sess.inflight {
		cancel()
		delete(sess.inflight, req)
	}
}
