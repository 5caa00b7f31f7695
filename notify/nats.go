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

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/poiesic/trendline/core"
)

// DefaultSubject is the subject prefix job snapshots are published under.
const DefaultSubject = "trendline.jobs"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes job snapshots as JSON to "<subject>.<status>".
type NATSPublisher struct {
	conn    Conn
	owned   *nats.Conn
	subject string
	logger  *slog.Logger
}

// Option configures a NATSPublisher.
type Option func(*NATSPublisher)

// WithSubject sets the subject prefix.
func WithSubject(subject string) Option {
	return func(p *NATSPublisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *NATSPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewNATSPublisher publishes over an existing connection. The caller keeps
// ownership of conn.
func NewNATSPublisher(conn Conn, opts ...Option) *NATSPublisher {
	p := &NATSPublisher{
		conn:    conn,
		subject: DefaultSubject,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "notify")
	return p
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url string, opts ...Option) (*NATSPublisher, error) {
	p := NewNATSPublisher(nil, opts...)
	nc, err := nats.Connect(url,
		nats.Name("trendline"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			p.logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			p.logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	p.conn = nc
	p.owned = nc
	return p, nil
}

// Subject returns the subject a job snapshot is published to.
func (p *NATSPublisher) Subject(job *core.EnrichmentJob) string {
	return p.subject + "." + string(job.Status)
}

// PublishJob publishes a snapshot of job.
func (p *NATSPublisher) PublishJob(ctx context.Context, job *core.EnrichmentJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := p.conn.Publish(p.Subject(job), data); err != nil {
		return fmt.Errorf("publish job %s: %w", job.ID, err)
	}
	p.logger.Debug("published job", "job", job.ID, "status", job.Status)
	return nil
}

// Close drains the connection if the publisher opened it.
func (p *NATSPublisher) Close() error {
	if p.owned == nil {
		return nil
	}
	return p.owned.Drain()
}
