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

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/poiesic/trendline/chat"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/ingestion"
	"github.com/poiesic/trendline/search"
)

// TrendSearcher serves the trend listing endpoints.
type TrendSearcher interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
	Get(ctx context.Context, id string) (*core.Trend, error)
	Categories(ctx context.Context) (search.Listing, error)
	Regions(ctx context.Context) (search.Listing, error)
	Stats(ctx context.Context) (search.Stats, error)
}

// Chatter answers chat messages.
type Chatter interface {
	Chat(ctx context.Context, req chat.Request) (*chat.Response, error)
}

// SessionStore manages chat sessions.
type SessionStore interface {
	Create() *core.ChatContext
	Get(id string) (*core.ChatContext, error)
	Reset(id string) (*core.ChatContext, error)
	Delete(id string) error
}

// Analyzer produces comprehensive trend reports.
type Analyzer interface {
	Analyze(ctx context.Context, trendID string) (*core.AnalysisReport, error)
}

// Enricher runs and reports on enrichment jobs.
type Enricher interface {
	Start(ctx context.Context, req ingestion.Request) (*ingestion.Ack, error)
	Status(ctx context.Context, id string) (*core.EnrichmentJob, error)
	History(ctx context.Context, limit int) ([]*core.EnrichmentJob, error)
	Sources() []core.Source
	Analytics(ctx context.Context) (*ingestion.Analytics, error)
}

// Deps are the services behind the HTTP surface.
type Deps struct {
	Trends   TrendSearcher
	Chat     Chatter
	Sessions SessionStore
	Analysis Analyzer
	Enricher Enricher
}

// Config holds HTTP settings.
type Config struct {
	Addr           string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *chi.Mux
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Deps, opts ...Option) *Server {
	s := &Server{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(s.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := &handlers{deps: deps, logger: s.logger}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/v1", func(r chi.Router) {
			r.Route("/trends", func(r chi.Router) {
				r.Get("/", h.listTrends)
				r.Get("/categories", h.categories)
				r.Get("/regions", h.regions)
				r.Get("/stats/combined", h.stats)
				r.Get("/{id}", h.getTrend)
			})

			r.Route("/ai", func(r chi.Router) {
				r.Post("/chat", h.chat)
				r.Get("/suggestions", h.suggestions)
				r.Post("/comprehensive-analysis", h.comprehensiveAnalysis)
				r.Route("/sessions", func(r chi.Router) {
					r.Post("/", h.createSession)
					r.Get("/{id}", h.getSession)
					r.Delete("/{id}", h.deleteSession)
					r.Post("/{id}/reset", h.resetSession)
				})
			})

			r.Route("/enrichment", func(r chi.Router) {
				r.Post("/enrich-trends", h.enrich)
				r.Get("/enrichment-status", h.enrichmentStatus)
				r.Get("/jobs", h.jobHistory)
				r.Get("/scraped-sources", h.scrapedSources)
				r.Get("/enrichment-analytics", h.enrichmentAnalytics)
			})
		})
	})

	s.router = router
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"took", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
