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

package trendline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/ai/openai"
	"github.com/poiesic/trendline/analysis"
	"github.com/poiesic/trendline/chat"
	"github.com/poiesic/trendline/config"
	"github.com/poiesic/trendline/dedup"
	"github.com/poiesic/trendline/ingestion"
	"github.com/poiesic/trendline/normalize"
	"github.com/poiesic/trendline/notify"
	"github.com/poiesic/trendline/reindex"
	"github.com/poiesic/trendline/search"
	"github.com/poiesic/trendline/server"
	"github.com/poiesic/trendline/sources"
	"github.com/poiesic/trendline/storage"
	"github.com/poiesic/trendline/storage/badger"
	"github.com/poiesic/trendline/workers"
)

// shutdownGrace bounds how long Close waits for running enrichment jobs.
const shutdownGrace = 30 * time.Second

// publisher is a job publisher that owns a connection.
type publisher interface {
	ingestion.Publisher
	Close() error
}

// Engine wires storage, text generation and the trend services together.
type Engine struct {
	backend    *badger.Backend
	index      *badger.TrendIndex
	jobs       *badger.JobRepository
	pool       *workers.Pool
	provider   ai.Provider
	publisher  publisher
	catalog    *sources.Catalog
	normalizer *normalize.Normalizer

	enricher *ingestion.Orchestrator
	chat     *chat.Service
	analysis *analysis.Aggregator
	searcher *search.Searcher
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.Provider
	catalog       *sources.Catalog
	fetcher       ingestion.Fetcher
	poolSize      int
	inMemory      bool
	logger        *slog.Logger
	natsURL       string
	natsSubject   string
	dedupOpts     []dedup.Option
	ingestionOpts []ingestion.Option
	storeOpts     []chat.StoreOption
	assemblerOpts []chat.AssemblerOption
	chatOpts      []chat.Option
	analysisOpts  []analysis.Option
}

// WithAIConfig sets the text generation settings used to create the provider.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider supplies a ready provider instead of connecting to one.
// The engine takes ownership and closes it.
func WithProvider(p ai.Provider) Option {
	return func(o *engineOptions) {
		o.provider = p
	}
}

// WithCatalog sets the source catalog. Defaults to the built-in catalog.
func WithCatalog(c *sources.Catalog) Option {
	return func(o *engineOptions) {
		o.catalog = c
	}
}

// WithFetcher replaces the HTTP source registry.
func WithFetcher(f ingestion.Fetcher) Option {
	return func(o *engineOptions) {
		o.fetcher = f
	}
}

// WithPoolSize bounds concurrent external calls.
func WithPoolSize(n int) Option {
	return func(o *engineOptions) {
		o.poolSize = n
	}
}

// InMemory keeps all data in memory; the path passed to NewEngine is ignored.
func InMemory() Option {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNATS publishes job snapshots to a NATS server.
func WithNATS(url, subject string) Option {
	return func(o *engineOptions) {
		o.natsURL = url
		o.natsSubject = subject
	}
}

// WithDedup configures trend identity and merging.
func WithDedup(opts ...dedup.Option) Option {
	return func(o *engineOptions) {
		o.dedupOpts = append(o.dedupOpts, opts...)
	}
}

// WithIngestionOptions passes options through to the orchestrator.
func WithIngestionOptions(opts ...ingestion.Option) Option {
	return func(o *engineOptions) {
		o.ingestionOpts = append(o.ingestionOpts, opts...)
	}
}

// WithChatOptions passes options through to the chat session store,
// context assembler and service.
func WithChatOptions(store []chat.StoreOption, assembler []chat.AssemblerOption, service ...chat.Option) Option {
	return func(o *engineOptions) {
		o.storeOpts = append(o.storeOpts, store...)
		o.assemblerOpts = append(o.assemblerOpts, assembler...)
		o.chatOpts = append(o.chatOpts, service...)
	}
}

// WithAnalysisOptions passes options through to the analysis aggregator.
func WithAnalysisOptions(opts ...analysis.Option) Option {
	return func(o *engineOptions) {
		o.analysisOpts = append(o.analysisOpts, opts...)
	}
}

// NewEngine opens the trend store at filePath and starts every service.
func NewEngine(filePath string, opts ...Option) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		poolSize: workers.DefaultSize(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.catalog == nil {
		options.catalog = sources.DefaultCatalog()
	}
	logger := options.logger

	e := &Engine{catalog: options.catalog, logger: logger}
	ok := false
	defer func() {
		if !ok {
			if e.enricher != nil {
				_ = e.enricher.Shutdown(context.Background())
			}
			e.release()
		}
	}()

	var err error
	if e.backend, err = badger.OpenBackend(filePath, options.inMemory); err != nil {
		return nil, err
	}
	if e.index, err = badger.NewTrendIndex(e.backend); err != nil {
		return nil, err
	}
	e.jobs = badger.NewJobRepository(e.backend)

	if e.pool, err = workers.New(options.poolSize, workers.WithLogger(logger)); err != nil {
		return nil, err
	}

	e.provider = options.provider
	if e.provider == nil {
		if e.provider, err = openai.NewProvider(options.aiConfig); err != nil {
			return nil, err
		}
	}

	e.publisher = notify.Noop{}
	if options.natsURL != "" {
		nats, err := notify.Connect(options.natsURL, notify.WithSubject(options.natsSubject), notify.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		e.publisher = nats
	}

	e.normalizer = normalize.New()
	fetcher := options.fetcher
	if fetcher == nil {
		fetcher = sources.NewRegistry(nil, sources.WithLogger(logger))
	}
	ingestionOpts := append([]ingestion.Option{
		ingestion.WithLogger(logger),
		ingestion.WithNormalizer(e.normalizer),
		ingestion.WithDeduplicator(dedup.New(options.dedupOpts...)),
		ingestion.WithPublisher(e.publisher),
	}, options.ingestionOpts...)
	if e.enricher, err = ingestion.NewOrchestrator(e.catalog, fetcher, e.index, e.jobs, e.pool, ingestionOpts...); err != nil {
		return nil, err
	}

	generator := e.provider.Generator()
	chatOpts := append([]chat.Option{
		chat.WithLogger(logger),
		chat.WithPool(e.pool),
		chat.WithStore(chat.NewStore(append([]chat.StoreOption{chat.WithStoreLogger(logger)}, options.storeOpts...)...)),
		chat.WithAssembler(chat.NewAssembler(options.assemblerOpts...)),
	}, options.chatOpts...)
	if e.chat, err = chat.NewService(generator, e.index, chatOpts...); err != nil {
		return nil, err
	}

	analysisOpts := append([]analysis.Option{analysis.WithLogger(logger), analysis.WithPool(e.pool)}, options.analysisOpts...)
	if e.analysis, err = analysis.NewAggregator(generator, e.index, analysisOpts...); err != nil {
		return nil, err
	}

	if e.searcher, err = search.NewSearcher(e.index, search.WithLogger(logger), search.WithVocabulary(e.normalizer.Vocabulary())); err != nil {
		return nil, err
	}

	ok = true
	return e, nil
}

// FromConfig creates an engine from loaded process configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	dedupOpts, err := cfg.Dedup.Options()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithLogger(logger),
		WithAIConfig(ai.NewConfig(cfg.AI.Options()...)),
		WithPoolSize(cfg.Workers),
		WithDedup(dedupOpts...),
		WithIngestionOptions(
			ingestion.WithMaxAttempts(cfg.Enrichment.MaxAttempts),
			ingestion.WithRetryDelay(cfg.Enrichment.RetryDelay),
			ingestion.WithFreshnessWindow(cfg.Enrichment.FreshnessWindow),
		),
		WithChatOptions(
			[]chat.StoreOption{chat.WithSessionTTL(cfg.Chat.SessionTTL), chat.WithHistoryLimit(cfg.Chat.HistoryLimit)},
			[]chat.AssemblerOption{chat.WithMaxTurns(cfg.Chat.MaxTurns)},
			chat.WithCatalogSize(cfg.Chat.CatalogSize),
		),
		WithAnalysisOptions(analysis.WithFacetTimeout(cfg.AI.FacetTimeout)),
	}
	if cfg.Storage.InMemory {
		base = append(base, InMemory())
	}
	if cfg.NATS.Enabled() {
		base = append(base, WithNATS(cfg.NATS.URL, cfg.NATS.Subject))
	}
	if cfg.Enrichment.CatalogPath != "" {
		catalog, err := sources.LoadCatalog(cfg.Enrichment.CatalogPath)
		if err != nil {
			return nil, err
		}
		base = append(base, WithCatalog(catalog))
	}
	return NewEngine(cfg.Storage.Path, append(base, opts...)...)
}

// Close stops running jobs and releases every resource.
func (e *Engine) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	var errs []error
	if err := e.enricher.Shutdown(ctx); err != nil {
		e.logger.Error("error shutting down enrichment", "err", err)
		errs = append(errs, err)
	}
	if err := e.release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// release closes whatever has been opened, in reverse order.
func (e *Engine) release() error {
	var errs []error
	if e.publisher != nil {
		if err := e.publisher.Close(); err != nil {
			e.logger.Error("error closing job publisher", "err", err)
			errs = append(errs, err)
		}
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.pool != nil {
		e.pool.Release()
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) Index() storage.TrendIndex {
	return e.index
}

func (e *Engine) Jobs() storage.JobRepository {
	return e.jobs
}

func (e *Engine) Catalog() *sources.Catalog {
	return e.catalog
}

func (e *Engine) Enricher() *ingestion.Orchestrator {
	return e.enricher
}

func (e *Engine) Chat() *chat.Service {
	return e.chat
}

func (e *Engine) Analysis() *analysis.Aggregator {
	return e.analysis
}

func (e *Engine) Searcher() *search.Searcher {
	return e.searcher
}

// NewReindexer creates a reindexer using the engine's normalization rules.
func (e *Engine) NewReindexer(cfg *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(e.index, e.normalizer, cfg, progress, e.logger)
}

// NewServer creates the HTTP surface over the engine's services.
func (e *Engine) NewServer(cfg server.Config) *server.Server {
	return server.NewServer(cfg, server.Deps{
		Trends:   e.searcher,
		Chat:     e.chat,
		Sessions: e.chat.Sessions(),
		Analysis: e.analysis,
		Enricher: e.enricher,
	}, server.WithLogger(e.logger))
}
