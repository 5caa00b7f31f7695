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

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/trendline"
	"github.com/poiesic/trendline/chat"
	"github.com/poiesic/trendline/config"
	"github.com/poiesic/trendline/core"
	"github.com/poiesic/trendline/ingestion"
	"github.com/poiesic/trendline/reindex"
	"github.com/poiesic/trendline/search"
	"github.com/poiesic/trendline/server"
	"github.com/poiesic/trendline/sources"
)

const sessionSweepInterval = time.Minute

// loadConfig reads configuration and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if v := c.String("db"); v != "" {
		cfg.Storage.Path = v
	}
	if c.Bool("in-memory") {
		cfg.Storage.InMemory = true
	}
	if v := c.String("catalog"); v != "" {
		cfg.Enrichment.CatalogPath = v
	}
	if v := c.String("ai-host"); v != "" {
		cfg.AI.Host = v
	}
	if v := c.String("ai-model"); v != "" {
		cfg.AI.Model = v
	}
	return cfg, nil
}

func openEngine(c *cli.Context) (*trendline.Engine, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	engine, err := trendline.FromConfig(cfg, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, cfg, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, cfg, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	if c.Bool("enrich-on-start") {
		ack, err := engine.Enricher().Start(ctx, ingestion.Request{})
		if err != nil {
			return fmt.Errorf("failed to start enrichment: %w", err)
		}
		slog.Info("enrichment started", "job", ack.JobID, "sources", ack.Sources)
	}

	go sweepSessions(ctx, engine.Chat().Sessions(), sessionSweepInterval)

	srv := engine.NewServer(server.Config{
		Addr:        cfg.Server.Addr(),
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepSessions drops idle chat sessions until ctx ends.
func sweepSessions(ctx context.Context, store *chat.Store, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Expire()
		}
	}
}

func enrichCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := c.Context
	ack, err := engine.Enricher().Start(ctx, ingestion.Request{
		Sources:    c.StringSlice("source"),
		Categories: c.StringSlice("category"),
		Regions:    c.StringSlice("region"),
		Force:      c.Bool("force"),
	})
	if err != nil {
		return fmt.Errorf("failed to start enrichment: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "Enrichment job %s started for %s\n", ack.JobID, strings.Join(ack.Sources, ", "))

	job, err := engine.Enricher().Wait(ctx, ack.JobID)
	if err != nil {
		return fmt.Errorf("waiting for enrichment: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Job %s: %s\n", job.ID, job.Status)
	for _, name := range job.Sources {
		r := job.Results[name]
		state := "ok"
		switch {
		case r.Skipped:
			state = "skipped (fresh)"
		case r.Error != "":
			state = r.Error
		}
		fmt.Fprintf(out, "  %-22s fetched=%d indexed=%d dropped=%d filtered=%d clamped=%d attempts=%d %s\n",
			name, r.Fetched, r.Indexed, r.Dropped, r.Filtered, r.Clamped, r.Attempts, state)
	}
	if job.Status == core.JobFailed {
		return cli.Exit("enrichment failed", 1)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if c.Int("page") < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	req := search.Request{
		Text:     strings.Join(c.Args().Slice(), " "),
		Category: c.String("category"),
		Region:   c.String("region"),
		Page:     c.Int("page") - 1,
		PerPage:  c.Int("limit"),
	}
	var monitor search.SearchMonitor
	if c.Bool("verbose") {
		monitor = &search.LogMonitor{Logger: slog.Default()}
	}
	result, err := engine.Searcher().SearchWithMonitor(c.Context, req, monitor)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if result.Degraded {
		fmt.Fprintf(out, "Warning: %s\n", result.Error)
	}
	fmt.Fprintf(out, "Found %d trends (page %d of %d)\n", result.Total, result.Page+1, max(result.Pages, 1))
	for i, t := range result.Hits {
		fmt.Fprintf(out, "%d: '%s' [%s] (%s) score=%.2f growth=%.1f%% sources=%d\n",
			result.Page*result.PerPage+i+1, t.Name, t.Category, t.ID, t.Scores.Trend, t.Scores.GrowthRate, t.Corroboration())
	}
	return nil
}

func analyzeCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("trend id is required")
	}
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	report, err := engine.Analysis().Analyze(c.Context, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func chatCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	service := engine.Chat()
	session := service.Sessions().Create()
	anchors := c.StringSlice("anchor")

	scanner := bufio.NewScanner(c.App.Reader)
	for scanner.Scan() {
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		resp, err := service.Chat(c.Context, chat.Request{
			SessionID:      session.SessionID,
			Message:        message,
			AnchorTrendIDs: anchors,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "[%s] %s\n", resp.Type, resp.Response)
	}
	return scanner.Err()
}

func sourcesCommand(c *cli.Context) error {
	catalog := sources.DefaultCatalog()
	path := c.String("catalog")
	if path == "" && c.String("config") != "" {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return err
		}
		path = cfg.Enrichment.CatalogPath
	}
	if path != "" {
		var err error
		if catalog, err = sources.LoadCatalog(path); err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	out := c.App.Writer
	for _, s := range catalog.Sources {
		fmt.Fprintf(out, "%-22s %-6s %-9s %s\n", s.Name, s.Kind, s.UpdateFrequency, s.Description)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	cfg := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	r, err := engine.NewReindexer(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	summary, err := r.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "scanned=%d updated=%d invalid=%d\n", summary.Scanned, summary.Updated, summary.Invalid)
	return nil
}
