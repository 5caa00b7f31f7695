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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "trendline",
		Usage: "Fashion trend enrichment and AI analysis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:    "host",
						Usage:   "Listen host (overrides config)",
						EnvVars: []string{"HOST"},
					},
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Listen port (overrides config)",
						EnvVars: []string{"PORT"},
					},
					&cli.BoolFlag{
						Name:  "enrich-on-start",
						Usage: "Start an enrichment job for every source at startup",
					},
				),
			},
			{
				Name:   "enrich",
				Usage:  "Fetch sources and merge their trends into the index",
				Action: enrichCommand,
				Flags: append(engineFlags(),
					&cli.StringSliceFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Source to refresh (repeatable, default all)",
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Usage: "Only keep trends in this category (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "region",
						Usage: "Only keep trends observed in this region (repeatable)",
					},
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Refresh sources even when their data is still fresh",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search indexed trends",
				ArgsUsage: "[query words]",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category filter",
					},
					&cli.StringFlag{
						Name:  "region",
						Usage: "Region filter",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number, starting at 1",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Results per page",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Log each search stage",
					},
				),
			},
			{
				Name:      "analyze",
				Usage:     "Produce a comprehensive analysis of one trend",
				ArgsUsage: "<trend id>",
				Action:    analyzeCommand,
				Flags:     engineFlags(),
			},
			{
				Name:   "chat",
				Usage:  "Chat about indexed trends (one message per line)",
				Action: chatCommand,
				Flags: append(engineFlags(),
					&cli.StringSliceFlag{
						Name:  "anchor",
						Usage: "Trend ID to ground the conversation in",
					},
				),
			},
			{
				Name:   "sources",
				Usage:  "List configured sources",
				Action: sourcesCommand,
				Flags: []cli.Flag{
					configFlag(),
					catalogFlag(),
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-apply the current vocabulary and clamping to all stored trends",
				Action: reindexCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of trends to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N trends",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batch writes",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a YAML configuration file",
		EnvVars: []string{"TRENDLINE_CONFIG"},
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "catalog",
		Usage: "Path to a YAML source catalog (overrides config)",
	}
}

// engineFlags are shared by every command that opens the trend store.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		catalogFlag(),
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (overrides config)",
		},
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Keep all data in memory",
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL (overrides config)",
		},
		&cli.StringFlag{
			Name:  "ai-model",
			Usage: "Text generation model name (overrides config)",
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
