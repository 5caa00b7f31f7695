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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/dedup"
)

// Config holds all configuration for a trendline process.
// Values come from an optional YAML file; environment variables always
// override YAML values. Secrets must only come from the environment.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	AI         AIConfig         `yaml:"ai"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Chat       ChatConfig       `yaml:"chat"`
	NATS       NATSConfig       `yaml:"nats"`

	// Workers bounds concurrent external calls (fetches, facets, chat).
	Workers int `yaml:"workers" env:"TRENDLINE_WORKERS" env-default:"16"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"PORT" env-default:"8000"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	// CORSOriginsStr is a comma-separated list of allowed origins.
	CORSOriginsStr string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`

	// CORSOrigins is parsed from CORSOriginsStr.
	CORSOrigins []string `yaml:"-"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds BadgerDB settings.
type StorageConfig struct {
	Path     string `yaml:"path" env:"TRENDLINE_DB" env-default:"trendline.db"`
	InMemory bool   `yaml:"in_memory" env:"TRENDLINE_IN_MEMORY" env-default:"false"`
}

// AIConfig holds text generation settings.
type AIConfig struct {
	Host           string        `yaml:"host" env:"AI_HOST" env-default:"http://localhost:11434/v1"`
	Model          string        `yaml:"model" env:"AI_MODEL" env-default:"qwen2.5:3b"`
	APIKey         string        `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	Temperature    float64       `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.7"`
	MaxTokens      int           `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"1000"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"AI_REQUEST_TIMEOUT" env-default:"30s"`
	FacetTimeout   time.Duration `yaml:"facet_timeout" env:"AI_FACET_TIMEOUT" env-default:"45s"`
}

// Options converts the settings into ai.Config options.
func (a AIConfig) Options() []ai.ConfigOption {
	return []ai.ConfigOption{
		ai.WithHost(a.Host),
		ai.WithModel(a.Model),
		ai.WithAPIKey(a.APIKey),
		ai.WithTemperature(a.Temperature),
		ai.WithMaxTokens(a.MaxTokens),
		ai.WithRequestTimeout(a.RequestTimeout),
	}
}

// EnrichmentConfig holds orchestrator settings.
type EnrichmentConfig struct {
	// CatalogPath points at a YAML source catalog. Empty uses the built-in one.
	CatalogPath     string        `yaml:"catalog_path" env:"SOURCE_CATALOG" env-default:""`
	MaxAttempts     int           `yaml:"max_attempts" env:"ENRICH_MAX_ATTEMPTS" env-default:"3"`
	RetryDelay      time.Duration `yaml:"retry_delay" env:"ENRICH_RETRY_DELAY" env-default:"500ms"`
	FreshnessWindow time.Duration `yaml:"freshness_window" env:"ENRICH_FRESHNESS_WINDOW" env-default:"168h"`
}

// DedupConfig selects identity scope and merge precedence.
type DedupConfig struct {
	Scope              string `yaml:"scope" env:"DEDUP_SCOPE" env-default:"global"`
	CategoryPrecedence string `yaml:"category_precedence" env:"DEDUP_CATEGORY_PRECEDENCE" env-default:"latest"`
	// SourceRankStr is a comma-separated list of sources, highest rank first.
	SourceRankStr string `yaml:"source_rank" env:"DEDUP_SOURCE_RANK" env-default:""`
}

// Options converts the settings into dedup options.
func (d DedupConfig) Options() ([]dedup.Option, error) {
	var opts []dedup.Option
	switch strings.ToLower(d.Scope) {
	case "", "global":
		opts = append(opts, dedup.WithScope(dedup.ScopeGlobal))
	case "source":
		opts = append(opts, dedup.WithScope(dedup.ScopeSource))
	default:
		return nil, fmt.Errorf("unknown dedup scope %q", d.Scope)
	}
	switch strings.ToLower(d.CategoryPrecedence) {
	case "", "latest":
		opts = append(opts, dedup.WithCategoryPrecedence(dedup.CategoryLatest))
	case "first":
		opts = append(opts, dedup.WithCategoryPrecedence(dedup.CategoryFirst))
	case "source-rank", "source_rank":
		opts = append(opts, dedup.WithCategoryPrecedence(dedup.CategorySourceRank))
	default:
		return nil, fmt.Errorf("unknown category precedence %q", d.CategoryPrecedence)
	}
	if rank := splitList(d.SourceRankStr); len(rank) > 0 {
		opts = append(opts, dedup.WithSourceRank(rank...))
	}
	return opts, nil
}

// ChatConfig holds session and prompt bounds.
type ChatConfig struct {
	SessionTTL   time.Duration `yaml:"session_ttl" env:"CHAT_SESSION_TTL" env-default:"30m"`
	HistoryLimit int           `yaml:"history_limit" env:"CHAT_HISTORY_LIMIT" env-default:"50"`
	MaxTurns     int           `yaml:"max_turns" env:"CHAT_MAX_TURNS" env-default:"10"`
	CatalogSize  int           `yaml:"catalog_size" env:"CHAT_CATALOG_SIZE" env-default:"5"`
}

// NATSConfig enables job notifications when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url" env:"NATS_URL" env-default:""`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"trendline.jobs"`
}

// Enabled reports whether a NATS server is configured.
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

// Load reads a .env file if present, then the YAML file at path (optional)
// with environment variable overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOriginsStr)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return errors.New("storage path is required unless in_memory is set")
	}
	if c.Enrichment.MaxAttempts <= 0 {
		return errors.New("enrichment max_attempts must be positive")
	}
	if _, err := c.Dedup.Options(); err != nil {
		return err
	}
	return ai.NewConfig(c.AI.Options()...).Validate()
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
