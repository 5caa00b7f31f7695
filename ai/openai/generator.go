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

package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/trendline/ai"
	"github.com/poiesic/trendline/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// errEmptyResponse is the cause recorded when the model returns no text.
var errEmptyResponse = errors.New("model returned no content")

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		timeout:     config.RequestTimeout,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Complete sends prompt to the model and returns the first choice.
func (g *Generator) Complete(ctx context.Context, prompt ai.Prompt) (string, error) {
	content, err := buildMessages(prompt)
	if err != nil {
		return "", &core.GenerationError{Kind: core.GenInvalidInput, Cause: err}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := g.client.GenerateContent(ctx, content,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		gerr := classify(ctx, err)
		g.logger.Warn("generation failed", "task", prompt.Task, "kind", gerr.Kind, "err", err)
		return "", gerr
	}

	if len(response.Choices) < 1 || strings.TrimSpace(response.Choices[0].Content) == "" {
		g.logger.Debug("no choices returned from model", "task", prompt.Task)
		return "", &core.GenerationError{Kind: core.GenUnavailable, Cause: errEmptyResponse}
	}

	g.logger.Debug("generated completion", "task", prompt.Task, "elapsed", time.Since(start))
	return strings.TrimSpace(response.Choices[0].Content), nil
}

// classify maps client errors onto the generation error kinds.
func classify(ctx context.Context, err error) *core.GenerationError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &core.GenerationError{Kind: core.GenTimeout, Cause: err}
	}

	mapped := openai.MapError(err)
	switch {
	case llms.IsRateLimitError(mapped), llms.IsQuotaExceededError(mapped):
		return &core.GenerationError{Kind: core.GenRateLimited, Cause: err}
	case llms.IsTimeoutError(mapped), llms.IsCanceledError(mapped):
		return &core.GenerationError{Kind: core.GenTimeout, Cause: err}
	case llms.IsInvalidRequestError(mapped), llms.IsTokenLimitError(mapped), llms.IsContentFilterError(mapped):
		return &core.GenerationError{Kind: core.GenInvalidInput, Cause: err}
	}
	return &core.GenerationError{Kind: core.GenUnavailable, Cause: err}
}
